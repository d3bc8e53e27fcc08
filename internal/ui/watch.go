package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Mohsinsiddi/w3dapp/internal/erc20"
	"github.com/Mohsinsiddi/w3dapp/internal/session"
	tea "github.com/charmbracelet/bubbletea"
)

const maxWatchRows = 500

// transferMsg carries one event from the session feed.
type transferMsg erc20.TransferEvent

// feedClosedMsg is sent when the event channel is closed.
type feedClosedMsg struct{}

type spinTickMsg struct{}

func spinTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg { return spinTickMsg{} })
}

// waitForTransfer blocks on ch for the next event.
func waitForTransfer(ch <-chan erc20.TransferEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return feedClosedMsg{}
		}
		return transferMsg(ev)
	}
}

// WatchModel is the live Transfer table for one token.
type WatchModel struct {
	Token  session.ContractInfo
	Chain  string
	TxURL  func(hash string) string
	Status func() error

	events   <-chan erc20.TransferEvent
	rows     []erc20.TransferEvent
	cursor   int
	frame    int
	flash    string
	err      error
	closed   bool
	quitting bool
}

// NewWatchModel builds a model reading from events.
func NewWatchModel(token session.ContractInfo, chain string, events <-chan erc20.TransferEvent) WatchModel {
	return WatchModel{Token: token, Chain: chain, events: events}
}

func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(spinTick(), waitForTransfer(m.events))
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.flash = ""
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case "o":
			m.flash = m.openSelected()
		case "c":
			m.flash = m.copySelected()
		}

	case spinTickMsg:
		m.frame = (m.frame + 1) % len(spinFrames)
		if m.Status != nil {
			m.err = m.Status()
		}
		return m, spinTick()

	case transferMsg:
		m.rows = append(m.rows, erc20.TransferEvent(msg))
		if len(m.rows) > maxWatchRows {
			m.rows = m.rows[len(m.rows)-maxWatchRows:]
		}
		// Keep the cursor on the same event as the list grows at the top.
		if m.cursor > 0 && m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		return m, waitForTransfer(m.events)

	case feedClosedMsg:
		m.closed = true
	}
	return m, nil
}

// selected returns the event under the cursor; rows render newest first.
func (m WatchModel) selected() (erc20.TransferEvent, bool) {
	if len(m.rows) == 0 {
		return erc20.TransferEvent{}, false
	}
	return m.rows[len(m.rows)-1-m.cursor], true
}

func (m WatchModel) openSelected() string {
	ev, ok := m.selected()
	if !ok {
		return "Nothing selected"
	}
	if m.TxURL == nil || m.TxURL(ev.TxHash) == "" {
		return "No explorer for this network"
	}
	if err := openBrowser(m.TxURL(ev.TxHash)); err != nil {
		return "Open failed: " + err.Error()
	}
	return "Opening in browser…"
}

func (m WatchModel) copySelected() string {
	ev, ok := m.selected()
	if !ok {
		return "Nothing selected"
	}
	if err := copyToClipboard(ev.TxHash); err != nil {
		return "Copy failed"
	}
	return "Copied: " + TruncateAddr(ev.TxHash)
}

func (m WatchModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	title := fmt.Sprintf("Transfers  ·  %s (%s)  ·  %s", m.Token.Name, m.Token.Symbol, TruncateAddr(m.Token.Address))
	if m.Chain != "" {
		title += "  ·  " + m.Chain
	}
	sb.WriteString(StyleTitle.Render(title) + "\n")

	switch {
	case m.err != nil:
		sb.WriteString(Err(m.err.Error()) + "\n\n")
	case m.closed:
		sb.WriteString(Meta("  stream closed") + "\n\n")
	default:
		sb.WriteString(StyleInfo.Render(spinFrames[m.frame]+" listening for Transfer events") + "\n\n")
	}

	if len(m.rows) == 0 {
		sb.WriteString(Meta("  Waiting for transfers…") + "\n")
	} else {
		sb.WriteString(TransferTable(m.rows, m.cursor))
		sb.WriteString(Meta(fmt.Sprintf("  %d transfer(s)", len(m.rows))) + "\n")
	}

	sb.WriteString("\n")
	if m.flash != "" {
		sb.WriteString(StyleSuccess.Render("  " + m.flash))
	} else {
		sb.WriteString(Meta("[↑↓] navigate   [o] open in explorer   [c] copy hash   [q] quit"))
	}
	return sb.String() + "\n"
}

// RunWatch shows the live Transfer table for the session's bound token
// until the user quits or ctx ends.
func RunWatch(ctx context.Context, sess *session.Session, chain string, txURL func(string) string) error {
	ch := make(chan erc20.TransferEvent, 64)
	sub := sess.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	m := NewWatchModel(sess.Snapshot().Contract, chain, ch)
	m.TxURL = txURL
	m.Status = func() error { return sess.Snapshot().Err }

	_, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	return err
}
