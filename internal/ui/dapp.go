package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3dapp/internal/erc20"
	"github.com/Mohsinsiddi/w3dapp/internal/provider"
	"github.com/Mohsinsiddi/w3dapp/internal/session"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Form fields, in tab order.
const (
	fieldContract = iota
	fieldRecipient
	fieldAmount
	fieldCount
)

var fieldLabels = [fieldCount]string{"Contract address", "Recipient", "Amount"}

const recentRows = 8

// Actions the page runs in the background.
const (
	actionBind     = "bind"
	actionBalance  = "balance"
	actionTransfer = "transfer"
)

// actionDoneMsg reports the end of a background action.
type actionDoneMsg struct {
	action string
	note   string
	err    error
}

// approvalMsg carries an account access request to the page.
type approvalMsg struct{ req *provider.Pending }

func waitForApproval(q *provider.Queue) tea.Cmd {
	if q == nil {
		return nil
	}
	return func() tea.Msg { return approvalMsg{<-q.Requests()} }
}

// DappModel is the interactive token page: bind a contract, read the
// account's balance, send transfers, and follow Transfer events.
type DappModel struct {
	ctx       context.Context
	sess      *session.Session
	approvals *provider.Queue
	events    <-chan erc20.TransferEvent

	Chain string
	TxURL func(hash string) string

	inputs  [fieldCount]string
	focus   int
	units   bool
	busy    string
	pending *provider.Pending
	note    string
	snap    session.State
	frame   int
	quit    bool
}

// NewDappModel builds the page. approvals may be nil when access is granted
// without asking.
func NewDappModel(ctx context.Context, sess *session.Session, approvals *provider.Queue, events <-chan erc20.TransferEvent) DappModel {
	return DappModel{
		ctx:       ctx,
		sess:      sess,
		approvals: approvals,
		events:    events,
		units:     true,
		snap:      sess.Snapshot(),
	}
}

func (m DappModel) Init() tea.Cmd {
	return tea.Batch(spinTick(), waitForTransfer(m.events), waitForApproval(m.approvals))
}

func (m DappModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.pending != nil {
			return m.answer(msg)
		}
		return m.key(msg)

	case approvalMsg:
		m.pending = msg.req
		return m, nil

	case actionDoneMsg:
		m.busy = ""
		m.snap = m.sess.Snapshot()
		switch {
		case errors.Is(msg.err, session.ErrSuperseded):
		case msg.err != nil:
			m.note = ""
		default:
			m.note = msg.note
		}
		return m, nil

	case transferMsg:
		m.snap = m.sess.Snapshot()
		return m, waitForTransfer(m.events)

	case spinTickMsg:
		m.frame = (m.frame + 1) % len(spinFrames)
		m.snap = m.sess.Snapshot()
		return m, spinTick()
	}
	return m, nil
}

// answer resolves the pending approval prompt and waits for the next one.
func (m DappModel) answer(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "y", "Y":
		m.pending.Answer(true)
	case "n", "N", "esc", "ctrl+c":
		m.pending.Answer(false)
	default:
		return m, nil
	}
	m.pending = nil
	return m, waitForApproval(m.approvals)
}

func (m DappModel) key(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.quit = true
		return m, tea.Quit
	case tea.KeyTab, tea.KeyDown:
		m.focus = (m.focus + 1) % fieldCount
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		m.focus = (m.focus + fieldCount - 1) % fieldCount
		return m, nil
	case tea.KeyBackspace:
		if s := []rune(m.inputs[m.focus]); len(s) > 0 {
			m.inputs[m.focus] = string(s[:len(s)-1])
		}
		return m, nil
	case tea.KeyCtrlB:
		return m.start(actionBalance)
	case tea.KeyCtrlU:
		m.units = !m.units
		return m, nil
	case tea.KeyEnter:
		if m.focus == fieldContract {
			return m.start(actionBind)
		}
		return m.start(actionTransfer)
	case tea.KeyRunes, tea.KeySpace:
		m.inputs[m.focus] += string(k.Runes)
		return m, nil
	}
	return m, nil
}

// start launches action unless another one is still running.
func (m DappModel) start(action string) (tea.Model, tea.Cmd) {
	if m.busy != "" {
		return m, nil
	}
	m.busy = action
	m.note = ""

	ctx, sess := m.ctx, m.sess
	address := strings.TrimSpace(m.inputs[fieldContract])
	to := strings.TrimSpace(m.inputs[fieldRecipient])
	amount := strings.TrimSpace(m.inputs[fieldAmount])
	units := m.units

	return m, func() tea.Msg {
		switch action {
		case actionBind:
			info, err := sess.BindContract(ctx, address)
			return actionDoneMsg{action, fmt.Sprintf("Bound %s (%s)", info.Name, info.Symbol), err}
		case actionBalance:
			b, err := sess.GetBalance(ctx)
			return actionDoneMsg{action, "Balance: " + b.Balance, err}
		default:
			transfer := sess.Transfer
			if units {
				transfer = sess.TransferUnits
			}
			hash, err := transfer(ctx, to, amount)
			return actionDoneMsg{action, "Submitted " + hash.Hex(), err}
		}
	}
}

func (m DappModel) View() string {
	if m.quit {
		return ""
	}

	var sb strings.Builder
	title := "w3dapp  ·  ERC-20"
	if m.Chain != "" {
		title += "  ·  " + m.Chain
	}
	sb.WriteString(StyleTitle.Render(title) + "\n")

	sb.WriteString(m.field(fieldContract) + "\n")
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		KeyValueBlock("Token", ContractPairs(m.snap.Contract)), " ",
		KeyValueBlock("My balance", BalancePairs(m.snap.Balance, m.snap.Contract.Symbol)),
	) + "\n")

	unit := "base units"
	if m.units {
		unit = "tokens"
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.field(fieldRecipient), " ", m.field(fieldAmount)))
	sb.WriteString("  " + Meta(unit) + "\n")

	sb.WriteString(m.statusLine() + "\n\n")

	sb.WriteString(StyleChain.Render("Recent transactions") + "\n")
	sb.WriteString(m.recentSubmitted())
	sb.WriteString("\n" + StyleChain.Render("Transfer events") + "\n")
	events := m.snap.Transfers
	if len(events) > recentRows {
		events = events[len(events)-recentRows:]
	}
	if len(events) == 0 {
		sb.WriteString(Meta("  none yet") + "\n")
	} else {
		sb.WriteString(TransferTable(events, -1))
	}

	sb.WriteString("\n" + Meta("[tab] next field   [enter] bind / send   [ctrl+b] my balance   [ctrl+u] units   [esc] quit"))
	return sb.String() + "\n"
}

func (m DappModel) field(i int) string {
	style := StyleBorder
	cursor := ""
	if m.focus == i {
		style = StyleFocused
		cursor = "▏"
	}
	width := 44
	if i == fieldAmount {
		width = 20
	}
	return style.Width(width).Render(Meta(fieldLabels[i]) + "\n" + m.inputs[i] + cursor)
}

func (m DappModel) statusLine() string {
	switch {
	case m.pending != nil:
		return Warn(fmt.Sprintf("Allow %q to use %s (%s)? [y/n]", m.pending.Purpose, m.pending.Wallet, TruncateAddr(m.pending.Address)))
	case m.busy != "":
		return StyleInfo.Render(spinFrames[m.frame] + " " + m.busy + "…")
	case m.snap.Err != nil:
		return Err(m.snap.Err.Error())
	case m.note != "":
		return Success(m.note)
	}
	return ""
}

func (m DappModel) recentSubmitted() string {
	subs := m.snap.Submitted
	if len(subs) == 0 {
		return Meta("  none yet") + "\n"
	}
	if len(subs) > recentRows {
		subs = subs[len(subs)-recentRows:]
	}
	var sb strings.Builder
	for i := len(subs) - 1; i >= 0; i-- {
		s := subs[i]
		line := fmt.Sprintf("  %s  → %s  %s", Addr(TruncateAddr(s.Hash)), Addr(TruncateAddr(s.To)), Val(s.Amount))
		if m.TxURL != nil {
			if url := m.TxURL(s.Hash); url != "" {
				line += "  " + Meta(url)
			}
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

// RunDapp runs the interactive page until the user quits or ctx ends.
func RunDapp(ctx context.Context, sess *session.Session, approvals *provider.Queue, chain string, txURL func(string) string) error {
	ch := make(chan erc20.TransferEvent, 64)
	sub := sess.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	m := NewDappModel(ctx, sess, approvals, ch)
	m.Chain = chain
	m.TxURL = txURL

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
