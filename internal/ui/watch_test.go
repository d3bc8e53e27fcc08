package ui

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Mohsinsiddi/w3dapp/internal/erc20"
	"github.com/Mohsinsiddi/w3dapp/internal/session"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func watchUpdate(t *testing.T, m WatchModel, msg tea.Msg) (WatchModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	wm, ok := next.(WatchModel)
	require.True(t, ok)
	return wm, cmd
}

func fooInfo() session.ContractInfo {
	return session.ContractInfo{Address: testToken, Name: "Foo", Symbol: "FOO", TotalSupply: "1000", Decimals: 2}
}

func TestWatchAppendsTransfers(t *testing.T) {
	ch := make(chan erc20.TransferEvent, 4)
	m := NewWatchModel(fooInfo(), "localhost", ch)
	assert.Contains(t, m.View(), "Waiting for transfers")

	m, cmd := watchUpdate(t, m, transferMsg(erc20.TransferEvent{TxHash: "0x01", Amount: "111", BlockNumber: 1}))
	require.NotNil(t, cmd)
	m, _ = watchUpdate(t, m, transferMsg(erc20.TransferEvent{TxHash: "0x02", Amount: "222", BlockNumber: 2}))

	require.Len(t, m.rows, 2)
	view := m.View()
	assert.Contains(t, view, "2 transfer(s)")
	assert.Contains(t, view, "Foo (FOO)")
	assert.Contains(t, view, "localhost")

	ch <- erc20.TransferEvent{TxHash: "0x03"}
	msg := cmd()
	assert.Equal(t, transferMsg(erc20.TransferEvent{TxHash: "0x03"}), msg)
}

func TestWatchCursor(t *testing.T) {
	m := NewWatchModel(fooInfo(), "", nil)
	for i := uint64(1); i <= 3; i++ {
		m, _ = watchUpdate(t, m, transferMsg(erc20.TransferEvent{TxHash: fmt.Sprintf("0x%02x", i), BlockNumber: i}))
	}

	ev, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, uint64(3), ev.BlockNumber)

	m, _ = watchUpdate(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = watchUpdate(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = watchUpdate(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.cursor)
	ev, _ = m.selected()
	assert.Equal(t, uint64(1), ev.BlockNumber)

	m, _ = watchUpdate(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.cursor)
}

func TestWatchOpenWithoutExplorer(t *testing.T) {
	m := NewWatchModel(fooInfo(), "", nil)
	m, _ = watchUpdate(t, m, runes("o"))
	assert.Equal(t, "Nothing selected", m.flash)

	m, _ = watchUpdate(t, m, transferMsg(erc20.TransferEvent{TxHash: "0x01"}))
	m.TxURL = func(string) string { return "" }
	m, _ = watchUpdate(t, m, runes("o"))
	assert.Equal(t, "No explorer for this network", m.flash)
	assert.Contains(t, m.View(), "No explorer")
}

func TestWatchStatusAndClose(t *testing.T) {
	m := NewWatchModel(fooInfo(), "", nil)
	m.Status = func() error { return errors.New("subscription dropped") }

	m, cmd := watchUpdate(t, m, spinTickMsg{})
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "subscription dropped")

	m.Status = nil
	m.err = nil
	m, _ = watchUpdate(t, m, feedClosedMsg{})
	assert.Contains(t, m.View(), "stream closed")

	closed := make(chan erc20.TransferEvent)
	close(closed)
	assert.Equal(t, feedClosedMsg{}, waitForTransfer(closed)())
}

func TestWatchQuit(t *testing.T) {
	m := NewWatchModel(fooInfo(), "", nil)
	m, cmd := watchUpdate(t, m, runes("q"))
	assert.NotNil(t, cmd)
	assert.Empty(t, m.View())
}
