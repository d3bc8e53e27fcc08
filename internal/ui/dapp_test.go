package ui

import (
	"context"
	"math/big"
	"testing"

	"github.com/Mohsinsiddi/w3dapp/internal/erc20/erc20test"
	"github.com/Mohsinsiddi/w3dapp/internal/provider"
	"github.com/Mohsinsiddi/w3dapp/internal/session"
	"github.com/Mohsinsiddi/w3dapp/internal/wallet"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testToken = "0x00000000000000000000000000000000000000aa"
	testKey   = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddr  = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func testSession(t *testing.T, approver provider.Approver) *session.Session {
	t.Helper()
	b := erc20test.NewBackend()
	b.Deploy(testToken, &erc20test.Token{
		Name: "Foo", Symbol: "FOO", Decimals: 2, Supply: big.NewInt(1000),
		Balances: map[common.Address]*big.Int{common.HexToAddress(testAddr): big.NewInt(12345)},
	})

	m := wallet.NewManager(wallet.WithInMemoryStore())
	_, err := m.AddWithKey("deployer", testKey)
	require.NoError(t, err)

	s := session.New(provider.New(b, provider.WithWallets(m, ""), provider.WithApprover(approver)))
	t.Cleanup(s.Close)
	return s
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func press(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func update(t *testing.T, m DappModel, msg tea.Msg) (DappModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	dm, ok := next.(DappModel)
	require.True(t, ok)
	return dm, cmd
}

func TestDappEditsFields(t *testing.T) {
	m := NewDappModel(context.Background(), testSession(t, provider.AutoApprove), nil, nil)

	m, _ = update(t, m, runes("0xab"))
	m, _ = update(t, m, press(tea.KeyBackspace))
	assert.Equal(t, "0xa", m.inputs[fieldContract])

	m, _ = update(t, m, press(tea.KeyTab))
	m, _ = update(t, m, runes("bob"))
	m, _ = update(t, m, press(tea.KeyTab))
	m, _ = update(t, m, runes("1.5"))
	assert.Equal(t, "bob", m.inputs[fieldRecipient])
	assert.Equal(t, "1.5", m.inputs[fieldAmount])

	m, _ = update(t, m, press(tea.KeyTab))
	assert.Equal(t, fieldContract, m.focus)
	m, _ = update(t, m, press(tea.KeyShiftTab))
	assert.Equal(t, fieldAmount, m.focus)

	assert.True(t, m.units)
	m, _ = update(t, m, press(tea.KeyCtrlU))
	assert.False(t, m.units)
	assert.Contains(t, m.View(), "base units")
}

func TestDappBindsOnEnter(t *testing.T) {
	m := NewDappModel(context.Background(), testSession(t, provider.AutoApprove), nil, nil)
	assert.Contains(t, m.View(), session.Placeholder)

	m, _ = update(t, m, runes(testToken))
	m, cmd := update(t, m, press(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.Equal(t, actionBind, m.busy)

	// A second action waits for the first.
	_, again := update(t, m, press(tea.KeyCtrlB))
	assert.Nil(t, again)

	m, _ = update(t, m, cmd())
	assert.Empty(t, m.busy)
	assert.Equal(t, "Foo", m.snap.Contract.Name)

	view := m.View()
	assert.Contains(t, view, "Foo")
	assert.Contains(t, view, "FOO")
	assert.Contains(t, view, "Bound Foo (FOO)")
}

func TestDappShowsBindError(t *testing.T) {
	m := NewDappModel(context.Background(), testSession(t, provider.AutoApprove), nil, nil)

	m, _ = update(t, m, runes("not-an-address"))
	m, cmd := update(t, m, press(tea.KeyEnter))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	require.Error(t, m.snap.Err)
	assert.Contains(t, m.View(), m.snap.Err.Error())
}

func TestDappApprovalPrompt(t *testing.T) {
	q := provider.NewQueue()
	m := NewDappModel(context.Background(), testSession(t, q), q, nil)

	m, cmd := update(t, m, runes(testToken))
	assert.Nil(t, cmd)
	m, cmd = update(t, m, press(tea.KeyEnter))
	m, _ = update(t, m, cmd())

	m, cmd = update(t, m, press(tea.KeyCtrlB))
	require.NotNil(t, cmd)
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	m, _ = update(t, m, waitForApproval(q)())
	require.NotNil(t, m.pending)
	assert.Contains(t, m.View(), "read token balance")

	// Other keys leave the prompt open.
	m, _ = update(t, m, runes("x"))
	require.NotNil(t, m.pending)

	m, next := update(t, m, runes("y"))
	assert.Nil(t, m.pending)
	assert.NotNil(t, next)

	m, _ = update(t, m, <-done)
	assert.Equal(t, "12345", m.snap.Balance.Balance)
	assert.Contains(t, m.View(), "123.45 FOO")
}

func TestDappApprovalDenied(t *testing.T) {
	q := provider.NewQueue()
	m := NewDappModel(context.Background(), testSession(t, q), q, nil)

	m, _ = update(t, m, runes(testToken))
	m, cmd := update(t, m, press(tea.KeyEnter))
	m, _ = update(t, m, cmd())

	m, cmd = update(t, m, press(tea.KeyCtrlB))
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	m, _ = update(t, m, waitForApproval(q)())
	m, _ = update(t, m, press(tea.KeyEsc))
	assert.False(t, m.quit)

	m, _ = update(t, m, <-done)
	assert.ErrorIs(t, m.snap.Err, provider.ErrAccessDenied)
}

func TestDappQuit(t *testing.T) {
	m := NewDappModel(context.Background(), testSession(t, provider.AutoApprove), nil, nil)
	m, cmd := update(t, m, press(tea.KeyEsc))
	assert.True(t, m.quit)
	assert.NotNil(t, cmd)
	assert.Empty(t, m.View())
}
