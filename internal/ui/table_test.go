package ui

import (
	"strings"
	"testing"

	"github.com/Mohsinsiddi/w3dapp/internal/erc20"
	"github.com/Mohsinsiddi/w3dapp/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyValueBlockKeepsOrder(t *testing.T) {
	result := KeyValueBlock("Config", [][2]string{
		{"First", "AAA"},
		{"Second", "BBB"},
		{"Third", "CCC"},
	})
	assert.Contains(t, result, "Config")
	first := strings.Index(result, "AAA")
	second := strings.Index(result, "BBB")
	third := strings.Index(result, "CCC")
	require.Greater(t, first, -1)
	assert.Less(t, first, second)
	assert.Less(t, second, third)
	assert.Contains(t, result, "╭")
}

func TestKeyValueBlockNoPairs(t *testing.T) {
	assert.Contains(t, KeyValueBlock("Empty", nil), "Empty")
}

func TestTableRender(t *testing.T) {
	tbl := NewTable([]Column{
		{Title: "Chain", Width: 10},
		{Title: "Status", Width: 10},
	})
	assert.Equal(t, -1, tbl.SelIdx)
	tbl.AddRow(Row{"ethereum", "healthy"})
	tbl.AddRow(Row{"base"})

	result := tbl.Render()
	assert.Contains(t, result, "Chain")
	assert.Contains(t, result, "ethereum")
	assert.Contains(t, result, "healthy")
	assert.Contains(t, result, "base")
	assert.Contains(t, result, "──────────")
	assert.Len(t, strings.Split(strings.TrimRight(result, "\n"), "\n"), 4)
}

func TestFit(t *testing.T) {
	assert.Equal(t, "abc  ", fit("abc", 5))
	assert.Equal(t, "abcd…", fit("abcdefgh", 5))
	assert.Equal(t, "a", fit("abc", 1))
	assert.Equal(t, "héllo", fit("héllo", 5))
}

func TestContractPairs(t *testing.T) {
	pairs := ContractPairs(session.EmptyContractInfo())
	require.Len(t, pairs, 5)
	for _, p := range pairs {
		assert.Equal(t, session.Placeholder, p[1], p[0])
	}

	pairs = ContractPairs(session.ContractInfo{Address: "0xaa", Name: "Foo", Symbol: "FOO", TotalSupply: "1000", Decimals: 18})
	assert.Equal(t, [2]string{"Name", "Foo"}, pairs[1])
	assert.Equal(t, [2]string{"Decimals", "18"}, pairs[4])
}

func TestBalancePairs(t *testing.T) {
	b := session.BalanceInfo{Address: "0x01", Balance: "12345", Formatted: "123.45"}
	assert.Equal(t, [2]string{"Formatted", "123.45 FOO"}, BalancePairs(b, "FOO")[2])
	assert.Equal(t, [2]string{"Formatted", "123.45"}, BalancePairs(b, session.Placeholder)[2])
	assert.Equal(t, [2]string{"Formatted", session.Placeholder}, BalancePairs(session.EmptyBalanceInfo(), "FOO")[2])
}

func TestTransferTableNewestFirst(t *testing.T) {
	out := TransferTable([]erc20.TransferEvent{
		{TxHash: "0xaaaaaaaaaaaaaaaa", Amount: "111", BlockNumber: 1},
		{TxHash: "0xbbbbbbbbbbbbbbbb", Amount: "222", BlockNumber: 2},
	}, -1)
	assert.Less(t, strings.Index(out, "222"), strings.Index(out, "111"))
	assert.Contains(t, out, "#2")
}
