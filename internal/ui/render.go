package ui

import (
	"strconv"

	"github.com/Mohsinsiddi/w3dapp/internal/erc20"
	"github.com/Mohsinsiddi/w3dapp/internal/session"
)

// ContractPairs lists ContractInfo for KeyValueBlock.
func ContractPairs(c session.ContractInfo) [][2]string {
	dec := session.Placeholder
	if c.Decimals >= 0 {
		dec = strconv.Itoa(c.Decimals)
	}
	return [][2]string{
		{"Address", c.Address},
		{"Name", c.Name},
		{"Symbol", c.Symbol},
		{"Total supply", c.TotalSupply},
		{"Decimals", dec},
	}
}

// BalancePairs lists BalanceInfo for KeyValueBlock. symbol is appended to
// the formatted balance when known.
func BalancePairs(b session.BalanceInfo, symbol string) [][2]string {
	formatted := b.Formatted
	if formatted != session.Placeholder && symbol != "" && symbol != session.Placeholder {
		formatted += " " + symbol
	}
	return [][2]string{
		{"Account", b.Address},
		{"Balance", b.Balance},
		{"Formatted", formatted},
	}
}

// TransferRow is one Transfer event as table cells.
func TransferRow(ev erc20.TransferEvent) Row {
	return Row{
		TruncateAddr(ev.TxHash),
		TruncateAddr(ev.From),
		TruncateAddr(ev.To),
		ev.Amount,
		"#" + strconv.FormatUint(ev.BlockNumber, 10),
	}
}

var transferColumns = []Column{
	{Title: "TX", Width: 12},
	{Title: "FROM", Width: 12},
	{Title: "TO", Width: 12},
	{Title: "AMOUNT", Width: 26},
	{Title: "BLOCK", Width: 10},
}

// TransferTable renders events, newest first, marking row sel.
func TransferTable(events []erc20.TransferEvent, sel int) string {
	t := NewTable(transferColumns)
	for i := len(events) - 1; i >= 0; i-- {
		t.AddRow(TransferRow(events[i]))
	}
	t.SelIdx = sel
	return t.Render()
}
