package session

import (
	"slices"
	"time"

	"github.com/Mohsinsiddi/w3dapp/internal/erc20"
)

// Placeholder is shown for fields that have not been fetched yet.
const Placeholder = "-"

// ContractInfo is the metadata of the bound token. It is only ever replaced
// whole.
type ContractInfo struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	TotalSupply string `json:"total_supply"`
	// Decimals is -1 when the token does not expose decimals().
	Decimals int `json:"decimals"`
}

// Bound reports whether the info describes a fetched contract.
func (c ContractInfo) Bound() bool {
	return c.Address != Placeholder && c.Address != ""
}

// EmptyContractInfo is the value before any successful bind.
func EmptyContractInfo() ContractInfo {
	return ContractInfo{
		Address:     Placeholder,
		Name:        Placeholder,
		Symbol:      Placeholder,
		TotalSupply: Placeholder,
		Decimals:    -1,
	}
}

// BalanceInfo is the result of the last balance query.
type BalanceInfo struct {
	Token   string `json:"token"`
	Address string `json:"address"`
	Balance string `json:"balance"`
	// Formatted is Balance scaled by the token's decimals, or Placeholder.
	Formatted string `json:"formatted"`
}

// EmptyBalanceInfo is the value before any successful balance query.
func EmptyBalanceInfo() BalanceInfo {
	return BalanceInfo{
		Token:     Placeholder,
		Address:   Placeholder,
		Balance:   Placeholder,
		Formatted: Placeholder,
	}
}

// Submission is a transfer this session sent.
type Submission struct {
	Hash      string    `json:"hash"`
	Token     string    `json:"token"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    string    `json:"amount"`
	Submitted time.Time `json:"submitted"`
}

// State is everything the dapp page shows. Updates go through the With*
// functions, which return a new value and leave the receiver untouched.
type State struct {
	Contract  ContractInfo
	Balance   BalanceInfo
	Transfers []erc20.TransferEvent
	Submitted []Submission
	Err       error
}

// NewState returns the initial state.
func NewState() State {
	return State{
		Contract: EmptyContractInfo(),
		Balance:  EmptyBalanceInfo(),
	}
}

func (s State) WithContract(c ContractInfo) State {
	s.Contract = c
	return s
}

func (s State) WithBalance(b BalanceInfo) State {
	s.Balance = b
	return s
}

// WithTransfer appends ev to the transfer log.
func (s State) WithTransfer(ev erc20.TransferEvent) State {
	s.Transfers = append(slices.Clip(s.Transfers), ev)
	return s
}

func (s State) WithSubmitted(sub Submission) State {
	s.Submitted = append(slices.Clip(s.Submitted), sub)
	return s
}

// WithError records err; nil clears it.
func (s State) WithError(err error) State {
	s.Err = err
	return s
}

// clone deep-copies the slices so callers cannot alias session memory.
func (s State) clone() State {
	s.Transfers = slices.Clone(s.Transfers)
	s.Submitted = slices.Clone(s.Submitted)
	return s
}
