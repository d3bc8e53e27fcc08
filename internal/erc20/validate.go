package erc20

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ErrInvalidInput is returned for malformed addresses and amounts. It is
// raised before anything is sent to the node.
var ErrInvalidInput = errors.New("invalid input")

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// maxUint256Digits is the number of decimal digits in maxUint256.
const maxUint256Digits = 78

// ParseAddress parses a 20-byte hex address.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q is not a hex address", ErrInvalidInput, s)
	}
	return common.HexToAddress(s), nil
}

// ParseRecipient is ParseAddress that also rejects the zero address, which
// burns tokens on most implementations and reverts on the rest.
func ParseRecipient(s string) (common.Address, error) {
	addr, err := ParseAddress(s)
	if err != nil {
		return common.Address{}, err
	}
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: recipient is the zero address", ErrInvalidInput)
	}
	return addr, nil
}

// ParseAmount parses a non-negative base-10 integer amount in base units.
func ParseAmount(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("%w: amount %q is not a base-10 integer", ErrInvalidInput, s)
	}
	return checkUint256(n)
}

// ParseUnits scales a decimal amount such as "1.5" by 10^decimals.
func ParseUnits(s string, decimals int) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q is not a decimal number", ErrInvalidInput, s)
	}
	if d.IsZero() {
		return new(big.Int), nil
	}
	// Bound the exponent before scaling: the library materialises every digit
	// of 10^exp, so "1e900000000" would otherwise never return.
	digits := int64(len(new(big.Int).Abs(d.Coefficient()).String()))
	exp := int64(d.Exponent()) + int64(decimals)
	if exp < -digits {
		return nil, fmt.Errorf("%w: amount %q has more than %d decimal places", ErrInvalidInput, s, decimals)
	}
	if digits+exp > maxUint256Digits {
		return nil, fmt.Errorf("%w: amount overflows uint256", ErrInvalidInput)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("%w: amount %q has more than %d decimal places", ErrInvalidInput, s, decimals)
	}
	return checkUint256(scaled.BigInt())
}

// FormatUnits renders a base-unit amount as a decimal string.
func FormatUnits(raw *big.Int, decimals int) string {
	if raw == nil {
		return "0"
	}
	return decimal.NewFromBigInt(raw, int32(-decimals)).String()
}

func checkUint256(n *big.Int) (*big.Int, error) {
	if n.Sign() < 0 {
		return nil, fmt.Errorf("%w: amount is negative", ErrInvalidInput)
	}
	if n.Cmp(maxUint256) > 0 {
		return nil, fmt.Errorf("%w: amount overflows uint256", ErrInvalidInput)
	}
	return n, nil
}
