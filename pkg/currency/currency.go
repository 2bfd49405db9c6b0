// Package currency provides ERC20 token amount handling.
// Amounts are kept as raw on-chain integers and only shifted by the token's
// decimals when rendered.
package currency

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/nftpawnshop/backend/pkg/fixedpoint"
)

// Token identifies an ERC20 loan asset.
type Token struct {
	Symbol   string
	Decimals int
}

// Amount is a raw token quantity.
type Amount struct {
	Value *uint256.Int
	Token Token
}

// NewAmount creates an Amount. A nil value is treated as zero.
func NewAmount(value *uint256.Int, token Token) Amount {
	if value == nil {
		value = new(uint256.Int)
	}
	return Amount{Value: value, Token: token}
}

// Add returns the sum of two amounts.
// Returns an error if the tokens don't match or the sum overflows.
func (a Amount) Add(other Amount) (Amount, error) {
	if a.Token != other.Token {
		return Amount{}, fmt.Errorf("token mismatch: %s vs %s", a.Token.Symbol, other.Token.Symbol)
	}
	sum, overflow := new(uint256.Int).AddOverflow(a.Value, other.Value)
	if overflow {
		return Amount{}, fmt.Errorf("%w: %s + %s %s", fixedpoint.ErrOverflow, a.Value.Dec(), other.Value.Dec(), a.Token.Symbol)
	}
	return NewAmount(sum, a.Token), nil
}

// Nominal returns the decimal-shifted amount without the symbol.
func (a Amount) Nominal() string {
	return fixedpoint.FormatUnits(a.Value, a.Token.Decimals)
}

// Format returns the amount followed by the token symbol, e.g. "8192.0 DAI".
func (a Amount) Format() string {
	return fmt.Sprintf("%s %s", a.Nominal(), a.Token.Symbol)
}

func (a Amount) String() string {
	return a.Format()
}
