// Package fixedpoint mirrors the loan facilitator contract's interest math.
// Every on-chain quantity is an unsigned 256-bit integer and every division
// truncates, in the same order the contract performs it.
package fixedpoint

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

const (
	// InterestRateDecimals is the number of decimals in a per-second rate.
	InterestRateDecimals = 18

	// SecondsInYear is the year length the contract uses to annualize rates.
	SecondsInYear = 31_536_000

	annualRateDisplayPlaces = 4
)

// Scalar is the fixed-point denominator for per-second interest rates.
var Scalar = uint256.MustFromDecimal("1000000000000000000")

// ErrOverflow is returned when an intermediate product or sum does not fit in
// 256 bits.
var ErrOverflow = errors.New("fixedpoint: uint256 overflow")

func mul(x, y *uint256.Int) (*uint256.Int, error) {
	v, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, fmt.Errorf("%w: %s * %s", ErrOverflow, x.Dec(), y.Dec())
	}
	return v, nil
}

func add(x, y *uint256.Int) (*uint256.Int, error) {
	v, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, fmt.Errorf("%w: %s + %s", ErrOverflow, x.Dec(), y.Dec())
	}
	return v, nil
}

// Accrue computes principal*elapsed*rate/scalar + prior.
// The products are formed before the single truncating division; callers
// guarantee elapsed is not negative.
func Accrue(principal *uint256.Int, elapsed uint64, rate, prior, scalar *uint256.Int) (*uint256.Int, error) {
	v, err := mul(principal, uint256.NewInt(elapsed))
	if err != nil {
		return nil, err
	}
	if v, err = mul(v, rate); err != nil {
		return nil, err
	}
	v.Div(v, scalar)
	return add(v, prior)
}

// InterestOwed returns the interest owed at now for a loan that last
// accumulated at lastAccumulated. A zero lastAccumulated means the loan was
// never funded and nothing is owed.
func InterestOwed(now, lastAccumulated int64, principal, rate, accumulated *uint256.Int) (*uint256.Int, error) {
	if lastAccumulated == 0 {
		return new(uint256.Int), nil
	}
	return Accrue(principal, uint64(now-lastAccumulated), rate, accumulated, Scalar)
}

// InterestOverDuration is rate*duration*principal/Scalar.
func InterestOverDuration(rate *uint256.Int, duration uint64, principal *uint256.Int) (*uint256.Int, error) {
	v, err := mul(rate, uint256.NewInt(duration))
	if err != nil {
		return nil, err
	}
	if v, err = mul(v, principal); err != nil {
		return nil, err
	}
	return v.Div(v, Scalar), nil
}

// EstimatedRepayment is the amount due at maturity if nothing changes:
// accumulated + interest over the full duration + principal.
func EstimatedRepayment(rate *uint256.Int, duration uint64, principal, accumulated *uint256.Int) (*uint256.Int, error) {
	v, err := InterestOverDuration(rate, duration, principal)
	if err != nil {
		return nil, err
	}
	if v, err = add(v, accumulated); err != nil {
		return nil, err
	}
	return add(v, principal)
}

// Parse reads a base-10 on-chain integer.
func Parse(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("parse uint256 %q: %w", s, err)
	}
	return v, nil
}

// FormatUnits shifts raw by decimals places. Trailing zeros are trimmed but
// at least one fractional digit is kept, so 8000e18 at 18 decimals is "8000.0".
func FormatUnits(raw *uint256.Int, decimals int) string {
	s := decimal.NewFromBigInt(raw.ToBig(), -int32(decimals)).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FormattedAnnualRate converts a per-second rate into an annual percentage
// with four decimal places, e.g. "6.3072".
func FormattedAnnualRate(perSecondRate *uint256.Int) string {
	return decimal.NewFromBigInt(perSecondRate.ToBig(), -InterestRateDecimals).
		Mul(decimal.NewFromInt(SecondsInYear * 100)).
		Truncate(annualRateDisplayPlaces).
		StringFixed(annualRateDisplayPlaces)
}
