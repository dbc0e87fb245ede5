package transfer

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// NanosPerUnit is the number of indivisible nano-units in one currency unit.
const NanosPerUnit = 1_000_000_000

// MaxMoney is the largest representable amount. Amounts are persisted
// in signed 64-bit database columns, so the top bit stays clear.
const MaxMoney Money = 1<<63 - 1

// Money is a non-negative amount in nano-units. The unsigned representation
// together with checked arithmetic keeps every committed balance at or
// above zero.
type Money uint64

// Add returns m + o, failing instead of wrapping.
func (m Money) Add(o Money) (Money, error) {
	sum := m + o
	if sum < m {
		return 0, ErrAmountOverflow
	}
	return sum, nil
}

// Sub returns m - o, failing if o exceeds m.
func (m Money) Sub(o Money) (Money, error) {
	if o > m {
		return 0, ErrInsufficientBalance
	}
	return m - o, nil
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m == 0 }

// String renders the amount in whole currency units, e.g. "1.5".
func (m Money) String() string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(m)), -9).String()
}

// ParseMoney converts a decimal unit string such as "1.5" or "0.000000001"
// into nano-units. Negative values and precision beyond nine decimal
// places are rejected.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse money %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, ErrInvalidAmount
	}
	nanos := d.Shift(9)
	if !nanos.IsInteger() {
		return 0, fmt.Errorf("parse money %q: more than 9 decimal places", s)
	}
	if nanos.BigInt().BitLen() > 63 {
		return 0, ErrAmountOverflow
	}
	return Money(nanos.BigInt().Uint64()), nil
}
