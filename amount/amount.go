// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package amount represents a quantity of the chain's native unit as a
// checked signed 64-bit integer (spec.md 3, "Amount"), grounded on
// btcutil.Amount's contract, which the teacher's blockchain and mempool
// packages reference throughout without the type itself being among the
// retrieved files.
package amount

import (
	"fmt"
	"math"
)

// Amount is a signed count of the smallest indivisible unit (1e-8 of the
// canonical unit).
type Amount int64

// UnitsPerCoin is the number of Amount units in one canonical coin.
const UnitsPerCoin = 1e8

// MaxAmount is the consensus cap on any single amount: 21 million coins.
const MaxAmount = 21_000_000 * UnitsPerCoin

// ErrOutOfRange reports an amount outside [0, MaxAmount].
var ErrOutOfRange = fmt.Errorf("amount out of range [0, %d]", int64(MaxAmount))

// NewAmount validates and returns units as an Amount.
func NewAmount(units int64) (Amount, error) {
	if units < 0 || units > MaxAmount {
		return 0, ErrOutOfRange
	}
	return Amount(units), nil
}

// Add returns a+b, erroring if the result leaves [0, MaxAmount].
func (a Amount) Add(b Amount) (Amount, error) {
	sum := int64(a) + int64(b)
	return NewAmount(sum)
}

// Sub returns a-b, erroring if the result leaves [0, MaxAmount].
func (a Amount) Sub(b Amount) (Amount, error) {
	diff := int64(a) - int64(b)
	return NewAmount(diff)
}

// MulF64 scales a by f, rounding to the nearest unit.
func (a Amount) MulF64(f float64) (Amount, error) {
	return NewAmount(int64(math.Round(float64(a) * f)))
}

// ToCoin returns a as a floating-point count of whole canonical coins.
func (a Amount) ToCoin() float64 {
	return float64(a) / UnitsPerCoin
}

// String formats a as a fixed-point coin amount followed by "BTC"-style
// suffix-free units, matching btcutil.Amount.String()'s convention of a
// bare decimal value.
func (a Amount) String() string {
	return fmt.Sprintf("%.8f", a.ToCoin())
}
