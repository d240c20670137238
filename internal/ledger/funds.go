package ledger

import "math"

// Funds is a non-negative amount in the smallest currency unit that is moving
// between escrow balances. Splits and merges conserve the total.
type Funds struct {
	value int64
}

// NewFunds wraps a non-negative amount.
func NewFunds(value int64) (Funds, error) {
	if value < 0 {
		return Funds{}, ErrInvalidAmount
	}
	return Funds{value: value}, nil
}

// Value returns the amount carried.
func (f Funds) Value() int64 { return f.value }

// IsZero reports whether nothing is carried.
func (f Funds) IsZero() bool { return f.value == 0 }

// Split takes exactly amount out of f. The two results always sum to f.
func (f Funds) Split(amount int64) (part Funds, rest Funds, err error) {
	if amount < 0 {
		return Funds{}, f, ErrInvalidAmount
	}
	if amount > f.value {
		return Funds{}, f, ErrInsufficientFunds
	}
	return Funds{value: amount}, Funds{value: f.value - amount}, nil
}

// Merge joins two funds values.
func (f Funds) Merge(other Funds) (Funds, error) {
	if other.value > math.MaxInt64-f.value {
		return f, ErrOverflow
	}
	return Funds{value: f.value + other.value}, nil
}
