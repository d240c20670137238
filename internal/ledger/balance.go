package ledger

import "math"

// Account is an entity holding an escrow balance.
type Account interface {
	Escrow() *int64
}

// Deposit adds funds to the account.
func Deposit(acct Account, f Funds) error {
	balance := acct.Escrow()
	if f.value > math.MaxInt64-*balance {
		return ErrOverflow
	}
	*balance += f.value
	return nil
}

// WithdrawExact removes exactly amount from the account and hands it back as funds.
func WithdrawExact(acct Account, amount int64) (Funds, error) {
	if amount < 0 {
		return Funds{}, ErrInvalidAmount
	}
	balance := acct.Escrow()
	if amount > *balance {
		return Funds{}, ErrInsufficientFunds
	}
	*balance -= amount
	return Funds{value: amount}, nil
}

// BalanceOf returns the current balance.
func BalanceOf(acct Account) int64 {
	return *acct.Escrow()
}

func canDeposit(acct Account, amount int64) bool {
	return amount <= math.MaxInt64-*acct.Escrow()
}
