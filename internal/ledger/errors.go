package ledger

import "errors"

var (
	// ErrUnauthorized the caller is not the owner the operation requires
	ErrUnauthorized = errors.New("ledger: unauthorized")

	// ErrWrongInstitution the student belongs to another institution
	ErrWrongInstitution = errors.New("ledger: wrong institution")

	// ErrRoomMismatch the room or memo belongs elsewhere
	ErrRoomMismatch = errors.New("ledger: room mismatch")

	// ErrMemoNotFound fee terms are absent or already consumed
	ErrMemoNotFound = errors.New("ledger: fee memo not found")

	// ErrNoCapacity no beds available
	ErrNoCapacity = errors.New("ledger: no capacity")

	// ErrCapacityExceeded a release would push beds above the room size
	ErrCapacityExceeded = errors.New("ledger: capacity exceeded")

	// ErrInsufficientFunds balance below the required amount
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")

	// ErrInvalidAmount zero or negative amount where a positive one is required
	ErrInvalidAmount = errors.New("ledger: invalid amount")

	// ErrAlreadyExists duplicate registry key or bed already held
	ErrAlreadyExists = errors.New("ledger: already exists")

	// ErrNotOccupant the student holds no bed in the room
	ErrNotOccupant = errors.New("ledger: student does not occupy room")

	// ErrNotFound a referenced entity does not exist
	ErrNotFound = errors.New("ledger: not found")

	// ErrOverflow an amount would exceed the representable range
	ErrOverflow = errors.New("ledger: amount overflow")
)
