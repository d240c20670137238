package store

// RoomRequest describes a room to publish together with its first fee memo.
type RoomRequest struct {
	Name            string
	RoomSize        int
	SemesterPayment int64
	MinimumFee      int64
}

// BookRequest names the entities a booking touches.
type BookRequest struct {
	InstitutionID string
	StudentID     string
	RoomID        string
	MemoID        string
}

// PlacementRequest names the entities of a transfer or return.
type PlacementRequest struct {
	InstitutionID string
	StudentID     string
	RoomID        string
}

// LedgerTotals aggregates what an institution collected and paid out.
// Balance should always equal Collected - PaidOut.
type LedgerTotals struct {
	InstitutionID string
	Balance       int64
	Collected     int64
	PaidOut       int64
}
