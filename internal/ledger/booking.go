package ledger

import (
	"time"

	"github.com/google/uuid"

	"hostel-ledger-backend/internal/model"
)

var newID = uuid.NewString

// Placement is a student and room pairing under one institution.
// Holding is the bed the student already holds in the room, nil when none.
type Placement struct {
	Caller      Caller
	Institution *model.Institution
	Student     *model.Student
	Room        *model.Room
	Holding     *model.RoomOccupant
	Now         time.Time
}

// Booking is a placement paid for with a fee memo.
type Booking struct {
	Placement
	Memos  *Registry
	MemoID string
}

// Receipt describes every effect of a committed booking.
type Receipt struct {
	Funds    Funds
	Terms    FeeTerms
	MemoID   string
	Record   model.BookingRecord
	Audit    model.FeeAudit
	Occupant model.RoomOccupant
}

// Book converts student escrow into a confirmed booking.
//
// All guards run before any mutation; on error the entities and registry are
// untouched. On success the student is debited, the institution credited, one
// bed reserved, the memo consumed, and a frozen record returned for insertion.
func Book(b Booking) (Receipt, error) {
	inst, student, room := b.Institution, b.Student, b.Room

	if !b.Caller.Owns(inst.Owner) {
		return Receipt{}, ErrUnauthorized
	}
	if student.InstitutionID != inst.ID {
		return Receipt{}, ErrWrongInstitution
	}
	memo, ok := b.Memos.Lookup(b.MemoID)
	if !ok {
		return Receipt{}, ErrMemoNotFound
	}
	if room.InstitutionID != inst.ID || memo.RoomID != room.ID {
		return Receipt{}, ErrRoomMismatch
	}
	if room.BedsAvailable <= 0 {
		return Receipt{}, ErrNoCapacity
	}
	terms := FeeTerms{SemesterPayment: memo.SemesterPayment, MinimumFee: memo.MinimumFee}
	total, err := terms.Total()
	if err != nil {
		return Receipt{}, err
	}
	if b.Holding != nil {
		return Receipt{}, ErrAlreadyExists
	}
	if BalanceOf(student) < total {
		return Receipt{}, ErrInsufficientFunds
	}
	if !canDeposit(inst, total) {
		return Receipt{}, ErrOverflow
	}

	// Nothing below can fail: every precondition was checked above.
	funds, _ := WithdrawExact(student, total)
	_ = Deposit(inst, funds)
	_ = ReserveBed(room)
	_, _ = b.Memos.Consume(memo.ID)

	return Receipt{
		Funds:  funds,
		Terms:  terms,
		MemoID: memo.ID,
		Record: model.BookingRecord{
			ID:                 newID(),
			StudentID:          student.ID,
			RoomID:             room.ID,
			InstitutionID:      inst.ID,
			StudentAddress:     student.Owner,
			InstitutionAddress: inst.Owner,
			PaidFee:            terms.MinimumFee,
			SemesterPayment:    terms.SemesterPayment,
			BookedAt:           b.Now,
		},
		Audit: model.FeeAudit{
			InstitutionID: inst.ID,
			StudentID:     student.ID,
			PaidFee:       terms.MinimumFee,
			UpdatedAt:     b.Now,
		},
		Occupant: model.RoomOccupant{
			RoomID:    room.ID,
			StudentID: student.ID,
			Source:    model.SourceBooking,
			CreatedAt: b.Now,
		},
	}, nil
}

func checkPlacement(p Placement) error {
	if !p.Caller.Owns(p.Institution.Owner) {
		return ErrUnauthorized
	}
	if p.Student.InstitutionID != p.Institution.ID {
		return ErrWrongInstitution
	}
	if p.Room.InstitutionID != p.Institution.ID {
		return ErrRoomMismatch
	}
	return nil
}

// TransferRoom hands a bed to a student without payment. It reserves capacity
// through the same path as Book, so the two cannot count one bed twice.
func TransferRoom(p Placement) (model.RoomOccupant, error) {
	if err := checkPlacement(p); err != nil {
		return model.RoomOccupant{}, err
	}
	if p.Holding != nil {
		return model.RoomOccupant{}, ErrAlreadyExists
	}
	if err := ReserveBed(p.Room); err != nil {
		return model.RoomOccupant{}, err
	}
	return model.RoomOccupant{
		RoomID:    p.Room.ID,
		StudentID: p.Student.ID,
		Source:    model.SourceTransfer,
		CreatedAt: p.Now,
	}, nil
}

// ReturnRoom releases the student's bed and produces a reversal record.
// lastBooking is the student's most recent booking of the room, if any; it is
// linked from the reversal only when the bed came from a booking. The booking
// record itself is never modified.
func ReturnRoom(p Placement, lastBooking *model.BookingRecord) (model.RoomReturn, error) {
	if err := checkPlacement(p); err != nil {
		return model.RoomReturn{}, err
	}
	if p.Holding == nil {
		return model.RoomReturn{}, ErrNotOccupant
	}
	if err := ReleaseBed(p.Room); err != nil {
		return model.RoomReturn{}, err
	}

	ret := model.RoomReturn{
		ID:         newID(),
		RoomID:     p.Room.ID,
		StudentID:  p.Student.ID,
		ReturnedAt: p.Now,
	}
	if p.Holding.Source == model.SourceBooking && lastBooking != nil {
		id := lastBooking.ID
		ret.BookingRecordID = &id
	}
	return ret, nil
}

// WithdrawFunds moves amount from the institution's escrow to its payout address.
func WithdrawFunds(caller Caller, inst *model.Institution, amount int64, now time.Time) (Funds, model.Payout, error) {
	if !caller.Owns(inst.Owner) {
		return Funds{}, model.Payout{}, ErrUnauthorized
	}
	if amount <= 0 {
		return Funds{}, model.Payout{}, ErrInvalidAmount
	}
	funds, err := WithdrawExact(inst, amount)
	if err != nil {
		return Funds{}, model.Payout{}, err
	}
	return funds, model.Payout{
		ID:            newID(),
		InstitutionID: inst.ID,
		Address:       inst.PayoutAddress,
		Amount:        funds.Value(),
		CreatedAt:     now,
	}, nil
}

// TopUp credits a student's escrow. Only the student may top up.
func TopUp(caller Caller, student *model.Student, f Funds) error {
	if !caller.Owns(student.Owner) {
		return ErrUnauthorized
	}
	if f.IsZero() {
		return ErrInvalidAmount
	}
	return Deposit(student, f)
}
