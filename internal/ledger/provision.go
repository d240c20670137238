package ledger

import (
	"strings"
	"time"

	"hostel-ledger-backend/internal/model"
	"hostel-ledger-backend/internal/parse"
)

// NewInstitution provisions an institution owned by the caller.
// The payout address defaults to the owner.
func NewInstitution(caller Caller, name, payoutAddress string) (model.Institution, error) {
	if caller.Address == "" {
		return model.Institution{}, ErrUnauthorized
	}
	payoutAddress = strings.TrimSpace(payoutAddress)
	if payoutAddress == "" {
		payoutAddress = caller.Address
	}
	return model.Institution{
		ID:            newID(),
		Owner:         caller.Address,
		Name:          strings.TrimSpace(name),
		PayoutAddress: payoutAddress,
	}, nil
}

// NewStudent provisions a student owned by the caller and enrolled at inst.
func NewStudent(caller Caller, name string, inst *model.Institution) (model.Student, error) {
	if caller.Address == "" {
		return model.Student{}, ErrUnauthorized
	}
	return model.Student{
		ID:            newID(),
		Owner:         caller.Address,
		Name:          strings.TrimSpace(name),
		InstitutionID: inst.ID,
	}, nil
}

// NewRoom builds a room with every bed available. Block, floor and number are
// taken from the name when it follows the usual "A栋3-12" pattern.
func NewRoom(caller Caller, inst *model.Institution, name string, size int) (model.Room, error) {
	if !caller.Owns(inst.Owner) {
		return model.Room{}, ErrUnauthorized
	}
	if size <= 0 {
		return model.Room{}, ErrInvalidAmount
	}
	room := model.Room{
		ID:            newID(),
		InstitutionID: inst.ID,
		Name:          strings.TrimSpace(name),
		RoomSize:      size,
		BedsAvailable: size,
	}
	if parsed, err := parse.ParseRoomName(room.Name); err == nil {
		room.Block = parsed.Block
		room.Floor = parsed.Floor
		room.Number = parsed.Number
	}
	return room, nil
}

// PublishMemo registers fee terms for a room in the institution's registry.
func PublishMemo(caller Caller, inst *model.Institution, room *model.Room, memos *Registry, terms FeeTerms, now time.Time) (model.FeeMemo, error) {
	if !caller.Owns(inst.Owner) {
		return model.FeeMemo{}, ErrUnauthorized
	}
	if room.InstitutionID != inst.ID {
		return model.FeeMemo{}, ErrRoomMismatch
	}
	total, err := terms.Total()
	if err != nil {
		return model.FeeMemo{}, err
	}
	if total <= 0 {
		return model.FeeMemo{}, ErrInvalidAmount
	}
	memo := model.FeeMemo{
		ID:              newID(),
		InstitutionID:   inst.ID,
		RoomID:          room.ID,
		SemesterPayment: terms.SemesterPayment,
		MinimumFee:      terms.MinimumFee,
		CreatedAt:       now,
	}
	if err := memos.Publish(memo); err != nil {
		return model.FeeMemo{}, err
	}
	return memo, nil
}
