package ledger

import (
	"hostel-ledger-backend/internal/model"
)

// FeeTerms are the amounts a memo charges for one booking.
type FeeTerms struct {
	SemesterPayment int64
	MinimumFee      int64
}

// Total is what the student pays.
func (t FeeTerms) Total() (int64, error) {
	if t.SemesterPayment < 0 || t.MinimumFee < 0 {
		return 0, ErrInvalidAmount
	}
	f, _ := NewFunds(t.MinimumFee)
	total, err := f.Merge(Funds{value: t.SemesterPayment})
	if err != nil {
		return 0, err
	}
	return total.Value(), nil
}

// Registry is one institution's set of active fee memos keyed by memo id.
// At most one memo is active per room.
type Registry struct {
	institutionID string
	memos         map[string]model.FeeMemo
	rooms         map[string]string
	consumed      []string
}

// NewRegistry builds a registry from the memos loaded for an institution.
// Memos that belong to another institution are ignored.
func NewRegistry(institutionID string, memos ...model.FeeMemo) *Registry {
	r := &Registry{
		institutionID: institutionID,
		memos:         make(map[string]model.FeeMemo, len(memos)),
		rooms:         make(map[string]string, len(memos)),
	}
	for _, m := range memos {
		if m.InstitutionID != institutionID {
			continue
		}
		r.memos[m.ID] = m
		r.rooms[m.RoomID] = m.ID
	}
	return r
}

// Publish adds a memo. Both the memo id and the room slot must be free.
func (r *Registry) Publish(memo model.FeeMemo) error {
	if memo.InstitutionID != r.institutionID {
		return ErrRoomMismatch
	}
	if _, ok := r.memos[memo.ID]; ok {
		return ErrAlreadyExists
	}
	if _, ok := r.rooms[memo.RoomID]; ok {
		return ErrAlreadyExists
	}
	r.memos[memo.ID] = memo
	r.rooms[memo.RoomID] = memo.ID
	return nil
}

// Lookup returns the memo stored under id.
func (r *Registry) Lookup(id string) (model.FeeMemo, bool) {
	m, ok := r.memos[id]
	return m, ok
}

// ForRoom returns the active memo for a room.
func (r *Registry) ForRoom(roomID string) (model.FeeMemo, bool) {
	id, ok := r.rooms[roomID]
	if !ok {
		return model.FeeMemo{}, false
	}
	return r.memos[id], true
}

// Consume removes the memo and returns its terms. A memo is consumed at most once.
func (r *Registry) Consume(id string) (FeeTerms, error) {
	m, ok := r.memos[id]
	if !ok {
		return FeeTerms{}, ErrMemoNotFound
	}
	delete(r.memos, id)
	delete(r.rooms, m.RoomID)
	r.consumed = append(r.consumed, id)
	return FeeTerms{SemesterPayment: m.SemesterPayment, MinimumFee: m.MinimumFee}, nil
}

// Consumed lists memo ids removed since the registry was built.
func (r *Registry) Consumed() []string {
	return r.consumed
}

// Len returns the number of active memos.
func (r *Registry) Len() int {
	return len(r.memos)
}
