package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-ledger-backend/internal/ledger"
	"hostel-ledger-backend/internal/model"
)

// Store defines the interface for all ledger operations and receipt queries.
// Every mutating method runs in one database transaction and either commits
// all of its effects or none.
type Store interface {
	DB() *gorm.DB

	CreateInstitution(ctx context.Context, caller ledger.Caller, name, payoutAddress string) (model.Institution, error)
	CreateStudent(ctx context.Context, caller ledger.Caller, name, institutionID string) (model.Student, error)
	PublishRoomAndMemo(ctx context.Context, caller ledger.Caller, institutionID string, req RoomRequest) (model.Room, model.FeeMemo, error)
	PublishMemo(ctx context.Context, caller ledger.Caller, institutionID, roomID string, terms ledger.FeeTerms) (model.FeeMemo, error)
	BookRoom(ctx context.Context, caller ledger.Caller, req BookRequest) (ledger.Receipt, error)
	TopUpStudentBalance(ctx context.Context, caller ledger.Caller, studentID string, amount int64) (model.Student, error)
	WithdrawFunds(ctx context.Context, caller ledger.Caller, institutionID string, amount int64) (model.Payout, error)
	TransferRoomOwnership(ctx context.Context, caller ledger.Caller, req PlacementRequest) (model.RoomOccupant, error)
	ReturnRoom(ctx context.Context, caller ledger.Caller, req PlacementRequest) (model.RoomReturn, error)

	InstitutionBalance(ctx context.Context, institutionID string) (int64, error)
	ListRooms(ctx context.Context, institutionID string) ([]model.Room, error)
	BookingsByStudent(ctx context.Context, studentID string) ([]model.BookingRecord, error)
	BookingsByRoom(ctx context.Context, roomID string) ([]model.BookingRecord, error)
	BookingByID(ctx context.Context, id string) (model.BookingRecord, error)
	LedgerTotals(ctx context.Context) ([]LedgerTotals, error)
	NegativeBalances(ctx context.Context) (int64, error)
}

// Option configures a gormStore.
type Option func(*gormStore)

// WithClock replaces the wall clock used for booking timestamps.
func WithClock(clock ledger.Clock) Option {
	return func(s *gormStore) {
		s.clock = clock
	}
}

// WithLogger sets the logger used for committed operations.
func WithLogger(logger *zap.Logger) Option {
	return func(s *gormStore) {
		s.logger = logger
	}
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db     *gorm.DB
	clock  ledger.Clock
	logger *zap.Logger
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, opts ...Option) Store {
	s := &gormStore{
		db:     db,
		clock:  ledger.SystemClock{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// CreateInstitution provisions an institution owned by the caller.
func (s *gormStore) CreateInstitution(ctx context.Context, caller ledger.Caller, name, payoutAddress string) (model.Institution, error) {
	inst, err := ledger.NewInstitution(caller, name, payoutAddress)
	if err != nil {
		return model.Institution{}, err
	}
	if err := s.db.WithContext(ctx).Create(&inst).Error; err != nil {
		return model.Institution{}, fmt.Errorf("failed to create institution: %w", err)
	}
	return inst, nil
}

// CreateStudent enrolls a student owned by the caller at an existing institution.
func (s *gormStore) CreateStudent(ctx context.Context, caller ledger.Caller, name, institutionID string) (model.Student, error) {
	var student model.Student
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inst model.Institution
		if err := lockByID(tx, &inst, "institution", institutionID); err != nil {
			return err
		}
		var err error
		student, err = ledger.NewStudent(caller, name, &inst)
		if err != nil {
			return err
		}
		if err := tx.Create(&student).Error; err != nil {
			return fmt.Errorf("failed to create student: %w", err)
		}
		return nil
	})
	return student, err
}

// PublishRoomAndMemo creates a room with every bed free and its first fee memo.
func (s *gormStore) PublishRoomAndMemo(ctx context.Context, caller ledger.Caller, institutionID string, req RoomRequest) (model.Room, model.FeeMemo, error) {
	var (
		room model.Room
		memo model.FeeMemo
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inst model.Institution
		if err := lockByID(tx, &inst, "institution", institutionID); err != nil {
			return err
		}

		var err error
		room, err = ledger.NewRoom(caller, &inst, req.Name, req.RoomSize)
		if err != nil {
			return err
		}
		terms := ledger.FeeTerms{SemesterPayment: req.SemesterPayment, MinimumFee: req.MinimumFee}
		memo, err = ledger.PublishMemo(caller, &inst, &room, ledger.NewRegistry(inst.ID), terms, s.clock.Now())
		if err != nil {
			return err
		}

		if err := tx.Create(&room).Error; err != nil {
			return fmt.Errorf("failed to create room: %w", err)
		}
		if err := tx.Create(&memo).Error; err != nil {
			return fmt.Errorf("failed to create fee memo for room %s: %w", room.ID, err)
		}
		return nil
	})
	if err != nil {
		return model.Room{}, model.FeeMemo{}, err
	}
	s.logger.Info("room published",
		zap.String("institution_id", institutionID),
		zap.String("room_id", room.ID),
		zap.String("memo_id", memo.ID),
		zap.Int("room_size", room.RoomSize))
	return room, memo, nil
}

// PublishMemo registers new fee terms for a room whose previous memo is gone.
func (s *gormStore) PublishMemo(ctx context.Context, caller ledger.Caller, institutionID, roomID string, terms ledger.FeeTerms) (model.FeeMemo, error) {
	var memo model.FeeMemo
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var (
			inst model.Institution
			room model.Room
		)
		if err := lockByID(tx, &inst, "institution", institutionID); err != nil {
			return err
		}
		if err := lockByID(tx, &room, "room", roomID); err != nil {
			return err
		}

		var active []model.FeeMemo
		if err := tx.Where("room_id = ?", room.ID).Find(&active).Error; err != nil {
			return fmt.Errorf("failed to load fee memos for room %s: %w", room.ID, err)
		}

		var err error
		memo, err = ledger.PublishMemo(caller, &inst, &room, ledger.NewRegistry(inst.ID, active...), terms, s.clock.Now())
		if err != nil {
			return err
		}
		if err := tx.Create(&memo).Error; err != nil {
			return fmt.Errorf("failed to create fee memo for room %s: %w", room.ID, err)
		}
		return nil
	})
	return memo, err
}

// BookRoom runs the booking transaction. Institution, student and room rows
// are locked in that order for the whole transaction.
func (s *gormStore) BookRoom(ctx context.Context, caller ledger.Caller, req BookRequest) (ledger.Receipt, error) {
	var receipt ledger.Receipt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.loadPlacement(tx, caller, PlacementRequest{
			InstitutionID: req.InstitutionID,
			StudentID:     req.StudentID,
			RoomID:        req.RoomID,
		})
		if err != nil {
			return err
		}

		var memos []model.FeeMemo
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND institution_id = ?", req.MemoID, p.Institution.ID).
			Find(&memos).Error; err != nil {
			return fmt.Errorf("failed to load fee memo %s: %w", req.MemoID, err)
		}

		receipt, err = ledger.Book(ledger.Booking{
			Placement: p,
			Memos:     ledger.NewRegistry(p.Institution.ID, memos...),
			MemoID:    req.MemoID,
		})
		if err != nil {
			return err
		}

		if err := saveBalance(tx, p.Student, p.Student.Balance); err != nil {
			return err
		}
		if err := saveBalance(tx, p.Institution, p.Institution.Balance); err != nil {
			return err
		}
		if err := saveBeds(tx, p.Room); err != nil {
			return err
		}
		return persistBooking(tx, receipt)
	})
	if err != nil {
		return ledger.Receipt{}, err
	}

	s.logger.Info("room booked",
		zap.String("booking_id", receipt.Record.ID),
		zap.String("institution_id", receipt.Record.InstitutionID),
		zap.String("student_id", receipt.Record.StudentID),
		zap.String("room_id", receipt.Record.RoomID),
		zap.Int64("amount", receipt.Funds.Value()))
	return receipt, nil
}

// persistBooking writes the non-entity effects of a booking.
func persistBooking(tx *gorm.DB, receipt ledger.Receipt) error {
	res := tx.Where("id = ?", receipt.MemoID).Delete(&model.FeeMemo{})
	if res.Error != nil {
		return fmt.Errorf("failed to consume fee memo %s: %w", receipt.MemoID, res.Error)
	}
	if res.RowsAffected != 1 {
		return ledger.ErrMemoNotFound
	}

	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "institution_id"}, {Name: "student_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"paid_fee", "updated_at"}),
	}).Create(&receipt.Audit).Error; err != nil {
		return fmt.Errorf("failed to record fee audit for student %s: %w", receipt.Audit.StudentID, err)
	}

	if err := tx.Create(&receipt.Occupant).Error; err != nil {
		return fmt.Errorf("failed to register occupant for room %s: %w", receipt.Occupant.RoomID, err)
	}

	if err := tx.Create(&receipt.Record).Error; err != nil {
		return fmt.Errorf("failed to create booking record: %w", err)
	}
	return nil
}

// TopUpStudentBalance credits the student's escrow.
func (s *gormStore) TopUpStudentBalance(ctx context.Context, caller ledger.Caller, studentID string, amount int64) (model.Student, error) {
	funds, err := ledger.NewFunds(amount)
	if err != nil {
		return model.Student{}, err
	}

	var student model.Student
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockByID(tx, &student, "student", studentID); err != nil {
			return err
		}
		if err := ledger.TopUp(caller, &student, funds); err != nil {
			return err
		}
		return saveBalance(tx, &student, student.Balance)
	})
	if err != nil {
		return model.Student{}, err
	}
	return student, nil
}

// WithdrawFunds pays amount out of the institution's escrow.
func (s *gormStore) WithdrawFunds(ctx context.Context, caller ledger.Caller, institutionID string, amount int64) (model.Payout, error) {
	var payout model.Payout
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inst model.Institution
		if err := lockByID(tx, &inst, "institution", institutionID); err != nil {
			return err
		}

		var err error
		_, payout, err = ledger.WithdrawFunds(caller, &inst, amount, s.clock.Now())
		if err != nil {
			return err
		}
		if err := saveBalance(tx, &inst, inst.Balance); err != nil {
			return err
		}
		if err := tx.Create(&payout).Error; err != nil {
			return fmt.Errorf("failed to record payout: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Payout{}, err
	}

	s.logger.Info("funds withdrawn",
		zap.String("institution_id", institutionID),
		zap.String("address", payout.Address),
		zap.Int64("amount", payout.Amount))
	return payout, nil
}

// TransferRoomOwnership gives the student a bed without payment.
func (s *gormStore) TransferRoomOwnership(ctx context.Context, caller ledger.Caller, req PlacementRequest) (model.RoomOccupant, error) {
	var occupant model.RoomOccupant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.loadPlacement(tx, caller, req)
		if err != nil {
			return err
		}
		occupant, err = ledger.TransferRoom(p)
		if err != nil {
			return err
		}
		if err := saveBeds(tx, p.Room); err != nil {
			return err
		}
		if err := tx.Create(&occupant).Error; err != nil {
			return fmt.Errorf("failed to register occupant for room %s: %w", occupant.RoomID, err)
		}
		return nil
	})
	return occupant, err
}

// ReturnRoom releases the student's bed and writes a reversal record.
func (s *gormStore) ReturnRoom(ctx context.Context, caller ledger.Caller, req PlacementRequest) (model.RoomReturn, error) {
	var ret model.RoomReturn
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.loadPlacement(tx, caller, req)
		if err != nil {
			return err
		}

		var last []model.BookingRecord
		if err := tx.Where("student_id = ? AND room_id = ?", p.Student.ID, p.Room.ID).
			Order("booked_at DESC").
			Limit(1).
			Find(&last).Error; err != nil {
			return fmt.Errorf("failed to load bookings for student %s: %w", p.Student.ID, err)
		}
		var lastBooking *model.BookingRecord
		if len(last) > 0 {
			lastBooking = &last[0]
		}

		ret, err = ledger.ReturnRoom(p, lastBooking)
		if err != nil {
			return err
		}
		if err := saveBeds(tx, p.Room); err != nil {
			return err
		}
		if err := tx.Where("room_id = ? AND student_id = ?", p.Room.ID, p.Student.ID).
			Delete(&model.RoomOccupant{}).Error; err != nil {
			return fmt.Errorf("failed to release occupant for room %s: %w", p.Room.ID, err)
		}
		if err := tx.Create(&ret).Error; err != nil {
			return fmt.Errorf("failed to record room return: %w", err)
		}
		return nil
	})
	return ret, err
}

// loadPlacement locks institution, student and room in that order and looks
// up the bed the student already holds in the room.
func (s *gormStore) loadPlacement(tx *gorm.DB, caller ledger.Caller, req PlacementRequest) (ledger.Placement, error) {
	var (
		inst    model.Institution
		student model.Student
		room    model.Room
	)
	if err := lockByID(tx, &inst, "institution", req.InstitutionID); err != nil {
		return ledger.Placement{}, err
	}
	if err := lockByID(tx, &student, "student", req.StudentID); err != nil {
		return ledger.Placement{}, err
	}
	if err := lockByID(tx, &room, "room", req.RoomID); err != nil {
		return ledger.Placement{}, err
	}

	var held []model.RoomOccupant
	if err := tx.Where("room_id = ? AND student_id = ?", room.ID, student.ID).
		Limit(1).
		Find(&held).Error; err != nil {
		return ledger.Placement{}, fmt.Errorf("failed to load occupants of room %s: %w", room.ID, err)
	}

	p := ledger.Placement{
		Caller:      caller,
		Institution: &inst,
		Student:     &student,
		Room:        &room,
		Now:         s.clock.Now(),
	}
	if len(held) > 0 {
		p.Holding = &held[0]
	}
	return p, nil
}

// lockByID loads one row by primary key with SELECT ... FOR UPDATE.
func lockByID(tx *gorm.DB, dest any, kind, id string) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(dest, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", kind, id, ledger.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load %s %s: %w", kind, id, err)
	}
	return nil
}

func saveBalance(tx *gorm.DB, entity any, balance int64) error {
	if err := tx.Model(entity).Update("balance", balance).Error; err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}

func saveBeds(tx *gorm.DB, room *model.Room) error {
	if err := tx.Model(room).Update("beds_available", room.BedsAvailable).Error; err != nil {
		return fmt.Errorf("failed to update beds for room %s: %w", room.ID, err)
	}
	return nil
}
