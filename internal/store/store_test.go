package store

import (
	"context"
	"database/sql/driver"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hostel-ledger-backend/internal/ledger"
	"hostel-ledger-backend/internal/model"
)

var (
	institutionOwner = ledger.NewCaller("0xinstitution")
	studentOwner     = ledger.NewCaller("0xstudent")
	fixedNow         = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// newSQLiteDB opens a private in-memory database with every table migrated.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, testDB.AutoMigrate(
		&model.Institution{},
		&model.Student{},
		&model.Room{},
		&model.FeeMemo{},
		&model.FeeAudit{},
		&model.RoomOccupant{},
		&model.BookingRecord{},
		&model.RoomReturn{},
		&model.Payout{},
	))
	return testDB
}

type fixture struct {
	store   Store
	db      *gorm.DB
	inst    model.Institution
	student model.Student
	room    model.Room
	memo    model.FeeMemo
}

// newFixture publishes room "A栋3-12" with a 200 + 50 memo and a student
// holding balance.
func newFixture(t *testing.T, roomSize int, balance int64) fixture {
	t.Helper()
	ctx := context.Background()
	testDB := newSQLiteDB(t)
	s := NewGormStore(testDB, WithClock(ledger.ClockFunc(func() time.Time { return fixedNow })))

	inst, err := s.CreateInstitution(ctx, institutionOwner, "North Campus", "")
	require.NoError(t, err)
	student, err := s.CreateStudent(ctx, studentOwner, "Li Wei", inst.ID)
	require.NoError(t, err)
	room, memo, err := s.PublishRoomAndMemo(ctx, institutionOwner, inst.ID, RoomRequest{
		Name:            "A栋3-12",
		RoomSize:        roomSize,
		SemesterPayment: 200,
		MinimumFee:      50,
	})
	require.NoError(t, err)
	if balance > 0 {
		student, err = s.TopUpStudentBalance(ctx, studentOwner, student.ID, balance)
		require.NoError(t, err)
	}

	return fixture{store: s, db: testDB, inst: inst, student: student, room: room, memo: memo}
}

func (f fixture) bookRequest() BookRequest {
	return BookRequest{
		InstitutionID: f.inst.ID,
		StudentID:     f.student.ID,
		RoomID:        f.room.ID,
		MemoID:        f.memo.ID,
	}
}

func (f fixture) placement() PlacementRequest {
	return PlacementRequest{InstitutionID: f.inst.ID, StudentID: f.student.ID, RoomID: f.room.ID}
}

// reload reads balances and beds back from the database.
func (f fixture) reload(t *testing.T) (model.Institution, model.Student, model.Room) {
	t.Helper()
	var (
		inst    model.Institution
		student model.Student
		room    model.Room
	)
	require.NoError(t, f.db.First(&inst, "id = ?", f.inst.ID).Error)
	require.NoError(t, f.db.First(&student, "id = ?", f.student.ID).Error)
	require.NoError(t, f.db.First(&room, "id = ?", f.room.ID).Error)
	return inst, student, room
}

func TestGormStore_BookRoom(t *testing.T) {
	f := newFixture(t, 10, 300)
	ctx := context.Background()

	receipt, err := f.store.BookRoom(ctx, institutionOwner, f.bookRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(250), receipt.Funds.Value())

	inst, student, room := f.reload(t)
	assert.Equal(t, int64(50), student.Balance)
	assert.Equal(t, int64(250), inst.Balance)
	assert.Equal(t, 9, room.BedsAvailable)
	assert.Equal(t, "A", room.Block)
	assert.Equal(t, 3, room.Floor)
	assert.Equal(t, 12, room.Number)

	var memoCount int64
	f.db.Model(&model.FeeMemo{}).Where("id = ?", f.memo.ID).Count(&memoCount)
	assert.Equal(t, int64(0), memoCount, "memo should be consumed")

	records, err := f.store.BookingsByStudent(ctx, f.student.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, receipt.Record.ID, rec.ID)
	assert.Equal(t, f.room.ID, rec.RoomID)
	assert.Equal(t, f.inst.ID, rec.InstitutionID)
	assert.Equal(t, studentOwner.Address, rec.StudentAddress)
	assert.Equal(t, institutionOwner.Address, rec.InstitutionAddress)
	assert.Equal(t, int64(50), rec.PaidFee)
	assert.Equal(t, int64(200), rec.SemesterPayment)
	assert.True(t, fixedNow.Equal(rec.BookedAt))

	var audit model.FeeAudit
	require.NoError(t, f.db.First(&audit, "institution_id = ? AND student_id = ?", f.inst.ID, f.student.ID).Error)
	assert.Equal(t, int64(50), audit.PaidFee)

	var occupant model.RoomOccupant
	require.NoError(t, f.db.First(&occupant, "room_id = ? AND student_id = ?", f.room.ID, f.student.ID).Error)
	assert.Equal(t, model.SourceBooking, occupant.Source)

	byRoom, err := f.store.BookingsByRoom(ctx, f.room.ID)
	require.NoError(t, err)
	assert.Len(t, byRoom, 1)

	byID, err := f.store.BookingByID(ctx, receipt.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, byID.ID)

	_, err = f.store.BookingByID(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	balance, err := f.store.InstitutionBalance(ctx, f.inst.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(250), balance)
}

func TestGormStore_BookRoom_MemoConsumed(t *testing.T) {
	f := newFixture(t, 10, 600)
	ctx := context.Background()

	_, err := f.store.BookRoom(ctx, institutionOwner, f.bookRequest())
	require.NoError(t, err)

	_, err = f.store.BookRoom(ctx, institutionOwner, f.bookRequest())
	assert.ErrorIs(t, err, ledger.ErrMemoNotFound)

	inst, student, room := f.reload(t)
	assert.Equal(t, int64(350), student.Balance)
	assert.Equal(t, int64(250), inst.Balance)
	assert.Equal(t, 9, room.BedsAvailable)

	records, err := f.store.BookingsByStudent(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestGormStore_BookRoom_FailuresLeaveNoTrace(t *testing.T) {
	testCases := []struct {
		name     string
		balance  int64
		caller   ledger.Caller
		mutate   func(f *fixture, req *BookRequest)
		expected error
	}{
		{
			name:     "insufficient funds",
			balance:  100,
			caller:   institutionOwner,
			expected: ledger.ErrInsufficientFunds,
		},
		{
			name:     "caller is not the institution owner",
			balance:  300,
			caller:   studentOwner,
			expected: ledger.ErrUnauthorized,
		},
		{
			name:     "unknown memo",
			balance:  300,
			caller:   institutionOwner,
			mutate:   func(_ *fixture, req *BookRequest) { req.MemoID = "missing" },
			expected: ledger.ErrMemoNotFound,
		},
		{
			name:     "unknown student",
			balance:  300,
			caller:   institutionOwner,
			mutate:   func(_ *fixture, req *BookRequest) { req.StudentID = "missing" },
			expected: ledger.ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, 10, tc.balance)
			req := f.bookRequest()
			if tc.mutate != nil {
				tc.mutate(&f, &req)
			}

			_, err := f.store.BookRoom(context.Background(), tc.caller, req)
			assert.ErrorIs(t, err, tc.expected)

			inst, student, room := f.reload(t)
			assert.Equal(t, tc.balance, student.Balance)
			assert.Equal(t, int64(0), inst.Balance)
			assert.Equal(t, 10, room.BedsAvailable)

			var memoCount, recordCount, occupantCount int64
			f.db.Model(&model.FeeMemo{}).Count(&memoCount)
			f.db.Model(&model.BookingRecord{}).Count(&recordCount)
			f.db.Model(&model.RoomOccupant{}).Count(&occupantCount)
			assert.Equal(t, int64(1), memoCount)
			assert.Equal(t, int64(0), recordCount)
			assert.Equal(t, int64(0), occupantCount)
		})
	}
}

func TestGormStore_BookRoom_NoCapacity(t *testing.T) {
	f := newFixture(t, 1, 300)
	ctx := context.Background()

	_, err := f.store.BookRoom(ctx, institutionOwner, f.bookRequest())
	require.NoError(t, err)

	second, err := f.store.CreateStudent(ctx, ledger.NewCaller("0xsecond"), "Zhang San", f.inst.ID)
	require.NoError(t, err)
	_, err = f.store.TopUpStudentBalance(ctx, ledger.NewCaller("0xsecond"), second.ID, 300)
	require.NoError(t, err)

	memo, err := f.store.PublishMemo(ctx, institutionOwner, f.inst.ID, f.room.ID, ledger.FeeTerms{SemesterPayment: 200, MinimumFee: 50})
	require.NoError(t, err)

	_, err = f.store.BookRoom(ctx, institutionOwner, BookRequest{
		InstitutionID: f.inst.ID,
		StudentID:     second.ID,
		RoomID:        f.room.ID,
		MemoID:        memo.ID,
	})
	assert.ErrorIs(t, err, ledger.ErrNoCapacity)

	var reloaded model.Student
	require.NoError(t, f.db.First(&reloaded, "id = ?", second.ID).Error)
	assert.Equal(t, int64(300), reloaded.Balance)
}

func TestGormStore_PublishMemo(t *testing.T) {
	f := newFixture(t, 10, 0)
	ctx := context.Background()
	terms := ledger.FeeTerms{SemesterPayment: 100, MinimumFee: 10}

	_, err := f.store.PublishMemo(ctx, institutionOwner, f.inst.ID, f.room.ID, terms)
	assert.ErrorIs(t, err, ledger.ErrAlreadyExists, "room already has an active memo")

	_, err = f.store.PublishMemo(ctx, studentOwner, f.inst.ID, f.room.ID, terms)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)

	_, err = f.store.PublishMemo(ctx, institutionOwner, f.inst.ID, "missing", terms)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	_, _, err = f.store.PublishRoomAndMemo(ctx, institutionOwner, f.inst.ID, RoomRequest{Name: "B-101", RoomSize: 0, SemesterPayment: 1})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	rooms, err := f.store.ListRooms(ctx, f.inst.ID)
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
}

func TestGormStore_WithdrawFunds(t *testing.T) {
	f := newFixture(t, 10, 300)
	ctx := context.Background()

	_, err := f.store.BookRoom(ctx, institutionOwner, f.bookRequest())
	require.NoError(t, err)

	_, err = f.store.WithdrawFunds(ctx, institutionOwner, f.inst.ID, 251)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	_, err = f.store.WithdrawFunds(ctx, studentOwner, f.inst.ID, 10)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)

	_, err = f.store.WithdrawFunds(ctx, institutionOwner, f.inst.ID, 0)
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	payout, err := f.store.WithdrawFunds(ctx, institutionOwner, f.inst.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, institutionOwner.Address, payout.Address)
	assert.Equal(t, int64(100), payout.Amount)

	balance, err := f.store.InstitutionBalance(ctx, f.inst.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(150), balance)

	totals, err := f.store.LedgerTotals(ctx)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, LedgerTotals{InstitutionID: f.inst.ID, Balance: 150, Collected: 250, PaidOut: 100}, totals[0])

	negative, err := f.store.NegativeBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), negative)
}

func TestGormStore_TopUp(t *testing.T) {
	f := newFixture(t, 10, 0)
	ctx := context.Background()

	_, err := f.store.TopUpStudentBalance(ctx, institutionOwner, f.student.ID, 10)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)

	_, err = f.store.TopUpStudentBalance(ctx, studentOwner, f.student.ID, -5)
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	student, err := f.store.TopUpStudentBalance(ctx, studentOwner, f.student.ID, 75)
	require.NoError(t, err)
	assert.Equal(t, int64(75), student.Balance)
}

func TestGormStore_TransferAndReturn(t *testing.T) {
	f := newFixture(t, 2, 300)
	ctx := context.Background()

	occupant, err := f.store.TransferRoomOwnership(ctx, institutionOwner, f.placement())
	require.NoError(t, err)
	assert.Equal(t, model.SourceTransfer, occupant.Source)

	_, err = f.store.TransferRoomOwnership(ctx, institutionOwner, f.placement())
	assert.ErrorIs(t, err, ledger.ErrAlreadyExists)

	_, err = f.store.BookRoom(ctx, institutionOwner, f.bookRequest())
	assert.ErrorIs(t, err, ledger.ErrAlreadyExists, "a transferred bed cannot be booked again")

	_, _, room := f.reload(t)
	assert.Equal(t, 1, room.BedsAvailable)

	ret, err := f.store.ReturnRoom(ctx, institutionOwner, f.placement())
	require.NoError(t, err)
	assert.Nil(t, ret.BookingRecordID, "transferred beds have no booking to link")

	_, err = f.store.ReturnRoom(ctx, institutionOwner, f.placement())
	assert.ErrorIs(t, err, ledger.ErrNotOccupant)

	receipt, err := f.store.BookRoom(ctx, institutionOwner, f.bookRequest())
	require.NoError(t, err)

	ret, err = f.store.ReturnRoom(ctx, institutionOwner, f.placement())
	require.NoError(t, err)
	require.NotNil(t, ret.BookingRecordID)
	assert.Equal(t, receipt.Record.ID, *ret.BookingRecordID)

	_, _, room = f.reload(t)
	assert.Equal(t, 2, room.BedsAvailable)

	records, err := f.store.BookingsByStudent(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1, "returns never remove booking records")
}

func TestBookingRecordsAreFrozen(t *testing.T) {
	f := newFixture(t, 10, 300)
	receipt, err := f.store.BookRoom(context.Background(), institutionOwner, f.bookRequest())
	require.NoError(t, err)

	rec := receipt.Record
	err = f.db.Model(&rec).Update("paid_fee", 1).Error
	assert.ErrorIs(t, err, model.ErrFrozen)

	err = f.db.Delete(&rec).Error
	assert.ErrorIs(t, err, model.ErrFrozen)

	var stored model.BookingRecord
	require.NoError(t, f.db.First(&stored, "id = ?", rec.ID).Error)
	assert.Equal(t, int64(50), stored.PaidFee)
}

func TestGormStore_BookRoom_UnknownInstitutionRollsBack(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "institutions" WHERE id = $1`)).
		WithArgs("missing", Any{}).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner", "balance"}))
	mock.ExpectRollback()

	_, err := s.BookRoom(context.Background(), institutionOwner, BookRequest{
		InstitutionID: "missing",
		StudentID:     "student",
		RoomID:        "room",
		MemoID:        "memo",
	})
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_InstitutionBalance_Mock(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id","balance" FROM "institutions" WHERE id = $1`)).
		WithArgs("inst-1", Any{}).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow("inst-1", 420))

	balance, err := s.InstitutionBalance(context.Background(), "inst-1")
	require.NoError(t, err)
	assert.Equal(t, int64(420), balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
