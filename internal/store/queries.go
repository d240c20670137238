package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"hostel-ledger-backend/internal/ledger"
	"hostel-ledger-backend/internal/model"
)

// InstitutionBalance returns the institution's escrow balance.
func (s *gormStore) InstitutionBalance(ctx context.Context, institutionID string) (int64, error) {
	var inst model.Institution
	err := s.db.WithContext(ctx).Select("id", "balance").First(&inst, "id = ?", institutionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("institution %s: %w", institutionID, ledger.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load institution %s: %w", institutionID, err)
	}
	return inst.Balance, nil
}

// ListRooms returns the rooms of one institution, or all rooms when
// institutionID is empty.
func (s *gormStore) ListRooms(ctx context.Context, institutionID string) ([]model.Room, error) {
	var rooms []model.Room
	q := s.db.WithContext(ctx).Order("name")
	if institutionID != "" {
		q = q.Where("institution_id = ?", institutionID)
	}
	if err := q.Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

// BookingsByStudent returns a student's receipts, oldest first.
func (s *gormStore) BookingsByStudent(ctx context.Context, studentID string) ([]model.BookingRecord, error) {
	var records []model.BookingRecord
	if err := s.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("booked_at ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookings for student %s: %w", studentID, err)
	}
	return records, nil
}

// BookingsByRoom returns every receipt for a room, oldest first.
func (s *gormStore) BookingsByRoom(ctx context.Context, roomID string) ([]model.BookingRecord, error) {
	var records []model.BookingRecord
	if err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("booked_at ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookings for room %s: %w", roomID, err)
	}
	return records, nil
}

// BookingByID returns one receipt.
func (s *gormStore) BookingByID(ctx context.Context, id string) (model.BookingRecord, error) {
	var record model.BookingRecord
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.BookingRecord{}, fmt.Errorf("booking %s: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		return model.BookingRecord{}, fmt.Errorf("failed to load booking %s: %w", id, err)
	}
	return record, nil
}

// LedgerTotals aggregates collected fees and payouts per institution.
func (s *gormStore) LedgerTotals(ctx context.Context) ([]LedgerTotals, error) {
	var institutions []model.Institution
	if err := s.db.WithContext(ctx).Select("id", "balance").Order("id").Find(&institutions).Error; err != nil {
		return nil, fmt.Errorf("failed to list institutions: %w", err)
	}

	type sumRow struct {
		InstitutionID string
		Total         int64
	}

	var collected []sumRow
	if err := s.db.WithContext(ctx).Model(&model.BookingRecord{}).
		Select("institution_id, COALESCE(SUM(paid_fee + semester_payment), 0) AS total").
		Group("institution_id").
		Scan(&collected).Error; err != nil {
		return nil, fmt.Errorf("failed to sum bookings: %w", err)
	}

	var paidOut []sumRow
	if err := s.db.WithContext(ctx).Model(&model.Payout{}).
		Select("institution_id, COALESCE(SUM(amount), 0) AS total").
		Group("institution_id").
		Scan(&paidOut).Error; err != nil {
		return nil, fmt.Errorf("failed to sum payouts: %w", err)
	}

	collectedMap := make(map[string]int64, len(collected))
	for _, r := range collected {
		collectedMap[r.InstitutionID] = r.Total
	}
	paidOutMap := make(map[string]int64, len(paidOut))
	for _, r := range paidOut {
		paidOutMap[r.InstitutionID] = r.Total
	}

	totals := make([]LedgerTotals, 0, len(institutions))
	for _, inst := range institutions {
		totals = append(totals, LedgerTotals{
			InstitutionID: inst.ID,
			Balance:       inst.Balance,
			Collected:     collectedMap[inst.ID],
			PaidOut:       paidOutMap[inst.ID],
		})
	}
	return totals, nil
}

// NegativeBalances counts institutions and students whose balance dropped below zero.
func (s *gormStore) NegativeBalances(ctx context.Context) (int64, error) {
	var institutions, students int64
	if err := s.db.WithContext(ctx).Model(&model.Institution{}).Where("balance < 0").Count(&institutions).Error; err != nil {
		return 0, fmt.Errorf("failed to count institutions: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&model.Student{}).Where("balance < 0").Count(&students).Error; err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return institutions + students, nil
}
