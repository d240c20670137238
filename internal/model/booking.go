package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrFrozen is returned by hooks guarding insert-only tables.
var ErrFrozen = errors.New("model: record is frozen")

// BookingRecord is the immutable receipt of a paid booking.
type BookingRecord struct {
	ID                 string    `gorm:"primaryKey;size:36" json:"id"`
	StudentID          string    `gorm:"index;size:36;not null" json:"studentId"`
	RoomID             string    `gorm:"index;size:36;not null" json:"roomId"`
	InstitutionID      string    `gorm:"index;size:36;not null" json:"institutionId"`
	StudentAddress     string    `gorm:"size:128;not null" json:"studentAddress"`
	InstitutionAddress string    `gorm:"size:128;not null" json:"institutionAddress"`
	PaidFee            int64     `gorm:"not null" json:"paidFee"`
	SemesterPayment    int64     `gorm:"not null" json:"semesterPayment"`
	BookedAt           time.Time `gorm:"not null;index" json:"bookedAt"`
}

// BeforeUpdate keeps booking records frozen after insert.
func (BookingRecord) BeforeUpdate(*gorm.DB) error {
	return ErrFrozen
}

// BeforeDelete keeps booking records permanently retained.
func (BookingRecord) BeforeDelete(*gorm.DB) error {
	return ErrFrozen
}

// RoomReturn records a bed handed back, linked to the booking it reverses if any.
type RoomReturn struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	RoomID          string    `gorm:"index;size:36;not null" json:"roomId"`
	StudentID       string    `gorm:"index;size:36;not null" json:"studentId"`
	BookingRecordID *string   `gorm:"size:36" json:"bookingRecordId"`
	ReturnedAt      time.Time `gorm:"not null" json:"returnedAt"`
}

// BeforeUpdate keeps return records frozen after insert.
func (RoomReturn) BeforeUpdate(*gorm.DB) error {
	return ErrFrozen
}
