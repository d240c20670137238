package model

import (
	"time"

	"gorm.io/gorm"
)

// Room represents a hostel room and its bed capacity.
type Room struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	InstitutionID string    `gorm:"index;size:36;not null" json:"institutionId"`
	Name          string    `gorm:"size:256;not null" json:"name"`
	Block         string    `gorm:"size:64" json:"block,omitempty"`
	Floor         int       `json:"floor,omitempty"`
	Number        int       `json:"number,omitempty"`
	RoomSize      int       `gorm:"not null" json:"roomSize"`
	BedsAvailable int       `gorm:"not null" json:"bedsAvailable"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// FeeMemo holds the fee terms for the next booking of a room.
// A memo is deleted when a booking consumes it and is never updated.
type FeeMemo struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	InstitutionID   string    `gorm:"index;size:36;not null" json:"institutionId"`
	RoomID          string    `gorm:"uniqueIndex;size:36;not null" json:"roomId"`
	SemesterPayment int64     `gorm:"not null" json:"semesterPayment"`
	MinimumFee      int64     `gorm:"not null" json:"minimumFee"`
	CreatedAt       time.Time `gorm:"not null" json:"createdAt"`
}

// BeforeUpdate rejects edits; memos are replaced, not changed.
func (FeeMemo) BeforeUpdate(*gorm.DB) error {
	return ErrFrozen
}

// RoomOccupant is one bed held by a student, either paid or transferred.
type RoomOccupant struct {
	RoomID    string         `gorm:"primaryKey;size:36" json:"roomId"`
	StudentID string         `gorm:"primaryKey;size:36" json:"studentId"`
	Source    OccupantSource `gorm:"size:16;not null" json:"source"`
	CreatedAt time.Time      `gorm:"not null" json:"createdAt"`
}

// OccupantSource tells how a bed was obtained.
type OccupantSource string

const (
	SourceBooking  OccupantSource = "booking"
	SourceTransfer OccupantSource = "transfer"
)
