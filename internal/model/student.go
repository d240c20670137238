package model

import "time"

// Student holds prepaid escrow that bookings draw from.
type Student struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Owner         string    `gorm:"index;size:128;not null" json:"owner"`
	Name          string    `gorm:"size:256;not null" json:"name"`
	InstitutionID string    `gorm:"index;size:36;not null" json:"institutionId"`
	Balance       int64     `gorm:"not null;default:0" json:"balance"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Escrow exposes the balance to the ledger.
func (s *Student) Escrow() *int64 {
	return &s.Balance
}
