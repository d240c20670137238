package model

import (
	"time"

	"gorm.io/gorm"
)

// Institution publishes rooms and collects booking fees into its escrow balance.
type Institution struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Owner         string    `gorm:"index;size:128;not null" json:"owner"`
	Name          string    `gorm:"size:256;not null" json:"name"`
	PayoutAddress string    `gorm:"size:128;not null" json:"payoutAddress"`
	Balance       int64     `gorm:"not null;default:0" json:"balance"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	// Associations
	Rooms    []Room    `gorm:"foreignKey:InstitutionID" json:"rooms,omitempty"`
	Students []Student `gorm:"foreignKey:InstitutionID" json:"students,omitempty"`
}

// Escrow exposes the balance to the ledger.
func (i *Institution) Escrow() *int64 {
	return &i.Balance
}

// FeeAudit records the last minimum fee an institution collected from a student.
type FeeAudit struct {
	InstitutionID string    `gorm:"primaryKey;size:36" json:"institutionId"`
	StudentID     string    `gorm:"primaryKey;size:36" json:"studentId"`
	PaidFee       int64     `gorm:"not null" json:"paidFee"`
	UpdatedAt     time.Time `gorm:"not null" json:"updatedAt"`
}

// Payout is an append-only record of funds withdrawn by an institution.
type Payout struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	InstitutionID string    `gorm:"index;size:36;not null" json:"institutionId"`
	Address       string    `gorm:"size:128;not null" json:"address"`
	Amount        int64     `gorm:"not null" json:"amount"`
	CreatedAt     time.Time `gorm:"not null" json:"createdAt"`
}

// BeforeUpdate keeps payouts frozen after insert.
func (Payout) BeforeUpdate(*gorm.DB) error {
	return ErrFrozen
}
