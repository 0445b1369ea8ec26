package models

import (
	"time"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

// Payment is a single donation. OrderID doubles as the quickpay label, so the
// gateway's operation history can be matched back to the record.
type Payment struct {
	ID           uint       `gorm:"primaryKey" json:"-"`
	OrderID      string     `gorm:"size:64;uniqueIndex;not null" json:"orderId"`
	Amount       float64    `gorm:"not null" json:"amount"`
	Commission   float64    `gorm:"not null" json:"commission"`
	TotalAmount  float64    `gorm:"not null" json:"totalAmount"`
	Message      string     `gorm:"size:500;default:''" json:"message"`
	Status       string     `gorm:"size:20;not null;index;default:'pending'" json:"status"`
	Sender       string     `gorm:"size:255;default:''" json:"sender"`
	PaidAt       *time.Time `json:"paidAt"`
	ActualAmount float64    `json:"actualAmount"`
	CreatedAt    time.Time  `gorm:"index" json:"createdAt"`
}

func (Payment) TableName() string {
	return "payments"
}
