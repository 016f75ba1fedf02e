package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment records a Razorpay deposit order and its verification outcome.
type Payment struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Username          string          `gorm:"not null;index" json:"username"`
	RazorpayOrderID   string          `gorm:"uniqueIndex;size:64;not null" json:"razorpay_order_id"`
	RazorpayPaymentID string          `gorm:"size:64" json:"razorpay_payment_id,omitempty"`
	RazorpaySignature string          `gorm:"size:128" json:"-"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,8);not null" json:"amount"`
	Currency          string          `gorm:"size:10;default:USD" json:"currency"`
	Verified          bool            `gorm:"default:false" json:"verified"`
	CreatedAt         time.Time       `json:"created_at"`
	VerifiedAt        *time.Time      `json:"verified_at,omitempty"`
}

// TableName specifies the table name for Payment model
func (Payment) TableName() string {
	return "payments"
}
