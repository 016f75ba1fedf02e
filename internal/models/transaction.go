package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Withdrawal request statuses. Settlement is handled by an external
// process; this service only creates requests and enforces the
// one-pending-per-user rule.
const (
	WithdrawalPending   = "pending"
	WithdrawalProcessed = "processed"
	WithdrawalRejected  = "rejected"
)

// WithdrawalRequest represents a user's request to withdraw balance to an
// external crypto address.
type WithdrawalRequest struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     string          `gorm:"uniqueIndex;size:40;not null" json:"order_id"`
	Username    string          `gorm:"not null;index" json:"username"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,8);not null" json:"amount"`
	Asset       string          `gorm:"size:20;not null" json:"asset"`
	Address     string          `gorm:"size:120;not null" json:"address"`
	Network     string          `gorm:"size:40" json:"network,omitempty"`
	Status      string          `gorm:"size:20;default:pending;index" json:"status"`
	ProviderRef string          `gorm:"size:120" json:"provider_ref,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
}

// TableName specifies the table name for WithdrawalRequest model
func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}
