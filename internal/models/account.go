package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a registered user of the rewards platform
type Account struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Username      string          `gorm:"uniqueIndex;not null" json:"username"`
	Email         string          `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash  string          `gorm:"not null" json:"-"`
	Phone         string          `json:"phone,omitempty"`
	Wallet        decimal.Decimal `gorm:"type:decimal(18,8);default:0" json:"wallet"`
	EmailVerified bool            `gorm:"default:false" json:"email_verified"`
	OTP           *string         `gorm:"size:6" json:"-"`
	OTPExpiresAt  *time.Time      `json:"-"`

	// ReferralPaid is the one-way disbursement flag: true means the
	// account's referral bonus has already been paid out.
	ReferralPaid bool `gorm:"default:false" json:"referral_paid"`

	// ParentUsername is a weak back-reference used only for tree
	// traversal; it is set once at attachment and never re-parented.
	ParentUsername *string `gorm:"index" json:"parent_username,omitempty"`
	TeamName       string  `gorm:"index" json:"team_name,omitempty"`

	Tasks     []UserTask `gorm:"foreignKey:AccountID" json:"tasks,omitempty"`
	JoinDate  time.Time  `gorm:"autoCreateTime" json:"join_date"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Account model
func (Account) TableName() string {
	return "accounts"
}
