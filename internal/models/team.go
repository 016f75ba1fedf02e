package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Team is the aggregate of a recruiter and everyone transitively referred
// by them. It is keyed by the root recruiter's username. MemberCount starts
// at 1 (the recruiter) and is incremented for each new descendant join.
// Wallet pools bonus tiers that could not be paid to a missing ancestor.
type Team struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"uniqueIndex;not null" json:"name"`
	MemberCount int             `gorm:"default:1" json:"member_count"`
	Wallet      decimal.Decimal `gorm:"type:decimal(18,8);default:0" json:"wallet"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Team model
func (Team) TableName() string {
	return "teams"
}
