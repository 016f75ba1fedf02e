package models

import (
	"time"
)

// Task is a catalog entry in the global daily task list. Reward is a
// percentage kept as a string, exactly as submitted.
type Task struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Reward    string    `gorm:"not null" json:"reward"`
	Type      string    `gorm:"size:50" json:"type,omitempty"`
	Status    string    `gorm:"size:20;default:pending" json:"status"`
	Date      time.Time `gorm:"index" json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for Task model
func (Task) TableName() string {
	return "tasks"
}

// UserTask is a per-account copy of a catalog task. The day's catalog is
// copied into the account's list the first time it is viewed that day.
type UserTask struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	AccountID   uint       `gorm:"not null;index" json:"account_id"`
	TaskID      uint       `gorm:"not null" json:"task_id"`
	Title       string     `gorm:"not null" json:"title"`
	Reward      string     `gorm:"not null" json:"reward"`
	Type        string     `gorm:"size:50" json:"type,omitempty"`
	Status      string     `gorm:"size:20;default:pending" json:"status"` // pending, completed
	AssignedFor time.Time  `gorm:"index" json:"assigned_for"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName specifies the table name for UserTask model
func (UserTask) TableName() string {
	return "user_tasks"
}
