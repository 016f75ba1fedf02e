package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sky366trade/backend/internal/apperr"
	"github.com/sky366trade/backend/internal/logging"
	"github.com/sky366trade/backend/internal/models"
)

// TaskService owns the daily task catalog and per-account completion.
// Completing a task credits a percentage of the account's current balance,
// so completions compound; a completed task cannot be completed again.
type TaskService struct {
	db       *gorm.DB
	referral *ReferralService
}

func NewTaskService(db *gorm.DB, referral *ReferralService) *TaskService {
	return &TaskService{db: db, referral: referral}
}

// SubmitTask adds a task to the global catalog, dated for today.
func (s *TaskService) SubmitTask(title, reward, taskType string) (*models.Task, error) {
	if title == "" || reward == "" {
		return nil, fmt.Errorf("%w: title and reward are required", apperr.ErrInvalidInput)
	}
	if _, err := decimal.NewFromString(reward); err != nil {
		return nil, fmt.Errorf("%w: reward must be a numeric percentage", apperr.ErrInvalidInput)
	}

	task := models.Task{
		Title:  title,
		Reward: reward,
		Type:   taskType,
		Status: "pending",
		Date:   dayStart(time.Now()),
	}

	if err := s.db.Create(&task).Error; err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return &task, nil
}

// GetCatalog returns the global task catalog.
func (s *TaskService) GetCatalog() ([]models.Task, error) {
	var tasks []models.Task
	if err := s.db.Order("date DESC, id").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListTasks returns the account's task list for today, copying today's
// catalog into it on first view.
func (s *TaskService) ListTasks(username string) ([]models.UserTask, error) {
	var account models.Account
	if err := s.db.Where("username = ?", username).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account %q", apperr.ErrNotFound, username)
		}
		return nil, err
	}

	today := dayStart(time.Now())

	var assigned []models.UserTask
	if err := s.db.Where("account_id = ? AND assigned_for = ?", account.ID, today).
		Find(&assigned).Error; err != nil {
		return nil, err
	}
	if len(assigned) > 0 {
		return assigned, nil
	}

	var catalog []models.Task
	if err := s.db.Where("date = ?", today).Find(&catalog).Error; err != nil {
		return nil, err
	}

	for _, task := range catalog {
		userTask := models.UserTask{
			AccountID:   account.ID,
			TaskID:      task.ID,
			Title:       task.Title,
			Reward:      task.Reward,
			Type:        task.Type,
			Status:      "pending",
			AssignedFor: today,
		}
		if err := s.db.Create(&userTask).Error; err != nil {
			return nil, err
		}
		assigned = append(assigned, userTask)
	}

	return assigned, nil
}

// CompleteTask marks the task completed and credits reward%/100 of the
// account's current wallet balance. Returns the new balance.
func (s *TaskService) CompleteTask(username string, taskID uint) (decimal.Decimal, error) {
	var bonus decimal.Decimal
	var newBalance decimal.Decimal

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.Where("username = ?", username).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: account %q", apperr.ErrNotFound, username)
			}
			return err
		}

		var task models.UserTask
		if err := tx.Where("id = ? AND account_id = ?", taskID, account.ID).
			First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: task %d", apperr.ErrNotFound, taskID)
			}
			return err
		}

		if task.Status == "completed" {
			return fmt.Errorf("%w: task %d", apperr.ErrAlreadyProcessed, taskID)
		}

		// A malformed reward percentage counts as zero rather than
		// failing the completion.
		percentage, err := decimal.NewFromString(task.Reward)
		if err != nil {
			percentage = decimal.Zero
		}

		bonus = account.Wallet.Mul(percentage).Div(decimal.NewFromInt(100))
		newBalance = account.Wallet.Add(bonus)

		now := time.Now()
		if err := tx.Model(&task).Updates(map[string]interface{}{
			"status":       "completed",
			"completed_at": now,
		}).Error; err != nil {
			return err
		}

		return tx.Model(&models.Account{}).Where("username = ?", username).
			Update("wallet", gorm.Expr("wallet + ?", bonus)).Error
	})
	if err != nil {
		return decimal.Zero, err
	}

	logging.Logger.Info("task completed",
		zap.String("username", username),
		zap.Uint("task_id", taskID),
		zap.String("bonus", bonus.String()),
	)

	// Task completion is a qualifying event for the one-time referral
	// bonus; soft outcomes (no parent, already paid) are expected here.
	if bonus.IsPositive() {
		if _, err := s.referral.DistributeReward(username, bonus); err != nil &&
			!errors.Is(err, apperr.ErrNoRewardingMember) &&
			!errors.Is(err, apperr.ErrAlreadyProcessed) {
			logging.Logger.Warn("reward distribution failed",
				zap.String("username", username), zap.Error(err))
		}
	}

	return newBalance, nil
}

// dayStart truncates t to day granularity, matching the catalog date.
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
