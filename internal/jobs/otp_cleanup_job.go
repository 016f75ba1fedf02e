package jobs

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sky366trade/backend/internal/logging"
	"github.com/sky366trade/backend/internal/models"
)

// abandonedSignupAge is how long an unverified signup with an expired OTP
// is kept before being purged.
const abandonedSignupAge = 24 * time.Hour

// OTPCleanupJob periodically deletes accounts whose signup was never
// verified. Accounts registered through the direct path (no OTP) are
// untouched.
type OTPCleanupJob struct {
	db *gorm.DB
}

func NewOTPCleanupJob(db *gorm.DB) *OTPCleanupJob {
	return &OTPCleanupJob{db: db}
}

// Start begins the periodic cleanup.
func (j *OTPCleanupJob) Start(interval time.Duration) {
	go func() {
		// Run immediately on start
		j.run()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			j.run()
		}
	}()
}

func (j *OTPCleanupJob) run() {
	cutoff := time.Now().Add(-abandonedSignupAge)

	result := j.db.Where(
		"email_verified = ? AND otp IS NOT NULL AND otp_expires_at < ?",
		false, cutoff,
	).Delete(&models.Account{})

	if result.Error != nil {
		logging.Logger.Warn("OTP cleanup failed", zap.Error(result.Error))
		return
	}

	if result.RowsAffected > 0 {
		logging.Logger.Info("purged abandoned signups",
			zap.Int64("count", result.RowsAffected))
	}
}
