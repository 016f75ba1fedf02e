package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sky366trade/backend/internal/apperr"
	"github.com/sky366trade/backend/internal/logging"
	"github.com/sky366trade/backend/internal/mailer"
	"github.com/sky366trade/backend/internal/models"
)

const (
	bcryptCost = 12
	otpTTL     = 5 * time.Minute
)

// AccountService handles registration, verification, login and wallet
// top-ups.
type AccountService struct {
	db     *gorm.DB
	sender mailer.Sender
}

func NewAccountService(db *gorm.DB, sender mailer.Sender) *AccountService {
	return &AccountService{db: db, sender: sender}
}

// Register creates a verified account directly, without the OTP flow.
func (s *AccountService) Register(username, password, email, phone string) (*models.Account, error) {
	if username == "" || password == "" || email == "" {
		return nil, fmt.Errorf("%w: username, password and email are required", apperr.ErrInvalidInput)
	}

	if err := s.checkDuplicates(username, email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	account := models.Account{
		Username:      username,
		Email:         email,
		PasswordHash:  string(hash),
		Phone:         phone,
		Wallet:        decimal.Zero,
		EmailVerified: true,
	}

	if err := s.db.Create(&account).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	logging.Logger.Info("account registered", zap.String("username", username))
	return &account, nil
}

// SendOTP creates an unverified account holding signup data and emails a
// six-digit code valid for five minutes.
func (s *AccountService) SendOTP(username, password, email, phone string) (*models.Account, error) {
	if username == "" || password == "" || email == "" {
		return nil, fmt.Errorf("%w: username, password and email are required", apperr.ErrInvalidInput)
	}

	if err := s.checkDuplicates(username, email); err != nil {
		return nil, err
	}

	otp, err := generateOTP()
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	expiry := time.Now().Add(otpTTL)
	account := models.Account{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Phone:        phone,
		Wallet:       decimal.Zero,
		OTP:          &otp,
		OTPExpiresAt: &expiry,
	}

	if err := s.db.Create(&account).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	body := fmt.Sprintf("Your OTP is %s. It expires in 5 minutes.", otp)
	if err := s.sender.Send(email, "Your OTP Code", body); err != nil {
		return nil, fmt.Errorf("failed to send OTP email: %w", err)
	}

	logging.Logger.Info("OTP sent", zap.String("email", email))
	return &account, nil
}

// VerifyOTP checks the code for the account registered under email,
// finalizes the credentials and marks the email verified.
func (s *AccountService) VerifyOTP(email, otp, username, password, phone string) error {
	var account models.Account
	if err := s.db.Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: invalid or expired OTP", apperr.ErrInvalidInput)
		}
		return err
	}

	if account.OTP == nil || *account.OTP != otp ||
		account.OTPExpiresAt == nil || account.OTPExpiresAt.Before(time.Now()) {
		return fmt.Errorf("%w: invalid or expired OTP", apperr.ErrInvalidInput)
	}

	updates := map[string]interface{}{
		"email_verified": true,
		"otp":            nil,
		"otp_expires_at": nil,
	}

	if username != "" && username != account.Username {
		var existing models.Account
		if err := s.db.Where("username = ?", username).First(&existing).Error; err == nil {
			return fmt.Errorf("%w: username already exists", apperr.ErrConflict)
		}
		updates["username"] = username
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
		if err != nil {
			return err
		}
		updates["password_hash"] = string(hash)
	}
	if phone != "" {
		updates["phone"] = phone
	}

	if err := s.db.Model(&account).Updates(updates).Error; err != nil {
		return err
	}

	logging.Logger.Info("email verified", zap.String("email", email))
	return nil
}

// Login checks credentials and returns the account.
func (s *AccountService) Login(username, password string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("username = ?", username).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", apperr.ErrInvalidInput)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", apperr.ErrInvalidInput)
	}

	return &account, nil
}

// GetByUsername retrieves an account by username.
func (s *AccountService) GetByUsername(username string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("username = ?", username).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account %q", apperr.ErrNotFound, username)
		}
		return nil, err
	}
	return &account, nil
}

// UpdateProfile updates the mutable contact fields.
func (s *AccountService) UpdateProfile(username, email, phone string) (*models.Account, error) {
	account, err := s.GetByUsername(username)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if email != "" {
		updates["email"] = email
	}
	if phone != "" {
		updates["phone"] = phone
	}

	if len(updates) > 0 {
		if err := s.db.Model(account).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return account, nil
}

// CreditWallet adds a positive amount to the account's wallet atomically
// and returns the new balance.
func (s *AccountService) CreditWallet(username string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", apperr.ErrInvalidInput)
	}

	result := s.db.Model(&models.Account{}).Where("username = ?", username).
		Update("wallet", gorm.Expr("wallet + ?", amount))
	if result.Error != nil {
		return decimal.Zero, result.Error
	}
	if result.RowsAffected == 0 {
		return decimal.Zero, fmt.Errorf("%w: account %q", apperr.ErrNotFound, username)
	}

	account, err := s.GetByUsername(username)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Wallet, nil
}

// checkDuplicates rejects registration when the username or email is taken.
func (s *AccountService) checkDuplicates(username, email string) error {
	var existing models.Account
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return fmt.Errorf("%w: e-mail already exists", apperr.ErrConflict)
	}
	if err := s.db.Where("username = ?", username).First(&existing).Error; err == nil {
		return fmt.Errorf("%w: username already exists", apperr.ErrConflict)
	}
	return nil
}

// generateOTP returns a random six-digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
