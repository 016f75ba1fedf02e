package services

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sky366trade/backend/internal/apperr"
	"github.com/sky366trade/backend/internal/models"
)

// fakeSender records outgoing mail instead of talking to SMTP.
type fakeSender struct {
	to      string
	subject string
	body    string
	fail    bool
}

func (f *fakeSender) Send(to, subject, body string) error {
	if f.fail {
		return errors.New("smtp unavailable")
	}
	f.to = to
	f.subject = subject
	f.body = body
	return nil
}

func TestSendOTPAndVerify(t *testing.T) {
	db := setupTestDB(t)
	sender := &fakeSender{}
	service := NewAccountService(db, sender)

	account, err := service.SendOTP("newbie", "hunter22", "newbie@example.com", "555")
	if err != nil {
		t.Fatalf("SendOTP failed: %v", err)
	}
	if sender.to != "newbie@example.com" {
		t.Errorf("expected OTP mail to newbie@example.com, got %q", sender.to)
	}

	stored := getAccount(t, db, "newbie")
	if stored.EmailVerified {
		t.Errorf("account must start unverified")
	}
	if stored.OTP == nil || len(*stored.OTP) != 6 {
		t.Fatalf("expected a six-digit OTP, got %v", stored.OTP)
	}

	if err := service.VerifyOTP(account.Email, *stored.OTP, "newbie", "hunter22", "555"); err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}

	verified := getAccount(t, db, "newbie")
	if !verified.EmailVerified {
		t.Errorf("expected account verified")
	}
	if verified.OTP != nil {
		t.Errorf("expected OTP cleared after verification")
	}
}

func TestVerifyOTPWrongCode(t *testing.T) {
	db := setupTestDB(t)
	service := NewAccountService(db, &fakeSender{})

	if _, err := service.SendOTP("newbie", "hunter22", "newbie@example.com", ""); err != nil {
		t.Fatalf("SendOTP failed: %v", err)
	}

	err := service.VerifyOTP("newbie@example.com", "000000", "", "", "")
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected InvalidInput for wrong code, got %v", err)
	}
	if getAccount(t, db, "newbie").EmailVerified {
		t.Errorf("wrong code must not verify the account")
	}
}

func TestVerifyOTPExpired(t *testing.T) {
	db := setupTestDB(t)
	service := NewAccountService(db, &fakeSender{})

	if _, err := service.SendOTP("newbie", "hunter22", "newbie@example.com", ""); err != nil {
		t.Fatalf("SendOTP failed: %v", err)
	}

	stored := getAccount(t, db, "newbie")
	past := time.Now().Add(-time.Minute)
	if err := db.Model(&models.Account{}).Where("username = ?", "newbie").
		Update("otp_expires_at", past).Error; err != nil {
		t.Fatalf("failed to expire OTP: %v", err)
	}

	err := service.VerifyOTP("newbie@example.com", *stored.OTP, "", "", "")
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected InvalidInput for expired code, got %v", err)
	}
}

func TestRegistrationDuplicates(t *testing.T) {
	db := setupTestDB(t)
	service := NewAccountService(db, &fakeSender{})

	account, err := service.Register("taken", "hunter22", "taken@example.com", "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	// The direct path bypasses OTP, so the account comes out verified.
	if !account.EmailVerified {
		t.Error("expected directly registered account to be verified")
	}

	if _, err := service.Register("taken", "hunter22", "other@example.com", ""); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected Conflict for duplicate username, got %v", err)
	}
	if _, err := service.Register("someone", "hunter22", "taken@example.com", ""); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected Conflict for duplicate email, got %v", err)
	}

	// No account was created by the rejected attempts.
	var count int64
	db.Model(&models.Account{}).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 account, got %d", count)
	}
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	service := NewAccountService(db, &fakeSender{})

	if _, err := service.Register("alice", "correct horse", "alice@example.com", ""); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	account, err := service.Login("alice", "correct horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if account.Username != "alice" {
		t.Errorf("unexpected account: %s", account.Username)
	}

	if _, err := service.Login("alice", "wrong"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected InvalidInput for bad password, got %v", err)
	}
	if _, err := service.Login("bob", "whatever"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected InvalidInput for unknown user, got %v", err)
	}
}

func TestCreditWallet(t *testing.T) {
	db := setupTestDB(t)
	service := NewAccountService(db, &fakeSender{})

	createAccount(t, db, "saver", 100)

	balance, err := service.CreditWallet("saver", decimal.NewFromInt(25))
	if err != nil {
		t.Fatalf("CreditWallet failed: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(125)) {
		t.Errorf("expected balance 125, got %s", balance)
	}

	if _, err := service.CreditWallet("saver", decimal.NewFromInt(-1)); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected InvalidInput for negative amount, got %v", err)
	}
	if _, err := service.CreditWallet("ghost", decimal.NewFromInt(1)); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected NotFound for missing account, got %v", err)
	}
}
