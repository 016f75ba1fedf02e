package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sky366trade/backend/internal/apperr"
	"github.com/sky366trade/backend/internal/gateway"
	"github.com/sky366trade/backend/internal/models"
)

func signPayment(secret, orderID, paymentID string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}

func TestVerifyPaymentCreditsDeposit(t *testing.T) {
	db := setupTestDB(t)
	razorpay := gateway.NewRazorpayClient("key", "test_secret")
	referral := NewReferralService(db)
	service := NewPaymentService(db, razorpay, referral)

	createAccount(t, db, "recruiter", 0)
	createAccount(t, db, "depositor", 0)
	if err := referral.Attach("depositor", "recruiter"); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	payment := models.Payment{
		Username:        "depositor",
		RazorpayOrderID: "order_abc",
		Amount:          decimal.NewFromInt(100),
		Currency:        "USD",
	}
	if err := db.Create(&payment).Error; err != nil {
		t.Fatalf("failed to record order: %v", err)
	}

	signature := signPayment("test_secret", "order_abc", "pay_1")
	verified, err := service.VerifyPayment("order_abc", "pay_1", signature)
	if err != nil {
		t.Fatalf("VerifyPayment failed: %v", err)
	}
	if !verified.Verified {
		t.Errorf("expected payment marked verified")
	}

	// Deposit credited, and the deposit was a qualifying event: the
	// recruiter received the 10% tier.
	if wallet := getAccount(t, db, "depositor").Wallet; !wallet.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected depositor wallet 100, got %s", wallet)
	}
	if wallet := getAccount(t, db, "recruiter").Wallet; !wallet.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected recruiter wallet 10, got %s", wallet)
	}

	// Replayed callbacks are rejected.
	if _, err := service.VerifyPayment("order_abc", "pay_1", signature); !errors.Is(err, apperr.ErrAlreadyProcessed) {
		t.Fatalf("expected AlreadyProcessed on replay, got %v", err)
	}
}

func TestVerifyPaymentBadSignature(t *testing.T) {
	db := setupTestDB(t)
	razorpay := gateway.NewRazorpayClient("key", "test_secret")
	service := NewPaymentService(db, razorpay, NewReferralService(db))

	createAccount(t, db, "depositor", 0)
	payment := models.Payment{
		Username:        "depositor",
		RazorpayOrderID: "order_abc",
		Amount:          decimal.NewFromInt(100),
		Currency:        "USD",
	}
	if err := db.Create(&payment).Error; err != nil {
		t.Fatalf("failed to record order: %v", err)
	}

	_, err := service.VerifyPayment("order_abc", "pay_1", "bad")
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected InvalidInput for bad signature, got %v", err)
	}
	if wallet := getAccount(t, db, "depositor").Wallet; !wallet.IsZero() {
		t.Errorf("bad signature must not credit the wallet, got %s", wallet)
	}

	_, err = service.VerifyPayment("order_missing", "pay_1", "bad")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected NotFound for unknown order, got %v", err)
	}
}
