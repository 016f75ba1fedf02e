package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sky366trade/backend/internal/apperr"
	"github.com/sky366trade/backend/internal/gateway"
	"github.com/sky366trade/backend/internal/logging"
	"github.com/sky366trade/backend/internal/models"
)

// PaymentService creates Razorpay deposit orders and, on verified payment,
// credits the wallet and triggers the one-time referral distribution.
type PaymentService struct {
	db       *gorm.DB
	razorpay *gateway.RazorpayClient
	referral *ReferralService
}

func NewPaymentService(db *gorm.DB, razorpay *gateway.RazorpayClient, referral *ReferralService) *PaymentService {
	return &PaymentService{db: db, razorpay: razorpay, referral: referral}
}

// CreateOrder creates a hosted payment order for username's deposit.
func (s *PaymentService) CreateOrder(ctx context.Context, username string, amount decimal.Decimal) (*gateway.RazorpayOrder, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be positive", apperr.ErrInvalidInput)
	}

	var account models.Account
	if err := s.db.Where("username = ?", username).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account %q", apperr.ErrNotFound, username)
		}
		return nil, err
	}

	order, err := s.razorpay.CreateOrder(ctx, amount, "USD")
	if err != nil {
		return nil, err
	}

	payment := models.Payment{
		Username:        username,
		RazorpayOrderID: order.ID,
		Amount:          amount,
		Currency:        order.Currency,
	}
	if err := s.db.Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("failed to record payment order: %w", err)
	}

	return order, nil
}

// VerifyPayment checks the callback signature, credits the deposit and
// triggers reward distribution for the depositing account.
func (s *PaymentService) VerifyPayment(orderID, paymentID, signature string) (*models.Payment, error) {
	if orderID == "" || paymentID == "" || signature == "" {
		return nil, fmt.Errorf("%w: order id, payment id and signature are required", apperr.ErrInvalidInput)
	}

	var payment models.Payment
	if err := s.db.Where("razorpay_order_id = ?", orderID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %q", apperr.ErrNotFound, orderID)
		}
		return nil, err
	}

	if payment.Verified {
		return nil, fmt.Errorf("%w: payment for order %q", apperr.ErrAlreadyProcessed, orderID)
	}

	if !s.razorpay.VerifySignature(orderID, paymentID, signature) {
		return nil, fmt.Errorf("%w: payment verification failed", apperr.ErrInvalidInput)
	}

	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&payment).Updates(map[string]interface{}{
			"razorpay_payment_id": paymentID,
			"razorpay_signature":  signature,
			"verified":            true,
			"verified_at":         now,
		}).Error; err != nil {
			return err
		}

		return tx.Model(&models.Account{}).Where("username = ?", payment.Username).
			Update("wallet", gorm.Expr("wallet + ?", payment.Amount)).Error
	})
	if err != nil {
		return nil, err
	}

	logging.Logger.Info("deposit verified",
		zap.String("username", payment.Username),
		zap.String("order_id", orderID),
		zap.String("amount", payment.Amount.String()),
	)

	// A verified deposit is a qualifying event; soft outcomes are expected.
	if _, err := s.referral.DistributeReward(payment.Username, payment.Amount); err != nil &&
		!errors.Is(err, apperr.ErrNoRewardingMember) &&
		!errors.Is(err, apperr.ErrAlreadyProcessed) {
		logging.Logger.Warn("reward distribution failed",
			zap.String("username", payment.Username), zap.Error(err))
	}

	return &payment, nil
}
