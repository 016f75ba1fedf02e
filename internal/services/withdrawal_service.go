package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sky366trade/backend/internal/apperr"
	"github.com/sky366trade/backend/internal/gateway"
	"github.com/sky366trade/backend/internal/logging"
	"github.com/sky366trade/backend/internal/models"
)

// WithdrawalService creates withdrawal requests and forwards them to the
// crypto payout gateway. At most one pending request is allowed per user;
// settlement happens outside this service.
type WithdrawalService struct {
	db      *gorm.DB
	binance *gateway.BinanceClient
}

func NewWithdrawalService(db *gorm.DB, binance *gateway.BinanceClient) *WithdrawalService {
	return &WithdrawalService{db: db, binance: binance}
}

// Request records a withdrawal and submits it to the gateway.
func (s *WithdrawalService) Request(ctx context.Context, username string, amount decimal.Decimal, asset, address, network string) (*models.WithdrawalRequest, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be positive", apperr.ErrInvalidInput)
	}
	if asset == "" || address == "" {
		return nil, fmt.Errorf("%w: asset and address are required", apperr.ErrInvalidInput)
	}

	var account models.Account
	if err := s.db.Where("username = ?", username).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account %q", apperr.ErrNotFound, username)
		}
		return nil, err
	}

	if account.Wallet.LessThan(amount) {
		return nil, fmt.Errorf("%w: insufficient balance", apperr.ErrInvalidInput)
	}

	var pending models.WithdrawalRequest
	err := s.db.Where("username = ? AND status = ?", username, models.WithdrawalPending).
		First(&pending).Error
	if err == nil {
		return nil, fmt.Errorf("%w: a pending withdrawal already exists", apperr.ErrConflict)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	request := models.WithdrawalRequest{
		OrderID:  uuid.NewString(),
		Username: username,
		Amount:   amount,
		Asset:    asset,
		Address:  address,
		Network:  network,
		Status:   models.WithdrawalPending,
	}

	if err := s.db.Create(&request).Error; err != nil {
		return nil, fmt.Errorf("failed to create withdrawal request: %w", err)
	}

	if s.binance != nil {
		resp, err := s.binance.Withdraw(ctx, asset, address, network, amount)
		if err != nil {
			logging.Logger.Warn("gateway withdrawal submission failed",
				zap.String("order_id", request.OrderID), zap.Error(err))
		} else {
			request.ProviderRef = resp.ID
			if err := s.db.Model(&request).Update("provider_ref", resp.ID).Error; err != nil {
				return nil, err
			}
		}
	}

	logging.Logger.Info("withdrawal requested",
		zap.String("username", username),
		zap.String("order_id", request.OrderID),
		zap.String("amount", amount.String()),
	)

	return &request, nil
}

// List returns the account's withdrawal requests, newest first.
func (s *WithdrawalService) List(username string) ([]models.WithdrawalRequest, error) {
	var requests []models.WithdrawalRequest
	if err := s.db.Where("username = ?", username).
		Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}
