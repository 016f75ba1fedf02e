package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sky366trade/backend/internal/auth"
	"github.com/sky366trade/backend/internal/services"
)

// AccountHandler handles profile and wallet endpoints.
type AccountHandler struct {
	accountService *services.AccountService
}

func NewAccountHandler(accountService *services.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// GetProfile returns the current user's profile.
// GET /profile
func (h *AccountHandler) GetProfile(c *gin.Context) {
	username, exists := auth.GetUsername(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	account, err := h.accountService.GetByUsername(username)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":  account.Username,
		"email":     account.Email,
		"phone":     account.Phone,
		"wallet":    account.Wallet,
		"join_date": account.JoinDate,
	})
}

// UpdateProfile updates contact fields.
// PUT /profile
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	username, exists := auth.GetUsername(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.accountService.UpdateProfile(username, req.Email, req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":  account.Username,
		"email":     account.Email,
		"phone":     account.Phone,
		"wallet":    account.Wallet,
		"join_date": account.JoinDate,
	})
}

// UpdateWallet credits the wallet with a positive amount.
// POST /wallet/update
func (h *AccountHandler) UpdateWallet(c *gin.Context) {
	username, exists := auth.GetUsername(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		Amount string `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
		return
	}

	balance, err := h.accountService.CreditWallet(username, amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Wallet updated successfully",
		"wallet":  balance,
	})
}
