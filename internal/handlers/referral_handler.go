package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sky366trade/backend/internal/auth"
	"github.com/sky366trade/backend/internal/services"
)

// ReferralHandler handles team attachment and reward distribution.
type ReferralHandler struct {
	referralService *services.ReferralService
}

func NewReferralHandler(referralService *services.ReferralService) *ReferralHandler {
	return &ReferralHandler{referralService: referralService}
}

// Attach links the authenticated user under a recruiter.
// POST /referral/attach
func (h *ReferralHandler) Attach(c *gin.Context) {
	username, exists := auth.GetUsername(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		ParentUsername string `json:"parent_username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.referralService.Attach(username, req.ParentUsername); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Joined team successfully",
	})
}

// Distribute triggers the one-time referral bonus payout for a user.
// POST /referral/distribute
func (h *ReferralHandler) Distribute(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Amount   string `json:"amount" binding:"required"`
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

	credited, err := h.referralService.DistributeReward(req.Username, amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"credited": credited,
	})
}

// GetTeam returns the team aggregate for a recruiter.
// GET /referral/team/:name
func (h *ReferralHandler) GetTeam(c *gin.Context) {
	team, err := h.referralService.GetTeam(c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    team,
	})
}

// GetReferrals lists the accounts recruited directly by the current user.
// GET /referral/referrals
func (h *ReferralHandler) GetReferrals(c *gin.Context) {
	username, exists := auth.GetUsername(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	referrals, err := h.referralService.GetDirectReferrals(username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get referrals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    referrals,
		"count":   len(referrals),
	})
}
