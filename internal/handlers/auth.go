package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sky366trade/backend/internal/auth"
	"github.com/sky366trade/backend/internal/services"
)

// AuthHandler handles registration, OTP verification and login.
type AuthHandler struct {
	accountService *services.AccountService
	taskService    *services.TaskService
}

func NewAuthHandler(accountService *services.AccountService, taskService *services.TaskService) *AuthHandler {
	return &AuthHandler{
		accountService: accountService,
		taskService:    taskService,
	}
}

type signupRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
}

// Register creates an account directly, without email verification.
// POST /register
func (h *AuthHandler) Register(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.accountService.Register(req.Username, req.Password, req.Email, req.Phone); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User registered successfully",
	})
}

// SendOTP starts a verified signup: the account is created unverified and a
// code is emailed.
// POST /send-otp
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.accountService.SendOTP(req.Username, req.Password, req.Email, req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"username": account.Username,
			"email":    account.Email,
		},
	})
}

// VerifyOTP finishes the signup.
// POST /verify-otp
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		OTP      string `json:"otp" binding:"required"`
		Username string `json:"username"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.accountService.VerifyOTP(req.Email, req.OTP, req.Username, req.Password, req.Phone); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User registered successfully",
	})
}

// Login checks credentials and issues a one-hour token. The response also
// carries the user's task list, which the client renders immediately.
// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.accountService.Login(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(account.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	tasks, err := h.taskService.ListTasks(account.Username)
	if err != nil {
		tasks = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"tasks": tasks,
	})
}
