package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sky366trade/backend/internal/apperr"
)

// respondError writes the JSON failure envelope for err. Soft referral
// outcomes report success=false with a 200; everything outside the taxonomy
// becomes a generic server error.
func respondError(c *gin.Context, err error) {
	status := apperr.Status(err)

	if errors.Is(err, apperr.ErrNoRewardingMember) {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": apperr.ErrNoRewardingMember.Error(),
		})
		return
	}

	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "Server error"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
