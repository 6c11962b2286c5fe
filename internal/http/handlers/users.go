package handlers

import (
	"net/http"

	"busbooking/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// DELETE /api/v1/users/:userId releases every seat the user holds, then removes the account.
func (h Handlers) DeleteUser(c *gin.Context) {
	userID := c.Param("userId")
	freed, err := h.accounts(c).RemoveUser(c.Request.Context(), middleware.Actor(c), userID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user removed", "userId": userID, "seatsReleased": freed})
}
