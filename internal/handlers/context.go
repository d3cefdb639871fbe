// internal/handlers/context.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jradiance/jradiance-backend/internal/utils"
)

// principalID resolves the authenticated user's ID from the request context.
// Middleware stores it as a string so both the JWT and the page-guard paths
// agree on the representation.
func principalID(c *gin.Context) (uuid.UUID, bool) {
	idStr, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
