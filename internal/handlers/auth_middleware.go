package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chepyr/task-api/internal/auth"
)

const userIDKey = "user_id"

/*
Validates the bearer token from the Authorization header and puts the
user id into the gin context. Every failure is a 401 with the same body.
*/
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			sendError(c, "Unauthorized", http.StatusUnauthorized)
			return
		}

		userID, err := h.Tokens.Validate(auth.ExtractBearer(header))
		if err != nil {
			h.log(c).Debug("token rejected", slog.String("error", err.Error()))
			sendError(c, "Unauthorized", http.StatusUnauthorized)
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// tokenFromQuery lets websocket clients, which cannot set headers, pass
// the token as ?token=.
func tokenFromQuery() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			if token := c.Query("token"); token != "" {
				c.Request.Header.Set("Authorization", "Bearer "+token)
			}
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
