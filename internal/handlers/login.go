package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chepyr/task-api/internal/auth"
)

// verifyPassword is swapped out by tests to observe the comparison.
var verifyPassword = auth.VerifyPassword

type loginResponse struct {
	Token     string `json:"token"`
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	ExpiresAt int64  `json:"expires_at"`
}

// Login answers the same 401 for an unknown user and a wrong password so
// usernames cannot be probed.
func (h *Handler) Login(c *gin.Context) {
	fields, ok := h.bindFields(c)
	if !ok {
		return
	}
	username, password, ok := credentials(c, fields)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, err := h.UserRepo.GetByUsername(ctx, username)
	if err != nil {
		h.log(c).Error("lookup user failed", slog.String("error", err.Error()))
		sendError(c, "Internal server error", http.StatusInternalServerError)
		return
	}
	hash := user.PasswordHash
	if user.ID == 0 {
		hash = auth.UnknownUserHash
	}
	if !verifyPassword(password, hash) || user.ID == 0 {
		h.log(c).Info("login rejected", slog.String("username", username))
		sendError(c, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, expiresAt, err := h.Tokens.Issue(user.ID)
	if err != nil {
		h.log(c).Error("issue token failed", slog.String("error", err.Error()))
		sendError(c, "Cannot create token", http.StatusInternalServerError)
		return
	}

	h.log(c).Info("user logged in", slog.Int64("user_id", user.ID))
	c.JSON(http.StatusOK, loginResponse{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		ExpiresAt: expiresAt.Unix(),
	})
}

// Me returns the profile behind the presented token.
func (h *Handler) Me(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, err := h.UserRepo.GetByID(ctx, currentUserID(c))
	if err != nil {
		h.log(c).Error("lookup user failed", slog.String("error", err.Error()))
		sendError(c, "Internal server error", http.StatusInternalServerError)
		return
	}
	if user.ID == 0 {
		sendError(c, "Unauthorized", http.StatusUnauthorized)
		return
	}
	c.JSON(http.StatusOK, user)
}
