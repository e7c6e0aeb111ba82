package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/chepyr/task-api/internal/auth"
	"github.com/chepyr/task-api/internal/db"
	"github.com/chepyr/task-api/internal/models"
)

func (h *Handler) Register(c *gin.Context) {
	fields, ok := h.bindFields(c)
	if !ok {
		return
	}
	username, password, ok := credentials(c, fields)
	if !ok {
		return
	}

	if utf8.RuneCountInString(username) < models.MinCredentialLength ||
		utf8.RuneCountInString(password) < models.MinCredentialLength {
		sendError(c, "Username and password must be at least 3 characters", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	existing, err := h.UserRepo.GetByUsername(ctx, username)
	if err != nil {
		h.log(c).Error("lookup user failed", slog.String("error", err.Error()))
		sendError(c, "Failed to create user", http.StatusInternalServerError)
		return
	}
	if existing.ID != 0 {
		sendError(c, "Username already exists", http.StatusConflict)
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			sendError(c, "Password must be at most 72 bytes", http.StatusBadRequest)
			return
		}
		h.log(c).Error("hash password failed", slog.String("error", err.Error()))
		sendError(c, "Cannot hash password", http.StatusInternalServerError)
		return
	}

	userID, err := h.UserRepo.Create(ctx, username, hash)
	if errors.Is(err, db.ErrUsernameTaken) {
		sendError(c, "Username already exists", http.StatusConflict)
		return
	}
	if err != nil {
		h.log(c).Error("create user failed", slog.String("error", err.Error()))
		sendError(c, "Failed to create user", http.StatusInternalServerError)
		return
	}

	h.log(c).Info("user registered", slog.Int64("user_id", userID))
	sendMessage(c, "User created successfully", http.StatusCreated)
}

// credentials pulls username and password out of the body or answers 400.
func credentials(c *gin.Context, fields map[string]string) (string, string, bool) {
	username, hasUsername := fields["username"]
	password, hasPassword := fields["password"]
	if !hasUsername || !hasPassword {
		sendError(c, "Username and password are required", http.StatusBadRequest)
		return "", "", false
	}
	return username, password, true
}
