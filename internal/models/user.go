package models

// User with ID 0 means "no such user".
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	CreatedAt    string `json:"created_at"`
}

const MinCredentialLength = 3
