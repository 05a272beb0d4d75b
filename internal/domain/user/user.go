package user

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("user not found")

type User struct {
	ID           string          `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"` // never expose hash in JSON
	Profile      json.RawMessage `json:"profile"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=80"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// DefaultProfile is the profile blob stamped on new accounts.
func DefaultProfile() json.RawMessage {
	return json.RawMessage(`{"avatar":"","bio":"","preferences":{}}`)
}
