package domain

import (
	"errors"
	"time"
)

var ErrUserExists = errors.New("User already exists")
var ErrUserNotFound = errors.New("User not found")
var ErrInvalidCredentials = errors.New("Invalid username or password")

// User models an authenticated actor. The password is stored only as a
// one-way bcrypt hash and is never serialized.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
