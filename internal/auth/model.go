package auth

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// AuthResult is the body returned by signup and signin.
type AuthResult struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Token string `json:"token"`
}
