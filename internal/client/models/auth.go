// Package models defines the wire shapes exchanged with the banking API.
package models

import "strings"

// User is the profile returned by /auth/me and alongside a login token.
type User struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email,omitempty"`
	FirstName   string   `json:"firstName,omitempty"`
	LastName    string   `json:"lastName,omitempty"`
	Balance     float64  `json:"balance"`
	KYCVerified bool     `json:"kycVerified"`
	Roles       []string `json:"roles,omitempty"`
}

// DisplayName prefers the full name and falls back to the username.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// LoginRequest carries the password either as base64 RSA-OAEP ciphertext or,
// under the fallback policy only, as plaintext.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is LoginRequest plus profile fields.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Password  string `json:"password"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

type PublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}
