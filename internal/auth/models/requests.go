package models

import (
	"strings"

	"gradus/pkg/validation"
)

// LoginRequest is the credential payload for creating a session.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Normalize canonicalizes the request in place. Emails match the
// lower-cased form accounts are stored under; the password is untouched.
func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

// Validate checks the request against its validation tags.
func (r *LoginRequest) Validate() error {
	return validation.Validate(r)
}

// RefreshRequest carries the opaque refresh token being exchanged.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (r *RefreshRequest) Normalize() {
	r.RefreshToken = strings.TrimSpace(r.RefreshToken)
}

// Validate checks the request against its validation tags.
func (r *RefreshRequest) Validate() error {
	return validation.Validate(r)
}
