// Package auth signs operators in and out and exposes who the caller is.
package auth

import (
	"fmt"

	"github.com/mx-space/pagecraft/internal/pkg/apperr"
	sessionpkg "github.com/mx-space/pagecraft/internal/pkg/session"
)

// LoginDTO accepts the account name in either login or email.
type LoginDTO struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UserInfo is the public view of an operator.
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
}

type LoginResult struct {
	User UserInfo `json:"user"`
	*sessionpkg.Tokens
}

func invalidCredentials() error {
	return fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
}

func unauthorized(err error) error {
	return fmt.Errorf("%w: %w", err, apperr.ErrUnauthorized)
}
