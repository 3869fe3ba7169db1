package client

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type loginResult struct {
	User User `json:"user"`
	tokens
}

func expiry(seconds int64) time.Time {
	if seconds <= 0 {
		return time.Time{}
	}
	return time.Now().Add(time.Duration(seconds) * time.Second)
}

// Login signs in with a username or email and replaces the current session.
func (c *Client) Login(ctx context.Context, login, password string) (*User, error) {
	req, err := jsonRequest(http.MethodPost, "/auth/login", map[string]string{
		"login":    login,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	req.anon = true
	req.noRetry = true

	var res loginResult
	if err := c.do(ctx, req, &res); err != nil {
		return nil, err
	}
	c.session.replace(SessionState{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		UserID:       res.User.ID,
		Email:        res.User.Email,
		IsAdmin:      res.User.IsAdmin,
		ExpiresAt:    expiry(res.ExpiresIn),
	})
	c.syncAdmin(ctx)
	c.persist(c.session.State())

	user := res.User
	user.IsAdmin = c.session.IsAdmin()
	return &user, nil
}

// Logout revokes the session on the server when possible and always forgets
// it locally.
func (c *Client) Logout(ctx context.Context) error {
	if c.session.Authenticated() {
		req := &request{method: http.MethodPost, path: "/auth/logout", noRetry: true}
		if err := c.do(ctx, req, nil); err != nil {
			c.logger.Debug("server logout failed", zap.Error(err))
		}
	}
	c.clearSession()
	return nil
}

// Refresh exchanges the refresh token for a new pair.
func (c *Client) Refresh(ctx context.Context) error {
	if err := c.refreshAfter(ctx, c.session.accessToken()); err != nil {
		c.clearSession()
		return err
	}
	return nil
}

// refreshAfter refreshes unless another caller already replaced stale.
func (c *Client) refreshAfter(ctx context.Context, stale string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if current := c.session.accessToken(); current != "" && current != stale {
		return nil
	}
	refreshToken := c.session.refreshToken()
	if refreshToken == "" {
		return ErrUnauthorized
	}
	req, err := jsonRequest(http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return err
	}
	req.anon = true
	req.noRetry = true

	var res tokens
	if err := c.do(ctx, req, &res); err != nil {
		return err
	}
	c.session.update(func(s *SessionState) {
		s.AccessToken = res.AccessToken
		s.RefreshToken = res.RefreshToken
		s.ExpiresAt = expiry(res.ExpiresIn)
	})
	c.syncAdmin(ctx)
	c.persist(c.session.State())
	return nil
}

// syncAdmin re-reads the admin flag for a freshly issued token. A failure
// keeps the flag reported at sign in.
func (c *Client) syncAdmin(ctx context.Context) {
	isAdmin, err := c.checkAdmin(ctx, true)
	if err != nil {
		c.logger.Warn("check admin failed", zap.Error(err))
		return
	}
	c.session.update(func(s *SessionState) { s.IsAdmin = isAdmin })
}

// CheckAdmin asks the server whether the current session carries the admin
// role and records the answer on the session.
func (c *Client) CheckAdmin(ctx context.Context) (bool, error) {
	isAdmin, err := c.checkAdmin(ctx, false)
	if err != nil {
		return false, err
	}
	state := c.session.update(func(s *SessionState) { s.IsAdmin = isAdmin })
	c.persist(state)
	return isAdmin, nil
}

func (c *Client) checkAdmin(ctx context.Context, noRetry bool) (bool, error) {
	var res struct {
		IsAdmin bool `json:"is_admin"`
	}
	req := &request{method: http.MethodGet, path: "/auth/check-admin", noRetry: noRetry}
	if err := c.do(ctx, req, &res); err != nil {
		return false, err
	}
	return res.IsAdmin, nil
}

// Me returns the signed in operator.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
