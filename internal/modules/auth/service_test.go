package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/pagecraft/internal/database/dbtest"
	"github.com/mx-space/pagecraft/internal/middleware"
	"github.com/mx-space/pagecraft/internal/models"
	"github.com/mx-space/pagecraft/internal/pkg/apperr"
	jwtpkg "github.com/mx-space/pagecraft/internal/pkg/jwt"
	sessionpkg "github.com/mx-space/pagecraft/internal/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := dbtest.New(t)
	svc := NewService(db, Options{TTL: sessionpkg.TTL{Access: time.Minute, Refresh: time.Hour}})
	require.NoError(t, svc.EnsureAdmin(context.Background(), "admin", "Admin@Example.com", "s3cret"))
	return svc, db
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "admin@example.com", "other"))

	var users []models.UserModel
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "admin@example.com", users[0].Email)

	var roles int64
	require.NoError(t, db.Model(&models.UserRole{}).Count(&roles).Error)
	assert.Equal(t, int64(1), roles)

	// the stored password is kept
	_, err := svc.Login(ctx, "admin", "s3cret", "", "")
	assert.NoError(t, err)

	assert.NoError(t, svc.EnsureAdmin(ctx, "", "", ""))
	assert.ErrorIs(t, svc.EnsureAdmin(ctx, "newbie", "", ""), apperr.ErrValidation)
}

func TestLogin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, "admin", "s3cret", "127.0.0.1", "test")
	require.NoError(t, err)
	assert.True(t, res.User.IsAdmin)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, int64(60), res.ExpiresIn)

	claims, err := jwtpkg.ParseAccess(res.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, res.User.ID, claims.UserID)

	_, err = svc.Login(ctx, "admin@example.com", "s3cret", "", "")
	assert.NoError(t, err, "email works as login")

	_, err = svc.Login(ctx, "admin", "wrong", "", "")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = svc.Login(ctx, "nobody", "s3cret", "", "")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestLogin_NonAdmin(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "editor", "editor@example.com", "pw"))
	var editor models.UserModel
	require.NoError(t, db.First(&editor, "username = ?", "editor").Error)
	require.NoError(t, db.Where("user_id = ?", editor.ID).Delete(&models.UserRole{}).Error)

	res, err := svc.Login(ctx, "editor", "pw", "", "")
	require.NoError(t, err)
	assert.False(t, res.User.IsAdmin)
}

func TestRefresh_RotatesAndRecomputesAdmin(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, "admin", "s3cret", "", "")
	require.NoError(t, err)

	// role revoked between login and refresh
	require.NoError(t, db.Where("user_id = ?", res.User.ID).Delete(&models.UserRole{}).Error)

	tokens, err := svc.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	claims, err := jwtpkg.ParseAccess(tokens.AccessToken)
	require.NoError(t, err)
	assert.False(t, claims.IsAdmin)

	// the old refresh token is spent, and reusing it kills the session
	_, err = svc.Refresh(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = svc.Refresh(ctx, res.AccessToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized, "access tokens cannot refresh")
	_, err = svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestLogout(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, "admin", "s3cret", "", "")
	require.NoError(t, err)
	claims, err := jwtpkg.ParseAccess(res.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims.UserID, claims.SessionID))
	require.NoError(t, svc.Logout(ctx, claims.UserID, claims.SessionID))

	_, err = svc.Refresh(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, db := newService(t)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api"), middleware.Auth(db))

	do := func(method, path, token string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "admin@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "admin@example.com", "password": "s3cret"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		User         UserInfo `json:"user"`
		AccessToken  string   `json:"access_token"`
		RefreshToken string   `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.True(t, login.User.IsAdmin)

	w = do(http.MethodGet, "/api/auth/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me UserInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "admin@example.com", me.Email)
	assert.True(t, me.IsAdmin)

	w = do(http.MethodGet, "/api/auth/check-admin", login.AccessToken, nil)
	assert.JSONEq(t, `{"is_admin":true}`, w.Body.String())
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/api/auth/check-admin", "", nil).Code)

	w = do(http.MethodGet, "/api/auth/sessions", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"current":true`)

	w = do(http.MethodPost, "/api/auth/refresh", "", gin.H{"refresh_token": login.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)
	var tokens sessionpkg.Tokens
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))
	assert.NotEqual(t, login.RefreshToken, tokens.RefreshToken)

	assert.Equal(t, http.StatusNoContent, do(http.MethodPost, "/api/auth/logout", tokens.AccessToken, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/api/auth/me", tokens.AccessToken, nil).Code)
}

func TestHandler_RolesAndOtherSessions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, db := newService(t)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api"), middleware.Auth(db))
	ctx := context.Background()

	do := func(method, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	laptop, err := svc.Login(ctx, "admin", "s3cret", "10.0.0.1", "laptop")
	require.NoError(t, err)
	phone, err := svc.Login(ctx, "admin", "s3cret", "10.0.0.2", "phone")
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, do(http.MethodDelete, "/api/auth/sessions", laptop.AccessToken).Code)
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/api/auth/me", phone.AccessToken).Code)
	_, err = svc.Refresh(ctx, phone.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/api/auth/me", laptop.AccessToken).Code)

	// the access token still claims admin, the role table no longer does
	require.NoError(t, db.Where("role = ?", models.RoleAdmin).Delete(&models.UserRole{}).Error)
	w := do(http.MethodGet, "/api/auth/check-admin", laptop.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"is_admin":false}`, w.Body.String())
}
