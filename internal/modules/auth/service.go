package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mx-space/pagecraft/internal/models"
	"github.com/mx-space/pagecraft/internal/pkg/apperr"
	jwtpkg "github.com/mx-space/pagecraft/internal/pkg/jwt"
	sessionpkg "github.com/mx-space/pagecraft/internal/pkg/session"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Options struct {
	TTL sessionpkg.TTL
	// FailureDelay slows down failed logins.
	FailureDelay time.Duration
	Logger       *zap.Logger
}

type Service struct {
	db           *gorm.DB
	ttl          sessionpkg.TTL
	failureDelay time.Duration
	logger       *zap.Logger
}

func NewService(db *gorm.DB, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, ttl: opts.TTL, failureDelay: opts.FailureDelay, logger: logger}
}

// Login checks the password of the account named by login (username or
// email) and opens a new session for it.
func (s *Service) Login(ctx context.Context, login, password, ip, ua string) (*LoginResult, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, apperr.Validation("login and password are required")
	}

	var u models.UserModel
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", login, strings.ToLower(login)).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.fail(ctx, login, ip)
			return nil, invalidCredentials()
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		s.fail(ctx, login, ip)
		return nil, invalidCredentials()
	}

	isAdmin, err := s.IsAdmin(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	tokens, _, err := sessionpkg.Issue(s.db.WithContext(ctx), u.ID, ip, ua, isAdmin, s.ttl)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s.db.WithContext(ctx).Model(&u).Updates(map[string]interface{}{
		"last_login_time": now,
		"last_login_ip":   ip,
	})
	s.logger.Info("operator signed in", zap.String("user_id", u.ID), zap.String("ip", ip), zap.Bool("admin", isAdmin))

	return &LoginResult{User: toInfo(&u, isAdmin), Tokens: tokens}, nil
}

func (s *Service) fail(ctx context.Context, login, ip string) {
	s.logger.Warn("failed sign in", zap.String("login", login), zap.String("ip", ip))
	if s.failureDelay <= 0 {
		return
	}
	t := time.NewTimer(s.failureDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Refresh exchanges a refresh token for a new pair. The admin claim is
// recomputed from the role table.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*sessionpkg.Tokens, error) {
	claims, err := jwtpkg.ParseRefresh(strings.TrimSpace(refreshToken))
	if err != nil {
		return nil, unauthorized(err)
	}
	isAdmin, err := s.IsAdmin(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	tokens, err := sessionpkg.Rotate(s.db.WithContext(ctx), claims, isAdmin, s.ttl)
	if err != nil {
		if errors.Is(err, sessionpkg.ErrRefreshReuse) {
			s.logger.Warn("refresh token reuse, session revoked",
				zap.String("user_id", claims.UserID), zap.String("session_id", claims.SessionID))
		}
		if errors.Is(err, sessionpkg.ErrInactive) || errors.Is(err, sessionpkg.ErrRefreshReuse) {
			return nil, unauthorized(err)
		}
		return nil, err
	}
	return tokens, nil
}

// Logout revokes the session. Revoking an already closed session is not an error.
func (s *Service) Logout(ctx context.Context, userID, sessionID string) error {
	err := sessionpkg.Revoke(s.db.WithContext(ctx), userID, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

func (s *Service) Me(ctx context.Context, userID string, isAdmin bool) (*UserInfo, error) {
	var u models.UserModel
	if err := s.db.WithContext(ctx).First(&u, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user")
		}
		return nil, err
	}
	info := toInfo(&u, isAdmin)
	return &info, nil
}

func (s *Service) Sessions(ctx context.Context, userID string) ([]models.UserSession, error) {
	return sessionpkg.ListActive(s.db.WithContext(ctx), userID)
}

// RevokeOtherSessions signs the user out everywhere except keepSessionID.
func (s *Service) RevokeOtherSessions(ctx context.Context, userID, keepSessionID string) error {
	return sessionpkg.RevokeAllExcept(s.db.WithContext(ctx), userID, keepSessionID)
}

// IsAdmin reports whether userID holds the admin role.
func (s *Service) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.UserRole{}).
		Where("user_id = ? AND role = ?", userID, models.RoleAdmin).
		Count(&count).Error
	return count > 0, err
}

// EnsureAdmin creates the operator account if needed and grants it the admin
// role. An existing account keeps its password.
func (s *Service) EnsureAdmin(ctx context.Context, username, email, password string) error {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.UserModel
		err := tx.Where("username = ?", username).First(&u).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if password == "" {
				return apperr.Validation("admin password is required to create %s", username)
			}
			if email == "" {
				email = username
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			u = models.UserModel{Username: username, Email: email, Password: string(hash)}
			if err := tx.Create(&u).Error; err != nil {
				return err
			}
			s.logger.Info("created admin account", zap.String("username", username))
		case err != nil:
			return err
		}

		role := models.UserRole{UserID: u.ID, Role: models.RoleAdmin}
		return tx.Where(role).FirstOrCreate(&role).Error
	})
}

func toInfo(u *models.UserModel, isAdmin bool) UserInfo {
	return UserInfo{ID: u.ID, Username: u.Username, Email: u.Email, IsAdmin: isAdmin}
}
