package session

import (
	"errors"
	"strings"
	"time"

	"github.com/mx-space/pagecraft/internal/models"
	jwtpkg "github.com/mx-space/pagecraft/internal/pkg/jwt"
	"gorm.io/gorm"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

var (
	ErrInactive     = errors.New("session expired or revoked")
	ErrRefreshReuse = errors.New("refresh token already used")
)

// TTL controls token lifetimes. The session row lives as long as its refresh token.
type TTL struct {
	Access  time.Duration
	Refresh time.Duration
}

func (t TTL) normalize() TTL {
	if t.Access <= 0 {
		t.Access = DefaultAccessTTL
	}
	if t.Refresh <= 0 {
		t.Refresh = DefaultRefreshTTL
	}
	return t
}

// Tokens is the credential pair handed to a client.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Issue creates a DB session and signs an access/refresh pair bound to it.
func Issue(db *gorm.DB, userID, ip, ua string, isAdmin bool, ttl TTL) (*Tokens, *models.UserSession, error) {
	ttl = ttl.normalize()

	now := time.Now()
	s := &models.UserSession{
		UserID:    userID,
		IP:        strings.TrimSpace(ip),
		UA:        strings.TrimSpace(ua),
		ExpiresAt: now.Add(ttl.Refresh),
	}
	if err := db.Create(s).Error; err != nil {
		return nil, nil, err
	}

	tokens, refreshID, err := sign(userID, s.ID, isAdmin, ttl)
	if err != nil {
		_ = db.Delete(s).Error
		return nil, nil, err
	}
	if err := db.Model(s).Update("refresh_id", refreshID).Error; err != nil {
		_ = db.Delete(s).Error
		return nil, nil, err
	}
	s.RefreshID = refreshID
	return tokens, s, nil
}

// Rotate exchanges a parsed refresh token for a new pair. The previous refresh
// token stops working; presenting it again revokes the whole session.
func Rotate(db *gorm.DB, claims *jwtpkg.Claims, isAdmin bool, ttl TTL) (*Tokens, error) {
	ttl = ttl.normalize()

	active, err := IsActive(db, claims.UserID, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrInactive
	}

	tokens, refreshID, err := sign(claims.UserID, claims.SessionID, isAdmin, ttl)
	if err != nil {
		return nil, err
	}

	res := db.Model(&models.UserSession{}).
		Where("id = ? AND user_id = ? AND refresh_id = ? AND revoked_at IS NULL", claims.SessionID, claims.UserID, claims.ID).
		Updates(map[string]interface{}{
			"refresh_id": refreshID,
			"expires_at": time.Now().Add(ttl.Refresh),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		_ = Revoke(db, claims.UserID, claims.SessionID)
		return nil, ErrRefreshReuse
	}
	return tokens, nil
}

func sign(userID, sessionID string, isAdmin bool, ttl TTL) (*Tokens, string, error) {
	access, err := jwtpkg.SignAccess(userID, sessionID, isAdmin, ttl.Access)
	if err != nil {
		return nil, "", err
	}
	refresh, refreshID, err := jwtpkg.SignRefresh(userID, sessionID, ttl.Refresh)
	if err != nil {
		return nil, "", err
	}
	return &Tokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(ttl.Access / time.Second),
	}, refreshID, nil
}

func IsActive(db *gorm.DB, userID, sessionID string) (bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return false, nil
	}

	var count int64
	err := db.Model(&models.UserSession{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL AND expires_at > ?", sessionID, userID, time.Now()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func Touch(db *gorm.DB, userID, sessionID string) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return
	}
	_ = db.Model(&models.UserSession{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL AND expires_at > ?", sessionID, userID, time.Now()).
		Update("updated_at", time.Now()).Error
}

func ListActive(db *gorm.DB, userID string) ([]models.UserSession, error) {
	var sessions []models.UserSession
	err := db.Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, time.Now()).
		Order("updated_at DESC, created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

func Revoke(db *gorm.DB, userID, sessionID string) error {
	now := time.Now()
	res := db.Model(&models.UserSession{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL", sessionID, userID).
		Update("revoked_at", &now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func RevokeAllExcept(db *gorm.DB, userID, keepSessionID string) error {
	now := time.Now()
	query := db.Model(&models.UserSession{}).
		Where("user_id = ? AND revoked_at IS NULL", userID)
	if strings.TrimSpace(keepSessionID) != "" {
		query = query.Where("id <> ?", keepSessionID)
	}
	return query.Update("revoked_at", &now).Error
}

// Purge deletes sessions that expired or were revoked before cutoff.
func Purge(db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.Where("expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)", cutoff, cutoff).
		Delete(&models.UserSession{})
	return res.RowsAffected, res.Error
}
