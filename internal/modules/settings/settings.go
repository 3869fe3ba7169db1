package settings

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/pagecraft/internal/models"
	"github.com/mx-space/pagecraft/internal/pkg/apperr"
	"github.com/mx-space/pagecraft/internal/pkg/response"
	"gorm.io/gorm"
)

// OptionalString tells an absent JSON field apart from an explicit null.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

type UpdateSettingsDTO struct {
	SiteName *string        `json:"site_name"`
	LogoURL  OptionalString `json:"logo_url"`
}

// Service reads and writes the settings row, keeping a copy in memory.
type Service struct {
	db     *gorm.DB
	mu     sync.RWMutex
	cached *models.SiteSettingsModel
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Get returns the settings singleton.
func (s *Service) Get(ctx context.Context) (*models.SiteSettingsModel, error) {
	s.mu.RLock()
	if s.cached != nil {
		out := *s.cached
		s.mu.RUnlock()
		return &out, nil
	}
	s.mu.RUnlock()

	return s.load(ctx)
}

func (s *Service) load(ctx context.Context) (*models.SiteSettingsModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var row models.SiteSettingsModel
	err := s.db.WithContext(ctx).First(&row, "id = ?", models.SiteSettingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("settings")
	}
	if err != nil {
		return nil, err
	}
	s.cached = &row
	out := row
	return &out, nil
}

// Update applies the fields present in dto. Last write wins.
func (s *Service) Update(ctx context.Context, dto *UpdateSettingsDTO) (*models.SiteSettingsModel, error) {
	updates := map[string]interface{}{}
	if dto.SiteName != nil {
		name := strings.TrimSpace(*dto.SiteName)
		if name == "" {
			return nil, apperr.Validation("site_name must not be empty")
		}
		updates["site_name"] = name
	}
	if dto.LogoURL.Set {
		if dto.LogoURL.Value == nil || strings.TrimSpace(*dto.LogoURL.Value) == "" {
			updates["logo_url"] = nil
		} else {
			updates["logo_url"] = strings.TrimSpace(*dto.LogoURL.Value)
		}
	}
	if len(updates) == 0 {
		return s.Get(ctx)
	}

	res := s.db.WithContext(ctx).Model(&models.SiteSettingsModel{}).
		Where("id = ?", models.SiteSettingsID).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("settings")
	}

	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
	return s.load(ctx)
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, adminMW ...gin.HandlerFunc) {
	g := rg.Group("/settings")
	g.GET("", h.get)

	a := g.Group("", adminMW...)
	a.PUT("", h.update)
	a.PATCH("", h.update)
}

func (h *Handler) get(c *gin.Context) {
	row, err := h.svc.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, row)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateSettingsDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	row, err := h.svc.Update(c.Request.Context(), &dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, row)
}
