package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/pagecraft/internal/database/dbtest"
	"github.com/mx-space/pagecraft/internal/models"
	"github.com/mx-space/pagecraft/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestGet_Seeded(t *testing.T) {
	svc := NewService(dbtest.New(t))
	row, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Test Site", row.SiteName)
	assert.Nil(t, row.LogoURL)
}

func TestGet_NotProvisioned(t *testing.T) {
	db := dbtest.New(t)
	require.NoError(t, db.Delete(&models.SiteSettingsModel{}, "id = ?", models.SiteSettingsID).Error)

	_, err := NewService(db).Get(context.Background())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdate_Partial(t *testing.T) {
	svc := NewService(dbtest.New(t))
	ctx := context.Background()

	row, err := svc.Update(ctx, &UpdateSettingsDTO{LogoURL: OptionalString{Set: true, Value: strPtr("https://cdn/logo.png")}})
	require.NoError(t, err)
	assert.Equal(t, "Test Site", row.SiteName)
	require.NotNil(t, row.LogoURL)
	assert.Equal(t, "https://cdn/logo.png", *row.LogoURL)

	row, err = svc.Update(ctx, &UpdateSettingsDTO{SiteName: strPtr("  Renamed ")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", row.SiteName)
	require.NotNil(t, row.LogoURL, "absent logo_url keeps the stored value")

	row, err = svc.Update(ctx, &UpdateSettingsDTO{LogoURL: OptionalString{Set: true}})
	require.NoError(t, err)
	assert.Nil(t, row.LogoURL)

	cached, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", cached.SiteName)
	assert.Nil(t, cached.LogoURL)
}

func TestUpdate_RejectsEmptyName(t *testing.T) {
	svc := NewService(dbtest.New(t))
	_, err := svc.Update(context.Background(), &UpdateSettingsDTO{SiteName: strPtr("  ")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestOptionalString_JSON(t *testing.T) {
	var dto UpdateSettingsDTO
	require.NoError(t, json.Unmarshal([]byte(`{"site_name":"x"}`), &dto))
	assert.False(t, dto.LogoURL.Set)

	dto = UpdateSettingsDTO{}
	require.NoError(t, json.Unmarshal([]byte(`{"logo_url":null}`), &dto))
	assert.True(t, dto.LogoURL.Set)
	assert.Nil(t, dto.LogoURL.Value)

	dto = UpdateSettingsDTO{}
	require.NoError(t, json.Unmarshal([]byte(`{"logo_url":"u"}`), &dto))
	assert.Equal(t, "u", *dto.LogoURL.Value)
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(dbtest.New(t))).RegisterRoutes(r.Group("/api"))

	req := httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewBufferString(`{"site_name":"New","logo_url":"l"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got models.SiteSettingsModel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "New", got.SiteName)
	assert.Equal(t, "l", *got.LogoURL)

	req = httptest.NewRequest(http.MethodPatch, "/api/settings", bytes.NewBufferString(`{"site_name":""}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
