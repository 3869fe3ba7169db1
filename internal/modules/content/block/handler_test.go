package block

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/pagecraft/internal/database/dbtest"
	"github.com/mx-space/pagecraft/internal/middleware"
	"github.com/mx-space/pagecraft/internal/models"
	"github.com/mx-space/pagecraft/internal/modules/content/page"
	sessionpkg "github.com/mx-space/pagecraft/internal/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := dbtest.New(t)
	admin, _, err := sessionpkg.Issue(db, "admin-id", "", "", true, sessionpkg.TTL{Access: time.Minute})
	require.NoError(t, err)

	r := gin.New()
	api := r.Group("/api", middleware.OptionalAuth(db))
	pages := page.NewService(db)
	adminMW := []gin.HandlerFunc{middleware.Auth(db), middleware.RequireAdmin()}
	page.NewHandler(pages).RegisterRoutes(api, adminMW...)
	NewHandler(NewService(db), pages).RegisterRoutes(api, adminMW...)

	do := func(method, path, token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}
	decode := func(w *httptest.ResponseRecorder) []models.ContentBlockModel {
		var out struct {
			Data []models.ContentBlockModel `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		return out.Data
	}

	p := &models.PageModel{Title: "P", Slug: "p"}
	require.NoError(t, db.Create(p).Error)

	body := `[{"type":"text","content":"hi","position":0},{"type":"image","image_url":"u","position":1}]`
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodPost, "/api/pages/"+p.ID+"/blocks/upsert", "", body).Code)

	w := do(http.MethodPost, "/api/pages/"+p.ID+"/blocks/upsert", admin.AccessToken, body)
	require.Equal(t, http.StatusOK, w.Code)
	saved := decode(w)
	require.Len(t, saved, 2)

	assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/api/pages/"+p.ID+"/blocks/upsert", admin.AccessToken, `[{"type":"image"}]`).Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/api/pages/"+p.ID+"/blocks/upsert", admin.AccessToken, `{"not":"a list"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodPost, "/api/pages/missing/blocks/upsert", admin.AccessToken, `[]`).Code)

	// unpublished page: blocks are hidden from visitors
	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/api/pages/"+p.ID+"/blocks", "", "").Code)
	w = do(http.MethodGet, "/api/pages/"+p.ID+"/blocks", admin.AccessToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(w), 2)

	require.NoError(t, db.Model(p).Update("is_published", true).Error)
	w = do(http.MethodGet, "/api/pages/p/blocks", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(w), 2)

	assert.Equal(t, http.StatusNoContent, do(http.MethodDelete, "/api/blocks/"+saved[0].ID, admin.AccessToken, "").Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodDelete, "/api/blocks/"+saved[0].ID, admin.AccessToken, "").Code)

	w = do(http.MethodGet, "/api/pages/"+p.ID+"/blocks", "", "")
	left := decode(w)
	require.Len(t, left, 1)
	assert.Equal(t, 0, left[0].Position)
	assert.Equal(t, models.BlockImage, left[0].Type)
}
