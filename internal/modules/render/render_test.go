package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/pagecraft/internal/database/dbtest"
	"github.com/mx-space/pagecraft/internal/models"
	"github.com/mx-space/pagecraft/internal/modules/content/block"
	"github.com/mx-space/pagecraft/internal/modules/content/page"
	"github.com/mx-space/pagecraft/internal/modules/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestBlock(t *testing.T) {
	html := Block(&models.ContentBlockModel{Type: models.BlockText, Content: strPtr("**bold** <script>x()</script>")})
	assert.Contains(t, string(html), "<strong>bold</strong>")
	assert.NotContains(t, string(html), "script")

	html = Block(&models.ContentBlockModel{Type: models.BlockText, Content: strPtr(`<p>from the <em>editor</em></p>`)})
	assert.Contains(t, string(html), "<em>editor</em>")

	html = Block(&models.ContentBlockModel{Type: models.BlockImage, ImageURL: strPtr("https://cdn.example.com/a.png")})
	assert.Contains(t, string(html), `src="https://cdn.example.com/a.png"`)

	html = Block(&models.ContentBlockModel{Type: models.BlockImage, ImageURL: strPtr(`x.png" onerror="alert(1)`)})
	assert.NotContains(t, string(html), `onerror="`)

	assert.Empty(t, Block(&models.ContentBlockModel{Type: models.BlockImage}))
}

func TestBlock_MarkdownSyntaxSurvives(t *testing.T) {
	html := string(Block(&models.ContentBlockModel{
		Type:    models.BlockText,
		Content: strPtr("> quoted\n\n```\nif a < b && c {}\n```"),
	}))
	assert.Contains(t, html, "<blockquote>")
	assert.Contains(t, html, "<pre><code>if a &lt; b &amp;&amp; c {}")
	assert.NotContains(t, html, "&amp;lt;")
}

func TestDocument_EscapesTitle(t *testing.T) {
	out, err := Document(
		&models.PageModel{Title: "<b>Hi</b>"},
		[]models.ContentBlockModel{{Type: models.BlockText, Content: strPtr("first")}, {Type: models.BlockText, Content: strPtr("second")}},
		&models.SiteSettingsModel{SiteName: "Site", LogoURL: strPtr("/uploads/logo.png")},
	)
	require.NoError(t, err)
	assert.Contains(t, out, "&lt;b&gt;Hi&lt;/b&gt;")
	assert.Contains(t, out, `<img src="/uploads/logo.png"`)
	assert.Less(t, strings.Index(out, "first"), strings.Index(out, "second"))
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := dbtest.New(t)
	ctx := context.Background()
	pages := page.NewService(db)
	blocks := block.NewService(db)

	r := gin.New()
	NewHandler(pages, blocks, settings.NewService(db)).RegisterRoutes(r.Group("/api"))
	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	assert.Equal(t, http.StatusNotFound, get("/api/render/home").Code)

	yes := true
	home, err := pages.Create(ctx, &page.CreatePageDTO{Title: "Welcome", Slug: "welcome", IsHome: &yes})
	require.NoError(t, err)
	_, err = blocks.ReplaceAll(ctx, home.ID, []block.DraftBlock{
		{Type: models.BlockText, Content: strPtr("Hello visitors")},
		{Type: models.BlockImage, ImageURL: strPtr("/uploads/hero.png")},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, get("/api/render/home").Code)
	assert.Equal(t, http.StatusNotFound, get("/api/render/pages/welcome").Code)

	_, err = pages.Update(ctx, home.ID, &page.UpdatePageDTO{IsPublished: &yes})
	require.NoError(t, err)

	w := get("/api/render/home")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	body := w.Body.String()
	assert.Contains(t, body, "<title>Welcome | Test Site</title>")
	assert.Contains(t, body, "Hello visitors")
	assert.Contains(t, body, `src="/uploads/hero.png"`)
	assert.Less(t, strings.Index(body, "Hello visitors"), strings.Index(body, "hero.png"))

	assert.Equal(t, http.StatusOK, get("/api/render/pages/welcome").Code)
}
