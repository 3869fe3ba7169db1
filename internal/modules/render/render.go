// Package render serves published pages as standalone HTML documents.
package render

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/pagecraft/internal/models"
	"github.com/mx-space/pagecraft/internal/modules/content/block"
	"github.com/mx-space/pagecraft/internal/modules/content/page"
	"github.com/mx-space/pagecraft/internal/modules/settings"
	"github.com/mx-space/pagecraft/internal/pkg/response"
	"github.com/mx-space/pagecraft/internal/pkg/sanitize"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

// Text blocks hold editor HTML, optionally mixed with markdown. Raw HTML is
// let through here and cleaned afterwards.
var markdownEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
		htmlrenderer.WithUnsafe(),
	),
)

var documentTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Title}} | {{.SiteName}}</title>
  <style>
    body { margin: 0; font: 16px/1.7 -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; color: #222; background: #fff; }
    header { display: flex; align-items: center; gap: 12px; padding: 16px 24px; border-bottom: 1px solid #eee; }
    header img { height: 32px; }
    main { max-width: 860px; margin: 0 auto; padding: 24px; }
    figure { margin: 24px 0; }
    figure img { max-width: 100%; border-radius: 8px; }
  </style>
</head>
<body>
  <header>
    {{if .LogoURL}}<img src="{{.LogoURL}}" alt="{{.SiteName}}" />{{end}}
    <strong>{{.SiteName}}</strong>
  </header>
  <main>
    <h1>{{.Title}}</h1>
    {{range .Blocks}}{{.}}
    {{end}}
  </main>
</body>
</html>
`))

type document struct {
	Title    string
	SiteName string
	LogoURL  string
	Blocks   []template.HTML
}

// Block turns one content block into safe HTML.
func Block(b *models.ContentBlockModel) template.HTML {
	switch b.Type {
	case models.BlockText:
		if b.Content == nil {
			return ""
		}
		var buf bytes.Buffer
		if err := markdownEngine.Convert([]byte(*b.Content), &buf); err != nil {
			return template.HTML(sanitize.HTML(*b.Content))
		}
		return template.HTML(sanitize.HTML(buf.String()))
	case models.BlockImage:
		if b.ImageURL == nil || strings.TrimSpace(*b.ImageURL) == "" {
			return ""
		}
		img := `<figure><img src="` + template.HTMLEscapeString(*b.ImageURL) + `" alt="" loading="lazy" /></figure>`
		return template.HTML(sanitize.HTML(img))
	default:
		return ""
	}
}

// Document renders p with its blocks in position order.
func Document(p *models.PageModel, blocks []models.ContentBlockModel, site *models.SiteSettingsModel) (string, error) {
	doc := document{Title: p.Title, SiteName: site.SiteName}
	if site.LogoURL != nil {
		doc.LogoURL = *site.LogoURL
	}
	for i := range blocks {
		if html := Block(&blocks[i]); html != "" {
			doc.Blocks = append(doc.Blocks, html)
		}
	}
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type Handler struct {
	pages    *page.Service
	blocks   *block.Service
	settings *settings.Service
}

func NewHandler(pages *page.Service, blocks *block.Service, settings *settings.Service) *Handler {
	return &Handler{pages: pages, blocks: blocks, settings: settings}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/render")
	g.GET("/home", h.home)
	g.GET("/pages/:slug", h.bySlug)
}

func (h *Handler) home(c *gin.Context) {
	p, err := h.pages.GetHome(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.write(c, p)
}

func (h *Handler) bySlug(c *gin.Context) {
	p, err := h.pages.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !page.Visible(c, p) {
		response.NotFound(c)
		return
	}
	h.write(c, p)
}

func (h *Handler) write(c *gin.Context, p *models.PageModel) {
	html, err := h.render(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, html)
}

func (h *Handler) render(ctx context.Context, p *models.PageModel) (string, error) {
	blocks, err := h.blocks.ListForPage(ctx, p.ID)
	if err != nil {
		return "", err
	}
	site, err := h.settings.Get(ctx)
	if err != nil {
		return "", err
	}
	return Document(p, blocks, site)
}
