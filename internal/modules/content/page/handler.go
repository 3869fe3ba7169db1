package page

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/pagecraft/internal/middleware"
	"github.com/mx-space/pagecraft/internal/models"
	"github.com/mx-space/pagecraft/internal/pkg/apperr"
	"github.com/mx-space/pagecraft/internal/pkg/pagination"
	"github.com/mx-space/pagecraft/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts the page routes. Reads are public and expect
// OptionalAuth to have run; adminMW guards every write.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, adminMW ...gin.HandlerFunc) {
	g := rg.Group("/pages")
	g.GET("", h.list)
	g.GET("/:id", h.get)

	a := g.Group("", adminMW...)
	a.POST("", h.create)
	a.PUT("/:id", h.update)
	a.PATCH("/:id", h.update)
	a.DELETE("/:id", h.delete)
	a.POST("/:id/home", h.setHome)
}

func (h *Handler) list(c *gin.Context) {
	var f Filter
	var err error
	if f.IsPublished, err = boolQuery(c, "is_published"); err != nil {
		response.Error(c, err)
		return
	}
	if f.IsHome, err = boolQuery(c, "is_home"); err != nil {
		response.Error(c, err)
		return
	}
	if !middleware.IsAdmin(c) {
		published := true
		f.IsPublished = &published
	}
	q, err := pagination.FromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if q != nil {
		pages, meta, err := h.svc.ListPage(c.Request.Context(), f, *q)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Paged(c, pages, meta)
		return
	}

	pages, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pages)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.GetByIdentifier(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !Visible(c, p) {
		response.NotFound(c)
		return
	}
	response.OK(c, p)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreatePageDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.svc.Create(c.Request.Context(), &dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, p)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdatePageDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.svc.Update(c.Request.Context(), c.Param("id"), &dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) setHome(c *gin.Context) {
	p, err := h.svc.SetHome(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

// Visible reports whether the caller may see p. Unpublished pages are
// admin only.
func Visible(c *gin.Context, p *models.PageModel) bool {
	return p.IsPublished || middleware.IsAdmin(c)
}

func boolQuery(c *gin.Context, key string) (*bool, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Validation("%s must be a boolean", key)
	}
	return &v, nil
}
