package block

import (
	"github.com/gin-gonic/gin"
	"github.com/mx-space/pagecraft/internal/modules/content/page"
	"github.com/mx-space/pagecraft/internal/pkg/response"
)

type Handler struct {
	svc   *Service
	pages *page.Service
}

func NewHandler(svc *Service, pages *page.Service) *Handler {
	return &Handler{svc: svc, pages: pages}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, adminMW ...gin.HandlerFunc) {
	rg.GET("/pages/:id/blocks", h.list)

	a := rg.Group("", adminMW...)
	a.POST("/pages/:id/blocks/upsert", h.replaceAll)
	a.DELETE("/blocks/:id", h.deleteOne)
}

func (h *Handler) list(c *gin.Context) {
	p, err := h.pages.GetByIdentifier(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !page.Visible(c, p) {
		response.NotFound(c)
		return
	}
	blocks, err := h.svc.ListForPage(c.Request.Context(), p.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, blocks)
}

func (h *Handler) replaceAll(c *gin.Context) {
	var drafts []DraftBlock
	if err := c.ShouldBindJSON(&drafts); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	blocks, err := h.svc.ReplaceAll(c.Request.Context(), c.Param("id"), drafts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, blocks)
}

func (h *Handler) deleteOne(c *gin.Context) {
	if err := h.svc.DeleteOne(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
