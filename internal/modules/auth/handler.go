package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/mx-space/pagecraft/internal/middleware"
	"github.com/mx-space/pagecraft/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts /auth. loginMW runs in front of the login route only.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, loginMW ...gin.HandlerFunc) {
	g := rg.Group("/auth")
	g.POST("/login", append(loginMW, h.login)...)
	g.POST("/refresh", h.refresh)

	a := g.Group("", authMW)
	a.POST("/logout", h.logout)
	a.GET("/me", h.me)
	a.GET("/check-admin", h.checkAdmin)
	a.GET("/sessions", h.sessions)
	a.DELETE("/sessions", h.revokeOthers)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	login := dto.Login
	if login == "" {
		login = dto.Email
	}
	res, err := h.svc.Login(c.Request.Context(), login, dto.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

func (h *Handler) refresh(c *gin.Context) {
	var dto RefreshDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	tokens, err := h.svc.Refresh(c.Request.Context(), dto.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tokens)
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), middleware.CurrentUserID(c), middleware.CurrentSessionID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) me(c *gin.Context) {
	info, err := h.svc.Me(c.Request.Context(), middleware.CurrentUserID(c), middleware.IsAdmin(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, info)
}

// checkAdmin answers from the role table, so a role revoked after sign in
// shows up before the access token expires.
func (h *Handler) checkAdmin(c *gin.Context) {
	isAdmin, err := h.svc.IsAdmin(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"is_admin": isAdmin})
}

func (h *Handler) sessions(c *gin.Context) {
	sessions, err := h.svc.Sessions(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	current := middleware.CurrentSessionID(c)
	out := make([]gin.H, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, gin.H{
			"id":         s.ID,
			"ip":         s.IP,
			"ua":         s.UA,
			"created_at": s.CreatedAt,
			"updated_at": s.UpdatedAt,
			"expires_at": s.ExpiresAt,
			"current":    s.ID == current,
		})
	}
	response.OK(c, out)
}

func (h *Handler) revokeOthers(c *gin.Context) {
	if err := h.svc.RevokeOtherSessions(c.Request.Context(), middleware.CurrentUserID(c), middleware.CurrentSessionID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
