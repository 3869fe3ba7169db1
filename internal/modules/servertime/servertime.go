// Package servertime lets clients measure their clock offset, which matters
// when they judge token expiry locally.
package servertime

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts GET /server-time. received and sent bracket the
// handler so a client can subtract server time from its round trip.
func RegisterRoutes(rg *gin.RouterGroup, loc *time.Location) {
	if loc == nil {
		loc = time.Local
	}
	rg.GET("/server-time", func(c *gin.Context) {
		received := time.Now()
		c.JSON(http.StatusOK, gin.H{
			"received": received.UnixMilli(),
			"sent":     time.Now().UnixMilli(),
			"timezone": loc.String(),
		})
	})
}
