package servertime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerTime(t *testing.T) {
	gin.SetMode(gin.TestMode)
	loc, err := time.LoadLocation("UTC")
	require.NoError(t, err)
	r := gin.New()
	RegisterRoutes(r.Group("/api"), loc)

	before := time.Now().UnixMilli()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/server-time", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Received int64  `json:"received"`
		Sent     int64  `json:"sent"`
		Timezone string `json:"timezone"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.GreaterOrEqual(t, body.Received, before)
	assert.GreaterOrEqual(t, body.Sent, body.Received)
	assert.Equal(t, "UTC", body.Timezone)
}
