package pagination

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/pagecraft/internal/database/dbtest"
	"github.com/mx-space/pagecraft/internal/models"
	"github.com/mx-space/pagecraft/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextFor(rawQuery string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/pages?"+rawQuery, nil)
	return c
}

func TestFromContext(t *testing.T) {
	q, err := FromContext(contextFor(""))
	require.NoError(t, err)
	assert.Nil(t, q)

	q, err = FromContext(contextFor("page=2"))
	require.NoError(t, err)
	assert.Equal(t, Query{Page: 2, Size: DefaultSize}, *q)

	q, err = FromContext(contextFor("size=500"))
	require.NoError(t, err)
	assert.Equal(t, Query{Page: 1, Size: MaxSize}, *q)

	for _, raw := range []string{"page=0", "page=x", "size=-1"} {
		_, err = FromContext(contextFor(raw))
		assert.ErrorIs(t, err, apperr.ErrValidation, raw)
	}
}

func TestPaginate(t *testing.T) {
	db := dbtest.New(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&models.PageModel{Title: "P", Slug: fmt.Sprintf("p-%d", i)}).Error)
	}

	var rows []models.PageModel
	meta, err := Paginate(db.Model(&models.PageModel{}).Order("slug"), Query{Page: 2, Size: 2}, &rows)
	require.NoError(t, err)
	assert.Equal(t, Meta{Total: 5, Page: 2, Size: 2, TotalPages: 3, HasNext: true}, meta)
	require.Len(t, rows, 2)
	assert.Equal(t, "p-2", rows[0].Slug)

	rows = nil
	meta, err = Paginate(db.Model(&models.PageModel{}).Order("slug"), Query{Page: 3, Size: 2}, &rows)
	require.NoError(t, err)
	assert.False(t, meta.HasNext)
	assert.Len(t, rows, 1)
}
