// Package pagination reads page/size query parameters and applies them to
// gorm queries.
package pagination

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/pagecraft/internal/pkg/apperr"
	"gorm.io/gorm"
)

const (
	DefaultSize = 20
	MaxSize     = 100
)

type Query struct {
	Page int
	Size int
}

// Meta describes the slice of rows a paged response carries.
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// FromContext returns nil when neither page nor size is in the query string.
// Sizes above MaxSize are clamped.
func FromContext(c *gin.Context) (*Query, error) {
	rawPage := strings.TrimSpace(c.Query("page"))
	rawSize := strings.TrimSpace(c.Query("size"))
	if rawPage == "" && rawSize == "" {
		return nil, nil
	}
	q := Query{Page: 1, Size: DefaultSize}
	var err error
	if rawPage != "" {
		if q.Page, err = strconv.Atoi(rawPage); err != nil || q.Page < 1 {
			return nil, apperr.Validation("page must be a positive integer")
		}
	}
	if rawSize != "" {
		if q.Size, err = strconv.Atoi(rawSize); err != nil || q.Size < 1 {
			return nil, apperr.Validation("size must be a positive integer")
		}
	}
	if q.Size > MaxSize {
		q.Size = MaxSize
	}
	return &q, nil
}

// Paginate counts the rows db selects, then loads the requested page into dest.
func Paginate[T any](db *gorm.DB, q Query, dest *[]T) (Meta, error) {
	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Meta{}, err
	}
	if err := db.Offset((q.Page - 1) * q.Size).Limit(q.Size).Find(dest).Error; err != nil {
		return Meta{}, err
	}
	totalPages := int((total + int64(q.Size) - 1) / int64(q.Size))
	return Meta{
		Total:      total,
		Page:       q.Page,
		Size:       q.Size,
		TotalPages: totalPages,
		HasNext:    q.Page < totalPages,
	}, nil
}
