// Package upload accepts image files and hands them to object storage.
package upload

import (
	"context"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mx-space/pagecraft/internal/pkg/apperr"
	"github.com/mx-space/pagecraft/internal/pkg/response"
	"github.com/mx-space/pagecraft/internal/pkg/storage"
	"go.uber.org/zap"
)

type Options struct {
	MaxBytes       int64
	AllowedFormats []string
	Logger         *zap.Logger
}

// Result describes a stored image.
type Result struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	Size        int    `json:"size"`
	ContentType string `json:"content_type"`
	Storage     string `json:"storage"`
}

type Service struct {
	store    storage.Storage
	maxBytes int64
	allowed  map[string]struct{}
	logger   *zap.Logger
}

func NewService(store storage.Storage, opts Options) *Service {
	allowed := make(map[string]struct{}, len(opts.AllowedFormats))
	for _, f := range opts.AllowedFormats {
		allowed[strings.TrimPrefix(strings.ToLower(strings.TrimSpace(f)), ".")] = struct{}{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, maxBytes: opts.MaxBytes, allowed: allowed, logger: logger}
}

// UploadImage sniffs payload, checks it against the allowed formats and
// stores it under a fresh key.
func (s *Service) UploadImage(ctx context.Context, payload []byte) (*Result, error) {
	if len(payload) == 0 {
		return nil, apperr.Validation("file is empty")
	}
	if s.maxBytes > 0 && int64(len(payload)) > s.maxBytes {
		return nil, apperr.Validation("file exceeds %d bytes", s.maxBytes)
	}

	mt := mimetype.Detect(payload)
	ext := strings.TrimPrefix(mt.Extension(), ".")
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, apperr.Validation("unsupported file type %s", mt.String())
	}
	if _, ok := s.allowed[ext]; !ok {
		return nil, apperr.Validation("image format %q is not allowed", ext)
	}

	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	key := path.Join("images", time.Now().UTC().Format("2006/01"), name+"."+ext)
	contentType := mt.String()
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}

	url, err := s.store.Put(ctx, key, payload, contentType)
	if err != nil {
		s.logger.Error("image upload failed", zap.String("storage", s.store.Name()), zap.String("key", key), zap.Error(err))
		return nil, apperr.Upstream("store image", err)
	}
	s.logger.Info("image uploaded", zap.String("storage", s.store.Name()), zap.String("key", key), zap.Int("size", len(payload)))

	return &Result{
		URL:         url,
		Key:         key,
		Size:        len(payload),
		ContentType: contentType,
		Storage:     s.store.Name(),
	}, nil
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, adminMW ...gin.HandlerFunc) {
	g := rg.Group("/upload", adminMW...)
	g.POST("/image", h.image)
}

func (h *Handler) image(c *gin.Context) {
	if h.svc.maxBytes > 0 {
		// room for the multipart envelope around the file
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.svc.maxBytes+1<<20)
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	defer f.Close()

	var r io.Reader = f
	if h.svc.maxBytes > 0 {
		r = io.LimitReader(f, h.svc.maxBytes+1)
	}
	payload, err := io.ReadAll(r)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	res, err := h.svc.UploadImage(c.Request.Context(), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}
