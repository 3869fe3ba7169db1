package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mx-space/pagecraft/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPut(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir, "/uploads")

	url, err := l.Put(context.Background(), "/images//2026/a.png", []byte("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/images/2026/a.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "images", "2026", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestLocalPut_RejectsTraversal(t *testing.T) {
	l := NewLocal(t.TempDir(), "/uploads")
	_, err := l.Put(context.Background(), "../etc/passwd", []byte("x"), "")
	assert.Error(t, err)
}

func TestNew_SelectsDriver(t *testing.T) {
	cfg, err := config.Parse([]byte("upload:\n  public_base_url: https://cdn.example/\n"))
	require.NoError(t, err)
	s, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "local", s.Name())

	cfg, err = config.Parse([]byte("storage:\n  driver: s3\n  s3:\n    bucket: media\n"))
	require.NoError(t, err)
	s, err = New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "s3", s.Name())
}

func TestS3Put_PathStyle(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		ctype  string
		body   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		method, path, ctype = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	u, err := NewS3(config.S3Config{
		Bucket:          "media",
		Region:          "us-east-1",
		Endpoint:        srv.URL,
		AccessKeyID:     "ak",
		SecretAccessKey: "sk",
		PathPrefix:      "site",
		ForcePathStyle:  true,
	})
	require.NoError(t, err)

	url, err := u.Put(context.Background(), "images/a.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/media/site/images/a.png", url)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/media/site/images/a.png", path)
	assert.Equal(t, "image/png", ctype)
	assert.NotEmpty(t, body)
}

func TestS3Put_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	u, err := NewS3(config.S3Config{Bucket: "media", Region: "us-east-1", Endpoint: srv.URL, AccessKeyID: "ak", SecretAccessKey: "sk", ForcePathStyle: true})
	require.NoError(t, err)
	_, err = u.Put(context.Background(), "a.png", []byte("x"), "image/png")
	assert.Error(t, err)
}

func TestS3ObjectURL(t *testing.T) {
	u := &S3{bucket: "b", region: "eu-west-1"}
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com/k.png", u.objectURL("k.png"))

	u.publicURL = "https://cdn.example"
	assert.Equal(t, "https://cdn.example/k.png", u.objectURL("k.png"))

	u = &S3{bucket: "b", endpoint: "https://minio.example"}
	assert.Equal(t, "https://b.minio.example/k.png", u.objectURL("k.png"))
}
