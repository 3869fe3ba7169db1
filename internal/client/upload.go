package client

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
)

// UploadImage sends an image and returns where it is served from.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (*Upload, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req := &request{
		method:      http.MethodPost,
		path:        "/upload/image",
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
	}
	var out Upload
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
