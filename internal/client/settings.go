package client

import (
	"context"
	"net/http"
)

type SiteSettings struct {
	c *Client
}

func (s *SiteSettings) Get(ctx context.Context) (*Settings, error) {
	var out Settings
	if err := s.c.doJSON(ctx, http.MethodGet, "/settings", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SiteSettings) Update(ctx context.Context, in UpdateSettings) (*Settings, error) {
	body := map[string]interface{}{}
	if in.SiteName != nil {
		body["site_name"] = *in.SiteName
	}
	switch {
	case in.ClearLogo:
		body["logo_url"] = nil
	case in.LogoURL != nil:
		body["logo_url"] = *in.LogoURL
	}
	var out Settings
	if err := s.c.doJSON(ctx, http.MethodPatch, "/settings", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
