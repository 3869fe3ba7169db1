package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

type Pages struct {
	c *Client
}

func (p *Pages) List(ctx context.Context, opts ListPages) ([]Page, error) {
	req := &request{method: http.MethodGet, path: "/pages", query: url.Values{}}
	if opts.IsPublished != nil {
		req.query.Set("is_published", strconv.FormatBool(*opts.IsPublished))
	}
	if opts.IsHome != nil {
		req.query.Set("is_home", strconv.FormatBool(*opts.IsHome))
	}
	if opts.Page > 0 {
		req.query.Set("page", strconv.Itoa(opts.Page))
		if opts.Size > 0 {
			req.query.Set("size", strconv.Itoa(opts.Size))
		}
	}
	var res listEnvelope[Page]
	if err := p.c.do(ctx, req, &res); err != nil {
		return nil, err
	}
	if res.Data == nil {
		res.Data = []Page{}
	}
	return res.Data, nil
}

// Get fetches a page by slug or id.
func (p *Pages) Get(ctx context.Context, slugOrID string) (*Page, error) {
	var page Page
	if err := p.c.doJSON(ctx, http.MethodGet, "/pages/"+url.PathEscape(slugOrID), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Home returns the published home page, or nil when none is set.
func (p *Pages) Home(ctx context.Context) (*Page, error) {
	yes := true
	pages, err := p.List(ctx, ListPages{IsHome: &yes, IsPublished: &yes})
	if err != nil || len(pages) == 0 {
		return nil, err
	}
	return &pages[0], nil
}

func (p *Pages) Create(ctx context.Context, in CreatePage) (*Page, error) {
	var page Page
	if err := p.c.doJSON(ctx, http.MethodPost, "/pages", in, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (p *Pages) Update(ctx context.Context, id string, in UpdatePage) (*Page, error) {
	var page Page
	if err := p.c.doJSON(ctx, http.MethodPatch, "/pages/"+url.PathEscape(id), in, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (p *Pages) Delete(ctx context.Context, id string) error {
	return p.c.doJSON(ctx, http.MethodDelete, "/pages/"+url.PathEscape(id), nil, nil)
}

// SetHome makes id the only home page.
func (p *Pages) SetHome(ctx context.Context, id string) (*Page, error) {
	var page Page
	if err := p.c.doJSON(ctx, http.MethodPost, "/pages/"+url.PathEscape(id)+"/home", nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
