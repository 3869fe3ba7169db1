package client

import (
	"context"
	"net/http"
	"net/url"
)

type Blocks struct {
	c *Client
}

// List returns the blocks of a page, identified by slug or id, in order.
func (b *Blocks) List(ctx context.Context, page string) ([]Block, error) {
	var res listEnvelope[Block]
	if err := b.c.doJSON(ctx, http.MethodGet, "/pages/"+url.PathEscape(page)+"/blocks", nil, &res); err != nil {
		return nil, err
	}
	if res.Data == nil {
		res.Data = []Block{}
	}
	return res.Data, nil
}

// ReplaceAll makes drafts the complete ordered block list of pageID. Drafts
// with an id keep it; blocks left out are removed.
func (b *Blocks) ReplaceAll(ctx context.Context, pageID string, drafts []DraftBlock) ([]Block, error) {
	ordered := make([]DraftBlock, len(drafts))
	for i, d := range drafts {
		d.Position = i
		ordered[i] = d
	}
	var res listEnvelope[Block]
	if err := b.c.doJSON(ctx, http.MethodPost, "/pages/"+url.PathEscape(pageID)+"/blocks/upsert", ordered, &res); err != nil {
		return nil, err
	}
	if res.Data == nil {
		res.Data = []Block{}
	}
	return res.Data, nil
}

func (b *Blocks) Delete(ctx context.Context, id string) error {
	return b.c.doJSON(ctx, http.MethodDelete, "/blocks/"+url.PathEscape(id), nil, nil)
}
