package block

import (
	"context"
	"testing"

	"github.com/mx-space/pagecraft/internal/database/dbtest"
	"github.com/mx-space/pagecraft/internal/models"
	"github.com/mx-space/pagecraft/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func newPage(t *testing.T, db *gorm.DB, slug string) *models.PageModel {
	t.Helper()
	p := &models.PageModel{Title: slug, Slug: slug}
	require.NoError(t, db.Create(p).Error)
	return p
}

func text(content string) DraftBlock {
	return DraftBlock{Type: models.BlockText, Content: strPtr(content)}
}

func image(url string) DraftBlock {
	return DraftBlock{Type: models.BlockImage, ImageURL: strPtr(url)}
}

func assertContiguous(t *testing.T, blocks []models.ContentBlockModel) {
	t.Helper()
	for i, b := range blocks {
		assert.Equal(t, i, b.Position)
	}
}

func TestReplaceAll_RemovalResave(t *testing.T) {
	db := dbtest.New(t)
	svc := NewService(db)
	ctx := context.Background()
	p := newPage(t, db, "p")

	saved, err := svc.ReplaceAll(ctx, p.ID, []DraftBlock{text("hi"), image("u")})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assertContiguous(t, saved)
	imageID := saved[1].ID

	_, err = svc.ReplaceAll(ctx, p.ID, []DraftBlock{{ID: imageID, Type: models.BlockImage, ImageURL: strPtr("u"), Position: new(int)}})
	require.NoError(t, err)

	blocks, err := svc.ListForPage(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, 0, blocks[0].Position)
	assert.Equal(t, models.BlockImage, blocks[0].Type)
	assert.Equal(t, imageID, blocks[0].ID, "resubmitted blocks keep their id")
	assert.Nil(t, blocks[0].Content)
}

func TestReplaceAll_OrderAndIdentity(t *testing.T) {
	db := dbtest.New(t)
	svc := NewService(db)
	ctx := context.Background()
	p := newPage(t, db, "p")

	saved, err := svc.ReplaceAll(ctx, p.ID, []DraftBlock{text("a"), text("b"), text("c")})
	require.NoError(t, err)

	// reverse, edit the middle one and add a new block in front
	middle := DraftBlock{ID: saved[1].ID, Type: models.BlockText, Content: strPtr("B")}
	drafts := []DraftBlock{
		image("new.png"),
		{ID: saved[2].ID, Type: models.BlockText, Content: strPtr("c")},
		middle,
		{ID: saved[0].ID, Type: models.BlockText, Content: strPtr("a")},
	}
	out, err := svc.ReplaceAll(ctx, p.ID, drafts)
	require.NoError(t, err)
	require.Len(t, out, 4)
	assertContiguous(t, out)

	assert.Equal(t, models.BlockImage, out[0].Type)
	assert.NotEmpty(t, out[0].ID)
	assert.Equal(t, saved[2].ID, out[1].ID)
	assert.Equal(t, saved[1].ID, out[2].ID)
	assert.Equal(t, "B", *out[2].Content)
	assert.Equal(t, saved[0].ID, out[3].ID)
}

func TestReplaceAll_Coercion(t *testing.T) {
	db := dbtest.New(t)
	svc := NewService(db)
	ctx := context.Background()
	p := newPage(t, db, "p")

	out, err := svc.ReplaceAll(ctx, p.ID, []DraftBlock{
		{Type: "TEXT", Content: strPtr(`<p onclick="x()">hi</p><script>alert(1)</script>`), ImageURL: strPtr("stray")},
		{Type: models.BlockImage, Content: strPtr("stray"), ImageURL: strPtr(" u ")},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, `<p onclick="x()">hi</p><script>alert(1)</script>`, *out[0].Content)
	assert.Nil(t, out[0].ImageURL)
	assert.Nil(t, out[1].Content)
	assert.Equal(t, "u", *out[1].ImageURL)
}

func TestReplaceAll_KeepsMarkdownVerbatim(t *testing.T) {
	db := dbtest.New(t)
	svc := NewService(db)
	p := newPage(t, db, "p")

	src := "> quoted\n\n```\nif a < b && c {}\n```"
	_, err := svc.ReplaceAll(context.Background(), p.ID, []DraftBlock{text(src)})
	require.NoError(t, err)

	stored, err := svc.ListForPage(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, src, *stored[0].Content)
}

func TestReplaceAll_Rejects(t *testing.T) {
	db := dbtest.New(t)
	svc := NewService(db)
	ctx := context.Background()
	p := newPage(t, db, "p")
	other := newPage(t, db, "other")

	foreign, err := svc.ReplaceAll(ctx, other.ID, []DraftBlock{text("theirs")})
	require.NoError(t, err)
	existing, err := svc.ReplaceAll(ctx, p.ID, []DraftBlock{text("mine")})
	require.NoError(t, err)

	cases := []struct {
		name   string
		pageID string
		drafts []DraftBlock
		want   error
	}{
		{"missing page", "missing", []DraftBlock{text("x")}, apperr.ErrNotFound},
		{"text without content", p.ID, []DraftBlock{{Type: models.BlockText}}, apperr.ErrValidation},
		{"image without url", p.ID, []DraftBlock{{Type: models.BlockImage, ImageURL: strPtr(" ")}}, apperr.ErrValidation},
		{"unknown type", p.ID, []DraftBlock{{Type: "video"}}, apperr.ErrValidation},
		{"duplicate id", p.ID, []DraftBlock{
			{ID: existing[0].ID, Type: models.BlockText, Content: strPtr("1")},
			{ID: existing[0].ID, Type: models.BlockText, Content: strPtr("2")},
		}, apperr.ErrValidation},
		{"foreign id", p.ID, []DraftBlock{{ID: foreign[0].ID, Type: models.BlockText, Content: strPtr("steal")}}, apperr.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ReplaceAll(ctx, tc.pageID, tc.drafts)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	// rejected saves leave the stored set untouched
	blocks, err := svc.ListForPage(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, existing[0].ID, blocks[0].ID)
	theirs, err := svc.ListForPage(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, "theirs", *theirs[0].Content)
}

func TestReplaceAll_UnknownIDInserted(t *testing.T) {
	db := dbtest.New(t)
	svc := NewService(db)
	p := newPage(t, db, "p")

	out, err := svc.ReplaceAll(context.Background(), p.ID, []DraftBlock{{ID: "stale-id", Type: models.BlockText, Content: strPtr("x")}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.NotEqual(t, "stale-id", out[0].ID)
}

func TestReplaceAll_EmptyClears(t *testing.T) {
	db := dbtest.New(t)
	svc := NewService(db)
	ctx := context.Background()
	p := newPage(t, db, "p")

	_, err := svc.ReplaceAll(ctx, p.ID, []DraftBlock{text("a"), image("b")})
	require.NoError(t, err)
	out, err := svc.ReplaceAll(ctx, p.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDeleteOne_Renumbers(t *testing.T) {
	db := dbtest.New(t)
	svc := NewService(db)
	ctx := context.Background()
	p := newPage(t, db, "p")

	saved, err := svc.ReplaceAll(ctx, p.ID, []DraftBlock{text("a"), text("b"), text("c")})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOne(ctx, saved[1].ID))
	assert.ErrorIs(t, svc.DeleteOne(ctx, saved[1].ID), apperr.ErrNotFound)

	blocks, err := svc.ListForPage(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assertContiguous(t, blocks)
	assert.Equal(t, saved[0].ID, blocks[0].ID)
	assert.Equal(t, saved[2].ID, blocks[1].ID)
}
