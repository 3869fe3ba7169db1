package block

import (
	"context"
	"errors"
	"strings"

	"github.com/mx-space/pagecraft/internal/models"
	"github.com/mx-space/pagecraft/internal/pkg/apperr"
	"gorm.io/gorm"
)

// DraftBlock is a block as submitted by the editor. ID is empty for blocks
// that were never saved. Position is accepted but the submitted order wins.
type DraftBlock struct {
	ID       string           `json:"id"`
	Type     models.BlockType `json:"type"`
	Content  *string          `json:"content"`
	ImageURL *string          `json:"image_url"`
	Position *int             `json:"position"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// ListForPage returns the blocks of pageID in display order.
func (s *Service) ListForPage(ctx context.Context, pageID string) ([]models.ContentBlockModel, error) {
	return listForPage(s.db.WithContext(ctx), pageID)
}

// ReplaceAll makes drafts the complete block set of pageID. Blocks whose id
// belongs to the page are updated in place, new ones are inserted and the
// rest are deleted. Positions follow the order of drafts.
func (s *Service) ReplaceAll(ctx context.Context, pageID string, drafts []DraftBlock) ([]models.ContentBlockModel, error) {
	normalized := make([]models.ContentBlockModel, len(drafts))
	seen := make(map[string]struct{}, len(drafts))
	for i := range drafts {
		b, err := normalizeDraft(i, &drafts[i])
		if err != nil {
			return nil, err
		}
		if b.ID != "" {
			if _, dup := seen[b.ID]; dup {
				return nil, apperr.Validation("block %s submitted twice", b.ID)
			}
			seen[b.ID] = struct{}{}
		}
		b.PageID = pageID
		b.Position = i
		normalized[i] = b
	}

	var out []models.ContentBlockModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.PageModel{}).Where("id = ?", pageID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperr.NotFound("page")
		}

		existing, err := listForPage(tx, pageID)
		if err != nil {
			return err
		}
		owned := make(map[string]struct{}, len(existing))
		for _, b := range existing {
			owned[b.ID] = struct{}{}
		}

		for i := range normalized {
			b := &normalized[i]
			if _, ok := owned[b.ID]; ok {
				err := tx.Model(&models.ContentBlockModel{}).Where("id = ?", b.ID).Updates(map[string]interface{}{
					"type":      b.Type,
					"content":   b.Content,
					"image_url": b.ImageURL,
					"position":  b.Position,
				}).Error
				if err != nil {
					return err
				}
				delete(owned, b.ID)
				continue
			}

			if b.ID != "" {
				var foreign int64
				if err := tx.Model(&models.ContentBlockModel{}).Where("id = ?", b.ID).Count(&foreign).Error; err != nil {
					return err
				}
				if foreign > 0 {
					return apperr.Validation("block %s belongs to another page", b.ID)
				}
				b.ID = ""
			}
			if err := tx.Create(b).Error; err != nil {
				return err
			}
		}

		if len(owned) > 0 {
			removed := make([]string, 0, len(owned))
			for id := range owned {
				removed = append(removed, id)
			}
			if err := tx.Where("id IN ?", removed).Delete(&models.ContentBlockModel{}).Error; err != nil {
				return err
			}
		}

		out, err = listForPage(tx, pageID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteOne removes a single block and closes the gap it leaves.
func (s *Service) DeleteOne(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.ContentBlockModel
		if err := tx.First(&b, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("block")
			}
			return err
		}
		if err := tx.Delete(&b).Error; err != nil {
			return err
		}

		siblings, err := listForPage(tx, b.PageID)
		if err != nil {
			return err
		}
		for i, sib := range siblings {
			if sib.Position == i {
				continue
			}
			if err := tx.Model(&models.ContentBlockModel{}).Where("id = ?", sib.ID).Update("position", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func listForPage(db *gorm.DB, pageID string) ([]models.ContentBlockModel, error) {
	blocks := []models.ContentBlockModel{}
	err := db.Where("page_id = ?", pageID).Order("position ASC, created_at ASC").Find(&blocks).Error
	return blocks, err
}

// normalizeDraft checks a draft and clears the field its type does not use.
func normalizeDraft(i int, d *DraftBlock) (models.ContentBlockModel, error) {
	b := models.ContentBlockModel{Type: models.BlockType(strings.ToLower(strings.TrimSpace(string(d.Type))))}
	b.ID = strings.TrimSpace(d.ID)

	if !b.Type.Valid() {
		return b, apperr.Validation("block %d: unknown type %q", i, d.Type)
	}

	// text is stored as submitted; render sanitises after markdown conversion
	switch b.Type {
	case models.BlockText:
		if d.Content == nil {
			return b, apperr.Validation("block %d: text block requires content", i)
		}
		content := *d.Content
		b.Content = &content
	case models.BlockImage:
		if d.ImageURL == nil || strings.TrimSpace(*d.ImageURL) == "" {
			return b, apperr.Validation("block %d: image block requires image_url", i)
		}
		url := strings.TrimSpace(*d.ImageURL)
		b.ImageURL = &url
	}
	return b, nil
}
