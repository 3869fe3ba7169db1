package page

import (
	"context"
	"errors"
	"strings"

	"github.com/mx-space/pagecraft/internal/models"
	"github.com/mx-space/pagecraft/internal/pkg/apperr"
	"github.com/mx-space/pagecraft/internal/pkg/pagination"
	"github.com/mx-space/pagecraft/internal/pkg/sanitize"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) List(ctx context.Context, f Filter) ([]models.PageModel, error) {
	pages := []models.PageModel{}
	err := s.filtered(ctx, f).Find(&pages).Error
	return pages, err
}

// ListPage is List restricted to one page of results.
func (s *Service) ListPage(ctx context.Context, f Filter, q pagination.Query) ([]models.PageModel, pagination.Meta, error) {
	pages := []models.PageModel{}
	meta, err := pagination.Paginate(s.filtered(ctx, f), q, &pages)
	return pages, meta, err
}

func (s *Service) filtered(ctx context.Context, f Filter) *gorm.DB {
	tx := s.db.WithContext(ctx).Model(&models.PageModel{})
	if f.IsPublished != nil {
		tx = tx.Where("is_published = ?", *f.IsPublished)
	}
	if f.IsHome != nil {
		tx = tx.Where("is_home = ?", *f.IsHome)
	}
	return tx.Order("created_at DESC, id DESC")
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.PageModel, error) {
	return first(s.db.WithContext(ctx), "slug = ?", strings.TrimSpace(slug))
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.PageModel, error) {
	return first(s.db.WithContext(ctx), "id = ?", id)
}

// GetByIdentifier resolves ref as a slug first, then as an id.
func (s *Service) GetByIdentifier(ctx context.Context, ref string) (*models.PageModel, error) {
	p, err := s.GetBySlug(ctx, ref)
	if err == nil || !errors.Is(err, apperr.ErrNotFound) {
		return p, err
	}
	return s.GetByID(ctx, ref)
}

// GetHome returns the published home page.
func (s *Service) GetHome(ctx context.Context) (*models.PageModel, error) {
	return first(s.db.WithContext(ctx), "is_home = ? AND is_published = ?", true, true)
}

func (s *Service) Create(ctx context.Context, dto *CreatePageDTO) (*models.PageModel, error) {
	title, err := normalizeTitle(dto.Title)
	if err != nil {
		return nil, err
	}
	slug, err := normalizeSlug(dto.Slug)
	if err != nil {
		return nil, err
	}

	p := models.PageModel{Title: title, Slug: slug}
	if dto.IsHome != nil {
		p.IsHome = *dto.IsHome
	}
	if dto.IsPublished != nil {
		p.IsPublished = *dto.IsPublished
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureSlugFree(tx, slug, ""); err != nil {
			return err
		}
		if p.IsHome {
			if err := tx.Model(&models.PageModel{}).Where("is_home = ?", true).Update("is_home", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&p).Error
	})
	if err != nil {
		return nil, slugTaken(err, slug)
	}
	return &p, nil
}

func (s *Service) Update(ctx context.Context, id string, dto *UpdatePageDTO) (*models.PageModel, error) {
	var (
		out     *models.PageModel
		newSlug string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := first(tx, "id = ?", id)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if dto.Title != nil {
			title, err := normalizeTitle(*dto.Title)
			if err != nil {
				return err
			}
			updates["title"] = title
		}
		if dto.Slug != nil {
			slug, err := normalizeSlug(*dto.Slug)
			if err != nil {
				return err
			}
			if slug != p.Slug {
				if err := ensureSlugFree(tx, slug, p.ID); err != nil {
					return err
				}
				updates["slug"] = slug
				newSlug = slug
			}
		}
		if dto.IsPublished != nil {
			updates["is_published"] = *dto.IsPublished
		}
		if dto.IsHome != nil && !*dto.IsHome {
			updates["is_home"] = false
		}

		if len(updates) > 0 {
			if err := tx.Model(p).Updates(updates).Error; err != nil {
				return err
			}
		}
		if dto.IsHome != nil && *dto.IsHome {
			if err := setHome(tx, p.ID); err != nil {
				return err
			}
		}

		out, err = first(tx, "id = ?", p.ID)
		return err
	})
	if err != nil {
		return nil, slugTaken(err, newSlug)
	}
	return out, nil
}

// Delete removes the page and all of its blocks.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := first(tx, "id = ?", id); err != nil {
			return err
		}
		if err := tx.Where("page_id = ?", id).Delete(&models.ContentBlockModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.PageModel{}, "id = ?", id).Error
	})
}

// SetHome makes id the only home page.
func (s *Service) SetHome(ctx context.Context, id string) (*models.PageModel, error) {
	var out *models.PageModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := first(tx, "id = ?", id); err != nil {
			return err
		}
		if err := setHome(tx, id); err != nil {
			return err
		}
		var err error
		out, err = first(tx, "id = ?", id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// setHome flips the flag on the target and the previous home in one statement.
func setHome(tx *gorm.DB, id string) error {
	return tx.Model(&models.PageModel{}).
		Where("is_home = ? OR id = ?", true, id).
		Update("is_home", gorm.Expr("id = ?", id)).Error
}

func first(db *gorm.DB, query string, args ...interface{}) (*models.PageModel, error) {
	var p models.PageModel
	if err := db.Where(query, args...).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("page")
		}
		return nil, err
	}
	return &p, nil
}

func ensureSlugFree(tx *gorm.DB, slug, exceptID string) error {
	q := tx.Model(&models.PageModel{}).Where("slug = ?", slug)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperr.Conflict("slug %q already exists", slug)
	}
	return nil
}

// slugTaken reports a unique index violation as a conflict. ensureSlugFree
// cannot see a concurrent insert of the same slug.
func slugTaken(err error, slug string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("slug %q already exists", slug)
	}
	return err
}

func normalizeTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", apperr.Validation("title must not be empty")
	}
	return title, nil
}

func normalizeSlug(raw string) (string, error) {
	slug := sanitize.Slug(raw)
	if slug == "" {
		return "", apperr.Validation("slug must not be empty")
	}
	if strings.ContainsAny(slug, "/?#") {
		return "", apperr.Validation("slug %q must not contain '/', '?' or '#'", slug)
	}
	return slug, nil
}
