package models

// PageModel is a publishable page addressed by its slug.
type PageModel struct {
	Base
	Title       string `json:"title"        gorm:"not null"`
	Slug        string `json:"slug"         gorm:"uniqueIndex;not null"`
	IsHome      bool   `json:"is_home"      gorm:"index;not null"`
	IsPublished bool   `json:"is_published" gorm:"index;not null"`
}

func (PageModel) TableName() string { return "pages" }
