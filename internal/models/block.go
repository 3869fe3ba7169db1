package models

// BlockType is the content variant of a block.
type BlockType string

const (
	BlockText  BlockType = "text"
	BlockImage BlockType = "image"
)

// Valid reports whether t is a known block type.
func (t BlockType) Valid() bool {
	return t == BlockText || t == BlockImage
}

// ContentBlockModel is one ordered unit of content owned by a page.
// Content is set only for text blocks and ImageURL only for image blocks.
type ContentBlockModel struct {
	Base
	PageID   string    `json:"page_id"   gorm:"type:char(36);index;not null"`
	Type     BlockType `json:"type"      gorm:"size:16;not null"`
	Content  *string   `json:"content"   gorm:"type:text"`
	ImageURL *string   `json:"image_url" gorm:"column:image_url;type:text"`
	Position int       `json:"position"  gorm:"index;not null"`
}

func (ContentBlockModel) TableName() string { return "content_blocks" }
