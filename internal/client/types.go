package client

import "time"

type Page struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	IsHome      bool      `json:"is_home"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreatePage struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	IsHome      *bool  `json:"is_home,omitempty"`
	IsPublished *bool  `json:"is_published,omitempty"`
}

// UpdatePage is a partial patch; nil fields are left unchanged.
type UpdatePage struct {
	Title       *string `json:"title,omitempty"`
	Slug        *string `json:"slug,omitempty"`
	IsHome      *bool   `json:"is_home,omitempty"`
	IsPublished *bool   `json:"is_published,omitempty"`
}

type ListPages struct {
	IsPublished *bool
	IsHome      *bool
	// Page and Size select one page of results when Page is positive.
	Page int
	Size int
}

const (
	BlockText  = "text"
	BlockImage = "image"
)

type Block struct {
	ID        string    `json:"id"`
	PageID    string    `json:"page_id"`
	Type      string    `json:"type"`
	Content   *string   `json:"content"`
	ImageURL  *string   `json:"image_url"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DraftBlock is a block being edited. ID is empty until the first save.
type DraftBlock struct {
	ID       string  `json:"id,omitempty"`
	Type     string  `json:"type"`
	Content  *string `json:"content,omitempty"`
	ImageURL *string `json:"image_url,omitempty"`
	Position int     `json:"position"`
}

// Draft turns a saved block back into an editable one.
func (b Block) Draft() DraftBlock {
	return DraftBlock{ID: b.ID, Type: b.Type, Content: b.Content, ImageURL: b.ImageURL, Position: b.Position}
}

type Settings struct {
	ID        string    `json:"id"`
	SiteName  string    `json:"site_name"`
	LogoURL   *string   `json:"logo_url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateSettings changes the fields that are set. ClearLogo removes the logo.
type UpdateSettings struct {
	SiteName  *string
	LogoURL   *string
	ClearLogo bool
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
}

type Upload struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	Size        int    `json:"size"`
	ContentType string `json:"content_type"`
}
