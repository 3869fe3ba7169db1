package page

// Filter narrows List. Nil fields do not filter.
type Filter struct {
	IsPublished *bool
	IsHome      *bool
}

type CreatePageDTO struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	IsHome      *bool  `json:"is_home"`
	IsPublished *bool  `json:"is_published"`
}

// UpdatePageDTO is a partial patch: nil fields keep their stored value.
type UpdatePageDTO struct {
	Title       *string `json:"title"`
	Slug        *string `json:"slug"`
	IsHome      *bool   `json:"is_home"`
	IsPublished *bool   `json:"is_published"`
}
