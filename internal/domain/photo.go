package domain

// DefaultCategory groups photos stored without a category.
const DefaultCategory = "Other"

// Photo is a public image stored at images/public/{photoId}.
type Photo struct {
	ID        string   `json:"id"`
	UID       string   `json:"uid"`
	ImageURL  string   `json:"imageUrl"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	CreatedAt int64    `json:"createdAt"`

	// Views and Likes are derived at read time. Stored values are ignored.
	Views int `json:"views"`
	Likes int `json:"likes"`
}

// CategoryOrDefault returns the photo's category, falling back to DefaultCategory.
func (p *Photo) CategoryOrDefault() string {
	if p.Category == "" {
		return DefaultCategory
	}
	return p.Category
}

// PhotoWithUser is a feed entry: the photo, its owner, and whether the viewer liked it.
type PhotoWithUser struct {
	Photo    Photo `json:"photo"`
	User     User  `json:"user"`
	HasLiked bool  `json:"hasLiked"`
}

// Categories maps a category name to one page of its photos, newest first.
type Categories map[string][]PhotoWithUser
