package model

// SortField names the document attribute the derived view is ordered by.
type SortField string

const (
	SortByName       SortField = "name"
	SortByCreatedAt  SortField = "createdAt"
	SortByModifiedAt SortField = "modifiedAt"
	SortBySize       SortField = "size"
	SortByType       SortField = "type"
)

// SortFields lists every accepted SortField.
var SortFields = []SortField{SortByName, SortByCreatedAt, SortByModifiedAt, SortBySize, SortByType}

// SortOrder is the direction of the derived view.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// ViewState holds the ephemeral filter and sort parameters. It is never persisted.
type ViewState struct {
	SearchTerm       string    `json:"searchTerm"`
	SelectedCategory *string   `json:"selectedCategory"`
	SortField        SortField `json:"sortField"`
	SortOrder        SortOrder `json:"sortOrder"`
}

// DefaultViewState returns the view a fresh store starts with: no filter,
// most recently modified first.
func DefaultViewState() ViewState {
	return ViewState{
		SortField: SortByModifiedAt,
		SortOrder: Descending,
	}
}

// CategoryCount is the number of canonical documents in one category.
type CategoryCount struct {
	Category
	Count int `json:"count"`
}

// Counts summarizes a catalog for header badges.
type Counts struct {
	Total      int             `json:"total"`
	Filtered   int             `json:"filtered"`
	Favorites  int             `json:"favorites"`
	Categories []CategoryCount `json:"categories"`
}

// Profile is the identity information exposed to presentation collaborators.
type Profile struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}
