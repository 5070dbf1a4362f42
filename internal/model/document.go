package model

import (
	"slices"
	"time"
)

// Document is a metadata record describing a document in a catalog.
// No file content is attached; Size may be a real byte count or a placeholder.
type Document struct {
	ID          string    `json:"id" msgpack:"id"`
	Name        string    `json:"name" msgpack:"name"`
	Type        string    `json:"type" msgpack:"type"`
	Size        int64     `json:"size" msgpack:"size"`
	CreatedAt   time.Time `json:"createdAt" msgpack:"createdAt"`
	ModifiedAt  time.Time `json:"modifiedAt" msgpack:"modifiedAt"`
	Tags        []string  `json:"tags" msgpack:"tags"`
	Category    string    `json:"category" msgpack:"category"`
	Description *string   `json:"description,omitempty" msgpack:"description,omitempty"`
	URL         *string   `json:"url,omitempty" msgpack:"url,omitempty"`
	IsFavorite  bool      `json:"isFavorite" msgpack:"isFavorite"`
}

// Clone returns a deep copy so the caller cannot alias canonical state.
func (d Document) Clone() Document {
	out := d
	out.Tags = cloneTags(d.Tags)
	out.Description = cloneString(d.Description)
	out.URL = cloneString(d.URL)
	return out
}

// DocumentInput carries every Document field except the ones the store assigns
// (ID, CreatedAt, ModifiedAt).
type DocumentInput struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Size        int64    `json:"size"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
	Description *string  `json:"description,omitempty"`
	URL         *string  `json:"url,omitempty"`
	IsFavorite  bool     `json:"isFavorite"`
}

// DocumentPatch is a partial update. Nil fields are left untouched; an empty
// Description or URL removes the value. ModifiedAt is always refreshed by
// the store, so it is not patchable.
type DocumentPatch struct {
	Name        *string   `json:"name,omitempty"`
	Type        *string   `json:"type,omitempty"`
	Size        *int64    `json:"size,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Description *string   `json:"description,omitempty"`
	URL         *string   `json:"url,omitempty"`
	IsFavorite  *bool     `json:"isFavorite,omitempty"`
}

// Apply merges the patch onto d and returns the result. d is not modified.
func (p DocumentPatch) Apply(d Document) Document {
	out := d.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Type != nil {
		out.Type = *p.Type
	}
	if p.Size != nil {
		out.Size = *p.Size
	}
	if p.Tags != nil {
		out.Tags = cloneTags(*p.Tags)
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	if p.Description != nil {
		out.Description = optionalString(*p.Description)
	}
	if p.URL != nil {
		out.URL = optionalString(*p.URL)
	}
	if p.IsFavorite != nil {
		out.IsFavorite = *p.IsFavorite
	}
	return out
}

// Category is a static classification descriptor. Color and Icon are
// presentation hints only.
type Category struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
	Icon  string `json:"icon" yaml:"icon"`
}

func cloneTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return slices.Clone(tags)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
