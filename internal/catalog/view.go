package catalog

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"doccatalog/internal/model"
)

// SetSearchTerm sets the free-text filter. An empty term matches everything.
func (s *Store) SetSearchTerm(term string) {
	s.setView(func(v *model.ViewState) { v.SearchTerm = term })
}

// SetSelectedCategory restricts the view to one category; nil or an empty
// id clears the filter.
func (s *Store) SetSelectedCategory(id *string) {
	s.setView(func(v *model.ViewState) {
		if id == nil || *id == "" {
			v.SelectedCategory = nil
			return
		}
		c := *id
		v.SelectedCategory = &c
	})
}

// SetSortField sets the attribute the view is ordered by. Values outside
// model.SortFields are accepted and leave the filtered set in collection order.
func (s *Store) SetSortField(f model.SortField) {
	s.setView(func(v *model.ViewState) { v.SortField = f })
}

// SetSortOrder sets the view direction.
func (s *Store) SetSortOrder(o model.SortOrder) {
	s.setView(func(v *model.ViewState) { v.SortOrder = o })
}

// ToggleSortOrder flips between ascending and descending.
func (s *Store) ToggleSortOrder() {
	s.setView(func(v *model.ViewState) {
		if v.SortOrder == model.Ascending {
			v.SortOrder = model.Descending
		} else {
			v.SortOrder = model.Ascending
		}
	})
}

// ViewState returns the current view parameters.
func (s *Store) ViewState() model.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyView(s.view)
}

func (s *Store) setView(fn func(*model.ViewState)) {
	s.mu.Lock()
	fn(&s.view)
	s.mu.Unlock()
	s.notify(Event{Kind: EventView})
}

// View returns the derived listing for the current canonical collection and
// view state. It is recomputed on every call.
func (s *Store) View() []model.Document {
	s.mu.Lock()
	docs, view := s.docs, copyView(s.view)
	out := DeriveView(docs, view)
	s.mu.Unlock()
	return out
}

// Counts returns totals for header badges: all documents, the derived view,
// favorites, and one entry per registered category.
func (s *Store) Counts() model.Counts {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := model.Counts{
		Total:      len(s.docs),
		Filtered:   len(DeriveView(s.docs, s.view)),
		Categories: make([]model.CategoryCount, 0, len(s.categories)),
	}
	for _, d := range s.docs {
		if d.IsFavorite {
			c.Favorites++
		}
	}
	for _, cat := range s.categories {
		n := 0
		for _, d := range s.docs {
			if d.Category == cat.ID {
				n++
			}
		}
		c.Categories = append(c.Categories, model.CategoryCount{Category: cat, Count: n})
	}
	return c
}

// DeriveView filters docs by view.SelectedCategory and view.SearchTerm, then
// stable-sorts by view.SortField. Descending order negates the comparator, so
// documents with equal keys keep their collection order in both directions.
// docs is not modified.
func DeriveView(docs []model.Document, view model.ViewState) []model.Document {
	lower := cases.Lower(language.Und)
	term := lower.String(view.SearchTerm)

	out := make([]model.Document, 0, len(docs))
	for _, d := range docs {
		if view.SelectedCategory != nil && d.Category != *view.SelectedCategory {
			continue
		}
		if term != "" && !matchesSearch(lower, d, term) {
			continue
		}
		out = append(out, d.Clone())
	}

	compare := comparator(view.SortField, lower)
	if view.SortOrder == model.Descending {
		asc := compare
		compare = func(a, b model.Document) int { return -asc(a, b) }
	}
	slices.SortStableFunc(out, compare)
	return out
}

func matchesSearch(lower cases.Caser, d model.Document, term string) bool {
	if strings.Contains(lower.String(d.Name), term) {
		return true
	}
	for _, tag := range d.Tags {
		if strings.Contains(lower.String(tag), term) {
			return true
		}
	}
	return d.Description != nil && strings.Contains(lower.String(*d.Description), term)
}

func comparator(field model.SortField, lower cases.Caser) func(a, b model.Document) int {
	switch field {
	case model.SortByName:
		return func(a, b model.Document) int {
			return strings.Compare(lower.String(a.Name), lower.String(b.Name))
		}
	case model.SortByType:
		return func(a, b model.Document) int {
			return strings.Compare(lower.String(a.Type), lower.String(b.Type))
		}
	case model.SortByCreatedAt:
		return func(a, b model.Document) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case model.SortByModifiedAt:
		return func(a, b model.Document) int { return a.ModifiedAt.Compare(b.ModifiedAt) }
	case model.SortBySize:
		return func(a, b model.Document) int { return cmp.Compare(a.Size, b.Size) }
	default:
		return func(model.Document, model.Document) int { return 0 }
	}
}

func copyView(v model.ViewState) model.ViewState {
	if v.SelectedCategory != nil {
		c := *v.SelectedCategory
		v.SelectedCategory = &c
	}
	return v
}
