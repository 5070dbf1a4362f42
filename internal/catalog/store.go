// Package catalog owns the canonical document collection and the view
// parameters used to derive the filtered, sorted listing shown to users.
//
// A Store never returns errors. Operations keyed by an unknown id are no-ops;
// they report false so transports can decide how to surface it.
package catalog

import (
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"doccatalog/internal/model"
)

// EventKind identifies what changed in a Store.
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventUpdated EventKind = "updated"
	EventRemoved EventKind = "removed"
	EventView    EventKind = "view"
)

// Event is delivered to subscribers after a state change. Documents holds a
// snapshot of the canonical collection for mutation events and is nil for
// view changes.
type Event struct {
	Kind       EventKind
	DocumentID string
	Documents  []model.Document
}

// Mutation reports whether the event changed the canonical collection.
func (e Event) Mutation() bool {
	return e.Kind != EventView
}

type subscriber struct {
	id int
	fn func(Event)
}

// Store is the single source of truth for one catalog. It is safe for
// concurrent use; subscribers are called synchronously, outside the lock,
// in registration order.
type Store struct {
	mu         sync.Mutex
	docs       []model.Document
	view       model.ViewState
	categories []model.Category

	now    func() time.Time
	newID  func() string
	logger *slog.Logger

	subMu   sync.Mutex
	subs    []subscriber
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the id source. Generated ids are still checked
// against the collection and regenerated on collision.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithCategories replaces the default category registry.
func WithCategories(cats []model.Category) Option {
	return func(s *Store) { s.categories = slices.Clone(cats) }
}

// New constructs an empty Store with default view state.
func New(opts ...Option) *Store {
	s := &Store{
		docs:   []model.Document{},
		view:   model.DefaultViewState(),
		now:    func() time.Time { return time.Now().UTC().Round(0) },
		newID:  uuid.NewString,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.categories == nil {
		s.categories = DefaultCategories()
	}
	return s
}

// Init replaces the canonical collection wholesale. Subscribers are not
// notified since nothing needs persisting.
func (s *Store) Init(docs []model.Document) {
	cloned := make([]model.Document, len(docs))
	for i, d := range docs {
		cloned[i] = d.Clone()
	}
	s.mu.Lock()
	s.docs = cloned
	s.mu.Unlock()
}

// Subscribe registers fn to be called after every state change. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(sub subscriber) bool { return sub.id == id })
	}
}

func (s *Store) notify(ev Event) {
	s.subMu.Lock()
	subs := slices.Clone(s.subs)
	s.subMu.Unlock()
	for _, sub := range subs {
		sub.fn(ev)
	}
}

// Add creates a document from in, appends it to the collection and returns it.
func (s *Store) Add(in model.DocumentInput) model.Document {
	s.mu.Lock()
	now := s.now()
	doc := model.Document{
		ID:          s.uniqueIDLocked(),
		Name:        in.Name,
		Type:        in.Type,
		Size:        in.Size,
		CreatedAt:   now,
		ModifiedAt:  now,
		Tags:        in.Tags,
		Category:    in.Category,
		Description: in.Description,
		URL:         in.URL,
		IsFavorite:  in.IsFavorite,
	}.Clone()
	s.docs = append(s.docs, doc)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventAdded, DocumentID: doc.ID, Documents: snap})
	return doc.Clone()
}

func (s *Store) uniqueIDLocked() string {
	for {
		id := s.newID()
		if id != "" && s.indexLocked(id) < 0 {
			return id
		}
		s.logger.Warn("generated document id collides, retrying", "id", id)
	}
}

// Update merges patch onto the document with the given id and refreshes its
// ModifiedAt. It returns false, changing nothing, if the id is unknown.
func (s *Store) Update(id string, patch model.DocumentPatch) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.docs[i] = s.touchLocked(patch.Apply(s.docs[i]), s.docs[i])
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventUpdated, DocumentID: id, Documents: snap})
	return true
}

// touchLocked restores the immutable fields of prev onto next and stamps
// ModifiedAt, never moving it backwards.
func (s *Store) touchLocked(next, prev model.Document) model.Document {
	next.ID = prev.ID
	next.CreatedAt = prev.CreatedAt
	now := s.now()
	if now.Before(prev.ModifiedAt) {
		now = prev.ModifiedAt
	}
	next.ModifiedAt = now
	return next
}

// Remove deletes the document with the given id. It returns false if the id
// is unknown.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.docs = slices.Delete(s.docs, i, i+1)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventRemoved, DocumentID: id, Documents: snap})
	return true
}

// ToggleFavorite flips IsFavorite on the document with the given id. It
// returns false if the id is unknown.
func (s *Store) ToggleFavorite(id string) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	fav := !s.docs[i].IsFavorite
	s.docs[i] = s.touchLocked(model.DocumentPatch{IsFavorite: &fav}.Apply(s.docs[i]), s.docs[i])
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventUpdated, DocumentID: id, Documents: snap})
	return true
}

// Get returns a copy of the document with the given id.
func (s *Store) Get(id string) (model.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return model.Document{}, false
	}
	return s.docs[i].Clone(), true
}

// Documents returns a copy of the canonical collection in insertion order.
func (s *Store) Documents() []model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Len returns the size of the canonical collection.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.docs, func(d model.Document) bool { return d.ID == id })
}

func (s *Store) snapshotLocked() []model.Document {
	out := make([]model.Document, len(s.docs))
	for i, d := range s.docs {
		out[i] = d.Clone()
	}
	return out
}
