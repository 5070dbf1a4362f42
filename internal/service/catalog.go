package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"doccatalog/internal/catalog"
	"doccatalog/internal/model"
	"doccatalog/internal/repository"
)

var (
	ErrIDRequired    = errors.New("id is required")
	ErrNotFound      = errors.New("document not found")
	ErrOwnerRequired = errors.New("owner is required")
	// ErrUnavailable wraps load failures other than unusable data. The
	// session stays unhydrated and the next call retries.
	ErrUnavailable = errors.New("catalog storage unavailable")
)

const defaultSaveTimeout = 3 * time.Second

var tracer = otel.Tracer("doccatalog/service")

// ViewUpdate changes the fields of the view state that are non-nil.
// An empty SelectedCategory clears the category filter.
type ViewUpdate struct {
	SearchTerm       *string          `json:"searchTerm,omitempty"`
	SelectedCategory *string          `json:"selectedCategory,omitempty"`
	SortField        *model.SortField `json:"sortField,omitempty"`
	SortOrder        *model.SortOrder `json:"sortOrder,omitempty"`
}

// Empty reports whether u changes nothing.
func (u ViewUpdate) Empty() bool {
	return u.SearchTerm == nil && u.SelectedCategory == nil && u.SortField == nil && u.SortOrder == nil
}

// ListResult is the derived view together with the state that produced it.
type ListResult struct {
	Items  []model.Document `json:"data"`
	View   model.ViewState  `json:"view"`
	Counts model.Counts     `json:"counts"`
}

// UploadInput is the metadata of an uploaded file plus optional form
// overrides. File content is never read.
type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Name        string
	Description string
	Tags        string
	Category    string
}

// CatalogService defines the use cases for an owner's document catalog.
type CatalogService interface {
	// Session returns the owner's Store, hydrating it on first use.
	Session(ctx context.Context, owner string) (*catalog.Store, error)

	// List applies upd (if any) to the view state and returns the derived view.
	List(ctx context.Context, owner string, upd ViewUpdate) (*ListResult, error)

	Get(ctx context.Context, owner, id string) (*model.Document, error)
	Add(ctx context.Context, owner string, in model.DocumentInput) (*model.Document, error)

	// AddFromUpload adds a document pre-filled from file metadata.
	AddFromUpload(ctx context.Context, owner string, up UploadInput) (*model.Document, error)

	Update(ctx context.Context, owner, id string, patch model.DocumentPatch) (*model.Document, error)

	// Delete removes a document. Deleting an absent id is not an error.
	Delete(ctx context.Context, owner, id string) error

	ToggleFavorite(ctx context.Context, owner, id string) (*model.Document, error)
	ViewState(ctx context.Context, owner string) (model.ViewState, error)
	SetView(ctx context.Context, owner string, upd ViewUpdate) (model.ViewState, error)
	Counts(ctx context.Context, owner string) (model.Counts, error)
	Categories() []model.Category
}

// Options configures a CatalogService. Zero values select defaults.
type Options struct {
	// Backend labels persistence failure metrics.
	Backend string
	// SaveTimeout bounds each repository Save and the initial Load.
	SaveTimeout time.Duration
	// SeedOnEmpty treats a stored empty collection as absent.
	SeedOnEmpty bool
	// Seed supplies the fallback collection; defaults to catalog.SeedDocuments.
	Seed         func() []model.Document
	Logger       *slog.Logger
	Metrics      *Metrics
	StoreOptions []catalog.Option
}

type session struct {
	// mu guards hydration; store is nil until a load succeeds.
	mu        sync.Mutex
	store     *catalog.Store
	source    catalog.Source
	persistMu sync.Mutex
}

// catalogService is a concrete implementation of CatalogService.
type catalogService struct {
	repo       repository.DocumentRepository
	opts       Options
	logger     *slog.Logger
	categories []model.Category

	mu       sync.Mutex
	sessions map[string]*session

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewCatalogService constructs a new CatalogService backed by repo.
func NewCatalogService(repo repository.DocumentRepository, opts Options) CatalogService {
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = defaultSaveTimeout
	}
	if opts.Seed == nil {
		opts.Seed = catalog.SeedDocuments
	}
	if opts.Backend == "" {
		opts.Backend = "unknown"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	opts.StoreOptions = append([]catalog.Option{catalog.WithLogger(logger)}, opts.StoreOptions...)

	return &catalogService{
		repo:       repo,
		opts:       opts,
		logger:     logger,
		categories: catalog.New(opts.StoreOptions...).Categories(),
		sessions:   make(map[string]*session),
		rng:        rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x646f63)),
	}
}

func (s *catalogService) Session(ctx context.Context, owner string) (*catalog.Store, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, ErrOwnerRequired
	}

	s.mu.Lock()
	sess, ok := s.sessions[owner]
	if !ok {
		sess = &session{}
		s.sessions[owner] = sess
	}
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.store != nil {
		return sess.store, nil
	}

	// The first load belongs to the session, not to the request that
	// happened to trigger it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.SaveTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "CatalogService.hydrate", trace.WithAttributes(attribute.String("owner", owner)))

	store := catalog.New(s.opts.StoreOptions...)
	source, err := catalog.Hydrate(ctx, store, s.loader(owner), s.opts.Seed(), s.logger)
	if err != nil {
		endSpan(span, err)
		s.logger.Error("failed to hydrate catalog", "owner", owner, "backend", s.opts.Backend, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	store.Subscribe(s.persist(owner, sess))
	sess.store = store
	sess.source = source

	span.SetAttributes(attribute.String("source", string(source)), attribute.Int("documents", store.Len()))
	endSpan(span, nil)
	s.logger.Info("catalog session ready", "owner", owner, "source", source, "documents", store.Len())
	return store, nil
}

func (s *catalogService) loader(owner string) catalog.LoadFunc {
	return func(ctx context.Context) ([]model.Document, error) {
		docs, err := s.repo.Load(ctx, owner)
		if errors.Is(err, repository.ErrCorrupt) {
			return nil, fmt.Errorf("%w: %w", catalog.ErrInvalidCollection, err)
		}
		if err != nil {
			return nil, err
		}
		if s.opts.SeedOnEmpty && docs != nil && len(docs) == 0 {
			return nil, nil
		}
		return docs, nil
	}
}

// persist saves the latest collection after each mutation. Saves for one
// owner are serialized and always write the current state, so a slow save
// can never overwrite a newer one. Failures are logged; memory is not
// rolled back.
func (s *catalogService) persist(owner string, sess *session) func(catalog.Event) {
	return func(ev catalog.Event) {
		if !ev.Mutation() {
			return
		}
		s.opts.Metrics.mutation(ev.Kind)

		sess.persistMu.Lock()
		defer sess.persistMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), s.opts.SaveTimeout)
		defer cancel()
		if err := s.repo.Save(ctx, owner, sess.store.Documents()); err != nil {
			s.opts.Metrics.persistFailure(s.opts.Backend)
			s.logger.Error("failed to persist documents",
				"owner", owner,
				"event", ev.Kind,
				"document_id", ev.DocumentID,
				"backend", s.opts.Backend,
				"error", err,
			)
		}
	}
}

func (s *catalogService) start(ctx context.Context, name, owner string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "CatalogService."+name, trace.WithAttributes(attribute.String("owner", owner)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *catalogService) List(ctx context.Context, owner string, upd ViewUpdate) (res *ListResult, err error) {
	ctx, span := s.start(ctx, "List", owner)
	defer func() { endSpan(span, err) }()

	store, err := s.Session(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !upd.Empty() {
		if err := s.applyView(store, upd); err != nil {
			return nil, err
		}
	}
	res = &ListResult{
		Items:  store.View(),
		View:   store.ViewState(),
		Counts: store.Counts(),
	}
	span.SetAttributes(attribute.Int("documents", len(res.Items)))
	return res, nil
}

func (s *catalogService) Get(ctx context.Context, owner, id string) (doc *model.Document, err error) {
	ctx, span := s.start(ctx, "Get", owner)
	defer func() { endSpan(span, err) }()

	if id == "" {
		return nil, ErrIDRequired
	}
	store, err := s.Session(ctx, owner)
	if err != nil {
		return nil, err
	}
	d, ok := store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (s *catalogService) Add(ctx context.Context, owner string, in model.DocumentInput) (doc *model.Document, err error) {
	ctx, span := s.start(ctx, "Add", owner)
	defer func() { endSpan(span, err) }()

	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in, s.categories); err != nil {
		return nil, err
	}
	store, err := s.Session(ctx, owner)
	if err != nil {
		return nil, err
	}
	d := store.Add(in)
	span.SetAttributes(attribute.String("document_id", d.ID))
	return &d, nil
}

func (s *catalogService) AddFromUpload(ctx context.Context, owner string, up UploadInput) (*model.Document, error) {
	in := catalog.DraftFromUpload(up.Filename, up.ContentType, up.Size)
	if in.Size <= 0 {
		s.rngMu.Lock()
		in.Size = catalog.PlaceholderSize(s.rng)
		s.rngMu.Unlock()
	}
	if name := strings.TrimSpace(up.Name); name != "" {
		in.Name = name
	}
	if desc := strings.TrimSpace(up.Description); desc != "" {
		in.Description = &desc
	}
	if up.Tags != "" {
		in.Tags = catalog.ParseTags(up.Tags)
	}
	if up.Category != "" {
		in.Category = up.Category
	}
	return s.Add(ctx, owner, in)
}

func (s *catalogService) Update(ctx context.Context, owner, id string, patch model.DocumentPatch) (doc *model.Document, err error) {
	ctx, span := s.start(ctx, "Update", owner)
	defer func() { endSpan(span, err) }()

	if id == "" {
		return nil, ErrIDRequired
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if err := validatePatch(patch, s.categories); err != nil {
		return nil, err
	}
	store, err := s.Session(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !store.Update(id, patch) {
		return nil, ErrNotFound
	}
	d, ok := store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (s *catalogService) Delete(ctx context.Context, owner, id string) (err error) {
	ctx, span := s.start(ctx, "Delete", owner)
	defer func() { endSpan(span, err) }()

	if id == "" {
		return ErrIDRequired
	}
	store, err := s.Session(ctx, owner)
	if err != nil {
		return err
	}
	removed := store.Remove(id)
	span.SetAttributes(attribute.Bool("removed", removed))
	return nil
}

func (s *catalogService) ToggleFavorite(ctx context.Context, owner, id string) (doc *model.Document, err error) {
	ctx, span := s.start(ctx, "ToggleFavorite", owner)
	defer func() { endSpan(span, err) }()

	if id == "" {
		return nil, ErrIDRequired
	}
	store, err := s.Session(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !store.ToggleFavorite(id) {
		return nil, ErrNotFound
	}
	d, ok := store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (s *catalogService) ViewState(ctx context.Context, owner string) (model.ViewState, error) {
	store, err := s.Session(ctx, owner)
	if err != nil {
		return model.ViewState{}, err
	}
	return store.ViewState(), nil
}

func (s *catalogService) SetView(ctx context.Context, owner string, upd ViewUpdate) (v model.ViewState, err error) {
	ctx, span := s.start(ctx, "SetView", owner)
	defer func() { endSpan(span, err) }()

	store, err := s.Session(ctx, owner)
	if err != nil {
		return model.ViewState{}, err
	}
	if err := s.applyView(store, upd); err != nil {
		return model.ViewState{}, err
	}
	return store.ViewState(), nil
}

func (s *catalogService) applyView(store *catalog.Store, upd ViewUpdate) error {
	if err := validateViewUpdate(upd, s.categories); err != nil {
		return err
	}
	if upd.SearchTerm != nil {
		store.SetSearchTerm(*upd.SearchTerm)
	}
	if upd.SelectedCategory != nil {
		store.SetSelectedCategory(upd.SelectedCategory)
	}
	if upd.SortField != nil {
		store.SetSortField(*upd.SortField)
	}
	if upd.SortOrder != nil {
		store.SetSortOrder(*upd.SortOrder)
	}
	return nil
}

func (s *catalogService) Counts(ctx context.Context, owner string) (model.Counts, error) {
	store, err := s.Session(ctx, owner)
	if err != nil {
		return model.Counts{}, err
	}
	return store.Counts(), nil
}

func (s *catalogService) Categories() []model.Category {
	out := make([]model.Category, len(s.categories))
	copy(out, s.categories)
	return out
}
