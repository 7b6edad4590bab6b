package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/pkg/cache"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

type contentRepository[T any] interface {
	List(ctx context.Context) ([]*T, error)
	GetByID(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, item *T) error
	Update(ctx context.Context, item *T) error
	Delete(ctx context.Context, id string) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// VisibleDecorator adjusts a student's visible list before it is returned.
type VisibleDecorator[T any] func(ctx context.Context, viewer Viewer, items []*T) error

// CreateHook runs after an item has been stored.
type CreateHook[T any] func(ctx context.Context, item *T)

// ContentService manages one content type: administrator CRUD, facets and student listings.
type ContentService[T any, P models.ContentPtr[T]] struct {
	kind       string
	repo       contentRepository[T]
	validator  *validator.Validate
	cache      cacheInvalidator
	logger     *zap.Logger
	now        func() time.Time
	decorators []VisibleDecorator[T]
	hooks      []CreateHook[T]
}

// NewContentService constructs a content service. kind names the type in messages, e.g. "poll".
func NewContentService[T any, P models.ContentPtr[T]](kind string, repo contentRepository[T], validate *validator.Validate, cache cacheInvalidator, logger *zap.Logger) *ContentService[T, P] {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentService[T, P]{
		kind:      kind,
		repo:      repo,
		validator: validate,
		cache:     cache,
		logger:    logger,
		now:       time.Now,
	}
}

// WithVisibleDecorator appends a decorator applied by Visible.
func (s *ContentService[T, P]) WithVisibleDecorator(fn VisibleDecorator[T]) *ContentService[T, P] {
	if fn != nil {
		s.decorators = append(s.decorators, fn)
	}
	return s
}

// WithCreateHook appends a hook run after Create succeeds.
func (s *ContentService[T, P]) WithCreateHook(fn CreateHook[T]) *ContentService[T, P] {
	if fn != nil {
		s.hooks = append(s.hooks, fn)
	}
	return s
}

// Create validates and stores a new item owned by actor.
func (s *ContentService[T, P]) Create(ctx context.Context, actor Viewer, draft dto.ContentDraft[T]) (*T, error) {
	if draft == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid "+s.kind+" payload")
	}
	if err := s.validator.Struct(draft); err != nil {
		return nil, appErrors.Validation(err, "invalid "+s.kind+" payload")
	}

	item := draft.Build(actor.UserID, s.now().UTC())
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create "+s.kind)
	}

	if actor.UserID != "" {
		P(item).Meta().UploadedBy = &models.OwnerSummary{Name: actor.DisplayName, Email: actor.Email}
	}
	s.invalidate(ctx)
	for _, hook := range s.hooks {
		hook(ctx, item)
	}
	return item, nil
}

// Update applies a partial update to an existing item.
func (s *ContentService[T, P]) Update(ctx context.Context, id string, patch dto.ContentPatch[T]) (*T, error) {
	if patch == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid "+s.kind+" payload")
	}
	if err := s.validator.Struct(patch); err != nil {
		return nil, appErrors.Validation(err, "invalid "+s.kind+" payload")
	}

	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(item); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Validation(err, "invalid "+s.kind+" payload")
	}

	meta := P(item).Meta()
	meta.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.notFound()
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update "+s.kind)
	}
	meta.ResolveOwner()
	s.invalidate(ctx)
	return item, nil
}

// Delete removes an item.
func (s *ContentService[T, P]) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.notFound()
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete "+s.kind)
	}
	s.invalidate(ctx)
	return nil
}

// Facets returns the administrator view of every item.
func (s *ContentService[T, P]) Facets(ctx context.Context, viewer Viewer) (models.ContentFacets[T], error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return models.ContentFacets[T]{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list "+s.kind)
	}
	return BuildFacets[T, P](items, viewer.UserID, s.now(), s.logger), nil
}

// Visible returns the items viewer may currently see, newest first.
func (s *ContentService[T, P]) Visible(ctx context.Context, viewer Viewer) ([]*T, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list "+s.kind)
	}
	visible := VisibleItems[T, P](items, viewer, s.now(), s.logger)
	for _, decorate := range s.decorators {
		if err := decorate(ctx, viewer, visible); err != nil {
			return nil, err
		}
	}
	return visible, nil
}

func (s *ContentService[T, P]) load(ctx context.Context, id string) (*T, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.notFound()
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+s.kind)
	}
	return item, nil
}

func (s *ContentService[T, P]) notFound() error {
	return appErrors.Clone(appErrors.ErrNotFound, s.kind+" not found")
}

func (s *ContentService[T, P]) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, cache.DashboardPattern); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.String("kind", s.kind), zap.Error(err))
	}
}

// HideResponseLink strips the administrator-only response link from a student's form list.
func HideResponseLink(_ context.Context, _ Viewer, forms []*models.FormLink) error {
	for _, form := range forms {
		form.ResponseLink = ""
	}
	return nil
}
