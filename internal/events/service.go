package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/apperror"
	"github.com/aura-events/backend/pkg/cache"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	categoriesKey = "categories"
	locationsKey  = "locations"
)

var (
	ErrEventNotFound   = apperror.NotFound("Event not found")
	ErrInvalidCapacity = apperror.Validation("capacity must be positive")
	ErrInvalidPage     = apperror.Validation("page must be a positive integer")
	ErrInvalidLimit    = apperror.Validation("limit must be between 1 and 100")
	ErrInvalidEvent    = apperror.Validation("name, organizer, location and date are required")
)

// FacetCache stores category and location lists. Get returns cache.ErrMiss for absent keys.
type FacetCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Pagination describes one page of a listing.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalEvents int `json:"totalEvents"`
	Limit       int `json:"limit"`
}

// Page is a catalog listing response.
type Page struct {
	Events     []models.Event `json:"events"`
	Pagination Pagination     `json:"pagination"`
}

// Service answers catalog queries.
type Service struct {
	repo     *Repository
	cache    FacetCache
	cacheTTL time.Duration
	group    singleflight.Group
	logger   *zap.Logger
}

// NewService creates a catalog service. cache may be nil.
func NewService(repo *Repository, facets FacetCache, cacheTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, cache: facets, cacheTTL: cacheTTL, logger: logger}
}

// List returns one page of events matching f, ordered by date.
func (s *Service) List(ctx context.Context, f models.EventFilter, page, limit int) (*Page, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}
	if limit < 1 || limit > MaxLimit {
		return nil, ErrInvalidLimit
	}

	var (
		total int
		list  []models.Event
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repo.Count(gctx, f)
		total = n
		return err
	})
	g.Go(func() error {
		l, err := s.repo.List(gctx, f, limit, (page-1)*limit)
		list = l
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperror.Internal("Failed to fetch events", err)
	}

	return &Page{
		Events: list,
		Pagination: Pagination{
			CurrentPage: page,
			TotalPages:  (total + limit - 1) / limit,
			TotalEvents: total,
			Limit:       limit,
		},
	}, nil
}

// GetByID returns one event.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	e, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, apperror.Internal("Failed to fetch event details", err)
	}
	return e, nil
}

// Categories returns the distinct event categories.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.facet(ctx, categoriesKey, s.repo.Categories)
}

// Locations returns the distinct event locations.
func (s *Service) Locations(ctx context.Context) ([]string, error) {
	return s.facet(ctx, locationsKey, s.repo.Locations)
}

// facet serves a cached list, loading it once per key across concurrent callers on a miss.
// Cache errors are logged and fall through to the database.
func (s *Service) facet(ctx context.Context, key string, load func(context.Context) ([]string, error)) ([]string, error) {
	if s.cache != nil {
		var cached []string
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("facet cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		// Shared by every waiter; one caller going away must not fail the rest.
		loadCtx := context.WithoutCancel(ctx)
		list, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(loadCtx, key, list, s.cacheTTL); err != nil {
				s.logger.Warn("facet cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return list, nil
	})
	if err != nil {
		return nil, apperror.Internal("Failed to fetch "+key, err)
	}
	return v.([]string), nil
}

// Create validates and inserts an event with every seat available.
func (s *Service) Create(ctx context.Context, e *models.Event) error {
	e.Name = strings.TrimSpace(e.Name)
	e.Organizer = strings.TrimSpace(e.Organizer)
	e.Location = strings.TrimSpace(e.Location)
	if e.Name == "" || e.Organizer == "" || e.Location == "" || e.Date.IsZero() {
		return ErrInvalidEvent
	}
	if e.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	e.AvailableSeats = e.Capacity
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return apperror.Internal("failed to create event", err)
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, categoriesKey, locationsKey); err != nil {
			s.logger.Warn("facet cache invalidation failed", zap.Error(err))
		}
	}
	return nil
}

// Stats returns catalog-wide counts.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.repo.Stats(ctx)
}
