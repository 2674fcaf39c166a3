// Package tags manages tags and their association with posts.
package tags

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emojiblog/emojiblog/internal/apperr"
	"github.com/emojiblog/emojiblog/internal/cache"
	"github.com/emojiblog/emojiblog/internal/db"
	"github.com/emojiblog/emojiblog/internal/models"
	"github.com/emojiblog/emojiblog/internal/validate"
	"github.com/emojiblog/emojiblog/pkg/logging"
	"github.com/emojiblog/emojiblog/pkg/telemetry"
)

const (
	// MaxTags caps the tag listing
	MaxTags = 100

	listCacheKey = "tags:all"
	listCacheTTL = 5 * time.Minute
)

// Cache is the subset of the Redis cache used for the tag listing
type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CreateInput names a new tag
type CreateInput struct {
	Name string `json:"name" validate:"u16min=1,u16max=50"`
}

// AssociateInput links one post to one tag
type AssociateInput struct {
	PostID string `json:"postId" validate:"required"`
	TagID  string `json:"tagId" validate:"required"`
}

// Service manages tags
type Service struct {
	repo   *db.Repository
	tags   *db.TagRepository
	cache  Cache
	logger *zap.Logger
}

// NewService creates the tag service. cache may be nil.
func NewService(repo *db.Repository, c Cache) *Service {
	return &Service{
		repo:   repo,
		tags:   db.NewTagRepository(repo),
		cache:  c,
		logger: logging.WithComponent("tags"),
	}
}

// ListAll returns up to MaxTags tags, served from cache when possible
func (s *Service) ListAll(ctx context.Context) ([]models.Tag, error) {
	ctx, span := telemetry.StartSpan(ctx, "tags.list_all")
	defer span.End()

	if s.cache != nil {
		var cached []models.Tag
		err := s.cache.GetJSON(ctx, listCacheKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) && !errors.Is(err, cache.ErrCacheDisabled) {
			s.logger.Warn("Tag cache read failed", zap.Error(err))
		}
	}

	list, err := s.tags.List(ctx, MaxTags)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load tags", err)
	}
	if list == nil {
		list = []models.Tag{}
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, listCacheKey, list, listCacheTTL); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
			s.logger.Warn("Tag cache write failed", zap.Error(err))
		}
	}
	return list, nil
}

// Create inserts a tag. Names are trimmed and must be unique.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Tag, error) {
	ctx, span := telemetry.StartSpan(ctx, "tags.create")
	defer span.End()

	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	tag := &models.Tag{ID: uuid.NewString(), Name: in.Name}
	if err := s.tags.Create(ctx, tag); err != nil {
		if db.IsDuplicate(err) {
			return nil, apperr.Conflict("Tag already exists", err)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create tag", err)
	}

	s.invalidate(ctx)
	return tag, nil
}

// Associate links an existing post to an existing tag
func (s *Service) Associate(ctx context.Context, in AssociateInput) (*models.PostTag, error) {
	ctx, span := telemetry.StartSpan(ctx, "tags.associate")
	defer span.End()

	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	link := models.PostTag{PostID: in.PostID, TagID: in.TagID}
	err := s.repo.Transaction(ctx, func(tx *db.Repository) error {
		post, err := db.NewPostRepository(tx).GetByID(ctx, in.PostID)
		if err != nil {
			return err
		}
		if post == nil {
			return apperr.NotFound("Post not found")
		}
		tags := db.NewTagRepository(tx)
		n, err := tags.CountByIDs(ctx, []string{in.TagID})
		if err != nil {
			return err
		}
		if n == 0 {
			return apperr.NotFound("Tag not found")
		}
		return tags.Associate(ctx, []models.PostTag{link})
	})
	if err != nil {
		var ae *apperr.Error
		switch {
		case errors.As(err, &ae):
			return nil, err
		case db.IsDuplicate(err):
			return nil, apperr.Conflict("Post already has this tag", err)
		default:
			return nil, apperr.Wrap(apperr.KindInternal, "failed to associate tag", err)
		}
	}
	return &link, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, listCacheKey); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		s.logger.Warn("Tag cache invalidation failed", zap.Error(err))
	}
}
