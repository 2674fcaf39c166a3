// Package posting creates emoji posts.
package posting

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/emojiblog/emojiblog/internal/apperr"
	"github.com/emojiblog/emojiblog/internal/db"
	"github.com/emojiblog/emojiblog/internal/models"
	"github.com/emojiblog/emojiblog/internal/ratelimit"
	"github.com/emojiblog/emojiblog/internal/validate"
	"github.com/emojiblog/emojiblog/pkg/logging"
	"github.com/emojiblog/emojiblog/pkg/telemetry"
)

// Input is the payload of a new post. Content must be emoji only.
type Input struct {
	Title   string   `json:"title" validate:"u16min=1,u16max=100"`
	Content string   `json:"content" validate:"emoji,u16min=1,u16max=280"`
	TagIDs  []string `json:"tagIds" validate:"max=100,dive,required"`
}

// Service creates posts
type Service struct {
	repo    *db.Repository
	limiter *ratelimit.Limiter
	now     func() time.Time
	logger  *zap.Logger
}

// NewService creates the posting service. A nil now defaults to time.Now.
func NewService(repo *db.Repository, limiter *ratelimit.Limiter, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:    repo,
		limiter: limiter,
		now:     now,
		logger:  logging.WithComponent("posting"),
	}
}

// Create stores a post by authorID and links it to the given tags in one transaction
func (s *Service) Create(ctx context.Context, authorID string, in Input) (*models.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "posting.create")
	defer span.End()

	if authorID == "" {
		return nil, apperr.Unauthorized()
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	res, err := s.limiter.Limit(ctx, authorID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "rate limiter unavailable", err)
	}
	if !res.Success {
		return nil, apperr.TooManyRequests()
	}

	tagIDs := dedupe(in.TagIDs)
	span.SetAttributes(attribute.Int("post.tags", len(tagIDs)))

	post := &models.Post{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Content:   in.Content,
		AuthorID:  authorID,
		CreatedAt: s.now().UTC(),
	}

	err = s.repo.Transaction(ctx, func(tx *db.Repository) error {
		tags := db.NewTagRepository(tx)
		if len(tagIDs) > 0 {
			n, err := tags.CountByIDs(ctx, tagIDs)
			if err != nil {
				return err
			}
			if n != int64(len(tagIDs)) {
				return apperr.NotFound("Tag not found")
			}
		}

		if err := db.NewPostRepository(tx).Create(ctx, post); err != nil {
			return err
		}

		links := make([]models.PostTag, len(tagIDs))
		for i, id := range tagIDs {
			links[i] = models.PostTag{PostID: post.ID, TagID: id}
		}
		return tags.Associate(ctx, links)
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create post", err)
	}

	s.logger.Info("Post created",
		zap.String("post_id", post.ID),
		zap.String("author_id", authorID),
		zap.Int("tags", len(tagIDs)))
	return post, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
