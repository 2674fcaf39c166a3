// Package engagement handles likes and comments on posts.
package engagement

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/emojiblog/emojiblog/internal/apperr"
	"github.com/emojiblog/emojiblog/internal/db"
	"github.com/emojiblog/emojiblog/internal/identity"
	"github.com/emojiblog/emojiblog/internal/models"
	"github.com/emojiblog/emojiblog/internal/ratelimit"
	"github.com/emojiblog/emojiblog/internal/validate"
	"github.com/emojiblog/emojiblog/pkg/logging"
	"github.com/emojiblog/emojiblog/pkg/telemetry"
)

// MaxComments caps a post's comment listing
const MaxComments = 100

// ToggleResult reports the like state after a toggle
type ToggleResult struct {
	Liked bool `json:"liked"`
}

// CommentInput is the payload of a new comment
type CommentInput struct {
	Content string `json:"content" validate:"u16min=1,u16max=1000"`
	PostID  string `json:"postId" validate:"required"`
}

// CommentWithUser is a comment together with its author
type CommentWithUser struct {
	models.Comment
	User identity.ClientUser `json:"user"`
}

// Service manages likes and comments
type Service struct {
	repo      *db.Repository
	comments  *db.CommentRepository
	limiter   *ratelimit.Limiter
	provider  identity.Provider
	sanitizer *bluemonday.Policy
	now       func() time.Time
	logger    *zap.Logger
}

// NewService creates the engagement service. A nil now defaults to time.Now.
func NewService(repo *db.Repository, limiter *ratelimit.Limiter, provider identity.Provider, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:      repo,
		comments:  db.NewCommentRepository(repo),
		limiter:   limiter,
		provider:  provider,
		sanitizer: bluemonday.StrictPolicy(),
		now:       now,
		logger:    logging.WithComponent("engagement"),
	}
}

// ToggleLike flips userID's like on postID
func (s *Service) ToggleLike(ctx context.Context, userID, postID string) (*ToggleResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "engagement.toggle_like")
	defer span.End()

	if userID == "" {
		return nil, apperr.Unauthorized()
	}
	if postID == "" {
		return nil, apperr.Validation(map[string][]string{"postId": {"is required"}})
	}

	var liked bool
	err := s.repo.Transaction(ctx, func(tx *db.Repository) error {
		post, err := db.NewPostRepository(tx).GetByID(ctx, postID)
		if err != nil {
			return err
		}
		if post == nil {
			return apperr.NotFound("Post not found")
		}

		likes := db.NewLikeRepository(tx)
		existing, err := likes.Get(ctx, postID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			liked = false
			return likes.Delete(ctx, existing)
		}

		liked = true
		return likes.Create(ctx, &models.Like{
			ID:        uuid.NewString(),
			PostID:    postID,
			UserID:    userID,
			CreatedAt: s.now().UTC(),
		})
	})
	if err != nil {
		return nil, s.classify(err, "failed to toggle like")
	}

	s.logger.Debug("Like toggled",
		zap.String("post_id", postID),
		zap.String("user_id", userID),
		zap.Bool("liked", liked))
	return &ToggleResult{Liked: liked}, nil
}

// CreateComment adds a comment by userID. Markup is stripped from the content.
func (s *Service) CreateComment(ctx context.Context, userID string, in CommentInput) (*models.Comment, error) {
	ctx, span := telemetry.StartSpan(ctx, "engagement.create_comment")
	defer span.End()

	if userID == "" {
		return nil, apperr.Unauthorized()
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	content := strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(in.Content)))
	if content == "" {
		return nil, apperr.Validation(map[string][]string{"content": {"must contain text"}})
	}

	post, err := db.NewPostRepository(s.repo).GetByID(ctx, in.PostID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load post", err)
	}
	if post == nil {
		return nil, apperr.NotFound("Post not found")
	}

	res, err := s.limiter.Limit(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "rate limiter unavailable", err)
	}
	if !res.Success {
		return nil, apperr.TooManyRequests()
	}

	comment := &models.Comment{
		ID:        uuid.NewString(),
		Content:   content,
		PostID:    in.PostID,
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create comment", err)
	}
	return comment, nil
}

// ListComments returns the newest comments on postID with their authors
func (s *Service) ListComments(ctx context.Context, postID string) ([]CommentWithUser, error) {
	ctx, span := telemetry.StartSpan(ctx, "engagement.list_comments")
	defer span.End()

	comments, err := s.comments.ListByPost(ctx, postID, MaxComments)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load comments", err)
	}

	out := make([]CommentWithUser, 0, len(comments))
	if len(comments) == 0 {
		return out, nil
	}

	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.UserID
	}
	users, err := identity.Resolve(ctx, s.provider, ids)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to resolve commenters", err)
	}

	for _, c := range comments {
		user, ok := users.Lookup(c.UserID)
		if !ok {
			s.logger.Error("User for comment not found",
				zap.String("comment_id", c.ID),
				zap.String("user_id", c.UserID))
			return nil, apperr.Internal("User for comment not found")
		}
		out = append(out, CommentWithUser{Comment: c, User: user})
	}
	return out, nil
}

// classify keeps application errors and maps storage failures
func (s *Service) classify(err error, message string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if db.IsDuplicate(err) {
		return apperr.Conflict("Like already exists", err)
	}
	return apperr.Wrap(apperr.KindInternal, message, err)
}
