// Package feed assembles post lists enriched with author identities and
// engagement counts.
package feed

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/emojiblog/emojiblog/internal/apperr"
	"github.com/emojiblog/emojiblog/internal/db"
	"github.com/emojiblog/emojiblog/internal/identity"
	"github.com/emojiblog/emojiblog/internal/models"
	"github.com/emojiblog/emojiblog/pkg/logging"
	"github.com/emojiblog/emojiblog/pkg/telemetry"
)

// MaxPosts caps every feed; there is no pagination
const MaxPosts = 100

// Count holds the aggregate engagement of a post
type Count struct {
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
}

// EnrichedPost is a post as shown to clients
type EnrichedPost struct {
	Post   models.Post         `json:"post"`
	Author identity.ClientUser `json:"author"`
	Count  Count               `json:"_count"`
	// IsLikedByUser is set only when the request has a viewer
	IsLikedByUser *bool `json:"isLikedByUser,omitempty"`
}

// Service reads feeds
type Service struct {
	posts    *db.PostRepository
	likes    *db.LikeRepository
	provider identity.Provider
	logger   *zap.Logger
}

func NewService(repo *db.Repository, provider identity.Provider) *Service {
	return &Service{
		posts:    db.NewPostRepository(repo),
		likes:    db.NewLikeRepository(repo),
		provider: provider,
		logger:   logging.WithComponent("feed"),
	}
}

// GetLatest returns the newest posts across all authors
func (s *Service) GetLatest(ctx context.Context) ([]EnrichedPost, error) {
	ctx, span := telemetry.StartSpan(ctx, "feed.get_latest")
	defer span.End()

	posts, err := s.posts.ListLatest(ctx, MaxPosts)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load posts", err)
	}
	return s.enrich(ctx, posts)
}

// GetByTag returns the newest posts carrying the named tag
func (s *Service) GetByTag(ctx context.Context, tagName string) ([]EnrichedPost, error) {
	ctx, span := telemetry.StartSpan(ctx, "feed.get_by_tag")
	defer span.End()
	span.SetAttributes(attribute.String("tag.name", tagName))

	posts, err := s.posts.ListByTagName(ctx, tagName, MaxPosts)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load posts by tag", err)
	}
	return s.enrich(ctx, posts)
}

// GetByUserID returns the newest posts written by userID
func (s *Service) GetByUserID(ctx context.Context, userID string) ([]EnrichedPost, error) {
	ctx, span := telemetry.StartSpan(ctx, "feed.get_by_user")
	defer span.End()

	posts, err := s.posts.ListByAuthor(ctx, userID, MaxPosts)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load posts by author", err)
	}
	return s.enrich(ctx, posts)
}

// GetByID returns one post. When viewer is non-empty the result reports
// whether the viewer has liked it.
func (s *Service) GetByID(ctx context.Context, id, viewer string) (*EnrichedPost, error) {
	ctx, span := telemetry.StartSpan(ctx, "feed.get_by_id")
	defer span.End()

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load post", err)
	}
	if post == nil {
		return nil, apperr.NotFound("Post not found")
	}

	enriched, err := s.enrich(ctx, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	result := enriched[0]

	if viewer != "" {
		like, err := s.likes.Get(ctx, post.ID, viewer)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to load like state", err)
		}
		liked := like != nil
		result.IsLikedByUser = &liked
	}

	return &result, nil
}

// enrich attaches authors and counts. One unresolved author fails the whole batch.
func (s *Service) enrich(ctx context.Context, posts []models.Post) ([]EnrichedPost, error) {
	out := make([]EnrichedPost, 0, len(posts))
	if len(posts) == 0 {
		return out, nil
	}

	authorIDs := make([]string, len(posts))
	postIDs := make([]string, len(posts))
	for i, p := range posts {
		authorIDs[i] = p.AuthorID
		postIDs[i] = p.ID
	}

	authors, err := identity.Resolve(ctx, s.provider, authorIDs)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to resolve authors", err)
	}

	counts, err := s.posts.CountEngagement(ctx, postIDs)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to count engagement", err)
	}

	for _, p := range posts {
		author, ok := authors.Lookup(p.AuthorID)
		if !ok {
			s.logger.Error("Author for post not found",
				zap.String("post_id", p.ID),
				zap.String("author_id", p.AuthorID))
			return nil, apperr.Internal("Author for post not found")
		}
		c := counts[p.ID]
		out = append(out, EnrichedPost{
			Post:   p,
			Author: author,
			Count:  Count{Likes: c.Likes, Comments: c.Comments},
		})
	}
	return out, nil
}
