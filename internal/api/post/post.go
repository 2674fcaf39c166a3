// Package post serves the post.* procedures.
package post

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/emojiblog/emojiblog/internal/engagement"
	"github.com/emojiblog/emojiblog/internal/feed"
	"github.com/emojiblog/emojiblog/internal/identity"
	"github.com/emojiblog/emojiblog/internal/posting"
	"github.com/emojiblog/emojiblog/internal/validate"
)

// API provides post methods
type API struct {
	feed       *feed.Service
	posting    *posting.Service
	engagement *engagement.Service
}

// NewAPI creates a new post API
func NewAPI(feedSvc *feed.Service, postingSvc *posting.Service, engagementSvc *engagement.Service) *API {
	return &API{feed: feedSvc, posting: postingSvc, engagement: engagementSvc}
}

type byTagParams struct {
	TagName string `json:"tagName" validate:"required"`
}

type byUserParams struct {
	UserID string `json:"userId" validate:"required"`
}

type byIDParams struct {
	ID string `json:"id" validate:"required"`
}

type toggleLikeParams struct {
	PostID string `json:"postId" validate:"required"`
}

// GetLatest handles post.getLatest
func (a *API) GetLatest(ctx *gin.Context, _ json.RawMessage) (interface{}, error) {
	return a.feed.GetLatest(ctx.Request.Context())
}

// GetPostByTag handles post.getPostByTag
func (a *API) GetPostByTag(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p byTagParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return a.feed.GetByTag(ctx.Request.Context(), p.TagName)
}

// GetPostByUserID handles post.getPostByUserId
func (a *API) GetPostByUserID(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p byUserParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return a.feed.GetByUserID(ctx.Request.Context(), p.UserID)
}

// GetPostByID handles post.getPostById. Signed-in callers also learn whether they liked it.
func (a *API) GetPostByID(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p byIDParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	viewer, _ := identity.FromContext(ctx.Request.Context())
	return a.feed.GetByID(ctx.Request.Context(), p.ID, viewer)
}

// Create handles post.create
func (a *API) Create(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var in posting.Input
	if err := validate.Decode(params, &in); err != nil {
		return nil, err
	}
	author, _ := identity.FromContext(ctx.Request.Context())
	return a.posting.Create(ctx.Request.Context(), author, in)
}

// ToggleLike handles post.toggleLike
func (a *API) ToggleLike(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p toggleLikeParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	user, _ := identity.FromContext(ctx.Request.Context())
	return a.engagement.ToggleLike(ctx.Request.Context(), user, p.PostID)
}

func decode(params json.RawMessage, dst interface{}) error {
	if err := validate.Decode(params, dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}
