// Package comment serves the comment.* procedures.
package comment

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/emojiblog/emojiblog/internal/engagement"
	"github.com/emojiblog/emojiblog/internal/identity"
	"github.com/emojiblog/emojiblog/internal/validate"
)

// API provides comment methods
type API struct {
	engagement *engagement.Service
}

// NewAPI creates a new comment API
func NewAPI(svc *engagement.Service) *API {
	return &API{engagement: svc}
}

type byPostParams struct {
	PostID string `json:"postId" validate:"required"`
}

// Create handles comment.create
func (a *API) Create(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var in engagement.CommentInput
	if err := validate.Decode(params, &in); err != nil {
		return nil, err
	}
	user, _ := identity.FromContext(ctx.Request.Context())
	return a.engagement.CreateComment(ctx.Request.Context(), user, in)
}

// GetByPostID handles comment.getByPostId
func (a *API) GetByPostID(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p byPostParams
	if err := validate.Decode(params, &p); err != nil {
		return nil, err
	}
	if err := validate.Struct(p); err != nil {
		return nil, err
	}
	return a.engagement.ListComments(ctx.Request.Context(), p.PostID)
}
