// Package tag serves the tag.* procedures.
package tag

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/emojiblog/emojiblog/internal/tags"
	"github.com/emojiblog/emojiblog/internal/validate"
)

// API provides tag methods
type API struct {
	tags *tags.Service
}

// NewAPI creates a new tag API
func NewAPI(svc *tags.Service) *API {
	return &API{tags: svc}
}

// GetAll handles tag.getAll
func (a *API) GetAll(ctx *gin.Context, _ json.RawMessage) (interface{}, error) {
	return a.tags.ListAll(ctx.Request.Context())
}

// Create handles tag.create
func (a *API) Create(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var in tags.CreateInput
	if err := validate.Decode(params, &in); err != nil {
		return nil, err
	}
	return a.tags.Create(ctx.Request.Context(), in)
}

// AddPostTagByID handles tag.addPostTagById
func (a *API) AddPostTagByID(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var in tags.AssociateInput
	if err := validate.Decode(params, &in); err != nil {
		return nil, err
	}
	return a.tags.Associate(ctx.Request.Context(), in)
}
