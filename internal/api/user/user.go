// Package user serves the user.* procedures.
package user

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/emojiblog/emojiblog/internal/identity"
	"github.com/emojiblog/emojiblog/internal/usersync"
	"github.com/emojiblog/emojiblog/internal/validate"
)

// API provides user methods
type API struct {
	sync *usersync.Service
}

// NewAPI creates a new user API
func NewAPI(svc *usersync.Service) *API {
	return &API{sync: svc}
}

type createParams struct {
	UserID string `json:"userId"`
}

// Create handles user.create, syncing the caller's account
func (a *API) Create(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p createParams
	if err := validate.Decode(params, &p); err != nil {
		return nil, err
	}
	caller, _ := identity.FromContext(ctx.Request.Context())
	return a.sync.Sync(ctx.Request.Context(), caller, p.UserID)
}
