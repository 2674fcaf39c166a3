// Package profile serves the profile.* procedures.
package profile

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	profilesvc "github.com/emojiblog/emojiblog/internal/profile"
	"github.com/emojiblog/emojiblog/internal/validate"
)

// API provides profile methods
type API struct {
	profiles *profilesvc.Service
}

// NewAPI creates a new profile API
func NewAPI(svc *profilesvc.Service) *API {
	return &API{profiles: svc}
}

type byUsernameParams struct {
	Username string `json:"username" validate:"required"`
}

// GetUserByUsername handles profile.getUserByUsername
func (a *API) GetUserByUsername(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p byUsernameParams
	if err := validate.Decode(params, &p); err != nil {
		return nil, err
	}
	if err := validate.Struct(p); err != nil {
		return nil, err
	}
	return a.profiles.GetByUsername(ctx.Request.Context(), p.Username)
}
