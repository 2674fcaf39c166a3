package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/emojiblog/emojiblog/internal/apperr"
	"github.com/emojiblog/emojiblog/internal/identity/identitytest"
)

func TestGetByUsername(t *testing.T) {
	provider := identitytest.NewProvider(identitytest.User("user_a", "alice"))
	svc := NewService(provider)

	u, err := svc.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if u.ID != "user_a" || u.Username != "alice" || u.ImageURL == "" {
		t.Errorf("GetByUsername() = %+v", u)
	}

	if _, err := svc.GetByUsername(context.Background(), "nobody"); apperr.KindOf(err) != apperr.KindInternal {
		t.Errorf("unknown username error = %v, want INTERNAL", err)
	}

	provider.Err = errors.New("timeout")
	if _, err := svc.GetByUsername(context.Background(), "alice"); apperr.KindOf(err) != apperr.KindInternal {
		t.Errorf("provider failure error = %v, want INTERNAL", err)
	}
}
