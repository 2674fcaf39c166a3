package usersync_test

import (
	"context"
	"testing"

	"github.com/emojiblog/emojiblog/internal/apperr"
	"github.com/emojiblog/emojiblog/internal/db"
	"github.com/emojiblog/emojiblog/internal/db/dbtest"
	"github.com/emojiblog/emojiblog/internal/identity"
	"github.com/emojiblog/emojiblog/internal/identity/identitytest"
	"github.com/emojiblog/emojiblog/internal/usersync"
)

func strPtr(s string) *string { return &s }

func TestSync_CreatesThenUpdates(t *testing.T) {
	repo := db.NewRepository(dbtest.New(t).DB)
	account := identitytest.User("user_a", "alice")
	account.FirstName = strPtr("Alice")
	provider := identitytest.NewProvider(account)
	svc := usersync.NewService(repo, provider)
	ctx := context.Background()

	user, err := svc.Sync(ctx, "user_a", "")
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if user.Email != "alice@example.test" || user.FirstName == nil || *user.FirstName != "Alice" || user.LastName != nil {
		t.Errorf("Sync() = %+v", user)
	}
	created := user.CreatedAt

	account.EmailAddresses = []identity.EmailAddress{{EmailAddress: "new@example.test"}}
	account.FirstName = nil
	account.LastName = strPtr("Liddell")
	provider.Add(account)

	user, err = svc.Sync(ctx, "user_a", "user_a")
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if user.Email != "new@example.test" || user.FirstName != nil || user.LastName == nil || *user.LastName != "Liddell" {
		t.Errorf("second Sync() = %+v", user)
	}
	if !user.CreatedAt.Equal(created) {
		t.Errorf("createdAt changed from %v to %v", created, user.CreatedAt)
	}
}

func TestSync_Errors(t *testing.T) {
	noEmail := identity.User{ID: "user_b", Username: strPtr("bob")}
	provider := identitytest.NewProvider(identitytest.User("user_a", "alice"), noEmail)
	svc := usersync.NewService(db.NewRepository(dbtest.New(t).DB), provider)

	tests := []struct {
		name      string
		caller    string
		requested string
		want      apperr.Kind
	}{
		{"anonymous", "", "", apperr.KindUnauthorized},
		{"someone else", "user_a", "user_b", apperr.KindUnauthorized},
		{"missing email", "user_b", "", apperr.KindInternal},
		{"unknown account", "user_x", "", apperr.KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Sync(context.Background(), tt.caller, tt.requested)
			if got := apperr.KindOf(err); got != tt.want {
				t.Errorf("kind = %s, want %s (err %v)", got, tt.want, err)
			}
		})
	}
}
