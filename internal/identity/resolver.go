package identity

import (
	"context"
	"fmt"
)

// MaxBatch is the largest number of ids resolved in one provider call
const MaxBatch = 100

// Directory maps identity ids to client-safe users
type Directory map[string]ClientUser

// Resolve fetches every distinct id in one provider call. Ids the provider
// does not know are simply absent from the result.
func Resolve(ctx context.Context, p Provider, ids []string) (Directory, error) {
	seen := make(map[string]struct{}, len(ids))
	distinct := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}

	dir := make(Directory, len(distinct))
	if len(distinct) == 0 {
		return dir, nil
	}
	if len(distinct) > MaxBatch {
		return nil, fmt.Errorf("cannot resolve %d identities in one batch (max %d)", len(distinct), MaxBatch)
	}

	users, err := p.GetUserList(ctx, distinct, MaxBatch)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve identities: %w", err)
	}
	for _, u := range users {
		dir[u.ID] = FilterForClient(u)
	}
	return dir, nil
}

// Lookup returns the user for id. Users without a username count as unresolved.
func (d Directory) Lookup(id string) (ClientUser, bool) {
	u, ok := d[id]
	if !ok || u.Username == "" {
		return ClientUser{}, false
	}
	return u, true
}
