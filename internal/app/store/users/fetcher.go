// internal/app/store/users/fetcher.go
package userstore

import (
	"context"

	"github.com/curelo/landingcms/internal/app/system/auth"
	"go.uber.org/zap"
)

// Fetcher implements auth.UserFetcher over the users file so that removing
// a user or changing their role takes effect on their next request.
type Fetcher struct {
	store  *Store
	logger *zap.Logger
}

// NewFetcher creates a Fetcher.
func NewFetcher(store *Store, logger *zap.Logger) *Fetcher {
	return &Fetcher{store: store, logger: logger}
}

// FetchUser returns the session user for username, or nil if it no longer
// exists or the file cannot be read.
func (f *Fetcher) FetchUser(ctx context.Context, username string) *auth.SessionUser {
	u, err := f.store.Find(username)
	if err != nil {
		f.logger.Warn("failed to read users file", zap.Error(err))
		return nil
	}
	if u == nil {
		return nil
	}
	return &auth.SessionUser{Username: u.Username, Role: u.Role}
}
