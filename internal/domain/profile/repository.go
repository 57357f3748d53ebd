package profile

import "context"

// Repository persists business profiles keyed by user id. Upsert has
// merge semantics: callers read-merge-write, the adapter replaces the row.
type Repository interface {
	GetByUserID(ctx context.Context, userID string) (Profile, bool, error)
	Upsert(ctx context.Context, profile Profile) error
}

// Lister enumerates known profile owners for maintenance jobs.
type Lister interface {
	ListUserIDs(ctx context.Context) ([]string, error)
}
