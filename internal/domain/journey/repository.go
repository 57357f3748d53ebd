package journey

import "context"

// Repository keeps per-user journey state for the lifetime of a setup
// session.
type Repository interface {
	GetByUserID(ctx context.Context, userID string) (Journey, bool, error)
	Save(ctx context.Context, journey Journey) error
}
