package cache

import (
	"context"

	"github.com/marketpilot/journey-engine/internal/domain/profile"
	basecache "github.com/marketpilot/journey-engine/internal/platform/cache"
)

// ProfileRepository caches profile reads in front of another repository.
// Writes go straight through and drop the cached entry so the gate and the
// journey never read a stale completion flag.
type ProfileRepository struct {
	next  profile.Repository
	cache *basecache.Store
}

func NewProfileRepository(next profile.Repository, cache *basecache.Store) *ProfileRepository {
	return &ProfileRepository{next: next, cache: cache}
}

type cachedProfile struct {
	value  profile.Profile
	exists bool
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (profile.Profile, bool, error) {
	key := "profile:user:" + userID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		return cachedProfile{value: item, exists: exists}, nil
	})
	if err != nil {
		return profile.Profile{}, false, err
	}

	cached, _ := v.(cachedProfile)
	return cached.value, cached.exists, nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, p profile.Profile) error {
	if err := r.next.Upsert(ctx, p); err != nil {
		return err
	}
	r.cache.Delete(ctx, "profile:user:"+p.UserID)
	return nil
}
