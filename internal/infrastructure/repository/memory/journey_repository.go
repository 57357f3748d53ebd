package memory

import (
	"context"
	"sync"

	"github.com/marketpilot/journey-engine/internal/domain/journey"
)

type JourneyRepository struct {
	mu    sync.RWMutex
	items map[string]journey.Journey
}

func NewJourneyRepository() *JourneyRepository {
	return &JourneyRepository{items: make(map[string]journey.Journey)}
}

func (r *JourneyRepository) GetByUserID(_ context.Context, userID string) (journey.Journey, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.items[userID]
	return j, ok, nil
}

func (r *JourneyRepository) Save(_ context.Context, j journey.Journey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[j.UserID] = j
	return nil
}
