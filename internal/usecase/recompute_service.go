package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/marketpilot/journey-engine/internal/domain/profile"
	"github.com/marketpilot/journey-engine/internal/platform/logging"
)

const (
	defaultRecomputeWorkers = 4
	maxRecomputeWorkers     = 32
)

// RecomputeInput configures one score-recompute run.
type RecomputeInput struct {
	MaxWorkers int
	DryRun     bool
}

// RecomputeTaskResult reports the outcome for one profile.
type RecomputeTaskResult struct {
	UserID     string `json:"userId"`
	OldScore   int    `json:"oldScore"`
	NewScore   int    `json:"newScore"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

// RecomputeResult summarizes a full recompute run.
type RecomputeResult struct {
	ProfileCount int                   `json:"profileCount"`
	WorkerCount  int                   `json:"workerCount"`
	UpdatedCount int                   `json:"updatedCount"`
	SkippedCount int                   `json:"skippedCount"`
	FailedCount  int                   `json:"failedCount"`
	DryRun       bool                  `json:"dryRun"`
	Tasks        []RecomputeTaskResult `json:"tasks"`
}

const (
	recomputeStatusUpdated = "updated"
	recomputeStatusSkipped = "skipped"
	recomputeStatusFailed  = "failed"
)

// RecomputeService rescores stored profiles in bulk after scoring-rule
// changes or backfills.
type RecomputeService struct {
	profileRepo    profile.Repository
	lister         profile.Lister
	defaultWorkers int
	logger         *logging.Logger
	now            func() time.Time
}

func NewRecomputeService(profileRepo profile.Repository, lister profile.Lister, defaultMaxWorkers int, logger *logging.Logger) *RecomputeService {
	if logger == nil {
		logger = logging.NewNop()
	}
	if defaultMaxWorkers <= 0 {
		defaultMaxWorkers = defaultRecomputeWorkers
	}
	return &RecomputeService{
		profileRepo:    profileRepo,
		lister:         lister,
		defaultWorkers: defaultMaxWorkers,
		logger:         logger,
		now:            time.Now,
	}
}

// Run recomputes the completeness score for every stored profile using a
// bounded worker pool.
func (s *RecomputeService) Run(ctx context.Context, input RecomputeInput) (RecomputeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecomputeService.Run")
	defer span.End()

	userIDs, err := s.lister.ListUserIDs(ctx)
	if err != nil {
		return RecomputeResult{}, fmt.Errorf("list profile user ids: %w", err)
	}

	requested := input.MaxWorkers
	if requested <= 0 {
		requested = s.defaultWorkers
	}
	workerCount := normalizeRecomputeWorkerCount(requested, len(userIDs))
	result := RecomputeResult{
		ProfileCount: len(userIDs),
		WorkerCount:  workerCount,
		DryRun:       input.DryRun,
		Tasks:        make([]RecomputeTaskResult, 0, len(userIDs)),
	}
	if len(userIDs) == 0 {
		return result, nil
	}

	results := make(chan RecomputeTaskResult, len(userIDs))

	var updatedCount atomic.Int32
	var skippedCount atomic.Int32
	var failedCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return RecomputeResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, userID := range userIDs {
		userID := userID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := s.recomputeOne(ctx, userID, input.DryRun)
			row.DurationMs = time.Since(start).Milliseconds()

			switch row.Status {
			case recomputeStatusUpdated:
				updatedCount.Add(1)
			case recomputeStatusSkipped:
				skippedCount.Add(1)
			default:
				failedCount.Add(1)
			}

			results <- row
		}); err != nil {
			workers.Done()
			return RecomputeResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Tasks = append(result.Tasks, row)
	}
	sort.SliceStable(result.Tasks, func(i, j int) bool {
		return result.Tasks[i].UserID < result.Tasks[j].UserID
	})

	result.UpdatedCount = int(updatedCount.Load())
	result.SkippedCount = int(skippedCount.Load())
	result.FailedCount = int(failedCount.Load())

	s.logger.InfoContext(ctx, "score recompute finished",
		"profiles", result.ProfileCount,
		"updated", result.UpdatedCount,
		"skipped", result.SkippedCount,
		"failed", result.FailedCount,
		"dry_run", result.DryRun)

	return result, nil
}

func (s *RecomputeService) recomputeOne(ctx context.Context, userID string, dryRun bool) RecomputeTaskResult {
	row := RecomputeTaskResult{UserID: userID}

	p, exists, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		row.Status = recomputeStatusFailed
		row.Message = err.Error()
		return row
	}
	if !exists {
		row.Status = recomputeStatusSkipped
		row.Message = "profile disappeared"
		return row
	}

	row.OldScore = p.CompletenessScore
	row.NewScore = profile.Score(p)
	if row.NewScore == row.OldScore {
		row.Status = recomputeStatusSkipped
		return row
	}
	if dryRun {
		row.Status = recomputeStatusUpdated
		return row
	}

	p.CompletenessScore = row.NewScore
	p.UpdatedAt = s.now().UTC()
	if err := s.profileRepo.Upsert(ctx, p); err != nil {
		row.Status = recomputeStatusFailed
		row.Message = err.Error()
		return row
	}

	row.Status = recomputeStatusUpdated
	return row
}

func normalizeRecomputeWorkerCount(requested, taskCount int) int {
	workers := requested
	if workers <= 0 {
		workers = defaultRecomputeWorkers
	}
	if workers > maxRecomputeWorkers {
		workers = maxRecomputeWorkers
	}
	if taskCount > 0 && workers > taskCount {
		workers = taskCount
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}
