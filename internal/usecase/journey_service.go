package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/marketpilot/journey-engine/internal/domain/journey"
	"github.com/marketpilot/journey-engine/internal/domain/profile"
	"github.com/marketpilot/journey-engine/internal/platform/id"
)

// WebsiteAnalysis is what the analyzer learned from a public website.
// SuggestedFields use the canonical profile field keys.
type WebsiteAnalysis struct {
	Summary         string
	SuggestedFields map[string]any
}

// WebsiteAnalyzer extracts business facts from a website URL.
type WebsiteAnalyzer interface {
	Analyze(ctx context.Context, url string) (WebsiteAnalysis, error)
}

// Strategy is the generated initial marketing strategy.
type Strategy struct {
	Headline string
	Summary  string
	Actions  []string
}

// StrategyGenerator produces a strategy from a business profile.
type StrategyGenerator interface {
	Generate(ctx context.Context, p profile.Profile) (Strategy, error)
}

// ApplyActionInput carries one phase-completion event.
type ApplyActionInput struct {
	Action     journey.Action
	Fields     map[string]any
	WebsiteURL string
}

// Snapshot is the derived read model for the setup UI.
type Snapshot struct {
	Journey              journey.Journey
	HasJourney           bool
	Profile              profile.Profile
	HasProfile           bool
	CurrentPhase         journey.Phase
	PhaseInfo            journey.PhaseInfo
	Progress             int
	EstimatedMinutesLeft int
	Blockers             []string
	IsOnboardingComplete bool
}

// JourneyService owns the per-user setup journey and its profile writes.
type JourneyService struct {
	profileRepo profile.Repository
	journeyRepo journey.Repository
	analyzer    WebsiteAnalyzer
	strategist  StrategyGenerator
	ids         id.Generator
	now         func() time.Time
}

func NewJourneyService(
	profileRepo profile.Repository,
	journeyRepo journey.Repository,
	analyzer WebsiteAnalyzer,
	strategist StrategyGenerator,
	ids id.Generator,
) *JourneyService {
	return &JourneyService{
		profileRepo: profileRepo,
		journeyRepo: journeyRepo,
		analyzer:    analyzer,
		strategist:  strategist,
		ids:         ids,
		now:         time.Now,
	}
}

// Start creates the user's journey or returns the existing incomplete one
// unchanged. The entry phase skips the greeting steps when a greeting
// preference is already on file.
func (s *JourneyService) Start(ctx context.Context, userID, websiteURL string) (journey.Journey, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JourneyService.Start")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return journey.Journey{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	existing, exists, err := s.journeyRepo.GetByUserID(ctx, userID)
	if err != nil {
		return journey.Journey{}, fmt.Errorf("get journey: %w", err)
	}
	if exists && !existing.IsCompleted {
		return existing, nil
	}

	p, _, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return journey.Journey{}, fmt.Errorf("get profile: %w", err)
	}

	entry := journey.PhaseGreetingPreference
	if profile.HasGreetingPreference(p) {
		entry = journey.PhaseWebsiteAnalysis
	}

	journeyID, err := s.ids.NewID()
	if err != nil {
		return journey.Journey{}, fmt.Errorf("generate journey id: %w", err)
	}

	now := s.now().UTC()
	created := journey.Journey{
		ID:                 journeyID,
		UserID:             userID,
		CurrentPhase:       entry,
		GreetingPreference: p.GreetingPreference,
		WebsiteURL:         strings.TrimSpace(websiteURL),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.journeyRepo.Save(ctx, created); err != nil {
		return journey.Journey{}, fmt.Errorf("save journey: %w", err)
	}

	return created, nil
}

// ApplyAction resolves the transition for the submitted action and commits
// it only after the accompanying profile fields are persisted. On a save
// failure the journey keeps its prior phase.
func (s *JourneyService) ApplyAction(ctx context.Context, userID string, input ApplyActionInput) (journey.Journey, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JourneyService.ApplyAction")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return journey.Journey{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	j, exists, err := s.journeyRepo.GetByUserID(ctx, userID)
	if err != nil {
		return journey.Journey{}, fmt.Errorf("get journey: %w", err)
	}
	if !exists || j.IsCompleted {
		return journey.Journey{}, fmt.Errorf("%w: start a journey first", ErrNoActiveJourney)
	}

	transition, ok := journey.Next(j.CurrentPhase, input.Action)
	if !ok {
		return journey.Journey{}, fmt.Errorf("%w: action %q is not valid in phase %q", ErrInvalidInput, input.Action, j.CurrentPhase)
	}

	if len(input.Fields) > 0 {
		if _, err := s.mergeProfile(ctx, userID, input.Fields, nil); err != nil {
			return journey.Journey{}, err
		}
	}
	if url := strings.TrimSpace(input.WebsiteURL); url != "" {
		j.WebsiteURL = url
	}

	if transition.Terminal {
		return s.completeJourney(ctx, j)
	}

	j.MarkCompleted(j.CurrentPhase)
	j.CurrentPhase = transition.To
	j.UpdatedAt = s.now().UTC()
	if err := s.journeyRepo.Save(ctx, j); err != nil {
		return journey.Journey{}, fmt.Errorf("save journey: %w", err)
	}

	return j, nil
}

// SetGreeting persists the greeting preference and advances the journey out
// of the greeting phase when it is the current one.
func (s *JourneyService) SetGreeting(ctx context.Context, userID, greeting string) (journey.Journey, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JourneyService.SetGreeting")
	defer span.End()

	userID = strings.TrimSpace(userID)
	greeting = strings.TrimSpace(greeting)
	if userID == "" {
		return journey.Journey{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if greeting == "" {
		return journey.Journey{}, fmt.Errorf("%w: greeting preference is required", ErrInvalidInput)
	}

	j, exists, err := s.journeyRepo.GetByUserID(ctx, userID)
	if err != nil {
		return journey.Journey{}, fmt.Errorf("get journey: %w", err)
	}
	if !exists || j.IsCompleted {
		return journey.Journey{}, fmt.Errorf("%w: start a journey first", ErrNoActiveJourney)
	}

	fields := map[string]any{profile.FieldGreetingPreference: greeting}
	if _, err := s.mergeProfile(ctx, userID, fields, nil); err != nil {
		return journey.Journey{}, err
	}

	j.GreetingPreference = greeting
	if transition, ok := journey.Next(j.CurrentPhase, journey.ActionGreetingSelected); ok {
		j.MarkCompleted(j.CurrentPhase)
		j.CurrentPhase = transition.To
	}
	j.UpdatedAt = s.now().UTC()
	if err := s.journeyRepo.Save(ctx, j); err != nil {
		return journey.Journey{}, fmt.Errorf("save journey: %w", err)
	}

	return j, nil
}

// AnalyzeWebsite records the URL first, then runs the analyzer. The URL
// stays saved even when the analyzer fails.
func (s *JourneyService) AnalyzeWebsite(ctx context.Context, userID, websiteURL string) (WebsiteAnalysis, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JourneyService.AnalyzeWebsite")
	defer span.End()

	userID = strings.TrimSpace(userID)
	websiteURL = strings.TrimSpace(websiteURL)
	if userID == "" {
		return WebsiteAnalysis{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if websiteURL == "" {
		return WebsiteAnalysis{}, fmt.Errorf("%w: website_url is required", ErrInvalidInput)
	}

	j, exists, err := s.journeyRepo.GetByUserID(ctx, userID)
	if err != nil {
		return WebsiteAnalysis{}, fmt.Errorf("get journey: %w", err)
	}
	if !exists || j.IsCompleted {
		return WebsiteAnalysis{}, fmt.Errorf("%w: start a journey first", ErrNoActiveJourney)
	}

	fields := map[string]any{profile.FieldWebsiteURL: websiteURL}
	if _, err := s.mergeProfile(ctx, userID, fields, nil); err != nil {
		return WebsiteAnalysis{}, err
	}

	j.WebsiteURL = websiteURL
	j.UpdatedAt = s.now().UTC()
	if err := s.journeyRepo.Save(ctx, j); err != nil {
		return WebsiteAnalysis{}, fmt.Errorf("save journey: %w", err)
	}

	analysis, err := s.analyzer.Analyze(ctx, websiteURL)
	if err != nil {
		return WebsiteAnalysis{}, fmt.Errorf("%w: analyze website: %v", ErrDependencyUnavailable, err)
	}

	if len(analysis.SuggestedFields) > 0 {
		if _, err := s.mergeProfile(ctx, userID, analysis.SuggestedFields, nil); err != nil {
			return WebsiteAnalysis{}, err
		}
	}

	return analysis, nil
}

// SaveAnswer persists one whitelisted profile field submitted from the
// profile-completion phase.
func (s *JourneyService) SaveAnswer(ctx context.Context, userID, questionID string, value any) (profile.Profile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JourneyService.SaveAnswer")
	defer span.End()

	userID = strings.TrimSpace(userID)
	questionID = strings.TrimSpace(questionID)
	if userID == "" {
		return profile.Profile{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if questionID == "" {
		return profile.Profile{}, fmt.Errorf("%w: question_id is required", ErrInvalidInput)
	}

	return s.mergeProfile(ctx, userID, map[string]any{questionID: value}, nil)
}

// GenerateStrategy delegates to the strategist and records the outcome on
// both the profile and the journey.
func (s *JourneyService) GenerateStrategy(ctx context.Context, userID string) (Strategy, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JourneyService.GenerateStrategy")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Strategy{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	p, exists, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return Strategy{}, fmt.Errorf("get profile: %w", err)
	}
	if !exists {
		return Strategy{}, fmt.Errorf("%w: business profile not found", ErrNotFound)
	}
	if missing := profile.MissingRequired(p); len(missing) > 0 {
		return Strategy{}, fmt.Errorf("%w: profile incomplete, missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}

	strategy, err := s.strategist.Generate(ctx, p)
	if err != nil {
		return Strategy{}, fmt.Errorf("%w: generate strategy: %v", ErrDependencyUnavailable, err)
	}

	if _, err := s.mergeProfile(ctx, userID, nil, func(out *profile.Profile) {
		out.StrategyGenerated = true
	}); err != nil {
		return Strategy{}, err
	}

	if j, exists, err := s.journeyRepo.GetByUserID(ctx, userID); err == nil && exists {
		j.StrategyGenerated = true
		j.UpdatedAt = s.now().UTC()
		if err := s.journeyRepo.Save(ctx, j); err != nil {
			return Strategy{}, fmt.Errorf("save journey: %w", err)
		}
	}

	return strategy, nil
}

// ActivateCommitment finalizes setup: the journey is marked completed and
// the profile gains its completion flags and a fresh score.
func (s *JourneyService) ActivateCommitment(ctx context.Context, userID string) (journey.Journey, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JourneyService.ActivateCommitment")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return journey.Journey{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	j, exists, err := s.journeyRepo.GetByUserID(ctx, userID)
	if err != nil {
		return journey.Journey{}, fmt.Errorf("get journey: %w", err)
	}
	if !exists {
		return journey.Journey{}, fmt.Errorf("%w: start a journey first", ErrNoActiveJourney)
	}

	return s.completeJourney(ctx, j)
}

// Snapshot builds the derived read model. Profile and journey are fetched
// concurrently; either side may be missing without failing the read.
func (s *JourneyService) Snapshot(ctx context.Context, userID string) (Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JourneyService.Snapshot")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Snapshot{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	var (
		p          profile.Profile
		hasProfile bool
		profileErr error

		j          journey.Journey
		hasJourney bool
		journeyErr error
	)

	var wg conc.WaitGroup
	wg.Go(func() {
		p, hasProfile, profileErr = s.profileRepo.GetByUserID(ctx, userID)
	})
	wg.Go(func() {
		j, hasJourney, journeyErr = s.journeyRepo.GetByUserID(ctx, userID)
	})
	wg.Wait()

	if profileErr != nil {
		return Snapshot{}, fmt.Errorf("get profile: %w", profileErr)
	}
	if journeyErr != nil {
		return Snapshot{}, fmt.Errorf("get journey: %w", journeyErr)
	}

	hasGreeting := profile.HasGreetingPreference(p)
	current := journey.Fallback(j.CurrentPhase, hasGreeting)
	if !hasJourney {
		current = journey.Fallback("", hasGreeting)
	}

	info, _ := journey.Lookup(current)

	progress := p.CompletenessScore
	if progress == 0 {
		progress = journey.ProgressEstimate(current)
	}

	return Snapshot{
		Journey:              j,
		HasJourney:           hasJourney,
		Profile:              p,
		HasProfile:           hasProfile,
		CurrentPhase:         current,
		PhaseInfo:            info,
		Progress:             progress,
		EstimatedMinutesLeft: journey.EstimatedTimeRemaining(current, j.CompletedPhases),
		Blockers:             journey.Blockers(current, p),
		IsOnboardingComplete: p.SetupCompleted || j.IsCompleted,
	}, nil
}

// completeJourney persists completion flags on the profile before the
// journey itself is marked done, so a half-applied failure never reports a
// completed journey with an incomplete profile.
func (s *JourneyService) completeJourney(ctx context.Context, j journey.Journey) (journey.Journey, error) {
	now := s.now().UTC()

	if _, err := s.mergeProfile(ctx, j.UserID, nil, func(out *profile.Profile) {
		out.SetupCompleted = true
		out.OnboardingCompleted = true
		if out.OnboardingCompletedAt == nil {
			completedAt := now
			out.OnboardingCompletedAt = &completedAt
		}
	}); err != nil {
		return journey.Journey{}, err
	}

	j.MarkCompleted(j.CurrentPhase)
	j.IsCompleted = true
	j.UpdatedAt = now
	if err := s.journeyRepo.Save(ctx, j); err != nil {
		return journey.Journey{}, fmt.Errorf("save journey: %w", err)
	}

	return j, nil
}

// mergeProfile is the single profile write path: read, apply the submitted
// fields, recompute the score, upsert, re-fetch.
func (s *JourneyService) mergeProfile(ctx context.Context, userID string, fields map[string]any, mutate func(*profile.Profile)) (profile.Profile, error) {
	existing, exists, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("get profile: %w", err)
	}

	now := s.now().UTC()
	out := existing
	out.UserID = userID

	for key, value := range fields {
		if !profile.ApplyField(&out, key, value) {
			return profile.Profile{}, fmt.Errorf("%w: unknown profile field %q", ErrInvalidInput, key)
		}
	}
	if mutate != nil {
		mutate(&out)
	}

	out.CompletenessScore = profile.Score(out)
	if !exists {
		out.CreatedAt = now
	}
	out.UpdatedAt = now

	if err := s.profileRepo.Upsert(ctx, out); err != nil {
		return profile.Profile{}, fmt.Errorf("upsert profile: %w", err)
	}

	latest, latestExists, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("re-fetch profile: %w", err)
	}
	if latestExists {
		return latest, nil
	}
	return out, nil
}
