package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/marketpilot/journey-engine/internal/domain/journey"
	"github.com/marketpilot/journey-engine/internal/domain/profile"
	"github.com/marketpilot/journey-engine/internal/infrastructure/repository/memory"
	"github.com/marketpilot/journey-engine/internal/platform/id"
)

type stubAnalyzer struct {
	analysis WebsiteAnalysis
	err      error
	calls    int
}

func (a *stubAnalyzer) Analyze(_ context.Context, _ string) (WebsiteAnalysis, error) {
	a.calls++
	return a.analysis, a.err
}

type stubStrategist struct {
	strategy Strategy
	err      error
	calls    int
}

func (s *stubStrategist) Generate(_ context.Context, _ profile.Profile) (Strategy, error) {
	s.calls++
	return s.strategy, s.err
}

type failingProfileRepo struct {
	*memory.ProfileRepository
	failUpsert bool
}

func (r *failingProfileRepo) Upsert(ctx context.Context, p profile.Profile) error {
	if r.failUpsert {
		return errors.New("storage unavailable")
	}
	return r.ProfileRepository.Upsert(ctx, p)
}

func newTestJourneyService(profileRepo profile.Repository, journeyRepo journey.Repository) *JourneyService {
	return NewJourneyService(profileRepo, journeyRepo, &stubAnalyzer{}, &stubStrategist{}, id.NewRandomGenerator())
}

func TestJourneyService_Start_EntryPhaseDependsOnGreeting(t *testing.T) {
	profileRepo := memory.NewProfileRepository()
	service := newTestJourneyService(profileRepo, memory.NewJourneyRepository())

	j, err := service.Start(t.Context(), "user-1", "")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if j.CurrentPhase != journey.PhaseGreetingPreference {
		t.Fatalf("new user must enter greeting_preference, got %s", j.CurrentPhase)
	}

	if err := profileRepo.Upsert(t.Context(), profile.Profile{UserID: "user-2", GreetingPreference: "casual"}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	j, err = service.Start(t.Context(), "user-2", "")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if j.CurrentPhase != journey.PhaseWebsiteAnalysis {
		t.Fatalf("user with greeting must skip to website_analysis, got %s", j.CurrentPhase)
	}
}

func TestJourneyService_Start_Idempotent(t *testing.T) {
	service := newTestJourneyService(memory.NewProfileRepository(), memory.NewJourneyRepository())

	first, err := service.Start(t.Context(), "user-1", "https://acme.example")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	second, err := service.Start(t.Context(), "user-1", "https://other.example")
	if err != nil {
		t.Fatalf("second start failed: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("second start created a new journey: %s vs %s", second.ID, first.ID)
	}
	if second.WebsiteURL != first.WebsiteURL {
		t.Fatalf("second start mutated the journey: %s vs %s", second.WebsiteURL, first.WebsiteURL)
	}
}

func TestJourneyService_ApplyAction_AdvancesThroughFlow(t *testing.T) {
	profileRepo := memory.NewProfileRepository()
	service := newTestJourneyService(profileRepo, memory.NewJourneyRepository())

	if _, err := service.Start(t.Context(), "user-1", ""); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := service.SetGreeting(t.Context(), "user-1", "friendly"); err != nil {
		t.Fatalf("set greeting failed: %v", err)
	}

	j, err := service.ApplyAction(t.Context(), "user-1", ApplyActionInput{Action: journey.ActionSkipWebsiteAnalysis})
	if err != nil {
		t.Fatalf("skip website analysis failed: %v", err)
	}
	if j.CurrentPhase != journey.PhaseProfileCompletion {
		t.Fatalf("skip must land on profile_completion, got %s", j.CurrentPhase)
	}
	if !j.HasCompleted(journey.PhaseWebsiteAnalysis) {
		t.Fatal("website_analysis should be recorded as completed")
	}
}

func TestJourneyService_ApplyAction_RejectsInvalidEdge(t *testing.T) {
	service := newTestJourneyService(memory.NewProfileRepository(), memory.NewJourneyRepository())

	if _, err := service.Start(t.Context(), "user-1", ""); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	_, err := service.ApplyAction(t.Context(), "user-1", ApplyActionInput{Action: journey.ActionStrategyGenerationComplete})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestJourneyService_ApplyAction_KeepsPhaseWhenSaveFails(t *testing.T) {
	profileRepo := &failingProfileRepo{ProfileRepository: memory.NewProfileRepository()}
	journeyRepo := memory.NewJourneyRepository()
	service := newTestJourneyService(profileRepo, journeyRepo)

	if _, err := service.Start(t.Context(), "user-1", ""); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	profileRepo.failUpsert = true
	_, err := service.ApplyAction(t.Context(), "user-1", ApplyActionInput{
		Action: journey.ActionGreetingSelected,
		Fields: map[string]any{profile.FieldGreetingPreference: "friendly"},
	})
	if err == nil {
		t.Fatal("expected the action to fail when the profile save fails")
	}

	j, _, err := journeyRepo.GetByUserID(t.Context(), "user-1")
	if err != nil {
		t.Fatalf("get journey: %v", err)
	}
	if j.CurrentPhase != journey.PhaseGreetingPreference {
		t.Fatalf("phase must not advance on save failure, got %s", j.CurrentPhase)
	}
}

func TestJourneyService_ApplyAction_RejectsUnknownField(t *testing.T) {
	service := newTestJourneyService(memory.NewProfileRepository(), memory.NewJourneyRepository())

	if _, err := service.Start(t.Context(), "user-1", ""); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	_, err := service.ApplyAction(t.Context(), "user-1", ApplyActionInput{
		Action: journey.ActionGreetingSelected,
		Fields: map[string]any{"favorite_color": "blue"},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown field, got %v", err)
	}
}

func TestJourneyService_SetGreeting_RequiresActiveJourney(t *testing.T) {
	service := newTestJourneyService(memory.NewProfileRepository(), memory.NewJourneyRepository())

	_, err := service.SetGreeting(t.Context(), "user-1", "friendly")
	if !errors.Is(err, ErrNoActiveJourney) {
		t.Fatalf("expected ErrNoActiveJourney, got %v", err)
	}
}

func TestJourneyService_AnalyzeWebsite_KeepsURLOnAnalyzerFailure(t *testing.T) {
	profileRepo := memory.NewProfileRepository()
	journeyRepo := memory.NewJourneyRepository()
	analyzer := &stubAnalyzer{err: errors.New("timeout")}
	service := NewJourneyService(profileRepo, journeyRepo, analyzer, &stubStrategist{}, id.NewRandomGenerator())

	if _, err := service.Start(t.Context(), "user-1", ""); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	_, err := service.AnalyzeWebsite(t.Context(), "user-1", "https://acme.example")
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}

	p, exists, err := profileRepo.GetByUserID(t.Context(), "user-1")
	if err != nil || !exists {
		t.Fatalf("profile missing after analysis attempt: exists=%v err=%v", exists, err)
	}
	if p.WebsiteURL != "https://acme.example" {
		t.Fatalf("website url must survive analyzer failure, got %q", p.WebsiteURL)
	}
}

func TestJourneyService_AnalyzeWebsite_MergesSuggestedFields(t *testing.T) {
	profileRepo := memory.NewProfileRepository()
	analyzer := &stubAnalyzer{analysis: WebsiteAnalysis{
		Summary: "B2B anvil manufacturer",
		SuggestedFields: map[string]any{
			profile.FieldCompanyName: "Acme",
			profile.FieldIndustry:    "manufacturing",
		},
	}}
	service := NewJourneyService(profileRepo, memory.NewJourneyRepository(), analyzer, &stubStrategist{}, id.NewRandomGenerator())

	if _, err := service.Start(t.Context(), "user-1", ""); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := service.AnalyzeWebsite(t.Context(), "user-1", "https://acme.example"); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	p, _, err := profileRepo.GetByUserID(t.Context(), "user-1")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.CompanyName != "Acme" || p.Industry != "manufacturing" {
		t.Fatalf("suggested fields not merged: %+v", p)
	}
	if p.CompletenessScore == 0 {
		t.Fatal("score should be recomputed after merging analysis fields")
	}
}

func TestJourneyService_GenerateStrategy_RequiresCompleteProfile(t *testing.T) {
	profileRepo := memory.NewProfileRepository()
	if err := profileRepo.Upsert(t.Context(), profile.Profile{UserID: "user-1", CompanyName: "Acme"}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	service := newTestJourneyService(profileRepo, memory.NewJourneyRepository())

	_, err := service.GenerateStrategy(t.Context(), "user-1")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for incomplete profile, got %v", err)
	}
}

func TestJourneyService_GenerateStrategy_RecordsOutcome(t *testing.T) {
	profileRepo := memory.NewProfileRepository()
	journeyRepo := memory.NewJourneyRepository()
	seed := completeProfileFixture("user-1")
	if err := profileRepo.Upsert(t.Context(), seed); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	strategist := &stubStrategist{strategy: Strategy{Headline: "Grow inbound"}}
	service := NewJourneyService(profileRepo, journeyRepo, &stubAnalyzer{}, strategist, id.NewRandomGenerator())

	if _, err := service.Start(t.Context(), "user-1", ""); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	strategy, err := service.GenerateStrategy(t.Context(), "user-1")
	if err != nil {
		t.Fatalf("generate strategy failed: %v", err)
	}
	if strategy.Headline != "Grow inbound" {
		t.Fatalf("unexpected strategy: %+v", strategy)
	}

	p, _, _ := profileRepo.GetByUserID(t.Context(), "user-1")
	if !p.StrategyGenerated {
		t.Fatal("profile must record strategy_generated")
	}
	j, _, _ := journeyRepo.GetByUserID(t.Context(), "user-1")
	if !j.StrategyGenerated {
		t.Fatal("journey must record strategy_generated")
	}
}

func TestJourneyService_ActivateCommitment_CompletesSetup(t *testing.T) {
	profileRepo := memory.NewProfileRepository()
	journeyRepo := memory.NewJourneyRepository()
	service := newTestJourneyService(profileRepo, journeyRepo)

	if _, err := service.Start(t.Context(), "user-1", ""); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	j, err := service.ActivateCommitment(t.Context(), "user-1")
	if err != nil {
		t.Fatalf("activate commitment failed: %v", err)
	}
	if !j.IsCompleted {
		t.Fatal("journey must be completed")
	}

	p, _, _ := profileRepo.GetByUserID(t.Context(), "user-1")
	if !p.SetupCompleted || !p.OnboardingCompleted {
		t.Fatalf("profile completion flags not set: %+v", p)
	}
	if p.OnboardingCompletedAt == nil {
		t.Fatal("completion timestamp must be recorded")
	}
}

func TestJourneyService_Snapshot_FallbackChain(t *testing.T) {
	profileRepo := memory.NewProfileRepository()
	service := newTestJourneyService(profileRepo, memory.NewJourneyRepository())

	snap, err := service.Snapshot(t.Context(), "user-1")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if snap.CurrentPhase != journey.PhaseGreetingPreference {
		t.Fatalf("no journey + no greeting must show greeting_preference, got %s", snap.CurrentPhase)
	}

	if err := profileRepo.Upsert(t.Context(), profile.Profile{UserID: "user-2", GreetingPreference: "casual"}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	snap, err = service.Snapshot(t.Context(), "user-2")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if snap.CurrentPhase != journey.PhaseWebsiteAnalysis {
		t.Fatalf("no journey + greeting must show website_analysis, got %s", snap.CurrentPhase)
	}
}

func TestJourneyService_Snapshot_ToleratesUnknownPhase(t *testing.T) {
	profileRepo := memory.NewProfileRepository()
	journeyRepo := memory.NewJourneyRepository()
	service := newTestJourneyService(profileRepo, journeyRepo)

	if err := journeyRepo.Save(t.Context(), journey.Journey{
		ID:           "j-1",
		UserID:       "user-1",
		CurrentPhase: journey.Phase("legacy_step"),
	}); err != nil {
		t.Fatalf("seed journey: %v", err)
	}

	snap, err := service.Snapshot(t.Context(), "user-1")
	if err != nil {
		t.Fatalf("snapshot must tolerate unknown phases: %v", err)
	}
	if snap.CurrentPhase != journey.PhaseGreetingPreference {
		t.Fatalf("unknown phase should fall back, got %s", snap.CurrentPhase)
	}
}

func TestJourneyService_Snapshot_CompletionFromEitherFlag(t *testing.T) {
	profileRepo := memory.NewProfileRepository()
	journeyRepo := memory.NewJourneyRepository()
	service := newTestJourneyService(profileRepo, journeyRepo)

	if err := profileRepo.Upsert(t.Context(), profile.Profile{UserID: "user-1", SetupCompleted: true}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	snap, err := service.Snapshot(t.Context(), "user-1")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if !snap.IsOnboardingComplete {
		t.Fatal("profile flag alone must mark onboarding complete")
	}

	if err := journeyRepo.Save(t.Context(), journey.Journey{ID: "j-2", UserID: "user-2", IsCompleted: true}); err != nil {
		t.Fatalf("seed journey: %v", err)
	}
	snap, err = service.Snapshot(t.Context(), "user-2")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if !snap.IsOnboardingComplete {
		t.Fatal("journey flag alone must mark onboarding complete")
	}
}

func completeProfileFixture(userID string) profile.Profile {
	return profile.Profile{
		UserID:                 userID,
		GreetingPreference:     "friendly",
		CompanyName:            "Acme",
		Industry:               "manufacturing",
		CompanySize:            "11-50",
		BusinessType:           "b2b",
		MarketingExperience:    "beginner",
		MonthlyMarketingBudget: "1000_5000",
		CurrentMonthlyRevenue:  "10000_50000",
	}
}
