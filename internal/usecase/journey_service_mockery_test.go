package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/marketpilot/journey-engine/internal/domain/journey"
	"github.com/marketpilot/journey-engine/internal/domain/profile"
	journeymock "github.com/marketpilot/journey-engine/internal/mocks/domain/journey"
	profilemock "github.com/marketpilot/journey-engine/internal/mocks/domain/profile"
	"github.com/marketpilot/journey-engine/internal/platform/id"
)

func TestJourneyService_Start_SaveFailureUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	profileRepo := profilemock.NewRepository(t)
	journeyRepo := journeymock.NewRepository(t)

	service := NewJourneyService(profileRepo, journeyRepo, nil, nil, id.NewRandomGenerator())
	userID := "user-1"
	saveErr := errors.New("connection reset")

	journeyRepo.
		On("GetByUserID", mock.MatchedBy(func(v context.Context) bool { return v != nil }), userID).
		Return(journey.Journey{}, false, nil).
		Once()
	profileRepo.
		On("GetByUserID", mock.MatchedBy(func(v context.Context) bool { return v != nil }), userID).
		Return(profile.Profile{}, false, nil).
		Once()
	journeyRepo.
		On("Save", mock.MatchedBy(func(v context.Context) bool { return v != nil }), mock.AnythingOfType("journey.Journey")).
		Return(saveErr).
		Once()

	_, err := service.Start(ctx, userID, "")
	if !errors.Is(err, saveErr) {
		t.Fatalf("expected save error, got %v", err)
	}
}

func TestJourneyService_Start_ReturnsExistingJourneyUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	profileRepo := profilemock.NewRepository(t)
	journeyRepo := journeymock.NewRepository(t)

	service := NewJourneyService(profileRepo, journeyRepo, nil, nil, id.NewRandomGenerator())
	userID := "user-1"
	existing := journey.Journey{ID: "journey-1", UserID: userID, CurrentPhase: journey.PhaseAnalysisReview}

	journeyRepo.
		On("GetByUserID", mock.MatchedBy(func(v context.Context) bool { return v != nil }), userID).
		Return(existing, true, nil).
		Once()

	got, err := service.Start(ctx, userID, "")
	if err != nil {
		t.Fatalf("start journey: %v", err)
	}
	if got.ID != existing.ID {
		t.Fatalf("unexpected journey id: got=%s want=%s", got.ID, existing.ID)
	}
	if got.CurrentPhase != journey.PhaseAnalysisReview {
		t.Fatalf("expected phase to stay %s, got %s", journey.PhaseAnalysisReview, got.CurrentPhase)
	}
}
