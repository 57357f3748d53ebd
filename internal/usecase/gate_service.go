package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/marketpilot/journey-engine/internal/domain/profile"
	"github.com/marketpilot/journey-engine/internal/platform/cache"
	"github.com/marketpilot/journey-engine/internal/platform/logging"
)

// GateState is the access decision for a protected route.
type GateState string

const (
	GateCheckingAuth    GateState = "checking_auth"
	GateUnauthenticated GateState = "unauthenticated"
	GateNeedsSetup      GateState = "needs_setup"
	GateReady           GateState = "ready"
)

// GateSession describes the caller's authentication state as seen by the
// application shell.
type GateSession struct {
	Loading bool
	UserID  string
}

// GateInput is one access-gate evaluation request.
type GateInput struct {
	Session GateSession
	Route   string
}

// GateDecision is the resolved state plus an optional redirect target.
type GateDecision struct {
	State      GateState
	RedirectTo string
}

// GateRoutes configures where the gate sends users it turns away.
type GateRoutes struct {
	Login string
	Setup string
}

// GateService decides whether a session may reach protected resources.
// Decisions are cached per user for a short TTL so concurrent evaluations
// during one navigation cause at most one profile fetch.
type GateService struct {
	profileRepo profile.Repository
	decisions   *cache.Store
	routes      GateRoutes
	logger      *logging.Logger
}

func NewGateService(profileRepo profile.Repository, routes GateRoutes, decisionTTL time.Duration, logger *logging.Logger) *GateService {
	if logger == nil {
		logger = logging.NewNop()
	}
	if routes.Login == "" {
		routes.Login = "/login"
	}
	if routes.Setup == "" {
		routes.Setup = "/setup"
	}

	return &GateService{
		profileRepo: profileRepo,
		decisions:   cache.NewStore(decisionTTL),
		routes:      routes,
		logger:      logger,
	}
}

// Evaluate applies the gate rules in order. A profile fetch failure fails
// open: the user is let through and the decision is cached like any other.
func (s *GateService) Evaluate(ctx context.Context, input GateInput) (GateDecision, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GateService.Evaluate")
	defer span.End()

	if input.Session.Loading {
		return GateDecision{State: GateCheckingAuth}, nil
	}

	userID := strings.TrimSpace(input.Session.UserID)
	if userID == "" {
		return GateDecision{State: GateUnauthenticated, RedirectTo: s.routes.Login}, nil
	}

	if normalizeRoute(input.Route) == normalizeRoute(s.routes.Setup) {
		return GateDecision{State: GateReady}, nil
	}

	decision, err := s.decisions.GetOrLoad(ctx, "gate:"+userID, func(ctx context.Context) (any, error) {
		return s.decide(ctx, userID), nil
	})
	if err != nil {
		return GateDecision{}, fmt.Errorf("evaluate gate: %w", err)
	}

	return decision.(GateDecision), nil
}

// Invalidate drops the cached decision for a user, e.g. right after setup
// completes.
func (s *GateService) Invalidate(ctx context.Context, userID string) {
	s.decisions.Delete(ctx, "gate:"+strings.TrimSpace(userID))
}

func (s *GateService) decide(ctx context.Context, userID string) GateDecision {
	p, exists, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "gate profile fetch failed, failing open",
			"user_id", userID,
			"error", err)
		return GateDecision{State: GateReady}
	}
	if !exists {
		return GateDecision{State: GateNeedsSetup, RedirectTo: s.routes.Setup}
	}

	if p.SetupCompleted && profile.HasEssentialInfo(p) {
		return GateDecision{State: GateReady}
	}
	return GateDecision{State: GateNeedsSetup, RedirectTo: s.routes.Setup}
}

func normalizeRoute(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		return "/"
	}
	if len(route) > 1 {
		route = strings.TrimRight(route, "/")
	}
	return route
}
