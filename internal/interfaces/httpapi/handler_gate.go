package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/marketpilot/journey-engine/internal/usecase"
)

// GetGateDecision lets the application shell ask where to send the user.
// The auth-loading state never reaches this endpoint: a request that got
// this far already carries a verified principal.
func (h *Handler) GetGateDecision(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGateDecision")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	route := strings.TrimSpace(r.URL.Query().Get("route"))
	if route == "" {
		route = "/"
	}

	decision, err := h.gateService.Evaluate(ctx, usecase.GateInput{
		Session: usecase.GateSession{UserID: principal.UserID},
		Route:   route,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "gate evaluation failed", "user_id", principal.UserID, "route", route, "error", err)
		writeError(ctx, w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeSuccess(ctx, w, http.StatusOK, gateDecisionDTO{
		State:      string(decision.State),
		RedirectTo: decision.RedirectTo,
	})
}

// GetDashboard is a minimal protected resource behind RequireSetup; it
// proves the gate end to end.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetDashboard")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	snap, err := h.journeyService.Snapshot(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "dashboard snapshot failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, dashboardDTO{
		CompanyName:       snap.Profile.CompanyName,
		CompletenessScore: snap.Profile.CompletenessScore,
		StrategyGenerated: snap.Profile.StrategyGenerated,
	})
}

type gateDecisionDTO struct {
	State      string `json:"state"`
	RedirectTo string `json:"redirectTo,omitempty"`
}

type dashboardDTO struct {
	CompanyName       string `json:"companyName,omitempty"`
	CompletenessScore int    `json:"completenessScore"`
	StrategyGenerated bool   `json:"strategyGenerated"`
}
