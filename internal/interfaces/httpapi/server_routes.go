package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/phases", handler.ListPhases)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier, gate AccessGate) {
	registerAuthorizedJourneyRoutes(mux, handler, verifier)
	registerAuthorizedGateRoutes(mux, handler, verifier, gate)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/recompute-scores", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRecomputeScoresJob)))
}

func registerAuthorizedJourneyRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/journeys", RequireAuth(verifier, http.HandlerFunc(handler.StartJourney)))
	mux.Handle("GET /v1/journeys/me", RequireAuth(verifier, http.HandlerFunc(handler.GetMyJourney)))
	mux.Handle("POST /v1/journeys/me/actions", RequireAuth(verifier, http.HandlerFunc(handler.ApplyJourneyAction)))
	mux.Handle("PUT /v1/journeys/me/greeting", RequireAuth(verifier, http.HandlerFunc(handler.SetGreetingPreference)))
	mux.Handle("POST /v1/journeys/me/website-analysis", RequireAuth(verifier, http.HandlerFunc(handler.AnalyzeWebsite)))
	mux.Handle("PUT /v1/journeys/me/answers", RequireAuth(verifier, http.HandlerFunc(handler.SaveAnswer)))
	mux.Handle("POST /v1/journeys/me/strategy", RequireAuth(verifier, http.HandlerFunc(handler.GenerateStrategy)))
	mux.Handle("POST /v1/journeys/me/commitment", RequireAuth(verifier, http.HandlerFunc(handler.ActivateCommitment)))
	mux.Handle("GET /v1/profile/me", RequireAuth(verifier, http.HandlerFunc(handler.GetMyProfile)))
}

func registerAuthorizedGateRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier, gate AccessGate) {
	mux.Handle("GET /v1/gate/decision", RequireAuth(verifier, http.HandlerFunc(handler.GetGateDecision)))
	mux.Handle("GET /v1/dashboard", RequireAuth(verifier, RequireSetup(gate, http.HandlerFunc(handler.GetDashboard))))
}
