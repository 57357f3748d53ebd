package httpapi

import (
	"fmt"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/marketpilot/journey-engine/internal/domain/journey"
	"github.com/marketpilot/journey-engine/internal/domain/profile"
	"github.com/marketpilot/journey-engine/internal/usecase"
)

func (h *Handler) ListPhases(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPhases")
	defer span.End()

	phases := journey.Phases()
	items := make([]phaseDTO, 0, len(phases))
	for _, info := range phases {
		items = append(items, phaseToDTO(info))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) StartJourney(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartJourney")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req startJourneyRequest
	if r.ContentLength > 0 {
		decoder := jsoniter.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
			return
		}
		if err := h.validateRequest(ctx, req); err != nil {
			writeError(ctx, w, err)
			return
		}
	}

	j, err := h.journeyService.Start(ctx, principal.UserID, req.WebsiteURL)
	if err != nil {
		h.logger.WarnContext(ctx, "start journey failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, journeyToDTO(j))
}

func (h *Handler) GetMyJourney(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMyJourney")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	snap, err := h.journeyService.Snapshot(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "journey snapshot failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, snapshotToDTO(snap))
}

func (h *Handler) ApplyJourneyAction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ApplyJourneyAction")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req journeyActionRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	j, err := h.journeyService.ApplyAction(ctx, principal.UserID, usecase.ApplyActionInput{
		Action:     journey.Action(req.Action),
		Fields:     req.Fields,
		WebsiteURL: req.WebsiteURL,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "apply journey action failed",
			"user_id", principal.UserID,
			"action", req.Action,
			"error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, journeyToDTO(j))
}

func (h *Handler) SetGreetingPreference(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetGreetingPreference")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req setGreetingRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	j, err := h.journeyService.SetGreeting(ctx, principal.UserID, req.GreetingPreference)
	if err != nil {
		h.logger.WarnContext(ctx, "set greeting failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, journeyToDTO(j))
}

func (h *Handler) AnalyzeWebsite(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AnalyzeWebsite")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req analyzeWebsiteRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	analysis, err := h.journeyService.AnalyzeWebsite(ctx, principal.UserID, req.WebsiteURL)
	if err != nil {
		h.logger.WarnContext(ctx, "website analysis failed",
			"user_id", principal.UserID,
			"website_url", req.WebsiteURL,
			"error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, websiteAnalysisDTO{
		Summary:         analysis.Summary,
		SuggestedFields: analysis.SuggestedFields,
	})
}

func (h *Handler) SaveAnswer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SaveAnswer")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req saveAnswerRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	p, err := h.journeyService.SaveAnswer(ctx, principal.UserID, req.QuestionID, req.Value)
	if err != nil {
		h.logger.WarnContext(ctx, "save answer failed",
			"user_id", principal.UserID,
			"question_id", req.QuestionID,
			"error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, profileToDTO(p))
}

func (h *Handler) GenerateStrategy(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GenerateStrategy")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	strategy, err := h.journeyService.GenerateStrategy(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "generate strategy failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, strategyDTO{
		Headline: strategy.Headline,
		Summary:  strategy.Summary,
		Actions:  strategy.Actions,
	})
}

func (h *Handler) ActivateCommitment(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ActivateCommitment")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	j, err := h.journeyService.ActivateCommitment(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "activate commitment failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	// Setup just finished; the next gate evaluation must see fresh state.
	h.gateService.Invalidate(ctx, principal.UserID)

	writeSuccess(ctx, w, http.StatusOK, journeyToDTO(j))
}

func (h *Handler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMyProfile")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	snap, err := h.journeyService.Snapshot(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "profile snapshot failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if !snap.HasProfile {
		writeSuccess(ctx, w, http.StatusOK, nil)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, profileToDTO(snap.Profile))
}

type startJourneyRequest struct {
	WebsiteURL string `json:"website_url" validate:"omitempty,url"`
}

type journeyActionRequest struct {
	Action     string         `json:"action" validate:"required,max=64"`
	Phase      string         `json:"phase" validate:"omitempty,max=64"`
	Fields     map[string]any `json:"fields" validate:"omitempty,max=32"`
	WebsiteURL string         `json:"website_url" validate:"omitempty,url"`
}

type setGreetingRequest struct {
	GreetingPreference string `json:"greeting_preference" validate:"required,max=64"`
}

type analyzeWebsiteRequest struct {
	WebsiteURL string `json:"website_url" validate:"required,url"`
}

type saveAnswerRequest struct {
	QuestionID string `json:"question_id" validate:"required,max=64"`
	Value      any    `json:"value"`
}

type phaseDTO struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
}

type journeyDTO struct {
	ID                 string   `json:"id"`
	CurrentPhase       string   `json:"currentPhase"`
	GreetingPreference string   `json:"greetingPreference,omitempty"`
	WebsiteURL         string   `json:"websiteUrl,omitempty"`
	CompletedPhases    []string `json:"completedPhases"`
	StrategyGenerated  bool     `json:"strategyGenerated"`
	IsCompleted        bool     `json:"isCompleted"`
	CreatedAtUTC       string   `json:"createdAtUtc"`
	UpdatedAtUTC       string   `json:"updatedAtUtc"`
}

type snapshotDTO struct {
	Journey              *journeyDTO `json:"journey,omitempty"`
	CurrentPhase         string      `json:"currentPhase"`
	Phase                phaseDTO    `json:"phase"`
	Progress             int         `json:"progress"`
	EstimatedMinutesLeft int         `json:"estimatedMinutesLeft"`
	Blockers             []string    `json:"blockers,omitempty"`
	IsOnboardingComplete bool        `json:"isOnboardingComplete"`
}

type websiteAnalysisDTO struct {
	Summary         string         `json:"summary"`
	SuggestedFields map[string]any `json:"suggestedFields,omitempty"`
}

type strategyDTO struct {
	Headline string   `json:"headline"`
	Summary  string   `json:"summary"`
	Actions  []string `json:"actions,omitempty"`
}

type contactDTO struct {
	Email       string            `json:"email,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	SocialLinks map[string]string `json:"socialLinks,omitempty"`
}

type profileDTO struct {
	GreetingPreference        string     `json:"greetingPreference,omitempty"`
	CompanyName               string     `json:"companyName,omitempty"`
	Industry                  string     `json:"industry,omitempty"`
	CompanySize               string     `json:"companySize,omitempty"`
	BusinessType              string     `json:"businessType,omitempty"`
	MarketingExperience       string     `json:"marketingExperience,omitempty"`
	MonthlyMarketingBudget    string     `json:"monthlyMarketingBudget,omitempty"`
	CurrentMonthlyRevenue     string     `json:"currentMonthlyRevenue,omitempty"`
	FullName                  string     `json:"fullName,omitempty"`
	WebsiteURL                string     `json:"websiteUrl,omitempty"`
	CompanyOverview           string     `json:"companyOverview,omitempty"`
	TargetMarket              string     `json:"targetMarket,omitempty"`
	RevenueTarget             string     `json:"revenueTarget,omitempty"`
	BiggestMarketingChallenge string     `json:"biggestMarketingChallenge,omitempty"`
	PrimaryMarketingGoals     []string   `json:"primaryMarketingGoals,omitempty"`
	UniqueSellingPoints       []string   `json:"uniqueSellingPoints,omitempty"`
	Contact                   contactDTO `json:"contact"`
	CompletenessScore         int        `json:"completenessScore"`
	SetupCompleted            bool       `json:"setupCompleted"`
	OnboardingCompletedAtUTC  string     `json:"onboardingCompletedAtUtc,omitempty"`
	StrategyGenerated         bool       `json:"strategyGenerated"`
}

func phaseToDTO(info journey.PhaseInfo) phaseDTO {
	return phaseDTO{
		ID:               string(info.ID),
		Title:            info.Title,
		Description:      info.Description,
		EstimatedMinutes: info.EstimatedMinutes,
	}
}

func journeyToDTO(j journey.Journey) journeyDTO {
	completed := make([]string, 0, len(j.CompletedPhases))
	for _, phase := range j.CompletedPhases {
		completed = append(completed, string(phase))
	}

	return journeyDTO{
		ID:                 j.ID,
		CurrentPhase:       string(j.CurrentPhase),
		GreetingPreference: j.GreetingPreference,
		WebsiteURL:         j.WebsiteURL,
		CompletedPhases:    completed,
		StrategyGenerated:  j.StrategyGenerated,
		IsCompleted:        j.IsCompleted,
		CreatedAtUTC:       j.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAtUTC:       j.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func snapshotToDTO(snap usecase.Snapshot) snapshotDTO {
	out := snapshotDTO{
		CurrentPhase:         string(snap.CurrentPhase),
		Phase:                phaseToDTO(snap.PhaseInfo),
		Progress:             snap.Progress,
		EstimatedMinutesLeft: snap.EstimatedMinutesLeft,
		Blockers:             snap.Blockers,
		IsOnboardingComplete: snap.IsOnboardingComplete,
	}
	if snap.HasJourney {
		dto := journeyToDTO(snap.Journey)
		out.Journey = &dto
	}
	return out
}

func profileToDTO(p profile.Profile) profileDTO {
	completedAt := ""
	if p.OnboardingCompletedAt != nil {
		completedAt = p.OnboardingCompletedAt.UTC().Format(time.RFC3339)
	}

	return profileDTO{
		GreetingPreference:        p.GreetingPreference,
		CompanyName:               p.CompanyName,
		Industry:                  p.Industry,
		CompanySize:               p.CompanySize,
		BusinessType:              p.BusinessType,
		MarketingExperience:       p.MarketingExperience,
		MonthlyMarketingBudget:    p.MonthlyMarketingBudget,
		CurrentMonthlyRevenue:     p.CurrentMonthlyRevenue,
		FullName:                  p.FullName,
		WebsiteURL:                p.WebsiteURL,
		CompanyOverview:           p.CompanyOverview,
		TargetMarket:              p.TargetMarket,
		RevenueTarget:             p.RevenueTarget,
		BiggestMarketingChallenge: p.BiggestMarketingChallenge,
		PrimaryMarketingGoals:     append([]string(nil), p.PrimaryMarketingGoals...),
		UniqueSellingPoints:       append([]string(nil), p.UniqueSellingPoints...),
		Contact: contactDTO{
			Email:       p.Contact.Email,
			Phone:       p.Contact.Phone,
			SocialLinks: p.Contact.SocialLinks,
		},
		CompletenessScore:        p.CompletenessScore,
		SetupCompleted:           p.SetupCompleted,
		OnboardingCompletedAtUTC: completedAt,
		StrategyGenerated:        p.StrategyGenerated,
	}
}
