package journey

import "time"

// Phase identifies one step of the setup flow.
type Phase string

const (
	PhaseWelcome              Phase = "welcome"
	PhaseGreetingPreference   Phase = "greeting_preference"
	PhaseWebsiteAnalysis      Phase = "website_analysis"
	PhaseAnalysisReview       Phase = "analysis_review"
	PhaseProfileCompletion    Phase = "profile_completion"
	PhaseProfessionalAnalysis Phase = "professional_analysis"
	PhaseStrategyGeneration   Phase = "strategy_generation"
)

// Action is a phase-completion signal submitted by the client.
type Action string

const (
	ActionCompletePhase                Action = "complete_phase"
	ActionGreetingSelected             Action = "greeting_selected"
	ActionWebsiteAnalysisComplete      Action = "website_analysis_complete"
	ActionSkipWebsiteAnalysis          Action = "skip_website_analysis"
	ActionAnalysisReviewComplete       Action = "analysis_review_complete"
	ActionProfileCompletionComplete    Action = "profile_completion_complete"
	ActionSkip                         Action = "skip"
	ActionProfessionalAnalysisComplete Action = "professional_analysis_complete"
	ActionStrategyGenerationComplete   Action = "strategy_generation_complete"
)

// Journey is the session-scoped setup state for one user. It is derived
// from the profile on demand and never persisted to the database.
type Journey struct {
	ID                 string
	UserID             string
	CurrentPhase       Phase
	GreetingPreference string
	WebsiteURL         string
	CompletedPhases    []Phase
	StrategyGenerated  bool
	IsCompleted        bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasCompleted reports whether the given phase was already passed.
func (j Journey) HasCompleted(phase Phase) bool {
	for _, done := range j.CompletedPhases {
		if done == phase {
			return true
		}
	}
	return false
}

// MarkCompleted appends the phase to the completed set once.
func (j *Journey) MarkCompleted(phase Phase) {
	if j.HasCompleted(phase) {
		return
	}
	j.CompletedPhases = append(j.CompletedPhases, phase)
}
