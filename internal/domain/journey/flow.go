package journey

import (
	"fmt"

	"github.com/marketpilot/journey-engine/internal/domain/profile"
)

// Transition is the outcome of applying an action to a phase. Terminal
// marks the journey as finished instead of moving to another phase.
type Transition struct {
	To       Phase
	Terminal bool
}

type edge struct {
	from   Phase
	action Action
}

// edges is the fixed transition table. Anything not listed is rejected.
var edges = map[edge]Transition{
	{PhaseWelcome, ActionCompletePhase}:                             {To: PhaseGreetingPreference},
	{PhaseGreetingPreference, ActionGreetingSelected}:               {To: PhaseWebsiteAnalysis},
	{PhaseWebsiteAnalysis, ActionWebsiteAnalysisComplete}:           {To: PhaseAnalysisReview},
	{PhaseWebsiteAnalysis, ActionSkipWebsiteAnalysis}:               {To: PhaseProfileCompletion},
	{PhaseAnalysisReview, ActionAnalysisReviewComplete}:             {To: PhaseProfileCompletion},
	{PhaseProfileCompletion, ActionProfileCompletionComplete}:       {To: PhaseProfessionalAnalysis},
	{PhaseProfileCompletion, ActionSkip}:                            {To: PhaseProfessionalAnalysis},
	{PhaseProfessionalAnalysis, ActionProfessionalAnalysisComplete}: {To: PhaseStrategyGeneration},
	{PhaseStrategyGeneration, ActionStrategyGenerationComplete}:     {Terminal: true},
}

// Next resolves the transition for an action submitted in a phase.
func Next(from Phase, action Action) (Transition, bool) {
	t, ok := edges[edge{from, action}]
	return t, ok
}

// Blockers lists human-readable prerequisites still missing before the
// given phase can complete. An empty result means the phase is actionable.
func Blockers(phase Phase, p profile.Profile) []string {
	var blockers []string

	switch phase {
	case PhaseWebsiteAnalysis:
		if !profile.HasGreetingPreference(p) {
			blockers = append(blockers, "select a greeting preference first")
		}
	case PhaseProfessionalAnalysis, PhaseStrategyGeneration:
		for _, field := range profile.MissingRequired(p) {
			blockers = append(blockers, fmt.Sprintf("fill in %s", field))
		}
	}

	return blockers
}

// EstimatedTimeRemaining sums the estimated minutes of catalog phases not
// yet completed. The current phase counts as remaining.
func EstimatedTimeRemaining(current Phase, completed []Phase) int {
	done := make(map[Phase]struct{}, len(completed))
	for _, phase := range completed {
		done[phase] = struct{}{}
	}

	total := 0
	for _, info := range catalog {
		if _, ok := done[info.ID]; ok {
			continue
		}
		total += info.EstimatedMinutes
	}
	return total
}

// Fallback resolves a display phase for unknown or empty phase values so
// stale clients never break the snapshot.
func Fallback(phase Phase, hasGreeting bool) Phase {
	if _, ok := Lookup(phase); ok {
		return phase
	}
	if hasGreeting {
		return PhaseWebsiteAnalysis
	}
	return PhaseGreetingPreference
}
