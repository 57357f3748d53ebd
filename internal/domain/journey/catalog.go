package journey

// PhaseInfo is the static catalog entry for one setup phase.
type PhaseInfo struct {
	ID               Phase
	Title            string
	Description      string
	EstimatedMinutes int
}

// catalog is the canonical phase order. Progress estimates and time
// remaining derive from it, so order matters.
var catalog = []PhaseInfo{
	{
		ID:               PhaseWelcome,
		Title:            "Welcome",
		Description:      "Introduction to your marketing assistant.",
		EstimatedMinutes: 1,
	},
	{
		ID:               PhaseGreetingPreference,
		Title:            "Greeting preference",
		Description:      "Choose how the assistant should address you.",
		EstimatedMinutes: 1,
	},
	{
		ID:               PhaseWebsiteAnalysis,
		Title:            "Website analysis",
		Description:      "Share your website so we can pre-fill your business profile.",
		EstimatedMinutes: 3,
	},
	{
		ID:               PhaseAnalysisReview,
		Title:            "Analysis review",
		Description:      "Review and correct what we learned from your website.",
		EstimatedMinutes: 2,
	},
	{
		ID:               PhaseProfileCompletion,
		Title:            "Profile completion",
		Description:      "Fill in the remaining details about your business.",
		EstimatedMinutes: 5,
	},
	{
		ID:               PhaseProfessionalAnalysis,
		Title:            "Professional analysis",
		Description:      "We analyze your market position and opportunities.",
		EstimatedMinutes: 3,
	},
	{
		ID:               PhaseStrategyGeneration,
		Title:            "Strategy generation",
		Description:      "Generate your initial marketing strategy.",
		EstimatedMinutes: 4,
	},
}

// Phases returns the catalog in canonical order. The slice is a copy.
func Phases() []PhaseInfo {
	out := make([]PhaseInfo, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup resolves a catalog entry by phase id.
func Lookup(id Phase) (PhaseInfo, bool) {
	for _, info := range catalog {
		if info.ID == id {
			return info, true
		}
	}
	return PhaseInfo{}, false
}

// ProgressEstimate maps a phase to a rough percent-complete figure based
// on its position in the catalog. Used when no stored score exists yet.
func ProgressEstimate(phase Phase) int {
	for i, info := range catalog {
		if info.ID == phase {
			return i * 100 / len(catalog)
		}
	}
	return 0
}
