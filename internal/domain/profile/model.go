package profile

import (
	"strings"
	"time"
)

// ContactInfo is the structured contact block. It contributes to the
// completeness score only when email or phone is filled.
type ContactInfo struct {
	Email       string
	Phone       string
	SocialLinks map[string]string
}

// Profile is one user's business-description record. It is created lazily on
// the first save attempt and mutated incrementally as setup phases are
// submitted; this subsystem never deletes it.
type Profile struct {
	UserID string

	// Required for completion.
	GreetingPreference     string
	CompanyName            string
	Industry               string
	CompanySize            string
	BusinessType           string
	MarketingExperience    string
	MonthlyMarketingBudget string
	CurrentMonthlyRevenue  string

	// Optional, partial credit.
	FullName                  string
	WebsiteURL                string
	CompanyOverview           string
	TargetMarket              string
	RevenueTarget             string
	BiggestMarketingChallenge string
	PrimaryMarketingGoals     []string
	UniqueSellingPoints       []string
	Contact                   ContactInfo

	// Derived / completion state. CompletenessScore is recomputed, never an
	// authoritative input. SetupCompleted is the authoritative gate flag;
	// OnboardingCompleted is kept in lockstep as a legacy migration shim.
	CompletenessScore     int
	SetupCompleted        bool
	OnboardingCompleted   bool
	OnboardingCompletedAt *time.Time
	StrategyGenerated     bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Canonical field keys as submitted by setup phases.
const (
	FieldGreetingPreference        = "greeting_preference"
	FieldCompanyName               = "company_name"
	FieldIndustry                  = "industry"
	FieldCompanySize               = "company_size"
	FieldBusinessType              = "business_type"
	FieldMarketingExperience       = "marketing_experience"
	FieldMonthlyMarketingBudget    = "monthly_marketing_budget"
	FieldCurrentMonthlyRevenue     = "current_monthly_revenue"
	FieldFullName                  = "full_name"
	FieldWebsiteURL                = "website_url"
	FieldCompanyOverview           = "company_overview"
	FieldTargetMarket              = "target_market"
	FieldRevenueTarget             = "revenue_target"
	FieldBiggestMarketingChallenge = "biggest_marketing_challenge"
	FieldPrimaryMarketingGoals     = "primary_marketing_goals"
	FieldUniqueSellingPoints       = "unique_selling_points"
	FieldContactEmail              = "contact_email"
	FieldContactPhone              = "contact_phone"
)

// ApplyField writes a single submitted answer onto the profile. It returns
// false for keys outside the whitelist so callers can reject unknown
// question ids without corrupting state.
func ApplyField(p *Profile, key string, value any) bool {
	switch strings.TrimSpace(key) {
	case FieldGreetingPreference:
		p.GreetingPreference = stringValue(value)
	case FieldCompanyName:
		p.CompanyName = stringValue(value)
	case FieldIndustry:
		p.Industry = stringValue(value)
	case FieldCompanySize:
		p.CompanySize = stringValue(value)
	case FieldBusinessType:
		p.BusinessType = stringValue(value)
	case FieldMarketingExperience:
		p.MarketingExperience = stringValue(value)
	case FieldMonthlyMarketingBudget:
		p.MonthlyMarketingBudget = stringValue(value)
	case FieldCurrentMonthlyRevenue:
		p.CurrentMonthlyRevenue = stringValue(value)
	case FieldFullName:
		p.FullName = stringValue(value)
	case FieldWebsiteURL:
		p.WebsiteURL = stringValue(value)
	case FieldCompanyOverview:
		p.CompanyOverview = stringValue(value)
	case FieldTargetMarket:
		p.TargetMarket = stringValue(value)
	case FieldRevenueTarget:
		p.RevenueTarget = stringValue(value)
	case FieldBiggestMarketingChallenge:
		p.BiggestMarketingChallenge = stringValue(value)
	case FieldPrimaryMarketingGoals:
		p.PrimaryMarketingGoals = stringSliceValue(value)
	case FieldUniqueSellingPoints:
		p.UniqueSellingPoints = stringSliceValue(value)
	case FieldContactEmail:
		p.Contact.Email = stringValue(value)
	case FieldContactPhone:
		p.Contact.Phone = stringValue(value)
	default:
		return false
	}

	return true
}

// HasGreetingPreference reports whether a greeting preference is already on
// file, which lets a new journey skip the greeting phases.
func HasGreetingPreference(p Profile) bool {
	return strings.TrimSpace(p.GreetingPreference) != ""
}

// HasEssentialInfo reports whether the four gate-essential fields are all
// non-blank after trimming.
func HasEssentialInfo(p Profile) bool {
	return strings.TrimSpace(p.CompanyName) != "" &&
		strings.TrimSpace(p.Industry) != "" &&
		strings.TrimSpace(p.MarketingExperience) != "" &&
		strings.TrimSpace(p.MonthlyMarketingBudget) != ""
}

func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return ""
	}
}

func stringSliceValue(value any) []string {
	switch v := value.(type) {
	case []string:
		return cleanStrings(v)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
		return cleanStrings(items)
	case string:
		return cleanStrings(strings.Split(v, ","))
	default:
		return nil
	}
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
