package profile

import (
	"math"
	"strings"
)

// Completeness weighting: required fields carry 70% of the score, optional
// fields the remaining 30%.
const (
	requiredWeight = 0.7
	optionalWeight = 0.3

	requiredFieldCount = 8
	optionalFieldCount = 9
)

// Score computes the 0-100 completeness score for a profile snapshot. It is
// pure and deterministic; callers persist the result themselves.
func Score(p Profile) int {
	filledRequired := 0
	for _, value := range requiredValues(p) {
		if strings.TrimSpace(value) != "" {
			filledRequired++
		}
	}

	filledOptional := 0
	for _, value := range []string{
		p.FullName,
		p.WebsiteURL,
		p.CompanyOverview,
		p.TargetMarket,
		p.RevenueTarget,
		p.BiggestMarketingChallenge,
	} {
		if strings.TrimSpace(value) != "" {
			filledOptional++
		}
	}
	if len(cleanStrings(p.PrimaryMarketingGoals)) > 0 {
		filledOptional++
	}
	if len(cleanStrings(p.UniqueSellingPoints)) > 0 {
		filledOptional++
	}
	if strings.TrimSpace(p.Contact.Email) != "" || strings.TrimSpace(p.Contact.Phone) != "" {
		filledOptional++
	}

	requiredRatio := float64(filledRequired) / requiredFieldCount
	optionalRatio := float64(filledOptional) / optionalFieldCount

	return int(math.Round((requiredRatio*requiredWeight + optionalRatio*optionalWeight) * 100))
}

// MissingRequired lists human-readable labels for the unfilled required
// fields, in catalog order.
func MissingRequired(p Profile) []string {
	labels := []string{
		"greeting preference",
		"company name",
		"industry",
		"company size",
		"business type",
		"marketing experience",
		"monthly marketing budget",
		"current monthly revenue",
	}

	var missing []string
	for i, value := range requiredValues(p) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, labels[i])
		}
	}

	return missing
}

func requiredValues(p Profile) [requiredFieldCount]string {
	return [requiredFieldCount]string{
		p.GreetingPreference,
		p.CompanyName,
		p.Industry,
		p.CompanySize,
		p.BusinessType,
		p.MarketingExperience,
		p.MonthlyMarketingBudget,
		p.CurrentMonthlyRevenue,
	}
}
