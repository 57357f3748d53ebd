package profile

import (
	"math"
	"testing"
)

func fullProfile() Profile {
	return Profile{
		UserID:                    "user-1",
		GreetingPreference:        "friendly",
		CompanyName:               "Acme",
		Industry:                  "tech",
		CompanySize:               "11-50",
		BusinessType:              "b2b_saas",
		MarketingExperience:       "beginner",
		MonthlyMarketingBudget:    "1000_5000",
		CurrentMonthlyRevenue:     "10000_50000",
		FullName:                  "Ada Acme",
		WebsiteURL:                "https://acme.example",
		CompanyOverview:           "We make anvils",
		TargetMarket:              "coyotes",
		RevenueTarget:             "1M",
		BiggestMarketingChallenge: "lead generation",
		PrimaryMarketingGoals:     []string{"brand_awareness"},
		UniqueSellingPoints:       []string{"fast delivery"},
		Contact:                   ContactInfo{Email: "ada@acme.example"},
	}
}

func TestScore_EmptyProfileIsZero(t *testing.T) {
	if got := Score(Profile{}); got != 0 {
		t.Fatalf("expected 0 for empty profile, got %d", got)
	}
}

func TestScore_FullProfileIsHundred(t *testing.T) {
	if got := Score(fullProfile()); got != 100 {
		t.Fatalf("expected 100 for full profile, got %d", got)
	}
}

func TestScore_Deterministic(t *testing.T) {
	p := fullProfile()
	p.CompanyOverview = ""
	p.UniqueSellingPoints = nil

	first := Score(p)
	for i := 0; i < 5; i++ {
		if got := Score(p); got != first {
			t.Fatalf("score changed between calls: %d vs %d", first, got)
		}
	}
}

func TestScore_AlwaysWithinBounds(t *testing.T) {
	cases := []Profile{
		{},
		{CompanyName: "   "},
		{GreetingPreference: "casual"},
		{PrimaryMarketingGoals: []string{"", "  "}},
		{Contact: ContactInfo{SocialLinks: map[string]string{"x": "@acme"}}},
		fullProfile(),
	}

	for i, p := range cases {
		got := Score(p)
		if got < 0 || got > 100 {
			t.Fatalf("case %d: score %d out of [0,100]", i, got)
		}
	}
}

func TestScore_RequiredFieldDominance(t *testing.T) {
	with := fullProfile()
	without := fullProfile()
	without.Industry = ""

	delta := Score(with) - Score(without)
	expected := 100.0 * 0.7 / 8.0
	if math.Abs(float64(delta)-expected) > 1.0 {
		t.Fatalf("required field delta %d not within rounding tolerance of %.2f", delta, expected)
	}
}

func TestScore_ContactCountsOnlyWithEmailOrPhone(t *testing.T) {
	socialOnly := Profile{Contact: ContactInfo{SocialLinks: map[string]string{"linkedin": "acme"}}}
	if got := Score(socialOnly); got != 0 {
		t.Fatalf("social links alone must not score, got %d", got)
	}

	phoneOnly := Profile{Contact: ContactInfo{Phone: "+1 555 0100"}}
	if got := Score(phoneOnly); got == 0 {
		t.Fatal("phone should count as filled contact info")
	}
}

func TestScore_EmptySetsDoNotCount(t *testing.T) {
	base := Score(Profile{FullName: "Ada"})
	withEmptySets := Score(Profile{
		FullName:              "Ada",
		PrimaryMarketingGoals: []string{},
		UniqueSellingPoints:   []string{"", "   "},
	})

	if base != withEmptySets {
		t.Fatalf("empty sets changed score: %d vs %d", base, withEmptySets)
	}
}

func TestMissingRequired(t *testing.T) {
	p := fullProfile()
	p.CompanySize = ""
	p.CurrentMonthlyRevenue = "  "

	missing := MissingRequired(p)
	if len(missing) != 2 {
		t.Fatalf("expected 2 missing fields, got %v", missing)
	}
	if missing[0] != "company size" || missing[1] != "current monthly revenue" {
		t.Fatalf("unexpected missing fields: %v", missing)
	}
}
