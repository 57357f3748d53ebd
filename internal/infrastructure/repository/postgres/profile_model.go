package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type businessProfileTableModel struct {
	ID                        int64          `db:"id"`
	UserID                    string         `db:"user_id"`
	GreetingPreference        sql.NullString `db:"greeting_preference"`
	CompanyName               sql.NullString `db:"company_name"`
	Industry                  sql.NullString `db:"industry"`
	CompanySize               sql.NullString `db:"company_size"`
	BusinessType              sql.NullString `db:"business_type"`
	MarketingExperience       sql.NullString `db:"marketing_experience"`
	MonthlyMarketingBudget    sql.NullString `db:"monthly_marketing_budget"`
	CurrentMonthlyRevenue     sql.NullString `db:"current_monthly_revenue"`
	FullName                  sql.NullString `db:"full_name"`
	WebsiteURL                sql.NullString `db:"website_url"`
	CompanyOverview           sql.NullString `db:"company_overview"`
	TargetMarket              sql.NullString `db:"target_market"`
	RevenueTarget             sql.NullString `db:"revenue_target"`
	BiggestMarketingChallenge sql.NullString `db:"biggest_marketing_challenge"`
	PrimaryMarketingGoals     pq.StringArray `db:"primary_marketing_goals"`
	UniqueSellingPoints       pq.StringArray `db:"unique_selling_points"`
	ContactEmail              sql.NullString `db:"contact_email"`
	ContactPhone              sql.NullString `db:"contact_phone"`
	SocialLinks               []byte         `db:"social_links"`
	DataCompletenessScore     int            `db:"data_completeness_score"`
	SetupCompleted            bool           `db:"setup_completed"`
	OnboardingCompleted       bool           `db:"onboarding_completed"`
	OnboardingCompletedAt     *time.Time     `db:"onboarding_completed_at"`
	StrategyGenerated         bool           `db:"strategy_generated"`
	CreatedAt                 time.Time      `db:"created_at"`
	UpdatedAt                 time.Time      `db:"updated_at"`
	DeletedAt                 *time.Time     `db:"deleted_at"`
}

type businessProfileInsertModel struct {
	UserID                    string         `db:"user_id"`
	GreetingPreference        *string        `db:"greeting_preference"`
	CompanyName               *string        `db:"company_name"`
	Industry                  *string        `db:"industry"`
	CompanySize               *string        `db:"company_size"`
	BusinessType              *string        `db:"business_type"`
	MarketingExperience       *string        `db:"marketing_experience"`
	MonthlyMarketingBudget    *string        `db:"monthly_marketing_budget"`
	CurrentMonthlyRevenue     *string        `db:"current_monthly_revenue"`
	FullName                  *string        `db:"full_name"`
	WebsiteURL                *string        `db:"website_url"`
	CompanyOverview           *string        `db:"company_overview"`
	TargetMarket              *string        `db:"target_market"`
	RevenueTarget             *string        `db:"revenue_target"`
	BiggestMarketingChallenge *string        `db:"biggest_marketing_challenge"`
	PrimaryMarketingGoals     pq.StringArray `db:"primary_marketing_goals"`
	UniqueSellingPoints       pq.StringArray `db:"unique_selling_points"`
	ContactEmail              *string        `db:"contact_email"`
	ContactPhone              *string        `db:"contact_phone"`
	SocialLinks               []byte         `db:"social_links"`
	DataCompletenessScore     int            `db:"data_completeness_score"`
	SetupCompleted            bool           `db:"setup_completed"`
	OnboardingCompleted       bool           `db:"onboarding_completed"`
	OnboardingCompletedAt     *time.Time     `db:"onboarding_completed_at"`
	StrategyGenerated         bool           `db:"strategy_generated"`
}
