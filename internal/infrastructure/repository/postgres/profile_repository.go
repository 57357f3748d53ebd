package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/marketpilot/journey-engine/internal/domain/profile"
)

type ProfileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const getProfileQuery = `SELECT * FROM business_profiles
WHERE user_id = $1 AND deleted_at IS NULL
LIMIT 1`

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (profile.Profile, bool, error) {
	var row businessProfileTableModel
	if err := r.db.GetContext(ctx, &row, getProfileQuery, userID); err != nil {
		if isNotFound(err) {
			return profile.Profile{}, false, nil
		}
		return profile.Profile{}, false, fmt.Errorf("get business profile: %w", err)
	}

	p, err := businessProfileFromRow(row)
	if err != nil {
		return profile.Profile{}, false, err
	}
	return p, true, nil
}

const upsertProfileQuery = `INSERT INTO business_profiles (
    user_id, greeting_preference, company_name, industry, company_size,
    business_type, marketing_experience, monthly_marketing_budget,
    current_monthly_revenue, full_name, website_url, company_overview,
    target_market, revenue_target, biggest_marketing_challenge,
    primary_marketing_goals, unique_selling_points, contact_email,
    contact_phone, social_links, data_completeness_score, setup_completed,
    onboarding_completed, onboarding_completed_at, strategy_generated
) VALUES (
    :user_id, :greeting_preference, :company_name, :industry, :company_size,
    :business_type, :marketing_experience, :monthly_marketing_budget,
    :current_monthly_revenue, :full_name, :website_url, :company_overview,
    :target_market, :revenue_target, :biggest_marketing_challenge,
    :primary_marketing_goals, :unique_selling_points, :contact_email,
    :contact_phone, :social_links, :data_completeness_score, :setup_completed,
    :onboarding_completed, :onboarding_completed_at, :strategy_generated
)
ON CONFLICT (user_id) WHERE deleted_at IS NULL
DO UPDATE SET
    greeting_preference = EXCLUDED.greeting_preference,
    company_name = EXCLUDED.company_name,
    industry = EXCLUDED.industry,
    company_size = EXCLUDED.company_size,
    business_type = EXCLUDED.business_type,
    marketing_experience = EXCLUDED.marketing_experience,
    monthly_marketing_budget = EXCLUDED.monthly_marketing_budget,
    current_monthly_revenue = EXCLUDED.current_monthly_revenue,
    full_name = EXCLUDED.full_name,
    website_url = EXCLUDED.website_url,
    company_overview = EXCLUDED.company_overview,
    target_market = EXCLUDED.target_market,
    revenue_target = EXCLUDED.revenue_target,
    biggest_marketing_challenge = EXCLUDED.biggest_marketing_challenge,
    primary_marketing_goals = EXCLUDED.primary_marketing_goals,
    unique_selling_points = EXCLUDED.unique_selling_points,
    contact_email = EXCLUDED.contact_email,
    contact_phone = EXCLUDED.contact_phone,
    social_links = EXCLUDED.social_links,
    data_completeness_score = EXCLUDED.data_completeness_score,
    setup_completed = EXCLUDED.setup_completed,
    onboarding_completed = EXCLUDED.onboarding_completed,
    onboarding_completed_at = EXCLUDED.onboarding_completed_at,
    strategy_generated = EXCLUDED.strategy_generated,
    updated_at = NOW(),
    deleted_at = NULL`

// Upsert replaces the row wholesale. Merge semantics live in the usecase
// layer, which read-merge-writes before calling this.
func (r *ProfileRepository) Upsert(ctx context.Context, p profile.Profile) error {
	socialLinks, err := marshalSocialLinks(p.Contact.SocialLinks)
	if err != nil {
		return err
	}

	insertModel := businessProfileInsertModel{
		UserID:                    strings.TrimSpace(p.UserID),
		GreetingPreference:        optionalString(p.GreetingPreference),
		CompanyName:               optionalString(p.CompanyName),
		Industry:                  optionalString(p.Industry),
		CompanySize:               optionalString(p.CompanySize),
		BusinessType:              optionalString(p.BusinessType),
		MarketingExperience:       optionalString(p.MarketingExperience),
		MonthlyMarketingBudget:    optionalString(p.MonthlyMarketingBudget),
		CurrentMonthlyRevenue:     optionalString(p.CurrentMonthlyRevenue),
		FullName:                  optionalString(p.FullName),
		WebsiteURL:                optionalString(p.WebsiteURL),
		CompanyOverview:           optionalString(p.CompanyOverview),
		TargetMarket:              optionalString(p.TargetMarket),
		RevenueTarget:             optionalString(p.RevenueTarget),
		BiggestMarketingChallenge: optionalString(p.BiggestMarketingChallenge),
		PrimaryMarketingGoals:     pq.StringArray(p.PrimaryMarketingGoals),
		UniqueSellingPoints:       pq.StringArray(p.UniqueSellingPoints),
		ContactEmail:              optionalString(p.Contact.Email),
		ContactPhone:              optionalString(p.Contact.Phone),
		SocialLinks:               socialLinks,
		DataCompletenessScore:     p.CompletenessScore,
		SetupCompleted:            p.SetupCompleted,
		OnboardingCompleted:       p.OnboardingCompleted,
		OnboardingCompletedAt:     p.OnboardingCompletedAt,
		StrategyGenerated:         p.StrategyGenerated,
	}

	if _, err := r.db.NamedExecContext(ctx, upsertProfileQuery, insertModel); err != nil {
		return fmt.Errorf("upsert business profile: %w", err)
	}

	return nil
}

const listUserIDsQuery = `SELECT user_id FROM business_profiles
WHERE deleted_at IS NULL
ORDER BY user_id`

func (r *ProfileRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	var userIDs []string
	if err := r.db.SelectContext(ctx, &userIDs, listUserIDsQuery); err != nil {
		return nil, fmt.Errorf("list business profile user ids: %w", err)
	}
	return userIDs, nil
}

func businessProfileFromRow(row businessProfileTableModel) (profile.Profile, error) {
	socialLinks, err := unmarshalSocialLinks(row.SocialLinks)
	if err != nil {
		return profile.Profile{}, err
	}

	return profile.Profile{
		UserID:                    row.UserID,
		GreetingPreference:        strings.TrimSpace(row.GreetingPreference.String),
		CompanyName:               strings.TrimSpace(row.CompanyName.String),
		Industry:                  strings.TrimSpace(row.Industry.String),
		CompanySize:               strings.TrimSpace(row.CompanySize.String),
		BusinessType:              strings.TrimSpace(row.BusinessType.String),
		MarketingExperience:       strings.TrimSpace(row.MarketingExperience.String),
		MonthlyMarketingBudget:    strings.TrimSpace(row.MonthlyMarketingBudget.String),
		CurrentMonthlyRevenue:     strings.TrimSpace(row.CurrentMonthlyRevenue.String),
		FullName:                  strings.TrimSpace(row.FullName.String),
		WebsiteURL:                strings.TrimSpace(row.WebsiteURL.String),
		CompanyOverview:           strings.TrimSpace(row.CompanyOverview.String),
		TargetMarket:              strings.TrimSpace(row.TargetMarket.String),
		RevenueTarget:             strings.TrimSpace(row.RevenueTarget.String),
		BiggestMarketingChallenge: strings.TrimSpace(row.BiggestMarketingChallenge.String),
		PrimaryMarketingGoals:     []string(row.PrimaryMarketingGoals),
		UniqueSellingPoints:       []string(row.UniqueSellingPoints),
		Contact: profile.ContactInfo{
			Email:       strings.TrimSpace(row.ContactEmail.String),
			Phone:       strings.TrimSpace(row.ContactPhone.String),
			SocialLinks: socialLinks,
		},
		CompletenessScore:     row.DataCompletenessScore,
		SetupCompleted:        row.SetupCompleted,
		OnboardingCompleted:   row.OnboardingCompleted,
		OnboardingCompletedAt: row.OnboardingCompletedAt,
		StrategyGenerated:     row.StrategyGenerated,
		CreatedAt:             row.CreatedAt,
		UpdatedAt:             row.UpdatedAt,
	}, nil
}

func marshalSocialLinks(links map[string]string) ([]byte, error) {
	if len(links) == 0 {
		return []byte("{}"), nil
	}
	out, err := sonic.Marshal(links)
	if err != nil {
		return nil, fmt.Errorf("marshal social links: %w", err)
	}
	return out, nil
}

func unmarshalSocialLinks(raw []byte) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var links map[string]string
	if err := sonic.Unmarshal(raw, &links); err != nil {
		return nil, fmt.Errorf("unmarshal social links: %w", err)
	}
	if len(links) == 0 {
		return nil, nil
	}
	return links, nil
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
