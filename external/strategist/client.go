package strategist

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/marketpilot/journey-engine/internal/domain/profile"
	"github.com/marketpilot/journey-engine/internal/platform/logging"
	"github.com/marketpilot/journey-engine/internal/platform/resilience"
	"github.com/marketpilot/journey-engine/internal/usecase"
)

var errStrategistTransient = crerr.New("strategist transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client calls the strategy service that drafts an initial marketing plan
// from a completed business profile.
type Client struct {
	httpClient     *http.Client
	generateURL    string
	apiKey         string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		generateURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/") + "/v1/strategies",
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxRetries:     cfg.MaxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type generateRequest struct {
	CompanyName            string   `json:"company_name"`
	Industry               string   `json:"industry"`
	CompanySize            string   `json:"company_size"`
	BusinessType           string   `json:"business_type"`
	MarketingExperience    string   `json:"marketing_experience"`
	MonthlyMarketingBudget string   `json:"monthly_marketing_budget"`
	CurrentMonthlyRevenue  string   `json:"current_monthly_revenue"`
	TargetMarket           string   `json:"target_market,omitempty"`
	PrimaryMarketingGoals  []string `json:"primary_marketing_goals,omitempty"`
	UniqueSellingPoints    []string `json:"unique_selling_points,omitempty"`
}

type generateResponse struct {
	Headline string   `json:"headline"`
	Summary  string   `json:"summary"`
	Actions  []string `json:"actions"`
}

// Generate implements usecase.StrategyGenerator.
func (c *Client) Generate(ctx context.Context, p profile.Profile) (usecase.Strategy, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "strategist circuit breaker rejected request", "state", c.breaker.State())
			return usecase.Strategy{}, fmt.Errorf("strategist is temporarily unavailable: %w", err)
		}
	}

	body, err := sonic.Marshal(generateRequest{
		CompanyName:            p.CompanyName,
		Industry:               p.Industry,
		CompanySize:            p.CompanySize,
		BusinessType:           p.BusinessType,
		MarketingExperience:    p.MarketingExperience,
		MonthlyMarketingBudget: p.MonthlyMarketingBudget,
		CurrentMonthlyRevenue:  p.CurrentMonthlyRevenue,
		TargetMarket:           p.TargetMarket,
		PrimaryMarketingGoals:  p.PrimaryMarketingGoals,
		UniqueSellingPoints:    p.UniqueSellingPoints,
	})
	if err != nil {
		return usecase.Strategy{}, crerr.Wrap(err, "marshal strategy request")
	}

	var decoded generateResponse
	callErr := c.doWithRetries(ctx, body, &decoded)
	c.recordCircuitResult(callErr)
	if callErr != nil {
		return usecase.Strategy{}, callErr
	}

	return usecase.Strategy{
		Headline: strings.TrimSpace(decoded.Headline),
		Summary:  strings.TrimSpace(decoded.Summary),
		Actions:  decoded.Actions,
	}, nil
}

func (c *Client) doWithRetries(ctx context.Context, body []byte, out *generateResponse) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return crerr.Wrap(err, "generate canceled")
		}
		if attempt > 0 {
			c.logger.WarnContext(ctx, "retrying strategy generation",
				"attempt", attempt,
				"error", lastErr)
		}

		lastErr = c.doOnce(ctx, body, out)
		if lastErr == nil {
			return nil
		}
		if !stderrors.Is(lastErr, errStrategistTransient) {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, body []byte, out *generateResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.generateURL, bytes.NewReader(body))
	if err != nil {
		return crerr.Wrap(err, "create strategy request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: generate request: %v", errStrategistTransient, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read generate response: %v", errStrategistTransient, err)
	}

	if resp.StatusCode/100 != 2 {
		preview := strings.TrimSpace(string(raw))
		if len(preview) > 512 {
			preview = preview[:512]
		}
		if isRetryableStatus(resp.StatusCode) {
			return fmt.Errorf("%w: generate status=%d body=%s", errStrategistTransient, resp.StatusCode, preview)
		}
		return crerr.Newf("generate failed status=%d body=%s", resp.StatusCode, preview)
	}

	if err := sonic.Unmarshal(raw, out); err != nil {
		return crerr.Wrap(err, "unmarshal generate response")
	}
	return nil
}

func (c *Client) recordCircuitResult(err error) {
	if !c.circuitEnabled || c.breaker == nil {
		return
	}
	if err == nil {
		c.breaker.RecordSuccess()
		return
	}
	if stderrors.Is(err, errStrategistTransient) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
