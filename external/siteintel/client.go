package siteintel

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/marketpilot/journey-engine/internal/domain/profile"
	"github.com/marketpilot/journey-engine/internal/platform/logging"
	"github.com/marketpilot/journey-engine/internal/platform/resilience"
	"github.com/marketpilot/journey-engine/internal/usecase"
)

const (
	defaultTimeout    = 20 * time.Second
	maxResponseBytes  = 1 << 20
	analyzePathSuffix = "/v1/analyze"
)

var errSiteIntelTransient = crerr.New("siteintel transient failure")

type ClientConfig struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client calls the website-intelligence service that turns a public URL
// into structured business facts.
type Client struct {
	httpClient     *fasthttp.Client
	analyzeURL     string
	apiKey         string
	maxRetries     int
	timeout        time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		analyzeURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/") + analyzePathSuffix,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		timeout:        timeout,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type analyzeRequest struct {
	URL string `json:"url"`
}

type analyzeResponse struct {
	Summary             string   `json:"summary"`
	CompanyName         string   `json:"company_name"`
	Industry            string   `json:"industry"`
	CompanyOverview     string   `json:"company_overview"`
	TargetMarket        string   `json:"target_market"`
	UniqueSellingPoints []string `json:"unique_selling_points"`
}

// Analyze implements usecase.WebsiteAnalyzer.
func (c *Client) Analyze(ctx context.Context, websiteURL string) (usecase.WebsiteAnalysis, error) {
	websiteURL = strings.TrimSpace(websiteURL)
	if _, err := validateWebsiteURL(websiteURL); err != nil {
		return usecase.WebsiteAnalysis{}, err
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "siteintel circuit breaker rejected request", "state", c.breaker.State())
			return usecase.WebsiteAnalysis{}, fmt.Errorf("siteintel is temporarily unavailable: %w", err)
		}
	}

	body, err := sonic.Marshal(analyzeRequest{URL: websiteURL})
	if err != nil {
		return usecase.WebsiteAnalysis{}, crerr.Wrap(err, "marshal analyze request")
	}

	var decoded analyzeResponse
	callErr := c.doWithRetries(ctx, body, &decoded)
	c.recordCircuitResult(callErr)
	if callErr != nil {
		return usecase.WebsiteAnalysis{}, callErr
	}

	return usecase.WebsiteAnalysis{
		Summary:         strings.TrimSpace(decoded.Summary),
		SuggestedFields: suggestedFields(decoded),
	}, nil
}

func (c *Client) doWithRetries(ctx context.Context, body []byte, out *analyzeResponse) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return crerr.Wrap(err, "analyze canceled")
		}
		if attempt > 0 {
			c.logger.WarnContext(ctx, "retrying siteintel analyze",
				"attempt", attempt,
				"error", lastErr)
		}

		lastErr = c.doOnce(body, out)
		if lastErr == nil {
			return nil
		}
		if !stderrors.Is(lastErr, errSiteIntelTransient) {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) doOnce(body []byte, out *analyzeResponse) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.analyzeURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.SetBody(body)

	if err := c.httpClient.DoTimeout(req, resp, c.timeout); err != nil {
		return fmt.Errorf("%w: analyze request: %v", errSiteIntelTransient, err)
	}

	status := resp.StatusCode()
	if status/100 != 2 {
		raw := resp.Body()
		if len(raw) > 512 {
			raw = raw[:512]
		}
		if isRetryableStatus(status) {
			return fmt.Errorf("%w: analyze status=%d body=%s", errSiteIntelTransient, status, strings.TrimSpace(string(raw)))
		}
		return crerr.Newf("analyze failed status=%d body=%s", status, strings.TrimSpace(string(raw)))
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	raw := resp.Body()
	if len(raw) > maxResponseBytes {
		raw = raw[:maxResponseBytes]
	}
	_, _ = buf.Write(raw)

	if err := sonic.Unmarshal(buf.Bytes(), out); err != nil {
		return crerr.Wrap(err, "unmarshal analyze response")
	}
	return nil
}

func suggestedFields(decoded analyzeResponse) map[string]any {
	fields := make(map[string]any, 5)
	if v := strings.TrimSpace(decoded.CompanyName); v != "" {
		fields[profile.FieldCompanyName] = v
	}
	if v := strings.TrimSpace(decoded.Industry); v != "" {
		fields[profile.FieldIndustry] = v
	}
	if v := strings.TrimSpace(decoded.CompanyOverview); v != "" {
		fields[profile.FieldCompanyOverview] = v
	}
	if v := strings.TrimSpace(decoded.TargetMarket); v != "" {
		fields[profile.FieldTargetMarket] = v
	}
	if len(decoded.UniqueSellingPoints) > 0 {
		fields[profile.FieldUniqueSellingPoints] = decoded.UniqueSellingPoints
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func validateWebsiteURL(raw string) (string, error) {
	if raw == "" {
		return "", crerr.New("website url is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", raw)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", raw, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", raw)
	}
	return raw, nil
}

func (c *Client) recordCircuitResult(err error) {
	if !c.circuitEnabled || c.breaker == nil {
		return
	}
	if err == nil {
		c.breaker.RecordSuccess()
		return
	}
	if stderrors.Is(err, errSiteIntelTransient) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == fasthttp.StatusRequestTimeout ||
		statusCode == fasthttp.StatusTooManyRequests ||
		statusCode >= fasthttp.StatusInternalServerError
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
