package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vcavallo/dcf-estimate/logger"
)

const (
	query1URL      = "https://query1.finance.yahoo.com"
	query2URL      = "https://query2.finance.yahoo.com"
	cookieURL      = "https://fc.yahoo.com"
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	defaultTimeout = 10 * time.Second
)

// Client fetches market and fundamentals data from Yahoo Finance
type Client struct {
	httpClient    *http.Client
	chartURL      string
	timeseriesURL string
	summaryURL    string
	cookieURL     string
	crumbURL      string
	crumb         string
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request HTTP timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithBaseURL points every endpoint at a single host, e.g. a test server
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimRight(base, "/")
		c.chartURL = base + "/v8/finance/chart"
		c.timeseriesURL = base + "/ws/fundamentals-timeseries/v1/finance/timeseries"
		c.summaryURL = base + "/v10/finance/quoteSummary"
		c.cookieURL = base + "/"
		c.crumbURL = base + "/v1/test/getcrumb"
	}
}

// NewClient creates a new Yahoo Finance client
func NewClient(opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Jar:     jar,
		},
		chartURL:      query1URL + "/v8/finance/chart",
		timeseriesURL: query2URL + "/ws/fundamentals-timeseries/v1/finance/timeseries",
		summaryURL:    query2URL + "/v10/finance/quoteSummary",
		cookieURL:     cookieURL,
		crumbURL:      query2URL + "/v1/test/getcrumb",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiError is the error envelope shared by Yahoo's JSON endpoints
type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("API error: %s - %s", e.Code, e.Description)
}

// rawValue is Yahoo's {"raw": 1.0, "fmt": "1.00"} number wrapper. An empty
// object means the figure is not reported.
type rawValue struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

func (c *Client) newRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// getJSON performs a GET and decodes a 200 response into v
func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := c.newRequest(ctx, rawURL)
	if err != nil {
		return err
	}

	logger.Debug("yahoo request", zap.String("url", redactCrumb(rawURL)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// getCrumb obtains the session cookie and crumb token quoteSummary requires.
// The crumb is reused for the lifetime of the client.
func (c *Client) getCrumb(ctx context.Context) (string, error) {
	if c.crumb != "" {
		return c.crumb, nil
	}

	// The seed page only sets cookies; its status is irrelevant.
	seedReq, err := c.newRequest(ctx, c.cookieURL)
	if err != nil {
		return "", err
	}
	seedResp, err := c.httpClient.Do(seedReq)
	if err != nil {
		return "", fmt.Errorf("seeding cookies: %w", err)
	}
	seedResp.Body.Close()

	req, err := c.newRequest(ctx, c.crumbURL)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching crumb: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading crumb: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("crumb endpoint returned %d", resp.StatusCode)
	}

	crumb := strings.TrimSpace(string(body))
	if crumb == "" {
		return "", fmt.Errorf("empty crumb returned")
	}

	c.crumb = crumb
	return crumb, nil
}

func redactCrumb(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if q.Has("crumb") {
		q.Set("crumb", "redacted")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func normalizeTicker(ticker string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return "", fmt.Errorf("ticker is required")
	}
	return ticker, nil
}
