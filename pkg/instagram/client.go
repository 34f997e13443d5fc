package instagram

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"ignonfollowers/pkg/config"
	apperrors "ignonfollowers/pkg/errors"
	"ignonfollowers/pkg/logger"
	"ignonfollowers/pkg/ratelimit"
)

// DefaultUserAgent is sent when the config does not override it
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// Options configures a Client
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	PageSize  int

	// Pacer spaces out page requests within one list; nil disables pacing
	Pacer *ratelimit.Pacer
	// Limiter caps requests per period; nil disables the cap
	Limiter ratelimit.Limiter

	Logger logger.Logger

	// Transport replaces the default HTTP transport (tests)
	Transport http.RoundTripper
}

// OptionsFromConfig builds client options from the loaded config
func OptionsFromConfig(cfg *config.Config, pacer *ratelimit.Pacer, limiter ratelimit.Limiter, log logger.Logger) Options {
	return Options{
		BaseURL:   BaseURL,
		UserAgent: cfg.Instagram.UserAgent,
		Timeout:   cfg.Client.RequestTimeout,
		PageSize:  cfg.Client.PageSize,
		Pacer:     pacer,
		Limiter:   limiter,
		Logger:    log,
	}
}

// Client talks to Instagram's web API with its own cookie jar. One Client
// holds at most one logged-in account.
type Client struct {
	httpClient *http.Client
	jar        http.CookieJar
	headers    map[string]string
	baseURL    *url.URL
	pageSize   int
	pacer      *ratelimit.Pacer
	limiter    ratelimit.Limiter
	logger     logger.Logger

	deviceID string
	username string
	userID   string

	// set while a two-factor challenge is pending
	twoFactorIdentifier string
}

// NewClient creates a logged-out client
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}

	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfig, "instagram.new_client", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnknown, "instagram.new_client", err)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Jar:       jar,
			Transport: opts.Transport,
			// API calls never redirect; a redirect means the login page
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		jar: jar,
		headers: map[string]string{
			"User-Agent":       opts.UserAgent,
			"Accept":           "*/*",
			"Accept-Language":  "en-US,en;q=0.9",
			"X-IG-App-ID":      AppID,
			"X-ASBD-ID":        ASBDID,
			"X-IG-WWW-Claim":   "0",
			"X-Requested-With": "XMLHttpRequest",
			"Origin":           base.String(),
			"Referer":          base.String() + "/",
		},
		baseURL:  base,
		pageSize: opts.PageSize,
		pacer:    opts.Pacer,
		limiter:  opts.Limiter,
		logger:   opts.Logger.WithField("component", "instagram"),
		deviceID: strings.ToUpper(uuid.New().String()),
	}, nil
}

// UserID returns the id of the logged-in account, or "" before login
func (c *Client) UserID() string {
	return c.userID
}

// Username returns the logged-in account name, or "" before login
func (c *Client) Username() string {
	return c.username
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

// csrfToken returns the csrftoken cookie, creating one if the server has
// not set it yet
func (c *Client) csrfToken() string {
	for _, ck := range c.jar.Cookies(c.baseURL) {
		if ck.Name == "csrftoken" && ck.Value != "" {
			return ck.Value
		}
	}
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	token := hex.EncodeToString(buf)
	c.jar.SetCookies(c.baseURL, []*http.Cookie{{Name: "csrftoken", Value: token, Path: "/"}})
	return token
}

// doRequest performs an HTTP request with the configured headers. It waits
// for the limiter first and never retries.
func (c *Client) doRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("X-Web-Device-Id", c.deviceID)
	if req.Method != http.MethodGet {
		req.Header.Set("X-CSRFToken", c.csrfToken())
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req.WithContext(ctx))
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"path":     req.URL.Path,
			"error":    err.Error(),
			"duration": elapsed,
		})
		return nil, apperrors.Wrap(apperrors.KindNetwork, "instagram.request", err)
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, elapsed)
	if resp.StatusCode == http.StatusTooManyRequests {
		logger.LogRateLimit(c.logger, req.URL.Path, resp.Header.Get("Retry-After"))
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnknown, "instagram.request", err)
	}
	return c.doRequest(ctx, req)
}

func (c *Client) postForm(ctx context.Context, rawURL string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnknown, "instagram.request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.doRequest(ctx, req)
}

// getJSON performs a GET request and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, op, rawURL string, target interface{}) error {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(op, resp); err != nil {
		return err
	}
	return c.decodeBody(op, resp, target)
}

func (c *Client) decodeBody(op string, resp *http.Response, target interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrap(apperrors.KindNetwork, op, fmt.Errorf("failed to read response body: %w", err))
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"op":           op,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": preview,
		})
		e := apperrors.Wrap(apperrors.KindParsing, op, err)
		e.Code = resp.StatusCode
		return e
	}
	return nil
}

// checkResponseStatus maps non-2xx responses to typed errors. A redirect
// is the platform sending us to the login page.
func (c *Client) checkResponseStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return &apperrors.Error{
			Kind:    apperrors.KindAuth,
			Reason:  apperrors.ReasonLoginRequired,
			Op:      op,
			Message: "redirected to " + resp.Header.Get("Location"),
			Code:    resp.StatusCode,
		}
	}
	if err := apperrors.FromStatus(op, resp.StatusCode); err != nil {
		c.logger.WarnWithFields("API error", map[string]interface{}{
			"op":     op,
			"status": resp.StatusCode,
			"kind":   string(err.Kind),
		})
		return err
	}
	return nil
}
