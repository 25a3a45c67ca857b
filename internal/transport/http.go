// Package transport fetches raw disclosure pages from the KAP platform.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alperaydin/kapmirror/internal/mirror"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0 Safari/537.36"

// Config controls the HTTP client used to reach the disclosure platform.
type Config struct {
	BaseURL   string
	UserAgent string
	ProxyURL  string
	Bearer    string
	Timeout   time.Duration
}

// Client is a plain HTTP implementation of mirror.Transport. One GET per
// numeric id, no redirect chasing beyond the default client behavior.
type Client struct {
	base      string
	userAgent string
	bearer    string
	http      *http.Client
	logger    *zap.Logger
}

// New builds a Client. A non-empty ProxyURL routes every request through the
// given proxy instead of honoring process environment proxies.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("source.base_url is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tr := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if cfg.ProxyURL != "" {
		proxy, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		tr.Proxy = http.ProxyURL(proxy)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		base:      strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: userAgent,
		bearer:    cfg.Bearer,
		http:      &http.Client{Transport: tr, Timeout: timeout},
		logger:    logger,
	}, nil
}

// Get fetches the disclosure page for one id in the given language.
// A 404 means the id does not exist on the platform; any other failure is
// transient and safe to retry.
func (c *Client) Get(ctx context.Context, language string, id int64) (*mirror.Document, error) {
	return c.GetURL(ctx, fmt.Sprintf("%s/%s/Bildirim/%d", c.base, language, id), language)
}

// CompanyListURL returns the address of the listed-companies summary page.
func (c *Client) CompanyListURL(language string) string {
	return fmt.Sprintf("%s/%s/bist-sirketler", c.base, language)
}

// GetURL fetches an arbitrary page on the platform with the same headers and
// error classification as Get.
func (c *Client) GetURL(ctx context.Context, pageURL, language string) (*mirror.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", language)
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &mirror.TransientError{
			Cause: mirror.CauseNetwork,
			Err:   fmt.Errorf("get %s: %w", pageURL, err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, mirror.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &mirror.TransientError{
			Cause: mirror.CauseNetwork,
			Err:   fmt.Errorf("get %s: unexpected status %d", pageURL, resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &mirror.TransientError{
			Cause: mirror.CauseNetwork,
			Err:   fmt.Errorf("read body for %s: %w", pageURL, err),
		}
	}

	c.logger.Debug("fetched page", zap.String("url", pageURL), zap.Int("bytes", len(body)))
	return &mirror.Document{URL: pageURL, Body: body}, nil
}
