package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"

	"farefeed/internal/cache"
	"farefeed/internal/config"
	"farefeed/internal/session"
)

var (
	// ErrBotDetected signals the provider flagged the traffic as
	// automated. The whole query must abort and be retried later with
	// the fresh identity the reset produced.
	ErrBotDetected = errors.New("bot detected, session reset")

	// ErrNoData signals a single probe yielded nothing usable.
	ErrNoData = errors.New("no data from provider")
)

// Case-sensitive marker the provider embeds in bot-detection responses.
const captchaMarker = "captcha"

// The bootstrap page embeds the provider build version in its inline
// monitoring config; the same value is expected back in the x-version
// request header.
var versionPattern = regexp.MustCompile(`"version"\s*:\s*"([0-9][^"]*)"`)

// Client issues outbound calls to the provider disguised as ordinary
// browser traffic: rotating user-agent, scraped version fingerprint,
// cookie continuity, and a cached response layer that serves stale data
// while the provider is erroring.
type Client struct {
	httpClient *http.Client
	session    *session.Session
	cache      *cache.Manager
	cfg        *config.Config
}

func New(cfg *config.Config, sess *session.Session, cacheManager *cache.Manager) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
			Jar:     sess,
		},
		session: sess,
		cache:   cacheManager,
		cfg:     cfg,
	}
}

// Session exposes the shared provider session, mainly for callers that
// need to inspect identity state.
func (c *Client) Session() *session.Session {
	return c.session
}

// Get performs a cached GET against the provider.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url, nil)
}

// Post performs a cached POST with a JSON body against the provider.
func (c *Client) Post(ctx context.Context, url string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, url, body)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	key := cache.Key(method, url, body)
	if cached, found := c.cache.GetFresh(key); found {
		return cached, nil
	}

	c.ensureIdentity(ctx)

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %v", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport-level failure: drop cookies defensively, the probe
		// degrades but the query continues.
		log.Printf("Transport error for %s %s: %v", method, url, err)
		c.session.ClearCookies()
		if stale, found := c.cache.GetStale(key); found {
			log.Printf("Serving stale response for %s", url)
			return stale, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("Failed to read response from %s: %v", url, err)
		return nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}

	if bytes.Contains(respBody, []byte(captchaMarker)) {
		log.Printf("Bot detected on %s, resetting session", url)
		c.session.Reset()
		return nil, ErrBotDetected
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("Error from provider for %s: status %d", url, resp.StatusCode)
		if stale, found := c.cache.GetStale(key); found {
			log.Printf("Serving stale response for %s", url)
			return stale, nil
		}
		return nil, fmt.Errorf("%w: status %d", ErrNoData, resp.StatusCode)
	}

	c.cache.Store(key, respBody)
	return respBody, nil
}

func (c *Client) setHeaders(req *http.Request) {
	identity := c.session.Identity()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")
	req.Header.Set("User-Agent", identity.UserAgent)
	if identity.Fingerprint != "" {
		req.Header.Set("x-version", identity.Fingerprint)
	}
}

// ensureIdentity selects a user-agent if none is active and scrapes the
// version fingerprint from the bootstrap page when missing. Fingerprint
// failures are logged, not fatal: probes still go out without the
// header.
func (c *Client) ensureIdentity(ctx context.Context) {
	c.session.EnsureUserAgent()

	if c.session.Identity().Fingerprint != "" {
		return
	}

	version, err := c.fetchFingerprint(ctx)
	if err != nil {
		log.Printf("Warning: failed to fetch version fingerprint: %v", err)
		return
	}
	log.Printf("Using provider version fingerprint: %s", version)
	c.session.SetFingerprint(version)
}

func (c *Client) fetchFingerprint(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.ProviderURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.session.Identity().UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("bootstrap page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	match := versionPattern.FindSubmatch(body)
	if match == nil {
		return "", errors.New("version fingerprint not found in bootstrap page")
	}
	return string(match[1]), nil
}
