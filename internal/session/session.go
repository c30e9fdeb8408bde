package session

import (
	"log"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
)

// Pool of phone browser user-agents the client rotates through. One is
// picked at random on first use and retained until the session resets.
var userAgentPool = []string{
	"Mozilla/5.0 (Android 14; Mobile; rv:126.0) Gecko/126.0 Firefox/126.0",
	"Mozilla/5.0 (Android 13; Mobile; rv:125.0) Gecko/125.0 Firefox/125.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.6367.82 Mobile Safari/537.36",
	"Mozilla/5.0 (Linux; Android 13; SM-G991B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.6312.99 Mobile Safari/537.36",
}

// Identity is the browser-shaped identity presented to the provider.
type Identity struct {
	UserAgent   string
	Fingerprint string
}

// Session holds the process-wide provider identity: user-agent, version
// fingerprint and cookie jar. It is shared by all in-flight queries, so
// every mutation happens under the lock and a reset swaps the whole
// identity at once rather than field by field.
type Session struct {
	mu       sync.RWMutex
	identity Identity
	jar      http.CookieJar
}

func New() *Session {
	return &Session{jar: newJar()}
}

func newJar() http.CookieJar {
	jar, err := cookiejar.New(nil)
	if err != nil {
		// cookiejar.New never fails with nil options
		log.Printf("Warning: failed to create cookie jar: %v", err)
	}
	return jar
}

// Identity returns a consistent snapshot of the current identity.
func (s *Session) Identity() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// EnsureUserAgent picks a random user-agent from the pool if none is
// selected yet, and returns the active one.
func (s *Session) EnsureUserAgent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity.UserAgent == "" {
		s.identity.UserAgent = userAgentPool[rand.Intn(len(userAgentPool))]
		log.Printf("Using user-agent: %s", s.identity.UserAgent)
	}
	return s.identity.UserAgent
}

func (s *Session) SetFingerprint(version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity.Fingerprint = version
}

// Reset discards the whole identity: user-agent, fingerprint and
// cookies. The next outbound call re-selects and re-bootstraps.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = Identity{}
	s.jar = newJar()
}

// ClearCookies drops accumulated cookies but keeps the identity.
func (s *Session) ClearCookies() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jar = newJar()
}

// Session implements http.CookieJar by delegating to the current inner
// jar, so an http.Client can hold the session directly and observe jar
// swaps atomically.

func (s *Session) SetCookies(u *url.URL, cookies []*http.Cookie) {
	s.mu.RLock()
	jar := s.jar
	s.mu.RUnlock()
	jar.SetCookies(u, cookies)
}

func (s *Session) Cookies(u *url.URL) []*http.Cookie {
	s.mu.RLock()
	jar := s.jar
	s.mu.RUnlock()
	return jar.Cookies(u)
}
