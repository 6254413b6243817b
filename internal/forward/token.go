package forward

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/visionline/api-middleware/internal/metrics"
)

// ErrTokenRequest is returned when the token endpoint rejects the grant.
var ErrTokenRequest = errors.New("token request failed")

// TokenSource holds the process-wide bearer token for one downstream target.
// The token is fetched lazily on first use with an OAuth password grant and
// refreshed when expired or invalidated after a 401. All acquisition happens
// under a single lock so concurrent deliveries never race redundant fetches.
type TokenSource struct {
	tokenURL string
	username string
	password string
	client   *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	now       func() time.Time
}

// NewTokenSource creates a token source for tokenURL with the given password
// grant credentials.
func NewTokenSource(tokenURL, username, password string, timeout time.Duration) *TokenSource {
	return &TokenSource{
		tokenURL: tokenURL,
		username: username,
		password: password,
		client:   &http.Client{Timeout: timeout},
		now:      time.Now,
	}
}

// tokenResponse is the OAuth token endpoint response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Token returns a valid bearer token, fetching one if the cached token is
// absent or stale.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && s.now().Before(s.expiresAt) {
		return s.token, nil
	}
	return s.fetchLocked(ctx)
}

// Invalidate drops the cached token, but only if it is still the one the
// caller saw fail. Under concurrent 401s the first invalidation wins and the
// rest reuse whatever the next Token call fetched.
func (s *TokenSource) Invalidate(old string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == old {
		s.token = ""
		s.expiresAt = time.Time{}
	}
}

func (s *TokenSource) fetchLocked(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", s.username)
	form.Set("password", s.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrTokenRequest, resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access_token", ErrTokenRequest)
	}

	s.token = tr.AccessToken
	if tr.ExpiresIn > 0 {
		// Refresh slightly early so a token never expires mid-delivery.
		s.expiresAt = s.now().Add(time.Duration(tr.ExpiresIn)*time.Second - 30*time.Second)
	} else {
		s.expiresAt = s.now().Add(time.Hour)
	}
	metrics.TokenRefreshesTotal.Inc()
	log.WithField("token_url", s.tokenURL).Info("fetched downstream auth token")
	return s.token, nil
}
