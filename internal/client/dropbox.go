package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"catalog/sync/internal/config"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

const (
	defaultTokenLifetime = 3600 * time.Second
	// tokens are refreshed this long before the provider expires them
	tokenRefreshMargin = 60 * time.Second
	tokenReuseMargin   = 30 * time.Second
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// TokenSource hands out a short-lived bearer token obtained with the
// refresh-token grant, reusing it until shortly before it expires.
type TokenSource struct {
	cfg        config.DropboxConfig
	httpClient *resty.Client
	now        func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewTokenSource(cfg config.DropboxConfig, httpClient *resty.Client) *TokenSource {
	return &TokenSource{
		cfg:        cfg,
		httpClient: httpClient,
		now:        time.Now,
	}
}

func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.token != "" && s.expiresAt.After(now.Add(tokenReuseMargin)) {
		return s.token, nil
	}

	var tok tokenResponse
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetBasicAuth(s.cfg.AppKey, s.cfg.AppSecret).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": s.cfg.RefreshToken,
		}).
		SetResult(&tok).
		Post(s.cfg.TokenURL)
	if err != nil {
		return "", fmt.Errorf("%w: token request failed: %v", ErrUpstream, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: OAuth token error %d: %s", ErrUpstream, resp.StatusCode(), resp.String())
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: OAuth response without access_token", ErrUpstream)
	}

	lifetime := defaultTokenLifetime
	if tok.ExpiresIn > 0 {
		lifetime = time.Duration(tok.ExpiresIn) * time.Second
	}
	s.token = tok.AccessToken
	s.expiresAt = now.Add(lifetime - tokenRefreshMargin)

	log.Debugf("🔑 Access token refreshed, valid until %s", s.expiresAt.Format("15:04:05"))
	return s.token, nil
}

type dropboxSource struct {
	rl         ratelimit.Limiter
	cfg        config.DropboxConfig
	httpClient *resty.Client
	tokens     *TokenSource
}

// NewDropboxSource downloads exports through the Dropbox content API
func NewDropboxSource(cfg config.DropboxConfig) SheetSource {
	httpClient := newHTTPClient(cfg.Timeout, cfg.MaxRetries)

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	return &dropboxSource{
		rl:         rl,
		cfg:        cfg,
		httpClient: httpClient,
		tokens:     NewTokenSource(cfg, httpClient),
	}
}

func newHTTPClient(timeoutSeconds, retries int) *resty.Client {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 60
	}
	return resty.New().
		SetTimeout(time.Duration(timeoutSeconds)*time.Second).
		SetRetryCount(retries).
		SetRetryWaitTime(2*time.Second).
		SetRetryMaxWaitTime(10*time.Second).
		SetHeader("User-Agent", "catalog-sync/1.0")
}

func (s *dropboxSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	arg, err := json.Marshal(map[string]string{"path": path})
	if err != nil {
		return nil, fmt.Errorf("failed to encode download argument: %w", err)
	}

	s.rl.Take()

	log.Infof("📥 Downloading %s...", path)
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Dropbox-API-Arg", string(arg)).
		Post(s.cfg.ContentURL + "/2/files/download")
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: failed to download %s: %v", ErrUpstream, path, err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("%w: HTTP error downloading %s: %d %s", ErrUpstream, path, resp.StatusCode(), resp.Status())
	}

	return resp.Bytes(), nil
}
