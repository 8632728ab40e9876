package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"endurance/internal/logger"
)

// refreshBuffer refreshes tokens slightly before they expire
const refreshBuffer = 60 * time.Second

// TokenSaver persists refreshed tokens. *store.DB implements it.
type TokenSaver interface {
	UpdateTokens(accessToken, refreshToken string, expiresAt time.Time) error
}

// TokenSource refreshes the Strava token when it is about to expire and
// persists every new token before handing it out
type TokenSource struct {
	mu     sync.Mutex
	ctx    context.Context
	config *oauth2.Config
	token  *oauth2.Token
	saver  TokenSaver
	now    func() time.Time
}

// NewTokenSource creates a TokenSource. ctx is used for refresh requests.
func NewTokenSource(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token, saver TokenSaver) *TokenSource {
	return &TokenSource{
		ctx:    ctx,
		config: cfg,
		token:  token,
		saver:  saver,
		now:    time.Now,
	}
}

// Token returns a valid token, refreshing if necessary
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token.Expiry.Sub(ts.now()) > refreshBuffer {
		return ts.token, nil
	}

	// force a refresh: the oauth2 source only refreshes once the token is fully expired
	stale := *ts.token
	stale.Expiry = ts.now().Add(-time.Second)
	stale.AccessToken = ""

	newToken, err := ts.config.TokenSource(ts.ctx, &stale).Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}

	if ts.saver != nil {
		if err := ts.saver.UpdateTokens(newToken.AccessToken, newToken.RefreshToken, newToken.Expiry); err != nil {
			return nil, fmt.Errorf("saving refreshed token: %w", err)
		}
	}

	logger.Named("auth").Info(ts.ctx, "refreshed strava token",
		logger.String("expires", newToken.Expiry.Format(time.RFC3339)))

	ts.token = newToken
	return newToken, nil
}

// IsExpired checks if the current token is expired or will expire within the buffer
func (ts *TokenSource) IsExpired() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.token.Expiry.Sub(ts.now()) <= refreshBuffer
}
