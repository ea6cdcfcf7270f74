// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package upstream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/manhwaru/internal/platform/apperr"
)

// # Session Tokens

const (
	// tokenLifetime is the documented validity of an upstream session token.
	tokenLifetime = 15 * time.Minute

	// tokenRefreshMargin is how much remaining validity triggers a proactive
	// refresh, so a token is never presented in its final minute.
	tokenRefreshMargin = time.Minute
)

// tokenManager holds the cached session token. All access goes through the
// mutex; the login round-trip runs while it is held, so concurrent expiry
// can never cause more than one outstanding login.
type tokenManager struct {
	mu      sync.Mutex
	session string
	expiry  time.Time
}

// invalidate discards the cached token, but only when it still matches the
// one that was rejected. A token refreshed by a parallel request survives.
func (t *tokenManager) invalidate(rejected string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == rejected {
		t.session = ""
		t.expiry = time.Time{}
	}
}

/*
sessionToken returns a session token with at least the refresh margin of
validity left, logging in again when the cached one is missing or too old.

Parameters:
  - ctx: context.Context

Returns:
  - string: A bearer token for protected upstream endpoints
  - error: Unauthorised when credentials are absent or rejected
*/
func (c *Client) sessionToken(ctx context.Context) (string, error) {
	c.tokens.mu.Lock()
	defer c.tokens.mu.Unlock()

	// Cached token still inside its safety margin
	if c.tokens.session != "" && time.Until(c.tokens.expiry) > tokenRefreshMargin {
		return c.tokens.session, nil
	}

	session, expiry, err := c.login(ctx)
	if err != nil {
		return "", err
	}

	c.tokens.session = session
	c.tokens.expiry = expiry
	return session, nil
}

// login performs the credential exchange. It goes through the same rate
// gate as every other request, consuming from the login overlay.
func (c *Client) login(ctx context.Context) (string, time.Time, error) {
	if c.username == "" || c.secret == "" {
		return "", time.Time{}, apperr.Unauthorized("Upstream credentials are not configured")
	}

	var out loginResponse
	err := c.attempt(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   loginRequest{Username: c.username, Password: c.secret},
	}, &out)
	if err != nil {
		return "", time.Time{}, err
	}
	if out.Token.Session == "" {
		return "", time.Time{}, apperr.Unauthorized("Upstream login returned no session token")
	}

	return out.Token.Session, tokenExpiry(out.Token.Session, time.Now()), nil
}

// tokenExpiry derives the token deadline from its JWT exp claim. The parse
// is unverified (we do not hold the upstream signing key) and the documented
// lifetime acts as a ceiling, so a forged or clock-skewed claim can never
// extend a token beyond 15 minutes.
func tokenExpiry(token string, now time.Time) time.Time {
	ceiling := now.Add(tokenLifetime)

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		return ceiling
	}
	if claims.ExpiresAt.Time.Before(ceiling) {
		return claims.ExpiresAt.Time
	}
	return ceiling
}
