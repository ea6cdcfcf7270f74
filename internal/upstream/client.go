// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package upstream implements the client for the external manga catalogue that
Manhwaru imports from and synchronises against.

The catalogue is a public REST API with strict fair-use windows, so the
client wraps every call in a two-level rate gate and fails fast when a
window is exhausted instead of queueing requests behind it.

Architecture:

  - Rate gate: per-endpoint overlay limiters checked before a global bucket.
  - Sessions: credential login with proactive token refresh and a single
    re-login retry when a protected request answers 401.
  - Normalisation: upstream error envelopes map onto [apperr.AppError] codes.
  - Transform: wire records reduce to partial [Manga] values; the catalogue
    service owns the merge into local entities.

All operations honour caller cancellation and a 10 second request deadline.
*/
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/taibuivan/manhwaru/internal/platform/apperr"
)

// # Client

const (
	// requestTimeout caps every upstream round-trip.
	requestTimeout = 10 * time.Second

	// maxResponseBytes bounds how much of an upstream body is read.
	maxResponseBytes = 4 << 20
)

// mandatoryIncludes are the relationship expansions every record fetch
// requests, so covers and creator names arrive in one round-trip.
var mandatoryIncludes = []string{"cover_art", "author", "artist"}

// defaultContentRatings is applied when a query carries no explicit rating
// filter, keeping the catalogue surface family-safe by default.
var defaultContentRatings = []string{"safe", "suggestive"}

// Config carries the connection settings for the upstream catalogue.
type Config struct {
	BaseURL      string
	CoverBaseURL string
	UserAgent    string
	Username     string
	Secret       string
}

// Client is a rate-limited, token-authenticated upstream catalogue client.
// It is safe for concurrent use.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	coverBaseURL string
	userAgent    string
	username     string
	secret       string
	gate         *gate
	tokens       *tokenManager
	logger       *slog.Logger
}

// NewClient constructs a [Client] from the given settings. Credentials may
// be empty; protected endpoints then fail with Unauthorised when touched.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: requestTimeout},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		coverBaseURL: strings.TrimRight(cfg.CoverBaseURL, "/"),
		userAgent:    cfg.UserAgent,
		username:     cfg.Username,
		secret:       cfg.Secret,
		gate:         newGate(),
		tokens:       &tokenManager{},
		logger:       logger,
	}
}

// # Transport

// request describes one upstream call before it is built into an
// *http.Request.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
}

// sessionRejectedError marks a 401 on a protected path. It carries the
// token that was presented so invalidation cannot discard a newer one.
type sessionRejectedError struct {
	token string
}

func (e *sessionRejectedError) Error() string {
	return "upstream: session token rejected"
}

// send performs the request with the 401 recovery contract: on a rejected
// token the client logs in again once and retries the same request once. A
// second rejection surfaces as Unauthorised.
func (c *Client) send(ctx context.Context, req request, out any) error {
	err := c.attempt(ctx, req, out)

	var rejected *sessionRejectedError
	if errors.As(err, &rejected) {
		c.tokens.invalidate(rejected.token)

		err = c.attempt(ctx, req, out)
		if errors.As(err, &rejected) {
			return apperr.Unauthorized("Upstream rejected the session credentials")
		}
	}
	return err
}

// attempt performs a single round-trip: rate gate, token attachment for
// protected paths, the HTTP exchange, and error normalisation.
func (c *Client) attempt(ctx context.Context, req request, out any) error {

	// Rate windows, overlay before global
	if err := c.gate.allow(overlayKey(req.path)); err != nil {
		return err
	}

	// Request assembly
	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return apperr.Internal(fmt.Errorf("upstream: failed to encode request body: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	endpoint := c.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return apperr.Internal(fmt.Errorf("upstream: failed to build request: %w", err))
	}

	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	// Session token, only for protected endpoints
	protected := isProtectedPath(req.path)
	var attached string
	if protected {
		token, err := c.sessionToken(ctx)
		if err != nil {
			return err
		}
		attached = token
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	// Exchange
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return apperr.External("Upstream request failed", 0, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apperr.External("Upstream response could not be read", resp.StatusCode, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && protected {
		return &sessionRejectedError{token: attached}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return normalizeError(resp.StatusCode, payload)
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return apperr.External("Upstream returned a malformed response", resp.StatusCode, err)
		}
	}
	return nil
}

// protectedPatterns lists the upstream endpoints that require a session
// token. A "*" segment matches exactly one path segment.
var protectedPatterns = []string{
	"/user",
	"/manga/draft",
	"/upload",
	"/chapter/*/read",
}

func isProtectedPath(path string) bool {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	for _, pattern := range protectedPatterns {
		if matchSegments(pattern, path) {
			return true
		}
	}
	return false
}

// matchSegments reports whether every pattern segment matches the leading
// path segments in order.
func matchSegments(pattern, path string) bool {
	want := strings.Split(strings.Trim(pattern, "/"), "/")
	have := strings.Split(strings.Trim(path, "/"), "/")
	if len(have) < len(want) {
		return false
	}
	for i, segment := range want {
		if segment != "*" && segment != have[i] {
			return false
		}
	}
	return true
}

// Upstream error identifiers, matched against the first entry of an error
// envelope.
const (
	errCaptchaRequired = "captcha_required_exception"
	errValidation      = "validation_exception"
	errEntityNotFound  = "entity_not_found_exception"
)

// normalizeError maps an upstream failure onto the local error framework.
// Unrecognised failures keep the upstream HTTP status.
func normalizeError(status int, payload []byte) error {
	var parsed errorResponse
	if err := json.Unmarshal(payload, &parsed); err == nil && parsed.Result == "error" && len(parsed.Errors) > 0 {
		first := parsed.Errors[0]
		switch first.Title {
		case errCaptchaRequired:
			return apperr.CaptchaRequired()
		case errValidation:
			detail := first.Detail
			if detail == "" {
				detail = "Upstream rejected the request parameters"
			}
			return apperr.BadInput(detail)
		case errEntityNotFound:
			return apperr.NotFound("Manga")
		}
	}
	return apperr.External(fmt.Sprintf("Upstream request failed with status %d", status), status, nil)
}

// # Record Operations

/*
GetManga fetches a single upstream record by its stable identifier.

Description: The record is requested with the mandatory relationship
includes so the transform can resolve creator names and cover art without
further round-trips.

Parameters:
  - ctx: context.Context
  - upstreamID: string (UUID-shaped upstream identifier)

Returns:
  - *Manga: The transformed partial record
  - error: NotFound when the identifier is unknown upstream
*/
func (c *Client) GetManga(ctx context.Context, upstreamID string) (*Manga, error) {
	query := url.Values{}
	for _, include := range mandatoryIncludes {
		query.Add("includes[]", include)
	}

	var out mangaResponse
	if err := c.send(ctx, request{method: http.MethodGet, path: "/manga/" + upstreamID, query: query}, &out); err != nil {
		return nil, err
	}

	record := transformManga(out.Data)
	return &record, nil
}

/*
GetRandom fetches one random record from the upstream catalogue.

Description: The random endpoint has its own upstream fair-use window, so
this call consumes from the "random" overlay before the global bucket. The
default content-rating filter keeps the draw family-safe.

Parameters:
  - ctx: context.Context

Returns:
  - *Manga: The transformed partial record
  - error: RateLimited when a window is exhausted
*/
func (c *Client) GetRandom(ctx context.Context) (*Manga, error) {
	query := url.Values{}
	for _, rating := range defaultContentRatings {
		query.Add("contentRating[]", rating)
	}
	for _, include := range mandatoryIncludes {
		query.Add("includes[]", include)
	}

	var out mangaResponse
	if err := c.send(ctx, request{method: http.MethodGet, path: "/manga/random", query: query}, &out); err != nil {
		return nil, err
	}

	record := transformManga(out.Data)
	return &record, nil
}

/*
ListTags fetches the upstream tag dictionary.

Description: Tags are advisory data used to translate local genre slugs
into upstream tag identifiers. A missing English name falls back to any
localisation, and any failure yields an empty dictionary rather than an
error so searches degrade instead of breaking.

Parameters:
  - ctx: context.Context

Returns:
  - []Tag: The dictionary entries, empty on failure
*/
func (c *Client) ListTags(ctx context.Context) []Tag {
	var out tagListResponse
	if err := c.send(ctx, request{method: http.MethodGet, path: "/manga/tag"}, &out); err != nil {
		c.logger.Warn("upstream_tag_dictionary_failed", slog.String("error", err.Error()))
		return []Tag{}
	}

	tags := make([]Tag, 0, len(out.Data))
	for _, entry := range out.Data {
		name := pickLocalised(entry.Attributes.Name)
		if name == "" {
			continue
		}
		tags = append(tags, Tag{ID: entry.ID, Name: name, Group: entry.Attributes.Group})
	}
	return tags
}

// Cover quality suffixes served by the upstream CDN.
const (
	coverSuffixThumb  = ".256.jpg"
	coverSuffixMedium = ".512.jpg"
)

// CoverURLs derives the three cover resolutions for an upstream record.
// Records without cover art yield empty URLs.
func (c *Client) CoverURLs(upstreamID, filename string) Covers {
	if upstreamID == "" || filename == "" {
		return Covers{}
	}

	base := fmt.Sprintf("%s/covers/%s/%s", c.coverBaseURL, upstreamID, filename)
	return Covers{
		Thumb:  base + coverSuffixThumb,
		Medium: base + coverSuffixMedium,
		Large:  base,
	}
}
