// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/taibuivan/manhwaru/internal/platform/apperr"
)

// # Catalogue Search

const (
	// paginationCeiling is the deepest result window the upstream catalogue
	// serves; offset+limit beyond it is rejected before any network touch.
	paginationCeiling = 10_000

	// maxSearchLimit is the upstream page-size cap; larger requests clamp.
	maxSearchLimit = 100

	// defaultSearchLimit applies when a query carries no page size.
	defaultSearchLimit = 20
)

// effectiveLimit resolves the page size the query will actually request.
func (q Query) effectiveLimit() int {
	switch {
	case q.Limit <= 0:
		return defaultSearchLimit
	case q.Limit > maxSearchLimit:
		return maxSearchLimit
	default:
		return q.Limit
	}
}

// values encodes the query into the upstream parameter set. Relevance
// ordering and the relationship includes are always requested; the
// content-rating filter falls back to the family-safe default.
func (q Query) values() url.Values {
	v := url.Values{}

	if q.Title != "" {
		v.Set("title", q.Title)
	}
	v.Set("limit", strconv.Itoa(q.effectiveLimit()))
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}

	ratings := q.ContentRatings
	if len(ratings) == 0 {
		ratings = defaultContentRatings
	}
	for _, rating := range ratings {
		v.Add("contentRating[]", rating)
	}

	for _, status := range q.Statuses {
		v.Add("status[]", status)
	}
	for _, demographic := range q.Demographics {
		v.Add("publicationDemographic[]", demographic)
	}
	for _, tag := range q.IncludedTags {
		v.Add("includedTags[]", tag)
	}
	for _, tag := range q.ExcludedTags {
		v.Add("excludedTags[]", tag)
	}
	for _, language := range q.OriginalLanguages {
		v.Add("originalLanguage[]", language)
	}

	v.Set("order[relevance]", "desc")
	for _, include := range mandatoryIncludes {
		v.Add("includes[]", include)
	}
	return v
}

/*
Search queries the upstream catalogue and transforms every hit.

Description: The pagination ceiling is validated first, before the rate
gate or the network is touched, so an impossible window never burns a
limiter slot. The page size is clamped to the upstream maximum.

Parameters:
  - ctx: context.Context
  - q: Query (Filters, paging, and language curation)

Returns:
  - []Manga: Transformed partial records, possibly empty
  - error: PaginationLimitExceeded, RateLimited, or a normalised upstream failure
*/
func (c *Client) Search(ctx context.Context, q Query) ([]Manga, error) {

	// Window validation before any limiter or network touch
	if q.Offset+q.effectiveLimit() > paginationCeiling {
		return nil, apperr.PaginationLimit(fmt.Sprintf(
			"Search window exceeds the upstream ceiling of %d results", paginationCeiling))
	}

	var out mangaListResponse
	if err := c.send(ctx, request{method: http.MethodGet, path: "/manga", query: q.values()}, &out); err != nil {
		return nil, err
	}

	records := make([]Manga, 0, len(out.Data))
	for _, entry := range out.Data {
		records = append(records, transformManga(entry))
	}
	return records, nil
}
