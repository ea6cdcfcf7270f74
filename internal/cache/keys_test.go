// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/manhwaru/internal/cache"
)

/*
TestEntityKey verifies the entity key layout.
*/
func TestEntityKey(t *testing.T) {
	assert.Equal(t, "manhwa:entity:42", cache.EntityKey(42))
}

/*
TestSearchKey_Canonical verifies that logically identical filters produce the
same key regardless of genre ordering.
*/
func TestSearchKey_Canonical(t *testing.T) {
	a := cache.SearchKey(cache.SearchKeyInput{
		Query:  "tower",
		Genres: []string{"action", "drama", "fantasy"},
		Status: "ongoing",
		Sort:   "updated",
		Page:   1,
		Limit:  20,
	})
	b := cache.SearchKey(cache.SearchKeyInput{
		Query:  "tower",
		Genres: []string{"fantasy", "action", "drama"},
		Status: "ongoing",
		Sort:   "updated",
		Page:   1,
		Limit:  20,
	})

	assert.Equal(t, a, b)
}

/*
TestSearchKey_Discriminates verifies that every filter dimension changes
the key.
*/
func TestSearchKey_Discriminates(t *testing.T) {
	base := cache.SearchKeyInput{
		Query:     "tower",
		Genres:    []string{"action"},
		Status:    "ongoing",
		YearStart: 2010,
		YearEnd:   2020,
		Sort:      "updated",
		Page:      1,
		Limit:     20,
	}

	tests := []struct {
		name   string
		mutate func(in cache.SearchKeyInput) cache.SearchKeyInput
	}{
		{"query", func(in cache.SearchKeyInput) cache.SearchKeyInput { in.Query = "gate"; return in }},
		{"genres", func(in cache.SearchKeyInput) cache.SearchKeyInput { in.Genres = []string{"drama"}; return in }},
		{"status", func(in cache.SearchKeyInput) cache.SearchKeyInput { in.Status = "completed"; return in }},
		{"year_start", func(in cache.SearchKeyInput) cache.SearchKeyInput { in.YearStart = 2012; return in }},
		{"year_end", func(in cache.SearchKeyInput) cache.SearchKeyInput { in.YearEnd = 2022; return in }},
		{"sort", func(in cache.SearchKeyInput) cache.SearchKeyInput { in.Sort = "created"; return in }},
		{"page", func(in cache.SearchKeyInput) cache.SearchKeyInput { in.Page = 2; return in }},
		{"limit", func(in cache.SearchKeyInput) cache.SearchKeyInput { in.Limit = 50; return in }},
		{"include_external", func(in cache.SearchKeyInput) cache.SearchKeyInput { in.IncludeExternal = true; return in }},
	}

	baseKey := cache.SearchKey(base)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, baseKey, cache.SearchKey(tt.mutate(base)))
		})
	}
}

/*
TestSearchKey_DoesNotMutateInput verifies that canonicalisation leaves the
caller's genre slice untouched.
*/
func TestSearchKey_DoesNotMutateInput(t *testing.T) {
	genres := []string{"fantasy", "action"}
	cache.SearchKey(cache.SearchKeyInput{Query: "q", Genres: genres})

	assert.Equal(t, []string{"fantasy", "action"}, genres)
}
