package cache

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Key prefixes per tier. DeleteMatching relies on these being stable.
const (
	entityKeyPrefix = "manhwa:entity:"
	searchKeyPrefix = "search:"
)

// EntityKey returns the entity-tier key for a catalogue record.
func EntityKey(id int64) string {
	return entityKeyPrefix + strconv.FormatInt(id, 10)
}

// TagDictionaryKey returns the tag-tier key for the upstream tag dictionary.
func TagDictionaryKey() string {
	return "tags:upstream:dictionary"
}

// GenresKey returns the tag-tier key for the local genre list.
func GenresKey() string {
	return "genres:all"
}

// SearchKeyInput holds every filter dimension that discriminates a search
// result page.
type SearchKeyInput struct {
	Query           string
	Genres          []string
	Status          string
	YearStart       int
	YearEnd         int
	Sort            string
	Page            int
	Limit           int
	IncludeExternal bool
}

// SearchKey builds the canonical search-tier key for a filter combination.
//
// Two logically identical searches must map to the same key, so the genre
// list is sorted and every field is serialised in a fixed order. The raw
// query string is kept verbatim: normalisation happens in the service layer
// before the key is built.
func SearchKey(in SearchKeyInput) string {
	genres := make([]string, len(in.Genres))
	copy(genres, in.Genres)
	sort.Strings(genres)

	var b strings.Builder
	b.WriteString(searchKeyPrefix)
	b.WriteString("q=")
	b.WriteString(in.Query)
	b.WriteString("|g=")
	b.WriteString(strings.Join(genres, ","))
	b.WriteString("|s=")
	b.WriteString(in.Status)
	fmt.Fprintf(&b, "|y=%d-%d", in.YearStart, in.YearEnd)
	b.WriteString("|o=")
	b.WriteString(in.Sort)
	fmt.Fprintf(&b, "|p=%d|l=%d|x=%t", in.Page, in.Limit, in.IncludeExternal)

	return b.String()
}
