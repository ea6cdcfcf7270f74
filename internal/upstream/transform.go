// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package upstream

import (
	"sort"
	"strconv"
	"strings"
)

// # Record Transform

// displayLanguages is the preference order for human-readable fields.
var displayLanguages = []string{"en", "ko", "ja"}

// romanizedLanguages are the alt-title keys that carry a romanisation.
var romanizedLanguages = []string{"ja-ro", "ko-ro", "en-ro"}

// transformManga reduces one upstream wire record to a partial [Manga].
func transformManga(data mangaData) Manga {
	attrs := data.Attributes

	record := Manga{
		UpstreamID:       data.ID,
		Title:            pickLocalised(attrs.Title),
		Synopsis:         pickLocalised(attrs.Description),
		TitleRomanized:   pickRomanized(attrs.AltTitles),
		AltTitles:        collectAltTitles(attrs.AltTitles),
		Status:           mapStatus(attrs.Status),
		OriginalLanguage: strings.ToLower(strings.TrimSpace(attrs.OriginalLanguage)),
		StartYear:        attrs.Year,
	}

	// Chapter totals arrive as free text; only a clean integer is trusted.
	if total, err := strconv.Atoi(strings.TrimSpace(attrs.LastChapter)); err == nil && total > 0 {
		record.TotalChapters = total
	}

	for _, tag := range attrs.Tags {
		name := pickLocalised(tag.Attributes.Name)
		if name == "" {
			continue
		}
		record.Tags = append(record.Tags, Tag{ID: tag.ID, Name: name, Group: tag.Attributes.Group})
	}

	record.Publisher = pickCreator(data.Relationships)
	record.CoverFilename = pickCoverFilename(data.Relationships)
	return record
}

// pickLocalised selects a display value: first non-empty of en, ko, ja,
// else the lexicographically first non-empty entry so the fallback is
// deterministic across syncs.
func pickLocalised(localised map[string]string) string {
	for _, language := range displayLanguages {
		if value := strings.TrimSpace(localised[language]); value != "" {
			return value
		}
	}

	keys := make([]string, 0, len(localised))
	for key := range localised {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if value := strings.TrimSpace(localised[key]); value != "" {
			return value
		}
	}
	return ""
}

// pickRomanized returns the first alt-title carrying a romanisation key.
func pickRomanized(altTitles []map[string]string) string {
	for _, entry := range altTitles {
		for _, language := range romanizedLanguages {
			if value := strings.TrimSpace(entry[language]); value != "" {
				return value
			}
		}
	}
	return ""
}

// collectAltTitles flattens the alt-title list into language/title pairs.
// Romanisation keys are excluded since they feed TitleRomanized instead.
func collectAltTitles(altTitles []map[string]string) []AltTitle {
	var pairs []AltTitle
	for _, entry := range altTitles {
		keys := make([]string, 0, len(entry))
		for key := range entry {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			if strings.HasSuffix(key, "-ro") {
				continue
			}
			if value := strings.TrimSpace(entry[key]); value != "" {
				pairs = append(pairs, AltTitle{Language: key, Title: value})
			}
		}
	}
	return pairs
}

// mapStatus normalises the upstream lifecycle keyword. Unknown or missing
// statuses default to ongoing, the safest assumption for serialised works.
func mapStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed", "finished":
		return "completed"
	case "hiatus":
		return "hiatus"
	case "cancelled", "canceled":
		return "cancelled"
	default:
		return "ongoing"
	}
}

// pickCreator resolves a display name for the work's creator, preferring
// the author relationship over the artist one.
func pickCreator(relationships []relationship) string {
	if name := relationshipAttr(relationships, "author", "name"); name != "" {
		return name
	}
	return relationshipAttr(relationships, "artist", "name")
}

// pickCoverFilename extracts the cover-art filename, when present.
func pickCoverFilename(relationships []relationship) string {
	return relationshipAttr(relationships, "cover_art", "fileName")
}

// relationshipAttr returns a string attribute from the first relationship
// of the given type. Expanded attributes are schemaless, so a missing or
// non-string value reads as absent.
func relationshipAttr(relationships []relationship, relType, key string) string {
	for _, rel := range relationships {
		if rel.Type != relType {
			continue
		}
		if value, ok := rel.Attributes[key].(string); ok {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
