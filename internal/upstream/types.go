// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package upstream

// # Wire Contract

// The unexported types below mirror the upstream JSON envelope verbatim.
// They never leave this package; public results are transformed first.

type mangaListResponse struct {
	Result string      `json:"result"`
	Data   []mangaData `json:"data"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
	Total  int         `json:"total"`
}

type mangaResponse struct {
	Result string    `json:"result"`
	Data   mangaData `json:"data"`
}

type mangaData struct {
	ID            string          `json:"id"`
	Attributes    mangaAttributes `json:"attributes"`
	Relationships []relationship  `json:"relationships"`
}

type mangaAttributes struct {
	Title                  map[string]string   `json:"title"`
	AltTitles              []map[string]string `json:"altTitles"`
	Description            map[string]string   `json:"description"`
	OriginalLanguage       string              `json:"originalLanguage"`
	PublicationDemographic string              `json:"publicationDemographic"`
	Status                 string              `json:"status"`
	Year                   int                 `json:"year"`
	ContentRating          string              `json:"contentRating"`
	LastChapter            string              `json:"lastChapter"`
	Tags                   []tagData           `json:"tags"`
}

type tagData struct {
	ID         string        `json:"id"`
	Attributes tagAttributes `json:"attributes"`
}

type tagAttributes struct {
	Name  map[string]string `json:"name"`
	Group string            `json:"group"`
}

// relationship attributes arrive schemaless; the keys we read depend on the
// relationship type ("name" for people, "fileName" for cover art).
type relationship struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Attributes map[string]any `json:"attributes"`
}

type tagListResponse struct {
	Result string    `json:"result"`
	Data   []tagData `json:"data"`
}

type errorResponse struct {
	Result string     `json:"result"`
	Errors []apiError `json:"errors"`
}

type apiError struct {
	ID     string `json:"id"`
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Result string `json:"result"`
	Token  struct {
		Session string `json:"session"`
		Refresh string `json:"refresh"`
	} `json:"token"`
}

// # Public Types

// Manga is the partial record extracted from one upstream entry. Fields the
// upstream record does not carry stay at their zero value; the catalogue
// service decides how to merge them into the local entity.
type Manga struct {
	UpstreamID       string
	Title            string
	AltTitles        []AltTitle
	TitleRomanized   string
	Synopsis         string
	Status           string
	OriginalLanguage string
	Publisher        string
	StartYear        int
	TotalChapters    int
	CoverFilename    string
	Tags             []Tag
}

// AltTitle is one alternative title together with its language code.
type AltTitle struct {
	Language string `json:"language"`
	Title    string `json:"title"`
}

// Tag is one entry of the upstream tag dictionary.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// Covers holds the three derived cover-art resolutions for one record.
type Covers struct {
	Thumb  string
	Medium string
	Large  string
}

// Query captures the search filters the upstream catalogue accepts. The
// caller is responsible for language curation (e.g. restricting results to
// Korean originals); the client forwards OriginalLanguages as given.
type Query struct {
	Title             string
	Limit             int
	Offset            int
	ContentRatings    []string
	Statuses          []string
	Demographics      []string
	IncludedTags      []string
	ExcludedTags      []string
	OriginalLanguages []string
}
