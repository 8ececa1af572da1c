// Package content turns a fetched web page into the structured record the
// judges are prompted with.
package content

import (
	"context"
	"errors"
	"fmt"
)

// MaxExcerpt is the hard cap, in runes, on the body text sent to a backend.
const MaxExcerpt = 2000

// Descriptor is the structured summary of one page. It is built once per URL
// and never modified afterwards.
type Descriptor struct {
	URL           string      `json:"url"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	WordCount     int         `json:"wordCount"`
	Headings      map[int]int `json:"headings"`
	Images        int         `json:"images"`
	ImagesWithAlt int         `json:"imagesWithAlt"`
	ImageAltRatio float64     `json:"imageAltRatio"`
	Lists         int         `json:"lists"`
	Tables        int         `json:"tables"`
	HasSchemaOrg  bool        `json:"hasSchemaOrg"`
	HasMicrodata  bool        `json:"hasMicrodata"`
	HasOpenGraph  bool        `json:"hasOpenGraph"`
	HasViewport   bool        `json:"hasViewport"`
	TextExcerpt   string      `json:"textExcerpt"`
}

// Heading returns the number of headings of the given level.
func (d Descriptor) Heading(level int) int {
	return d.Headings[level]
}

// Minimal is the descriptor used when a page could not be fetched. Every
// structural signal is absent.
func Minimal(url string) Descriptor {
	return Descriptor{URL: url, Headings: map[int]int{}}
}

// Fetcher builds a Descriptor for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Descriptor, error)
}

// FetchErrorKind classifies why a page could not be fetched.
type FetchErrorKind string

const (
	NotReachable FetchErrorKind = "not_reachable"
	HTTPStatus   FetchErrorKind = "http_status"
	Timeout      FetchErrorKind = "timeout"
	Disallowed   FetchErrorKind = "disallowed"
)

// FetchError is returned by fetchers for any page that yields no descriptor.
type FetchError struct {
	URL        string
	Kind       FetchErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case HTTPStatus:
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.StatusCode)
	case Disallowed:
		return fmt.Sprintf("fetch %s: disallowed by robots.txt", e.URL)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

func (e *FetchError) Unwrap() error { return e.Err }

// AsFetchError extracts a *FetchError from err.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
