// Package platform defines the adapter contract shared by every external
// item source.
package platform

import (
	"context"
	"errors"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/erazemk/setupcatalog/internal/model"
)

// ErrUnavailable reports that the upstream item is missing, private or
// deleted. It is an expected outcome, not a transport failure.
var ErrUnavailable = errors.New("item unavailable upstream")

// Listing is an upstream item converted to the canonical shape.
type Listing struct {
	ID          string
	Name        string
	Description string
	ImageURL    string
	Price       *string
	Likes       int
	NSFW        bool
	Version     string
	Authors     []string

	// CategoryID is the platform's own category id; 0 when the platform has
	// no taxonomy.
	CategoryID int

	Shop model.Shop
}

// Adapter fetches listings from one platform.
type Adapter interface {
	Platform() model.Platform
	// Fetch returns ErrUnavailable (possibly wrapped) when the item does not
	// exist or is not public. Any other error is a transport or parse failure.
	Fetch(ctx context.Context, id string) (*Listing, error)
}

// MaxDescriptionLength bounds descriptions kept for enrichment.
const MaxDescriptionLength = 2000

var textPolicy = bluemonday.StrictPolicy()

// PlainText strips markup from upstream text, collapses whitespace and
// truncates it to MaxDescriptionLength bytes on a rune boundary.
func PlainText(s string) string {
	s = html.UnescapeString(textPolicy.Sanitize(s))
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= MaxDescriptionLength {
		return s
	}
	cut := MaxDescriptionLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
