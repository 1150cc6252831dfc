// Package docproc classifies and summarizes concert-tour documents before
// they enter the corpus. Everything here is best-effort: a wrong caption or
// a misclassified document never corrupts the store.
package docproc

import (
	"fmt"
	"regexp"
	"strings"
)

// concertKeywords mark a document as being about live music.
var concertKeywords = []string{
	"concert", "tour", "performance", "venue", "artist", "band",
	"musician", "stage", "ticket", "audience", "show", "live",
	"perform", "music", "gig", "festival", "arena", "stadium",
	"hall", "theater", "theatre", "amphitheatre", "acoustic",
	"backstage", "crowd", "fan", "setlist", "booking", "sold out",
	"world tour", "opening act", "headliner", "special guest",
}

// targetYears are the seasons the corpus tracks.
var targetYears = []string{"2025", "2026"}

// minKeywordMatches is the keyword threshold for relevance.
const minKeywordMatches = 3

// IsRelevant reports whether text looks like a concert or tour document for
// a tracked season: it must mention a target year and at least three
// distinct concert keywords.
func IsRelevant(text string) bool {
	lower := strings.ToLower(text)

	hasYear := false
	for _, year := range targetYears {
		if strings.Contains(lower, year) {
			hasYear = true
			break
		}
	}
	if !hasYear {
		return false
	}

	matches := 0
	for _, kw := range concertKeywords {
		if strings.Contains(lower, kw) {
			matches++
			if matches >= minKeywordMatches {
				return true
			}
		}
	}
	return false
}

// TourDate is one parsed tour stop.
type TourDate struct {
	Date  string `json:"date"`
	Venue string `json:"venue"`
	City  string `json:"city"`
}

// tourDateLine matches lines like
// "January 15, 2025 - Madison Square Garden, New York".
var tourDateLine = regexp.MustCompile(`^\s*(\w+ \d{1,2},? \d{4})\s*-\s*(.+?),\s*(.+?)\s*$`)

// ExtractTourDates parses tour stops from text, one per line, in document
// order. Lines that do not match the date format are skipped.
func ExtractTourDates(text string) []TourDate {
	var dates []TourDate
	for _, line := range strings.Split(text, "\n") {
		m := tourDateLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		dates = append(dates, TourDate{
			Date:  m[1],
			Venue: m[2],
			City:  m[3],
		})
	}
	return dates
}

// maxCaptionLen bounds generated captions.
const maxCaptionLen = 120

// Caption builds a short caption for a document. Documents with parseable
// tour dates get a schedule summary; anything else falls back to the first
// sentence, truncated.
func Caption(text string) string {
	if dates := ExtractTourDates(text); len(dates) > 0 {
		first := dates[0]
		if len(dates) == 1 {
			return fmt.Sprintf("1 tour date: %s at %s, %s", first.Date, first.Venue, first.City)
		}
		return fmt.Sprintf("%d tour dates starting %s at %s, %s", len(dates), first.Date, first.Venue, first.City)
	}
	return firstSentence(text)
}

// firstSentence returns the leading sentence of text, cut to maxCaptionLen.
func firstSentence(text string) string {
	s := strings.TrimSpace(text)
	if i := strings.IndexAny(s, ".\n"); i > 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if len(s) > maxCaptionLen {
		s = strings.TrimSpace(s[:maxCaptionLen-3]) + "..."
	}
	return s
}
