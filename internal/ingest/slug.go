package ingest

import (
	"regexp"
	"strings"
)

var rePunct = regexp.MustCompile(`[^a-z0-9\s]`)

var suffixes = map[string]string{
	"street":    "st",
	"road":      "rd",
	"avenue":    "ave",
	"boulevard": "blvd",
	"drive":     "dr",
	"lane":      "ln",
	"court":     "ct",
	"circle":    "cir",
	"terrace":   "ter",
	"place":     "pl",
	"parkway":   "pkwy",
	"highway":   "hwy",
}

// Slugify builds a URL slug from a street address and city, with USPS-style
// suffixes abbreviated. The listing key is appended so slugs stay unique
// across units at one address.
func Slugify(address, city, key string) string {
	var words []string
	for _, part := range []string{address, city} {
		part = rePunct.ReplaceAllString(strings.ToLower(part), " ")
		for _, w := range strings.Fields(part) {
			if abbr, ok := suffixes[w]; ok {
				w = abbr
			}
			words = append(words, w)
		}
	}
	if k := strings.ToLower(strings.TrimSpace(key)); k != "" {
		words = append(words, rePunct.ReplaceAllString(k, ""))
	}
	return strings.Join(words, "-")
}
