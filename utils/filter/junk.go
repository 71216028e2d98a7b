package filter

import (
	"regexp"

	"novastream/models"
)

// junkTokens are the cam/telesync/screener release tags spec §4.2 names as
// disqualifying on their own, regardless of any other filtering. Matched as
// whole words, case-insensitively — "TS" must not match inside "WEBRip".
var junkTokens = []string{
	"CAM", "HDCAM", "CAMRIP", "TS", "HDTS", "TELESYNC", "TC", "HDTC",
	"TELECINE", "SCR", "SCREENER", "DVDSCR", "BDSCR", "R5", "R6",
	"WORKPRINT", "WP", "HDRIP",
}

var junkRegexp = regexp.MustCompile(`(?i)\b(` + junkAlternation() + `)\b`)

func junkAlternation() string {
	out := junkTokens[0]
	for _, t := range junkTokens[1:] {
		out += "|" + t
	}
	return out
}

// IsJunkTitle reports whether title matches any of the whole-word junk
// release tags. An empty/absent title is treated as non-junk per spec §4.2.
func IsJunkTitle(title string) bool {
	if title == "" {
		return false
	}
	return junkRegexp.MatchString(title)
}

// FilterJunk drops every result whose title is junk, preserving order.
func FilterJunk(results []models.NZBResult) []models.NZBResult {
	if len(results) == 0 {
		return results
	}
	out := make([]models.NZBResult, 0, len(results))
	for _, r := range results {
		if IsJunkTitle(r.Title) {
			continue
		}
		out = append(out, r)
	}
	return out
}
