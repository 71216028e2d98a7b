package debrid

import (
	"regexp"
	"strconv"
	"strings"
)

// MediaType distinguishes movie searches from series searches so scrapers
// can pick the right upstream endpoint/category.
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "series"
)

// ParsedQuery is the lightweight metadata extracted from a raw free-text
// search query before any scraper is invoked. It is distinct from the full
// release-title parse (utils/parsett.ParseTitle) performed later against
// each scraper's results: this parse only needs to be good enough to decide
// which upstream endpoints to hit and what to display while results load.
type ParsedQuery struct {
	Title     string
	Year      int
	Season    int
	Episode   int
	MediaType MediaType
}

var (
	queryEpisodeCode = regexp.MustCompile(`(?i)\bS(\d{1,2})E(\d{1,3})\b`)
	queryYear        = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
)

// ParseQuery extracts title/year/season/episode hints from a raw search
// query such as "Breaking Bad S01E02" or "Inception 2010". It never errors;
// an unparseable query degrades to a bare title with zero-valued metadata.
func ParseQuery(query string) ParsedQuery {
	trimmed := strings.TrimSpace(query)
	parsed := ParsedQuery{Title: trimmed}
	if trimmed == "" {
		return parsed
	}

	remainder := trimmed
	if m := queryEpisodeCode.FindStringSubmatchIndex(remainder); m != nil {
		season, _ := strconv.Atoi(remainder[m[2]:m[3]])
		episode, _ := strconv.Atoi(remainder[m[4]:m[5]])
		parsed.Season = season
		parsed.Episode = episode
		parsed.MediaType = MediaTypeSeries
		remainder = remainder[:m[0]] + remainder[m[1]:]
	}

	if m := queryYear.FindStringSubmatchIndex(remainder); m != nil {
		year, _ := strconv.Atoi(remainder[m[2]:m[3]])
		// A bare 4-digit year only counts as metadata once a title remains in
		// front of it; otherwise "1984" the title would lose its year.
		if strings.TrimSpace(remainder[:m[0]]) != "" {
			parsed.Year = year
			if parsed.MediaType == "" {
				parsed.MediaType = MediaTypeMovie
			}
			remainder = remainder[:m[0]] + remainder[m[1]:]
		}
	}

	parsed.Title = strings.TrimSpace(strings.Trim(remainder, " -:"))
	if parsed.Title == "" {
		parsed.Title = trimmed
	}
	return parsed
}
