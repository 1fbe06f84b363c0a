package service

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"reviewhub/internal/domain"
)

const (
	// DefaultRating is stored when a row has no usable rating.
	DefaultRating = 3.0

	steamVotedColumn  = "voted_up"
	steamWeightColumn = "weighted_vote_score"

	// Serial 25569 is 1970-01-01 in the spreadsheet day count.
	excelEpochSerial = 25569
	secondsPerDay    = 86400
)

var (
	isoLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	}
	looseDatePattern = regexp.MustCompile(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})`)
)

// ParseReviewDate interprets a cell as a review date. Accepted forms, in
// order: ISO 8601 date or timestamp, a YYYY-MM-DD or YYYY/MM/DD date
// embedded anywhere in the text, a spreadsheet day serial above 25569, and
// unix seconds for any other non-zero number.
func ParseReviewDate(raw string) (time.Time, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return time.Time{}, false
	}

	if strings.ContainsAny(v, "T-") {
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC(), true
			}
		}
	}

	if m := looseDatePattern.FindStringSubmatch(v); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
		if t.Year() == y && int(t.Month()) == mo && t.Day() == d {
			return t, true
		}
	}

	n, err := cast.ToFloat64E(v)
	if err != nil || n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return time.Time{}, false
	}
	if n > excelEpochSerial {
		secs := (n - excelEpochSerial) * secondsPerDay
		return time.Unix(0, int64(secs*float64(time.Second))).UTC(), true
	}
	return time.Unix(int64(n), 0).UTC(), true
}

// IsSteamExport reports whether the headers carry the Steam vote columns.
func IsSteamExport(headers []string) bool {
	return slices.Contains(headers, steamVotedColumn) && slices.Contains(headers, steamWeightColumn)
}

// SteamRating maps a Steam vote onto the 0..5 scale: positive votes land in
// 3..5 and negative ones in 0..2, scaled by the weighted vote score. A
// missing or zero score counts as 0.5.
func SteamRating(votedUp, weightedScore string) float64 {
	voted, err := cast.ToBoolE(strings.TrimSpace(votedUp))
	if err != nil {
		voted = false
	}
	score, err := cast.ToFloat64E(strings.TrimSpace(weightedScore))
	if err != nil || score == 0 || math.IsNaN(score) {
		score = 0.5
	}
	if voted {
		return 3.0 + score*2.0
	}
	return score * 2.0
}

// RowRating picks the rating for a row. Steam exports mapped on voted_up
// use the vote formula; otherwise a numeric value within 0..5 is taken
// as-is and anything else falls back to DefaultRating.
func RowRating(row map[string]string, mapping domain.ColumnMapping, steam bool) float64 {
	if mapping.RatingColumn == nil {
		return DefaultRating
	}
	col := *mapping.RatingColumn
	if steam && col == steamVotedColumn {
		return SteamRating(row[steamVotedColumn], row[steamWeightColumn])
	}
	v := strings.TrimSpace(row[col])
	if v == "" {
		return DefaultRating
	}
	rating, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(rating) || rating < 0 || rating > 5 {
		return DefaultRating
	}
	return rating
}
