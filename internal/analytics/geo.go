package analytics

import (
	"sort"
	"strings"
)

// UnknownCountry is the bucket blank or missing country codes normalise to.
const UnknownCountry = "UNKNOWN"

// geoTopK caps the geography breakdown at the top 8 countries.
const geoTopK = 8

// CountryCount is one ranked entry of the geography breakdown.
type CountryCount struct {
	Code    string  `json:"code"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// GeoBreakdown ranks session country codes for the current period.
type GeoBreakdown struct {
	TotalSessions int            `json:"totalSessions"`
	Countries     []CountryCount `json:"countries"`
}

// GeoDistribution counts session country codes and returns the top entries
// by count, each annotated with its share of all sessions rounded to two
// decimals. Codes are trimmed and upper-cased; blanks become UnknownCountry.
// Ties keep first-seen order: the sort is stable over the reduction order,
// deliberately not alphabetic.
func GeoDistribution(codes []string) GeoBreakdown {
	counts := make(map[string]int)
	var order []string
	for _, raw := range codes {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if code == "" {
			code = UnknownCountry
		}
		if _, seen := counts[code]; !seen {
			order = append(order, code)
		}
		counts[code]++
	}

	total := 0
	for _, c := range counts {
		total += c
	}

	ranked := make([]CountryCount, 0, len(order))
	for _, code := range order {
		entry := CountryCount{Code: code, Count: counts[code]}
		if total > 0 {
			entry.Percent = Round2(float64(entry.Count) / float64(total) * 100)
		}
		ranked = append(ranked, entry)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > geoTopK {
		ranked = ranked[:geoTopK]
	}

	return GeoBreakdown{TotalSessions: total, Countries: ranked}
}
