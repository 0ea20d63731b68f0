// Package autocomplete filters and ranks bus stops for a typed query and
// tracks the single stop a user has committed to.
package autocomplete

import (
	"slices"
	"strings"

	"busreg-server-go/models"
)

// DefaultLimit caps the candidate list when no limit is configured.
const DefaultLimit = 10

// Normalize lowercases and trims a query.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Matches reports whether stop is a candidate for an already normalized query.
func Matches(stop models.BusStop, normalized string) bool {
	if strings.Contains(strings.ToLower(stop.Name), normalized) {
		return true
	}
	if strings.Contains(stop.IDString(), normalized) {
		return true
	}
	if stop.Location != nil && strings.Contains(strings.ToLower(*stop.Location), normalized) {
		return true
	}
	return false
}

// Match returns at most limit stops from directory that match query.
// Stops whose name starts with the query come first; each group is ordered
// by name, case-insensitively. A query that is empty after trimming yields
// no candidates. limit <= 0 means DefaultLimit.
func Match(directory []models.BusStop, query string, limit int) []models.BusStop {
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := Normalize(query)
	if q == "" {
		return nil
	}

	type ranked struct {
		stop   models.BusStop
		lower  string
		prefix bool
	}
	hits := make([]ranked, 0, len(directory))
	for _, stop := range directory {
		if !Matches(stop, q) {
			continue
		}
		lower := strings.ToLower(stop.Name)
		hits = append(hits, ranked{stop: stop, lower: lower, prefix: strings.HasPrefix(lower, q)})
	}

	// Stable so that equal names keep directory order.
	slices.SortStableFunc(hits, func(a, b ranked) int {
		if a.prefix != b.prefix {
			if a.prefix {
				return -1
			}
			return 1
		}
		return strings.Compare(a.lower, b.lower)
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]models.BusStop, len(hits))
	for i, h := range hits {
		out[i] = h.stop
	}
	return out
}
