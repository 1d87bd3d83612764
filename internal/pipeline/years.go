package pipeline

import (
	"sort"
	"time"

	"github.com/terravista/terravista-research-poc/internal/index"
)

// ResolveYears decides which calendar years to process.
//
// An explicit list wins and is used verbatim. Otherwise NDVI/EVI derive the
// years actually present in the acquisition timestamps, while LST takes the
// whole calendar span of the date range. The LST span is a looser
// approximation and may include years with no imagery; those get skipped
// later as empty periods.
func ResolveYears(explicit []int, kind index.Kind, startDate, endDate time.Time, acquisitions []time.Time) []int {
	if len(explicit) > 0 {
		return explicit
	}

	if kind == index.LST {
		var years []int
		for y := startDate.Year(); y <= endDate.Year(); y++ {
			years = append(years, y)
		}
		return years
	}

	seen := make(map[int]struct{})
	for _, t := range acquisitions {
		seen[t.Year()] = struct{}{}
	}

	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
