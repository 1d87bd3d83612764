package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/terravista/terravista-research-poc/internal/index"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveYearsExplicitListWinsVerbatim(t *testing.T) {
	explicit := []int{2022, 2019, 2019}
	years := ResolveYears(explicit, index.NDVI, day(2020, 1, 1), day(2021, 1, 1), nil)

	// Explicit lists are used as given, without sorting or deduplication.
	assert.Equal(t, explicit, years)
}

func TestResolveYearsFromAcquisitions(t *testing.T) {
	acquisitions := []time.Time{
		day(2021, 3, 12),
		day(2019, 7, 1),
		day(2021, 8, 30),
		day(2019, 7, 17),
	}
	years := ResolveYears(nil, index.EVI, day(2018, 1, 1), day(2022, 1, 1), acquisitions)

	assert.Equal(t, []int{2019, 2021}, years, "distinct years present in imagery, ascending")
}

func TestResolveYearsLSTUsesCalendarSpan(t *testing.T) {
	// LST ignores which years actually have imagery and spans the raw date
	// range instead; the discrepancy with NDVI/EVI is intentional.
	years := ResolveYears(nil, index.LST, day(2019, 6, 1), day(2022, 2, 1), nil)

	assert.Equal(t, []int{2019, 2020, 2021, 2022}, years)
}

func TestResolveYearsEmpty(t *testing.T) {
	years := ResolveYears(nil, index.NDVI, day(2020, 1, 1), day(2021, 1, 1), nil)

	assert.Empty(t, years, "no acquisitions means zero loop iterations")
}
