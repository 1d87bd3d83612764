package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/paulmach/orb"
	"github.com/schollz/progressbar/v3"
	"github.com/terravista/terravista-research-poc/internal/index"
	"github.com/terravista/terravista-research-poc/internal/landsat"
	"github.com/terravista/terravista-research-poc/internal/lst"
	"github.com/terravista/terravista-research-poc/internal/roi"
	"github.com/terravista/terravista-research-poc/internal/stats"
	"github.com/terravista/terravista-research-poc/internal/utils"
)

// reductionScale is the fixed spatial resolution, in meters, of every
// reduction in this workflow. It matches the sensor's native resolution.
const reductionScale = 30.0

// ErrNoDataForPeriod marks a year whose filtered stack came back empty. The
// year is skipped with a diagnostic and the loop continues; it is never
// fatal.
var ErrNoDataForPeriod = errors.New("no imagery for period")

// ErrMissingConfiguration marks configuration left at a placeholder value.
// It aborts the whole run before any processing.
var ErrMissingConfiguration = errors.New("missing configuration")

type Config struct {
	Region string
	Kind   index.Kind

	StartDate time.Time
	EndDate   time.Time

	// Month narrows each year to one calendar month. Zero means full-year.
	Month int
	// Years overrides auto-detection when non-empty; used verbatim.
	Years []int

	// Sites optionally names a point feature collection; each point is
	// buffered by SiteBufferMeters before reduction.
	Sites            string
	SiteBufferMeters float64

	// Season bounds apply to the LST variant only.
	SeasonStartMonth int
	SeasonEndMonth   int

	// Sat and UseNDVI are passed through to the temperature service.
	Sat     string
	UseNDVI bool

	MaxPixels int
	Workers   int
}

func (c Config) Validate() error {
	if c.Region == "" || c.Region == "your-region" {
		return fmt.Errorf("%w: region is not set", ErrMissingConfiguration)
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrMissingConfiguration)
	}
	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("%w: end date precedes start date", ErrMissingConfiguration)
	}
	if c.Month < 0 || c.Month > 12 {
		return fmt.Errorf("%w: month must be 1-12 or unset", ErrMissingConfiguration)
	}
	if c.Kind == index.LST {
		if c.Sat == "" {
			return fmt.Errorf("%w: satellite id is required for LST", ErrMissingConfiguration)
		}
		if (c.SeasonStartMonth == 0) != (c.SeasonEndMonth == 0) {
			return fmt.Errorf("%w: season start and end months must be set together", ErrMissingConfiguration)
		}
		if c.SeasonStartMonth != 0 && (c.SeasonStartMonth < 1 || c.SeasonStartMonth > 12 ||
			c.SeasonEndMonth < c.SeasonStartMonth || c.SeasonEndMonth > 12) {
			return fmt.Errorf("%w: invalid season months", ErrMissingConfiguration)
		}
	}
	if c.SiteBufferMeters < 0 {
		return fmt.Errorf("%w: site buffer must be non-negative", ErrMissingConfiguration)
	}
	return nil
}

// YearResult is the write-once outcome of one processed year: the clipped
// composite with its derived index band, and the statistics reduced from it.
type YearResult struct {
	Year   int
	Label  string
	Image  *landsat.Image
	Band   string
	Region stats.RegionRecord
	Sites  []stats.SiteRecord
}

// Run processes every resolved year independently and returns the results
// sorted ascending by year. Empty-period years are skipped with a diagnostic;
// any other failure aborts the run.
func Run(cfg Config) ([]YearResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	strategy, err := index.ForKind(cfg.Kind)
	if err != nil {
		return nil, err
	}

	geometry, err := roi.LoadRegion(cfg.Region)
	if err != nil {
		return nil, err
	}

	var sites []roi.Site
	if cfg.Sites != "" {
		sites, err = roi.LoadSites(cfg.Sites)
		if err != nil {
			return nil, err
		}
	}

	var acquisitions []time.Time
	if len(cfg.Years) == 0 && cfg.Kind != index.LST {
		acquisitions, err = landsat.SearchScenes(geometry, cfg.StartDate, cfg.EndDate)
		if err != nil {
			return nil, err
		}
	}

	years := ResolveYears(cfg.Years, cfg.Kind, cfg.StartDate, cfg.EndDate, acquisitions)
	if len(years) == 0 {
		fmt.Println("No years to process for the given region and date range")
		return nil, nil
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		mu      sync.Mutex
		results = make(map[int]YearResult)
	)

	err = runYears(years, workers, func(year int) error {
		result, err := computeYear(cfg, strategy, geometry, sites, year)
		if err != nil {
			if errors.Is(err, ErrNoDataForPeriod) {
				fmt.Printf("\nSkipping %d: %v\n", year, err)
				return nil
			}
			return err
		}
		mu.Lock()
		results[year] = *result
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	ordered := make([]YearResult, 0, len(results))
	for _, year := range utils.SortedIntKeys(results) {
		ordered = append(ordered, results[year])
	}
	return ordered, nil
}

// runYears fans the per-year computation out over the pool and returns the
// first error. After a failure no queued year starts; years already running
// finish. A nil return means every year either succeeded or was skipped.
func runYears(years []int, workers int, compute func(year int) error) error {
	wp := workerpool.New(workers)
	progressBar := progressbar.Default(int64(len(years)), "Processing years")
	errChan := make(chan error, 1)
	var failed sync.Once
	var cancelled atomic.Bool

	for _, year := range years {
		year := year
		wp.Submit(func() {
			defer progressBar.Add(1)
			if cancelled.Load() {
				return
			}
			if err := compute(year); err != nil {
				failed.Do(func() {
					cancelled.Store(true)
					errChan <- err
				})
			}
		})
	}
	wp.StopWait()

	select {
	case err := <-errChan:
		return err
	default:
		return nil
	}
}

func windowFor(cfg Config, year int) Window {
	var w Window
	switch {
	case cfg.Kind == index.LST && cfg.SeasonStartMonth != 0:
		w = SeasonWindow(year, cfg.SeasonStartMonth, cfg.SeasonEndMonth)
	case cfg.Month != 0:
		w = MonthWindow(year, cfg.Month)
	default:
		w = YearWindow(year)
	}
	// Auto-resolved edge years clamp to the configured range so they only
	// composite imagery the caller asked for. Explicit year lists are taken
	// verbatim, even outside the range.
	if len(cfg.Years) == 0 {
		w = w.Intersect(cfg.StartDate, cfg.EndDate)
	}
	return w
}

func labelFor(cfg Config, strategy index.Strategy, year int) string {
	if cfg.Kind == index.LST && cfg.SeasonStartMonth != 0 {
		return fmt.Sprintf("%d (season %s)", year, strategy.Composite())
	}
	if cfg.Month != 0 {
		return fmt.Sprintf("%d-%02d (month %s)", year, cfg.Month, strategy.Composite())
	}
	return fmt.Sprintf("%d (year %s)", year, strategy.Composite())
}

func computeYear(cfg Config, strategy index.Strategy, geometry orb.MultiPolygon, sites []roi.Site, year int) (*YearResult, error) {
	window := windowFor(cfg, year)

	var images map[time.Time]*landsat.Image
	var err error
	if cfg.Kind == index.LST {
		images, err = lst.Retrieve(geometry, cfg.Region, window.Start, window.End, cfg.Sat, cfg.UseNDVI)
	} else {
		images, err = landsat.GetImages(geometry, cfg.Region, window.Start, window.End)
	}
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: %s to %s", ErrNoDataForPeriod,
			window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"))
	}

	composite, err := Composite(images, strategy.Bands(), strategy.Composite())
	if err != nil {
		return nil, err
	}

	derived, err := strategy.Derive(composite)
	if err != nil {
		return nil, err
	}
	composite.Bands[strategy.Name()] = derived
	composite.Clip(strategy.Name(), geometry)

	summary, err := stats.Combined(composite, strategy.Name(), geometry, reductionScale, cfg.MaxPixels)
	if err != nil {
		return nil, err
	}
	if summary.Count == 0 {
		return nil, fmt.Errorf("%w: every pixel masked between %s and %s", ErrNoDataForPeriod,
			window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"))
	}

	label := labelFor(cfg, strategy, year)
	result := &YearResult{
		Year:  year,
		Label: label,
		Image: composite,
		Band:  strategy.Name(),
		Region: stats.RegionRecord{
			Index: strategy.Name(),
			Year:  year,
			Label: label,
			Min:   summary.Min,
			Max:   summary.Max,
			Mean:  summary.Mean,
		},
	}

	if len(sites) > 0 {
		result.Sites, err = stats.PerSite(composite, strategy.Name(), sites, cfg.SiteBufferMeters, reductionScale, cfg.MaxPixels, year)
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}
