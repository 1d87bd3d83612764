package properties

import (
	"os"
	"strconv"
)

func RootPath() string {
	return os.Getenv("ROOT_PATH")
}

func DiscordErrorNotificationUrl() string {
	return os.Getenv("DISCORD_ERROR_NOTIFICATION_URL")
}
func DiscordSuccessNotificationUrl() string {
	return os.Getenv("DISCORD_SUCCESS_NOTIFICATION_URL")
}

// MaxPixels is the ceiling applied to every spatial reduction and export.
// Reductions that would scan more pixels than this fail instead of truncating.
func MaxPixels() int {
	if v, err := strconv.Atoi(os.Getenv("MAX_PIXELS")); err == nil && v > 0 {
		return v
	}
	return 100_000_000
}

// Workers controls how many years are computed concurrently. The default of 1
// keeps the run serial; results are reported sorted by year either way.
func Workers() int {
	if v, err := strconv.Atoi(os.Getenv("WORKERS")); err == nil && v > 0 {
		return v
	}
	return 1
}

type Color struct {
	R, G, B uint8
}

// Palette is a fixed color ramp with a fixed display stretch. The stretch is
// for rendering only and never feeds back into computed statistics.
type Palette struct {
	Stops    []Color
	Min, Max float64
}

var Palettes = map[string]Palette{
	"NDVI": {
		Stops: []Color{{165, 0, 38}, {215, 48, 39}, {254, 224, 139}, {166, 217, 106}, {26, 152, 80}, {0, 104, 55}},
		Min:   -0.2, Max: 1.0,
	},
	"EVI": {
		Stops: []Color{{165, 0, 38}, {215, 48, 39}, {254, 224, 139}, {166, 217, 106}, {26, 152, 80}, {0, 104, 55}},
		Min:   -0.2, Max: 1.0,
	},
	"LST": {
		Stops: []Color{{4, 4, 116}, {30, 110, 161}, {86, 189, 173}, {222, 220, 131}, {239, 138, 54}, {178, 24, 43}},
		Min:   7.0, Max: 50.0,
	},
}
