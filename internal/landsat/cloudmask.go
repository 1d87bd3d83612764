package landsat

import "math"

// Landsat Collection 2 QA_PIXEL bits rejected by the mask.
const (
	qaFill         = 1 << 0
	qaDilatedCloud = 1 << 1
	qaCirrus       = 1 << 2
	qaCloud        = 1 << 3
	qaCloudShadow  = 1 << 4
)

const qaRejectMask = qaFill | qaDilatedCloud | qaCirrus | qaCloud | qaCloudShadow

// IsClear reports whether a QA_PIXEL value is free of fill, cloud, cirrus,
// dilated cloud and cloud shadow.
func IsClear(qa float64) bool {
	if math.IsNaN(qa) {
		return false
	}
	return int(qa)&qaRejectMask == 0
}

// ApplyCloudMask sets every reflectance pixel flagged by the QA band to NaN
// and reports how many clear pixels remain. A fully masked acquisition
// contributes nothing and gets recorded as invalid by the caller.
func ApplyCloudMask(img *Image) int {
	qa, ok := img.Bands["qa"]
	if !ok {
		return img.Width * img.Height
	}

	clear := 0
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if IsClear(qa[y][x]) {
				clear++
				continue
			}
			for _, name := range StackBands {
				if name == "qa" {
					continue
				}
				if grid, ok := img.Bands[name]; ok {
					grid[y][x] = math.NaN()
				}
			}
		}
	}
	return clear
}
