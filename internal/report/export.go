package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/terravista/terravista-research-poc/internal/landsat"
	"github.com/terravista/terravista-research-poc/internal/pipeline"
	"github.com/terravista/terravista-research-poc/internal/properties"
	"github.com/terravista/terravista-research-poc/internal/stats"
)

// ExportJob is an inert description of a high-resolution render. Staging only
// writes this file next to the saved raster; nothing runs until the job is
// explicitly triggered.
type ExportJob struct {
	Name      string    `json:"name"`
	Raster    string    `json:"raster"`
	Band      string    `json:"band"`
	Scale     float64   `json:"scale"`
	MaxPixels int       `json:"max_pixels"`
	Format    string    `json:"format"`
	Status    string    `json:"status"`
	StagedAt  time.Time `json:"staged_at"`
	Output    string    `json:"output"`
}

func exportDir() string {
	return filepath.Join(properties.RootPath(), "data", "exports")
}

// StageExport saves the derived index raster as a GeoTIFF and writes a
// pending job spec for it. Returns the job file path.
func StageExport(region string, result pipeline.YearResult) (string, error) {
	if err := os.MkdirAll(exportDir(), os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create exports directory: %v", err)
	}

	name := fmt.Sprintf("%s_%s_%d", region, result.Band, result.Year)
	rasterPath := filepath.Join(exportDir(), name+".tif")
	if err := landsat.WriteGeoTIFF(rasterPath, result.Image.Bands[result.Band], result.Image.GeoTransform); err != nil {
		return "", err
	}

	job := ExportJob{
		Name:      name,
		Raster:    rasterPath,
		Band:      result.Band,
		Scale:     result.Image.Resolution(),
		MaxPixels: properties.MaxPixels(),
		Format:    "PNG",
		Status:    "pending",
		StagedAt:  time.Now(),
		Output:    filepath.Join(exportDir(), name+".png"),
	}

	jobPath := filepath.Join(exportDir(), name+".json")
	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal export job: %v", err)
	}
	if err := os.WriteFile(jobPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export job: %v", err)
	}

	fmt.Printf("Export staged at %s (run it explicitly to render)\n", jobPath)
	return jobPath, nil
}

// ListStagedExports returns the pending job files under data/exports.
func ListStagedExports() ([]string, error) {
	entries, err := os.ReadDir(exportDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var jobs []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".json") {
			jobs = append(jobs, filepath.Join(exportDir(), entry.Name()))
		}
	}
	return jobs, nil
}

// RunExport executes a previously staged job: renders the saved raster at
// native resolution with the job's palette and stretch, then marks the job
// done. The job's pixel budget is enforced the same way reductions enforce
// theirs.
func RunExport(jobPath string) (string, error) {
	data, err := os.ReadFile(jobPath)
	if err != nil {
		return "", fmt.Errorf("failed to read export job: %v", err)
	}

	var job ExportJob
	if err := json.Unmarshal(data, &job); err != nil {
		return "", fmt.Errorf("invalid export job %s: %v", jobPath, err)
	}
	if job.Status != "pending" {
		return "", fmt.Errorf("export job %s is %s, not pending", job.Name, job.Status)
	}

	img, err := landsat.DecodeStack(job.Raster, []string{job.Band}, job.StagedAt)
	if err != nil {
		return "", err
	}

	if job.MaxPixels > 0 && img.Width*img.Height > job.MaxPixels {
		return "", fmt.Errorf("%w: export is %d pixels, ceiling is %d",
			stats.ErrResourceLimit, img.Width*img.Height, job.MaxPixels)
	}

	if err := renderBand(img, job.Band, job.Output, 0); err != nil {
		return "", err
	}

	job.Status = "done"
	if updated, err := json.MarshalIndent(job, "", "  "); err == nil {
		_ = os.WriteFile(jobPath, updated, 0644)
	}

	return job.Output, nil
}
