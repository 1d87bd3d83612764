package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/gocarina/gocsv"
	"github.com/terravista/terravista-research-poc/internal/pipeline"
	"github.com/terravista/terravista-research-poc/internal/properties"
	"github.com/terravista/terravista-research-poc/internal/stats"
)

func resultDir() string {
	return filepath.Join(properties.RootPath(), "data", "result")
}

// Publish prints the per-year statistics in ascending year order, writes the
// CSV outputs, and renders one map layer per processed year. Results come in
// already sorted; nothing here changes the computed values.
func Publish(region string, results []pipeline.YearResult) error {
	if len(results) == 0 {
		color.Yellow("No statistics produced for %s", region)
		return nil
	}

	if err := os.MkdirAll(filepath.Join(resultDir(), "layers"), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create result directory: %v", err)
	}

	indexName := results[0].Band
	var regionRecords []stats.RegionRecord
	var siteRecords []stats.SiteRecord

	for _, result := range results {
		color.Green("%s %s: min=%.4f max=%.4f mean=%.4f",
			indexName, result.Label, result.Region.Min, result.Region.Max, result.Region.Mean)

		for _, site := range result.Sites {
			fmt.Printf("  %v\n", site.Fields(indexName))
		}

		layerPath := filepath.Join(resultDir(), "layers", fmt.Sprintf("%s_%s_%d.png", region, indexName, result.Year))
		if err := RenderLayer(result.Image, result.Band, layerPath); err != nil {
			return err
		}

		regionRecords = append(regionRecords, result.Region)
		siteRecords = append(siteRecords, result.Sites...)
	}

	if err := writeRegionCSV(region, indexName, regionRecords); err != nil {
		return err
	}
	if len(siteRecords) > 0 {
		if err := writeSiteCSV(region, indexName, siteRecords); err != nil {
			return err
		}
	}

	return nil
}

func writeRegionCSV(region, indexName string, records []stats.RegionRecord) error {
	filePath := filepath.Join(resultDir(), fmt.Sprintf("%s_%s_region_stats.csv", region, indexName))
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create region stats file: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&records, file); err != nil {
		return fmt.Errorf("failed to save region stats: %w", err)
	}

	fmt.Printf("Region statistics saved to %s\n", filePath)
	return nil
}

// writeSiteCSV writes site rows with the index name baked into the headers,
// the exact field set of the workflow's site output. The headers change per
// run, which static csv tags cannot express.
func writeSiteCSV(region, indexName string, records []stats.SiteRecord) error {
	filePath := filepath.Join(resultDir(), fmt.Sprintf("%s_%s_site_stats.csv", region, indexName))
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create site stats file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"name", "year", indexName + "_min", indexName + "_max", indexName + "_mean"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write site stats header: %w", err)
	}
	for _, record := range records {
		row := []string{
			record.Name,
			fmt.Sprintf("%d", record.Year),
			fmt.Sprintf("%.6f", record.Min),
			fmt.Sprintf("%.6f", record.Max),
			fmt.Sprintf("%.6f", record.Mean),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write site stats row: %w", err)
		}
	}

	fmt.Printf("Site statistics saved to %s\n", filePath)
	return nil
}
