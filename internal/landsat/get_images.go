package landsat

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/terravista/terravista-research-poc/internal/properties"
	"golang.org/x/sync/errgroup"
)

const downloadConcurrency = 4

func invalidImagesFile() string {
	return filepath.Join(properties.RootPath(), "data", "images", "invalid_images.json")
}

// GetImages returns one cloud-masked acquisition per day the catalog reports
// for the geometry and window, keyed by acquisition day. A day whose stack is
// fully masked is recorded in data/images/invalid_images.json and skipped on
// later runs. An empty map means no usable imagery for the window.
func GetImages(geometry orb.Geometry, region string, startDate, endDate time.Time) (map[time.Time]*Image, error) {
	acquisitions, err := SearchScenes(geometry, startDate, endDate)
	if err != nil {
		return nil, err
	}

	imagesNotFound, err := loadInvalidImages()
	if err != nil {
		return nil, err
	}

	imageDir := filepath.Join(properties.RootPath(), "data", "images", region)
	if err := os.MkdirAll(imageDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %v", err)
	}

	var (
		mu     sync.Mutex
		images = make(map[time.Time]*Image)
	)

	g := errgroup.Group{}
	g.SetLimit(downloadConcurrency)

	for _, day := range acquisitions {
		day := day
		imageName := fmt.Sprintf("%s_%s.tif", region, day.Format("2006-01-02"))
		if contains(imagesNotFound, imageName) {
			continue
		}

		g.Go(func() error {
			fileName := filepath.Join(imageDir, imageName)

			if _, err := os.Stat(fileName); os.IsNotExist(err) {
				imageBytes, err := requestStack(day, day.Add(time.Hour*23+time.Minute*59+time.Second*59), geometry)
				if err != nil {
					if err.Error() == "image not found" {
						markInvalid(imageName)
						return nil
					}
					return fmt.Errorf("error requesting image: %v", err)
				}
				if err := os.WriteFile(fileName, imageBytes, 0644); err != nil {
					return fmt.Errorf("failed to write image file: %v", err)
				}
			}

			img, err := DecodeStack(fileName, StackBands, day)
			if err != nil {
				return err
			}

			if clear := ApplyCloudMask(img); clear == 0 {
				markInvalid(imageName)
				if err := os.Remove(fileName); err != nil {
					fmt.Printf("failed to delete image file %s: %v\n", fileName, err)
				}
				return nil
			}

			mu.Lock()
			images[day] = img
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return images, nil
}

func loadInvalidImages() ([]string, error) {
	filePath := invalidImagesFile()
	if _, err := os.Stat(filePath); err != nil {
		return nil, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %v", filePath, err)
	}
	var invalid []string
	if err := json.Unmarshal(data, &invalid); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %v", filePath, err)
	}
	return invalid, nil
}

var invalidMu sync.Mutex

func markInvalid(imageName string) {
	invalidMu.Lock()
	defer invalidMu.Unlock()

	existing, err := loadInvalidImages()
	if err != nil {
		// Rewriting now would replace the accumulated list with one entry.
		fmt.Printf("Warning: not recording %s as invalid, could not read the existing list: %v\n", imageName, err)
		return
	}
	if contains(existing, imageName) {
		return
	}
	existing = append(existing, imageName)

	data, _ := json.Marshal(existing)
	_ = os.WriteFile(invalidImagesFile(), data, 0644)
}

func contains(slice []string, item string) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}
