package main

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/terravista/terravista-research-poc/internal/index"
	"github.com/terravista/terravista-research-poc/internal/notification"
	"github.com/terravista/terravista-research-poc/internal/pipeline"
	"github.com/terravista/terravista-research-poc/internal/properties"
	"github.com/terravista/terravista-research-poc/internal/report"
)

func printBanner() {
	figure1 := figure.NewFigure("Terra", "isometric1", true)
	figure2 := figure.NewFigure("Vista", "isometric1", true)
	bannercolor.Cyan(figure1.String())
	bannercolor.Cyan(figure2.String())
	fmt.Println()
}

func readLine(reader *bufio.Reader, prompt string) string {
	fmt.Printf("\033[34m%s\033[0m", prompt)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func readDate(reader *bufio.Reader, prompt string) (time.Time, error) {
	return time.Parse("2006-01-02", readLine(reader, prompt))
}

func readYears(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	var years []int
	for _, part := range strings.Split(raw, ",") {
		year, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid year %q", part)
		}
		years = append(years, year)
	}
	return years, nil
}

func runAnalysis(cfg pipeline.Config, reader *bufio.Reader) {
	results, err := pipeline.Run(cfg)
	if err != nil {
		fmt.Printf("\n\033[31mError running analysis: %s\033[0m\n", err.Error())
		notification.SendDiscordErrorNotification(fmt.Sprintf("TerraVista CLI\n\nError analyzing %s (%s): %s", cfg.Region, cfg.Kind, err.Error()))
		return
	}

	if err := report.Publish(cfg.Region, results); err != nil {
		fmt.Printf("\n\033[31mError publishing results: %s\033[0m\n", err.Error())
		notification.SendDiscordErrorNotification(fmt.Sprintf("TerraVista CLI\n\nError publishing results for %s: %s", cfg.Region, err.Error()))
		return
	}

	if len(results) == 0 {
		return
	}

	if strings.EqualFold(readLine(reader, "Stage high-resolution exports? (y/N): "), "y") {
		for _, result := range results {
			if _, err := report.StageExport(cfg.Region, result); err != nil {
				fmt.Printf("\n\033[31mError staging export for %d: %s\033[0m\n", result.Year, err.Error())
			}
		}
	}

	fmt.Printf("\n\033[32mSuccessful analysis! %d year(s) processed.\033[0m\n", len(results))
	notification.SendDiscordSuccessNotification(fmt.Sprintf("TerraVista CLI\n\n%s analysis of %s finished: %d year(s) processed.", cfg.Kind, cfg.Region, len(results)))
}

func vegetationMenu(reader *bufio.Reader) {
	fmt.Println("\033[33m\nWarning:\033[0m")
	fmt.Println("\033[33m- A '.geojson' file with the region name should be present in data/geojsons folder.\033[0m")
	fmt.Println("\033[33m- Sites are optional; point your sites file at a point feature collection with a 'name' property.\n\033[0m")

	kindChoice := readLine(reader, "Index to compute (1=NDVI, 2=EVI): ")
	kind := index.NDVI
	if kindChoice == "2" {
		kind = index.EVI
	}

	region := readLine(reader, "Enter the region name: ")

	startDate, err := readDate(reader, "Enter the start date (YYYY-MM-DD): ")
	if err != nil {
		fmt.Printf("\n\033[31mInvalid date: %s\033[0m\n", err.Error())
		return
	}
	endDate, err := readDate(reader, "Enter the end date (YYYY-MM-DD): ")
	if err != nil {
		fmt.Printf("\n\033[31mInvalid date: %s\033[0m\n", err.Error())
		return
	}

	month := 0
	if raw := readLine(reader, "Restrict to a month 1-12 (empty for full year): "); raw != "" {
		month, err = strconv.Atoi(raw)
		if err != nil {
			fmt.Printf("\n\033[31mInvalid month: %s\033[0m\n", raw)
			return
		}
	}

	years, err := readYears(readLine(reader, "Explicit years, comma separated (empty to auto-detect): "))
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}

	sites := readLine(reader, "Sites file name (empty for none): ")
	siteBuffer := 0.0
	if sites != "" {
		raw := readLine(reader, "Site buffer in meters (default 100): ")
		if raw == "" {
			siteBuffer = 100
		} else if siteBuffer, err = strconv.ParseFloat(raw, 64); err != nil {
			fmt.Printf("\n\033[31mInvalid buffer: %s\033[0m\n", raw)
			return
		}
	}

	runAnalysis(pipeline.Config{
		Region:           region,
		Kind:             kind,
		StartDate:        startDate,
		EndDate:          endDate,
		Month:            month,
		Years:            years,
		Sites:            sites,
		SiteBufferMeters: siteBuffer,
		MaxPixels:        properties.MaxPixels(),
		Workers:          properties.Workers(),
	}, reader)
}

func temperatureMenu(reader *bufio.Reader) {
	fmt.Println("\033[33m\nWarning:\033[0m")
	fmt.Println("\033[33m- Temperature retrieval runs on the external split-window service; make sure LST_SERVICE_URL is set.\n\033[0m")

	region := readLine(reader, "Enter the region name: ")

	startDate, err := readDate(reader, "Enter the start date (YYYY-MM-DD): ")
	if err != nil {
		fmt.Printf("\n\033[31mInvalid date: %s\033[0m\n", err.Error())
		return
	}
	endDate, err := readDate(reader, "Enter the end date (YYYY-MM-DD): ")
	if err != nil {
		fmt.Printf("\n\033[31mInvalid date: %s\033[0m\n", err.Error())
		return
	}

	sat := readLine(reader, "Satellite (L8/L9, default L8): ")
	if sat == "" {
		sat = "L8"
	}
	useNDVI := strings.EqualFold(readLine(reader, "Apply NDVI emissivity correction? (y/N): "), "y")

	seasonStart, seasonEnd := 0, 0
	if raw := readLine(reader, "Season start month 1-12 (empty for full year): "); raw != "" {
		seasonStart, err = strconv.Atoi(raw)
		if err != nil {
			fmt.Printf("\n\033[31mInvalid month: %s\033[0m\n", raw)
			return
		}
		seasonEnd, err = strconv.Atoi(readLine(reader, "Season end month 1-12: "))
		if err != nil {
			fmt.Printf("\n\033[31mInvalid month\033[0m\n")
			return
		}
	}

	runAnalysis(pipeline.Config{
		Region:           region,
		Kind:             index.LST,
		StartDate:        startDate,
		EndDate:          endDate,
		SeasonStartMonth: seasonStart,
		SeasonEndMonth:   seasonEnd,
		Sat:              sat,
		UseNDVI:          useNDVI,
		MaxPixels:        properties.MaxPixels(),
		Workers:          properties.Workers(),
	}, reader)
}

func exportMenu(reader *bufio.Reader) {
	jobs, err := report.ListStagedExports()
	if err != nil {
		fmt.Printf("\n\033[31mError listing exports: %s\033[0m\n", err.Error())
		return
	}
	if len(jobs) == 0 {
		fmt.Println("\033[33mNo staged exports found.\033[0m")
		return
	}

	fmt.Println("\033[32m\nStaged exports:\033[0m")
	for i, job := range jobs {
		fmt.Printf("\033[32m%d. %s\033[0m\n", i+1, job)
	}

	choice, err := strconv.Atoi(readLine(reader, "Enter the number of the export to run: "))
	if err != nil || choice < 1 || choice > len(jobs) {
		fmt.Printf("\n\033[31mInvalid choice.\033[0m\n")
		return
	}

	output, err := report.RunExport(jobs[choice-1])
	if err != nil {
		fmt.Printf("\n\033[31mError running export: %s\033[0m\n", err.Error())
		return
	}
	fmt.Printf("\n\033[32mExport rendered at %s\033[0m\n", output)
}

func listRegions() {
	files, err := os.ReadDir(properties.RootPath() + "/data/geojsons")
	if err != nil {
		fmt.Printf("\n\033[31mError reading geojsons folder: %s\033[0m\n", err.Error())
		return
	}
	fmt.Println("\033[33m\nWarning:\033[0m")
	fmt.Println("\033[33mTo add a new region, add its '.geojson' file at 'data/geojsons' folder.\033[0m")

	fmt.Println("\n\033[32mAvailable regions:\033[0m")
	for _, file := range files {
		if strings.HasSuffix(file.Name(), ".geojson") {
			fmt.Printf("\033[32m- %s\033[0m\n", strings.TrimSuffix(file.Name(), ".geojson"))
		}
	}
}

func initCLI() {
	defer func() {
		if r := recover(); r != nil {
			pc, file, line, ok := runtime.Caller(3)
			var location string
			if ok {
				fn := runtime.FuncForPC(pc)
				location = fmt.Sprintf("%s:%d in %s", file, line, fn.Name())
			} else {
				location = "Unknown location"
			}

			fmt.Printf("\n\033[31mPANIC: %v\033[0m\n", r)
			fmt.Printf("\033[31mLocation: %s\033[0m\n", location)
			fmt.Printf("\033[31mPlease check the input and try again.\033[0m\n")
			fmt.Printf("\033[31mExiting...\033[0m\n")

			stack := debug.Stack()
			errMessage := fmt.Sprintf("TerraVista CLI panic:\n\n%v\n\nLocation: %s\n\nStack trace:\n%s", r, location, stack)
			if err := notification.SendDiscordErrorNotification(errMessage); err != nil {
				fmt.Printf("\033[31mFailed to send notification: %s\033[0m\n", err.Error())
			}
		}
	}()
	printBanner()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Println("\033[34m===================\033[0m")
		fmt.Println("\033[34m1. Analyze vegetation index (NDVI/EVI)\033[0m")
		fmt.Println("\033[34m2. Analyze land surface temperature\033[0m")
		fmt.Println("\033[34m3. Run a staged export\033[0m")
		fmt.Println("\033[34m4. List available regions\033[0m")
		fmt.Println("\033[34m5. Exit\033[0m")
		fmt.Println("\033[34mEnter your choice:\033[0m")

		choice, err := strconv.Atoi(readLine(reader, ""))
		if err != nil {
			fmt.Printf("\n\033[31mInvalid input. Please enter a number.\033[0m\n")
			continue
		}

		switch choice {
		case 1:
			vegetationMenu(reader)
		case 2:
			temperatureMenu(reader)
		case 3:
			exportMenu(reader)
		case 4:
			listRegions()
		case 5:
			println("Exiting...")
			return
		default:
			println("Invalid choice. Please try again.")
		}
	}
}

func main() {
	err := godotenv.Load("../../.env")
	if err != nil {
		err := godotenv.Load("../.env")
		if err != nil {
			if err := godotenv.Load(".env"); err != nil {
				fmt.Println("\033[33mNo .env file found, relying on the environment.\033[0m")
			}
		}
	}

	initCLI()
}
