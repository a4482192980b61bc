package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"

	"github.com/strumscan/scan-server/internal/app"
	"github.com/strumscan/scan-server/internal/config"
	"github.com/strumscan/scan-server/internal/services/predcache"
	"github.com/strumscan/scan-server/internal/worker"
)

var Cmd = &cobra.Command{
	Use:   "scan [files or directories]",
	Short: "Classify instrument photos from the command line",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScan,
}

func init() {
	flags := Cmd.Flags()

	flags.Int("workers", 4, "Number of concurrent preprocessing workers")
	flags.Bool("save", false, "Record results into the scan history database")

	viper.BindPFlag("scan_workers", flags.Lookup("workers"))
	viper.BindPFlag("scan_save", flags.Lookup("save"))
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".gif": true, ".bmp": true, ".webp": true, ".tiff": true,
}

func runScan(_ *cobra.Command, args []string) error {
	save := viper.GetBool("scan_save")

	paths, err := collectImagePaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no image files found")
	}

	app, err := app.NewApp(config.MustGetConfig())
	if err != nil {
		return err
	}
	defer app.Close()

	if save {
		if err := app.InitializeDB(); err != nil {
			return err
		}
	}

	if err := app.InitializeClassifier(); err != nil {
		return err
	}

	scanner := worker.NewBatchScanner(app.Classifier(), viper.GetInt("scan_workers"))
	defer scanner.Stop()

	progress := mpb.New(mpb.WithWidth(60))
	bar := progress.AddBar(int64(len(paths)),
		mpb.PrependDecorators(
			decor.Name("scanning", decor.WC{W: 10, C: decor.DidentRight}),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)

	var results []worker.Result
	for result := range scanner.ScanFiles(app.Context(), paths) {
		results = append(results, result)
		bar.Increment()
	}
	progress.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	var failures int
	for _, result := range results {
		if result.Err != nil {
			failures++
			fmt.Printf("%-40s  error: %v\n", filepath.Base(result.Path), result.Err)
			continue
		}

		fmt.Printf("%-40s  %-16s %6.1f%%\n", filepath.Base(result.Path), result.Prediction.Label, result.Prediction.Confidence)

		if save {
			data, err := os.ReadFile(result.Path)
			if err != nil {
				continue
			}

			if _, err := app.History().Record(app.Context(), result.Prediction, predcache.Key(data), "", "batch"); err != nil {
				return err
			}
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d files failed", failures, len(paths))
	}

	return nil
}

func collectImagePaths(args []string) ([]string, error) {
	var paths []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}

			if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
				paths = append(paths, filepath.Join(arg, entry.Name()))
			}
		}
	}

	return paths, nil
}
