// ABOUTME: Entry point for the cuecheck CLI
// ABOUTME: Static validation and duration measurement for CI pipelines
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/soundcue/soundcue-go/pkg/audio/analyze"
	"github.com/soundcue/soundcue-go/pkg/choreo"
	"github.com/soundcue/soundcue-go/pkg/cue"
)

var (
	manifestPath string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "cuecheck",
	Short: "Static checks for sound manifests and choreography timelines",
}

var validateCmd = &cobra.Command{
	Use:   "validate [timeline.yaml ...]",
	Short: "Validate the manifest and choreography timelines",
	Long: `Validates the asset manifest and any timeline files against it.
Exits non-zero when errors are found, so it can gate CI.`,
	RunE: runValidate,
}

var measureCmd = &cobra.Command{
	Use:   "measure <file ...>",
	Short: "Measure ground-truth durations of audio files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMeasure,
}

func main() {
	// Optional .env for local runs; absence is fine
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVarP(&manifestPath, "manifest", "m", "", "asset manifest JSON path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(validateCmd, measureCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func loadManifest() (*cue.Manifest, error) {
	if manifestPath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := cue.ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", manifestPath, err)
	}
	return m, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	manifest, err := loadManifest()
	if err != nil {
		return err
	}
	if manifest != nil {
		fmt.Printf("manifest %s: OK (%d assets)\n", manifestPath, len(manifest.Assets))
	}

	failed := false
	for _, path := range args {
		tl, err := choreo.LoadTimeline(path)
		if err != nil {
			fmt.Printf("timeline %s: %v\n", path, err)
			failed = true
			continue
		}

		var res choreo.ValidationResult
		if manifest != nil {
			res = tl.ValidateWithManifest(manifest)
		} else {
			res = tl.Validate()
		}

		for _, e := range res.Errors {
			fmt.Printf("timeline %s: error: %s\n", path, e)
		}
		for _, w := range res.Warnings {
			fmt.Printf("timeline %s: warning: %s\n", path, w)
		}
		if res.Valid {
			fmt.Printf("timeline %s: OK (%d entries, %d warnings)\n", path, len(tl.Entries), len(res.Warnings))
		} else {
			failed = true
		}
	}

	if failed {
		return fmt.Errorf("validation failed")
	}
	return nil
}

func runMeasure(cmd *cobra.Command, args []string) error {
	a := analyze.NewAnalyzer(nil, logger())
	report := a.MeasureBatch(context.Background(), args)

	for _, res := range report.Files {
		if res.Success {
			fmt.Printf("%-40s %8v  %dHz %dch %s\n",
				res.Path, res.Duration, res.SampleRate, res.Channels, res.Format)
		} else {
			fmt.Printf("%-40s FAILED: %s\n", res.Path, res.Reason)
		}
	}

	fmt.Printf("\nanalyzed %d files: %d ok, %d failed\n",
		report.TotalAnalyzed, report.SuccessCount, report.FailureCount)

	if report.FailureCount > 0 {
		return fmt.Errorf("%d files failed analysis", report.FailureCount)
	}
	return nil
}
