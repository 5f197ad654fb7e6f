// ABOUTME: Ground-truth duration measurement for audio assets
// ABOUTME: Fetches and decodes sources, caching exact duration and format
package analyze

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/soundcue/soundcue-go/pkg/audio/decode"
	"github.com/soundcue/soundcue-go/pkg/audio/fetch"
)

// Result holds the measured properties of one source.
// On decode failure Success is false and Reason explains why; Measure
// never returns an error for a bad asset.
type Result struct {
	Path       string
	Success    bool
	Duration   time.Duration
	SampleRate int
	Channels   int
	Format     string
	Reason     string
}

// Report aggregates a batch measurement
type Report struct {
	Files          []Result
	TotalAnalyzed  int
	SuccessCount   int
	FailureCount   int
}

// Analyzer measures exact asset durations by decoding them.
// Results are cached by path; repeated measurements are free.
type Analyzer struct {
	mu    sync.Mutex
	cache map[string]Result
	fetch *fetch.Client
	log   zerolog.Logger
}

// NewAnalyzer creates a duration analyzer
func NewAnalyzer(fetchClient *fetch.Client, logger zerolog.Logger) *Analyzer {
	if fetchClient == nil {
		fetchClient = fetch.NewClient(nil)
	}
	return &Analyzer{
		cache: make(map[string]Result),
		fetch: fetchClient,
		log:   logger,
	}
}

// Measure fetches and decodes a source, returning its exact duration.
// The sequencing logic needs measured durations, not manifest estimates,
// so this always decodes rather than trusting hints.
func (a *Analyzer) Measure(ctx context.Context, path string) Result {
	a.mu.Lock()
	if cached, ok := a.cache[path]; ok {
		a.mu.Unlock()
		return cached
	}
	a.mu.Unlock()

	res := a.measure(ctx, path)

	a.mu.Lock()
	a.cache[path] = res
	a.mu.Unlock()

	return res
}

func (a *Analyzer) measure(ctx context.Context, path string) Result {
	res := Result{Path: path}

	codec := decode.CodecForSource(path)
	if codec == "" {
		res.Reason = "unknown format"
		return res
	}
	res.Format = codec

	data, err := a.fetch.Fetch(ctx, path)
	if err != nil {
		res.Reason = err.Error()
		return res
	}

	dec, err := decode.New(codec)
	if err != nil {
		res.Reason = err.Error()
		return res
	}
	defer dec.Close()

	clip, err := dec.Decode(data)
	if err != nil {
		a.log.Warn().Str("path", path).Err(err).Msg("duration measurement failed")
		res.Reason = err.Error()
		return res
	}

	res.Success = true
	res.Duration = clip.Duration()
	res.SampleRate = clip.Format.SampleRate
	res.Channels = clip.Format.Channels

	a.log.Debug().
		Str("path", path).
		Dur("duration", res.Duration).
		Int("sample_rate", res.SampleRate).
		Int("channels", res.Channels).
		Msg("measured asset duration")

	return res
}

// MeasureBatch measures all paths concurrently. Individual failures do not
// abort the batch; they show up in the report's failure count.
func (a *Analyzer) MeasureBatch(ctx context.Context, paths []string) Report {
	results := make([]Result, len(paths))

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			results[i] = a.Measure(ctx, path)
		}(i, path)
	}
	wg.Wait()

	report := Report{Files: results, TotalAnalyzed: len(results)}
	for _, r := range results {
		if r.Success {
			report.SuccessCount++
		} else {
			report.FailureCount++
		}
	}

	return report
}
