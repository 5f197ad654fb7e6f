// ABOUTME: Asset loader with candidate fallback and caching
// ABOUTME: Fetches and decodes manifest sources, normalizing to mixer format
package cue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/soundcue/soundcue-go/pkg/audio"
	"github.com/soundcue/soundcue-go/pkg/audio/decode"
	"github.com/soundcue/soundcue-go/pkg/audio/fetch"
	"github.com/soundcue/soundcue-go/pkg/audio/resample"
)

// LoadResult reports the outcome of loading one asset key
type LoadResult struct {
	Key     string
	Success bool
	Format  string
	Err     error
}

// Loader resolves manifest keys to decoded clips. Each key's candidate
// sources are tried in negotiated order until one decodes; a key whose
// candidates all fail is marked failed for the session and only retried
// on the next explicit Load call.
type Loader struct {
	mu         sync.Mutex
	manifest   *Manifest
	fetch      *fetch.Client
	neg        *decode.Negotiator
	outputRate int
	channels   int
	clips      map[string]*audio.Clip
	formats    map[string]string
	failed     map[string]error
	log        zerolog.Logger
}

// NewLoader creates a loader normalizing clips to the given output format
func NewLoader(m *Manifest, fc *fetch.Client, neg *decode.Negotiator, outputRate, channels int, logger zerolog.Logger) *Loader {
	if fc == nil {
		fc = fetch.NewClient(nil)
	}
	if neg == nil {
		neg = decode.NewNegotiator()
	}
	return &Loader{
		manifest:   m,
		fetch:      fc,
		neg:        neg,
		outputRate: outputRate,
		channels:   channels,
		clips:      make(map[string]*audio.Clip),
		formats:    make(map[string]string),
		failed:     make(map[string]error),
		log:        logger,
	}
}

// Load fetches and decodes an asset key, retrying previously failed keys.
// Repeated loads of a cached key are no-ops returning the cached result.
func (l *Loader) Load(ctx context.Context, key string) LoadResult {
	l.mu.Lock()
	delete(l.failed, key)
	l.mu.Unlock()
	return l.Ensure(ctx, key)
}

// Ensure is Load without the retry of failed keys; the play path uses it
// so one bad asset does not refetch on every trigger.
func (l *Loader) Ensure(ctx context.Context, key string) LoadResult {
	l.mu.Lock()
	if _, ok := l.clips[key]; ok {
		res := LoadResult{Key: key, Success: true, Format: l.formats[key]}
		l.mu.Unlock()
		return res
	}
	if err, ok := l.failed[key]; ok {
		l.mu.Unlock()
		return LoadResult{Key: key, Err: newError(CodeLoadFailed, key, err)}
	}
	l.mu.Unlock()

	if !l.manifest.Has(key) {
		return LoadResult{Key: key, Err: newError(CodeNotFound, key, fmt.Errorf("key not in manifest"))}
	}

	sources := l.neg.Rank(l.manifest.Sources(key))
	if len(sources) == 0 {
		err := fmt.Errorf("no decodable candidate among %v", l.manifest.Sources(key))
		l.markFailed(key, err)
		return LoadResult{Key: key, Err: newError(CodeLoadFailed, key, err)}
	}

	var lastErr error
	for _, src := range sources {
		clip, err := l.loadSource(ctx, key, src)
		if err != nil {
			l.log.Warn().Str("key", key).Str("source", src).Err(err).Msg("candidate source failed")
			lastErr = err
			continue
		}

		format := decode.CodecForSource(src)
		l.mu.Lock()
		l.clips[key] = clip
		l.formats[key] = format
		l.mu.Unlock()

		l.log.Debug().Str("key", key).Str("source", src).Dur("duration", clip.Duration()).Msg("asset loaded")
		return LoadResult{Key: key, Success: true, Format: format}
	}

	l.markFailed(key, lastErr)
	return LoadResult{Key: key, Err: newError(CodeLoadFailed, key, lastErr)}
}

func (l *Loader) loadSource(ctx context.Context, key, src string) (*audio.Clip, error) {
	data, err := l.fetch.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}

	dec, err := decode.New(decode.CodecForSource(src))
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	clip, err := dec.Decode(data)
	if err != nil {
		return nil, err
	}

	// Normalize to the mixer's format so voices need no per-play conversion
	samples := resample.Upmix(clip.Samples, clip.Format.Channels, l.channels)
	samples = resample.Linear(samples, l.channels, clip.Format.SampleRate, l.outputRate)

	return &audio.Clip{
		Key:     key,
		Samples: samples,
		Format: audio.Format{
			Codec:      clip.Format.Codec,
			SampleRate: l.outputRate,
			Channels:   l.channels,
			BitDepth:   clip.Format.BitDepth,
		},
	}, nil
}

func (l *Loader) markFailed(key string, err error) {
	l.mu.Lock()
	l.failed[key] = err
	l.mu.Unlock()
}

// Preload loads a batch of keys concurrently. Partial success is normal;
// per-key failures land in the results without aborting the batch.
func (l *Loader) Preload(ctx context.Context, keys []string) []LoadResult {
	results := make([]LoadResult, len(keys))

	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			results[i] = l.Load(ctx, key)
		}(i, key)
	}
	wg.Wait()

	return results
}

// Clip returns the decoded clip for a loaded key
func (l *Loader) Clip(key string) (*audio.Clip, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	clip, ok := l.clips[key]
	return clip, ok
}

// Duration returns the measured duration of a loaded key, or 0
func (l *Loader) Duration(key string) time.Duration {
	if clip, ok := l.Clip(key); ok {
		return clip.Duration()
	}
	return 0
}

// Loaded returns the keys with cached clips
func (l *Loader) Loaded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	keys := make([]string, 0, len(l.clips))
	for k := range l.clips {
		keys = append(keys, k)
	}
	return keys
}

// Failed returns the keys whose candidates all failed this session
func (l *Loader) Failed() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	keys := make([]string, 0, len(l.failed))
	for k := range l.failed {
		keys = append(keys, k)
	}
	return keys
}
