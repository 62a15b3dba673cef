// Package warmup primes the generation model and the metric calculators before a run.
package warmup

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/baditaflorin/go_length_eval/internal/ports"
)

// WarmupConfig defines configuration for warming up the system
type WarmupConfig struct {
	// Number of concurrent warmup routines for the calculators
	Concurrency int
	// Number of iterations per routine
	Iterations int
	// Sample text size in bytes
	SampleTextSize int
	// Warmup duration (0 means no time limit)
	Duration time.Duration
	// GenerationLength is the budget of the single priming generation. 0 skips it.
	GenerationLength int
	// Whether to perform GC after warmup
	ForceGC bool
}

// DefaultWarmupConfig returns the default warmup configuration
func DefaultWarmupConfig() WarmupConfig {
	return WarmupConfig{
		Concurrency:      runtime.NumCPU(),
		Iterations:       50,
		SampleTextSize:   1000,
		Duration:         30 * time.Second,
		GenerationLength: 8,
		ForceGC:          true,
	}
}

// Manager handles system warmup operations
type Manager struct {
	logger      ports.Logger
	calculators []ports.SimilarityCalculator
	generators  []ports.Generator
	config      WarmupConfig
}

// NewManager creates a new warmup manager
func NewManager(logger ports.Logger, config WarmupConfig) *Manager {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	return &Manager{
		logger: logger,
		config: config,
	}
}

// RegisterCalculator adds a calculator to be warmed up
func (wm *Manager) RegisterCalculator(calcs ...ports.SimilarityCalculator) {
	wm.calculators = append(wm.calculators, calcs...)
}

// RegisterGenerator adds a generator that receives one priming request.
func (wm *Manager) RegisterGenerator(gen ports.Generator) {
	wm.generators = append(wm.generators, gen)
}

// WarmUp runs the warmup process for all registered components. Only a failed
// priming generation is returned.
func (wm *Manager) WarmUp(ctx context.Context) error {
	startTime := time.Now()
	wm.logger.Info("Starting system warmup",
		"components", len(wm.calculators)+len(wm.generators),
		"concurrency", wm.config.Concurrency,
		"iterations", wm.config.Iterations,
	)

	warmupCtx := ctx
	if wm.config.Duration > 0 {
		var cancel context.CancelFunc
		warmupCtx, cancel = context.WithTimeout(ctx, wm.config.Duration)
		defer cancel()
	}

	if err := wm.warmUpGenerators(warmupCtx); err != nil {
		return err
	}
	wm.warmUpCalculators(warmupCtx)

	if wm.config.ForceGC {
		wm.logger.Debug("Forcing garbage collection after warmup")
		runtime.GC()
	}

	wm.logger.Info("System warmup completed",
		"duration", time.Since(startTime),
	)
	return nil
}

func (wm *Manager) warmUpGenerators(ctx context.Context) error {
	if wm.config.GenerationLength <= 0 {
		return nil
	}
	sample := generateSampleText(wm.config.SampleTextSize)
	for _, gen := range wm.generators {
		start := time.Now()
		if _, err := gen.Generate(ctx, sample, wm.config.GenerationLength); err != nil {
			return fmt.Errorf("warming up %s: %w", gen.Name(), err)
		}
		wm.logger.Debug("Generator primed", "model", gen.Name(), "duration", time.Since(start))
	}
	return nil
}

// warmUpCalculators runs warmup for all registered calculators
func (wm *Manager) warmUpCalculators(ctx context.Context) {
	if len(wm.calculators) == 0 {
		return
	}

	wm.logger.Debug("Warming up calculators", "count", len(wm.calculators))

	// Sample texts of different similarity levels
	original := generateSampleText(wm.config.SampleTextSize)
	similar := generateSimilarText(original, 0.1)
	different := generateSimilarText(original, 0.5)

	var wg sync.WaitGroup
	for i := 0; i < wm.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for j := 0; j < wm.config.Iterations; j++ {
				select {
				case <-ctx.Done():
					return
				default:
				}

				for _, calculator := range wm.calculators {
					switch j % 3 {
					case 0:
						_ = calculator.Compute(ctx, original, original)
					case 1:
						_ = calculator.Compute(ctx, original, similar)
					default:
						_ = calculator.Compute(ctx, original, different)
					}
				}
			}
		}()
	}

	wg.Wait()
}

// generateSampleText creates sample text of at most size bytes
func generateSampleText(size int) string {
	words := []string{
		"the", "quick", "brown", "fox", "jumps", "over", "lazy", "dog",
		"hello", "world", "lorem", "ipsum", "dolor", "sit", "amet", "consectetur",
		"adipiscing", "elit", "sed", "do", "eiusmod", "tempor", "incididunt",
		"ut", "labore", "et", "dolore", "magna", "aliqua",
	}

	var sb strings.Builder
	wordsNeeded := size / 5 // Assuming average word length of 5

	for i := 0; i < wordsNeeded; i++ {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(words[i%len(words)])
	}

	result := sb.String()
	if len(result) > size {
		return result[:size]
	}
	return result
}

// generateSimilarText replaces the leading diffRatio share of words
func generateSimilarText(original string, diffRatio float64) string {
	words := strings.Fields(original)
	changeCount := int(float64(len(words)) * diffRatio)

	replacements := []string{
		"replaced", "modified", "changed", "altered", "updated",
		"different", "unique", "new", "fresh", "novel",
	}

	newWords := make([]string, len(words))
	copy(newWords, words)
	for i := 0; i < changeCount && i < len(newWords); i++ {
		newWords[i] = replacements[i%len(replacements)]
	}

	return strings.Join(newWords, " ")
}
