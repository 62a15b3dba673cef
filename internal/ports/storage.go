package ports

import (
	"context"
	"time"

	"github.com/baditaflorin/go_length_eval/internal/core/domain"
)

// DocumentSource loads the documents to evaluate.
type DocumentSource interface {
	Load(ctx context.Context) ([]domain.Document, error)
}

// ResultSink receives trial results as they are produced.
type ResultSink interface {
	Write(ctx context.Context, result domain.TrialResult) error
	Close() error
}

// RunRecorder observes run-level events for telemetry.
type RunRecorder interface {
	ObserveGeneration(model string, d time.Duration, err error)
	ObserveTrial(result domain.TrialResult)
	ObserveDegenerate(metric string)
}
