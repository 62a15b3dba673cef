package telemetry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baditaflorin/go_length_eval/internal/core/domain"
)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()

	r.ObserveTrial(domain.TrialResult{Direction: domain.Expand, TargetLength: 4, GeneratedLength: 4})
	r.ObserveTrial(domain.TrialResult{Direction: domain.Expand, TargetLength: 4, GeneratedLength: 2})
	r.ObserveTrial(domain.TrialResult{Direction: domain.Compress, TargetLength: 8, GeneratedLength: 8})
	r.ObserveGeneration("m", 2*time.Second, nil)
	r.ObserveGeneration("m", 0, errors.New("boom"))
	r.ObserveDegenerate("jaccard")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.trialsTotal.WithLabelValues("expand")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.trialsTotal.WithLabelValues("compress")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.generationErrors.WithLabelValues("m")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.degenerateTotal.WithLabelValues("jaccard")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.generationDuration))
}

func TestRecorderWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveDegenerate("kl_divergence")

	path := filepath.Join(t.TempDir(), "lengtheval.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `lengtheval_degenerate_metrics_total{metric="kl_divergence"} 1`)
}
