package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baditaflorin/go_length_eval/internal/core/domain"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.BeginRun(ctx, "run-1", "echo", "gpt3"))

	want := domain.TrialResult{
		RunID:                 "run-1",
		Seq:                   1,
		FileName:              "doc.txt",
		OriginalLength:        10,
		LengthFactor:          0.5,
		Direction:             domain.Compress,
		Model:                 "gpt3",
		TargetLength:          20,
		GeneratedText:         "some generated text",
		GeneratedLength:       3,
		LevenshteinSimilarity: 0.4,
		JaccardSimilarity:     0.2,
		CosineSimilarity:      0.9,
		KLDivergence:          1.5,
		EuclideanDistance:     3,
		LengthAdherence:       0.25,
		GenerationTime:        1500 * time.Millisecond,
	}
	require.NoError(t, s.Sink().Write(ctx, want))

	got, err := s.Results(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want, got[0])

	status, err := s.RunStatus(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, status)

	require.NoError(t, s.FinishRun(ctx, "run-1", StatusCompleted))
	status, err = s.RunStatus(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
}

func TestStoreUnknownRun(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.RunStatus(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, s.FinishRun(ctx, "missing", StatusFailed), ErrRunNotFound)
}

func TestStoreReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.BeginRun(ctx, "run-1", "echo", "gpt3"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	status, err := s.RunStatus(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, status)
}

func TestStoreMigrationsAreRecorded(t *testing.T) {
	s := openStore(t)

	var version int
	require.NoError(t, s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 2, version)
}
