package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/baditaflorin/go_length_eval/internal/core/domain"
	"github.com/baditaflorin/go_length_eval/internal/ports"
)

// Columns is the header of the evaluation report.
var Columns = []string{
	"file_name",
	"original_length",
	"length_factor",
	"operation",
	"model",
	"generated_text",
	"generated_length",
	"levenshtein_similarity",
	"jaccard_similarity",
	"cosine_similarity",
	"kl_divergence",
	"euclidean_distance",
}

// Writer appends one report row per result and flushes after each row, so
// rows written before a failure survive it.
type Writer struct {
	csv    *csv.Writer
	closer io.Closer
	closed bool
}

var _ ports.ResultSink = (*Writer)(nil)

// Create truncates or creates path and writes the header.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating results file: %w", err)
	}
	w, err := newWriter(f, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// NewWriter writes the header to w. Close does not close w.
func NewWriter(w io.Writer) (*Writer, error) {
	return newWriter(w, nil)
}

func newWriter(w io.Writer, closer io.Closer) (*Writer, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return &Writer{csv: cw, closer: closer}, nil
}

// Write appends the row of result.
func (w *Writer) Write(_ context.Context, result domain.TrialResult) error {
	if err := w.csv.Write(Record(result)); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Close flushes pending output and closes the underlying file, if owned.
// Calls after the first return nil.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.csv.Flush()
	err := w.csv.Error()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Record formats result in Columns order.
func Record(r domain.TrialResult) []string {
	return []string{
		r.FileName,
		strconv.Itoa(r.OriginalLength),
		formatFloat(r.LengthFactor),
		r.Direction.String(),
		r.Model,
		r.GeneratedText,
		strconv.Itoa(r.GeneratedLength),
		formatFloat(r.LevenshteinSimilarity),
		formatFloat(r.JaccardSimilarity),
		formatFloat(r.CosineSimilarity),
		formatFloat(r.KLDivergence),
		formatFloat(r.EuclideanDistance),
	}
}

// formatFloat spells infinities the way pandas reads and writes them.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
