package domain

import (
	"fmt"
	"time"
)

// Result holds the outcome of a single metric computation.
type Result struct {
	Name    string
	Score   float64
	Details map[string]interface{}
}

// Degenerate reports whether the score is a configured sentinel rather than a computed value.
func (r Result) Degenerate() bool {
	_, ok := r.Details["error"]
	return ok
}

// Scores holds the five similarity and distance values for one (original, generated) pair.
type Scores struct {
	LevenshteinSimilarity float64
	JaccardSimilarity     float64
	CosineSimilarity      float64
	KLDivergence          float64
	EuclideanDistance     float64
	// Results keeps the per-metric results, in the order above.
	Results []Result
}

// Document is one row of the input metadata table.
type Document struct {
	FileName     string
	OriginalText string
}

// Direction tells whether the target is longer or shorter than the original.
type Direction int

const (
	// Expand asks for a text longer than the original.
	Expand Direction = iota
	// Compress asks for a text shorter than the original.
	Compress
)

// String returns the serialized name of the direction.
func (d Direction) String() string {
	switch d {
	case Expand:
		return "expand"
	case Compress:
		return "compress"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection converts a serialized direction name.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "expand":
		return Expand, nil
	case "compress":
		return Compress, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (want expand or compress)", s)
	}
}

// Trial is one (document, ratio, direction) combination.
type Trial struct {
	Document     Document
	LengthFactor float64
	Direction    Direction
}

// TrialResult is the scored outcome of one trial. It is never mutated after creation.
type TrialResult struct {
	RunID                 string
	Seq                   int
	FileName              string
	OriginalLength        int
	LengthFactor          float64
	Direction             Direction
	Model                 string
	TargetLength          int
	GeneratedText         string
	GeneratedLength       int
	LevenshteinSimilarity float64
	JaccardSimilarity     float64
	CosineSimilarity      float64
	KLDivergence          float64
	EuclideanDistance     float64
	// LengthAdherence scores GeneratedLength against TargetLength. It is not part of the CSV report.
	LengthAdherence       float64
	GenerationTime        time.Duration
}
