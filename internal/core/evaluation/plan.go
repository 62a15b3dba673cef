package evaluation

import (
	"errors"
	"fmt"
	"iter"

	"github.com/baditaflorin/go_length_eval/internal/core/domain"
)

// DefaultRatios are the length factors evaluated per document.
var DefaultRatios = []float64{0.25, 0.50, 0.75}

// DefaultDirections are evaluated for every ratio.
var DefaultDirections = []domain.Direction{domain.Expand, domain.Compress}

// Plan is the set of (ratio, direction) pairs applied to every document.
type Plan struct {
	Ratios     []float64
	Directions []domain.Direction
}

// DefaultPlan returns three ratios times both directions.
func DefaultPlan() Plan {
	return Plan{
		Ratios:     append([]float64(nil), DefaultRatios...),
		Directions: append([]domain.Direction(nil), DefaultDirections...),
	}
}

// NewPlan validates ratios and directions.
func NewPlan(ratios []float64, directions []domain.Direction) (Plan, error) {
	p := Plan{Ratios: ratios, Directions: directions}
	return p, p.Validate()
}

// Validate checks that every ratio lies in (0, 1] and the plan is not empty.
func (p Plan) Validate() error {
	if len(p.Ratios) == 0 {
		return errors.New("plan needs at least one ratio")
	}
	if len(p.Directions) == 0 {
		return errors.New("plan needs at least one direction")
	}
	for _, r := range p.Ratios {
		if !(r > 0 && r <= 1) {
			return fmt.Errorf("ratio %v outside (0, 1]", r)
		}
	}
	for _, d := range p.Directions {
		if d != domain.Expand && d != domain.Compress {
			return fmt.Errorf("unknown direction %v", d)
		}
	}
	return nil
}

// TrialsPerDocument is len(Ratios) * len(Directions).
func (p Plan) TrialsPerDocument() int {
	return len(p.Ratios) * len(p.Directions)
}

// Trials lazily enumerates documents x ratios x directions, in that nesting order.
// Each range over the returned sequence starts again from the first trial.
func (p Plan) Trials(docs []domain.Document) iter.Seq[domain.Trial] {
	return func(yield func(domain.Trial) bool) {
		for _, doc := range docs {
			for _, ratio := range p.Ratios {
				for _, dir := range p.Directions {
					if !yield(domain.Trial{Document: doc, LengthFactor: ratio, Direction: dir}) {
						return
					}
				}
			}
		}
	}
}
