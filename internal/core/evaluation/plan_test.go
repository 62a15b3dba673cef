package evaluation

import (
	"testing"

	"github.com/baditaflorin/go_length_eval/internal/core/domain"
)

func TestPlanTrialsOrder(t *testing.T) {
	docs := []domain.Document{{FileName: "a"}, {FileName: "b"}}
	plan := DefaultPlan()

	var got []domain.Trial
	for trial := range plan.Trials(docs) {
		got = append(got, trial)
	}

	if len(got) != 12 {
		t.Fatalf("expected 12 trials, got %d", len(got))
	}
	want := []struct {
		file  string
		ratio float64
		dir   domain.Direction
	}{
		{"a", 0.25, domain.Expand},
		{"a", 0.25, domain.Compress},
		{"a", 0.50, domain.Expand},
		{"a", 0.50, domain.Compress},
		{"a", 0.75, domain.Expand},
		{"a", 0.75, domain.Compress},
		{"b", 0.25, domain.Expand},
	}
	for i, w := range want {
		if got[i].Document.FileName != w.file || got[i].LengthFactor != w.ratio || got[i].Direction != w.dir {
			t.Errorf("trial %d: got (%s, %v, %s), want (%s, %v, %s)", i,
				got[i].Document.FileName, got[i].LengthFactor, got[i].Direction, w.file, w.ratio, w.dir)
		}
	}
}

func TestPlanTrialsIsLazyAndRestartable(t *testing.T) {
	docs := []domain.Document{{FileName: "a"}, {FileName: "b"}}
	seq := DefaultPlan().Trials(docs)

	n := 0
	for range seq {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("expected to stop after 2 trials, got %d", n)
	}

	total := 0
	for range seq {
		total++
	}
	if total != 12 {
		t.Errorf("expected restart to enumerate 12 trials, got %d", total)
	}
}

func TestPlanValidate(t *testing.T) {
	tests := []struct {
		name    string
		ratios  []float64
		dirs    []domain.Direction
		wantErr bool
	}{
		{"default", DefaultRatios, DefaultDirections, false},
		{"ratio one", []float64{1}, DefaultDirections, false},
		{"zero ratio", []float64{0}, DefaultDirections, true},
		{"negative ratio", []float64{-0.5}, DefaultDirections, true},
		{"ratio above one", []float64{1.01}, DefaultDirections, true},
		{"no ratios", nil, DefaultDirections, true},
		{"no directions", DefaultRatios, nil, true},
		{"unknown direction", DefaultRatios, []domain.Direction{domain.Direction(7)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPlan(tt.ratios, tt.dirs)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewPlan() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
