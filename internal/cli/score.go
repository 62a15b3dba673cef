package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/baditaflorin/go_length_eval/internal/core/evaluation"
)

var (
	scoreFromFiles bool
	scoreJSON      bool
)

var scoreCmd = &cobra.Command{
	Use:   "score [original] [generated]",
	Short: "Score a generated text against its original",
	Long: `Computes the five metrics of the benchmark for a single pair of texts.
With --files the arguments are read as file paths.`,
	Args: cobra.ExactArgs(2),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().BoolVarP(&scoreFromFiles, "files", "f", false, "treat arguments as file paths")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "output scores as JSON")
	rootCmd.AddCommand(scoreCmd)
}

type scoreOutput struct {
	LevenshteinSimilarity float64  `json:"levenshtein_similarity"`
	JaccardSimilarity     float64  `json:"jaccard_similarity"`
	CosineSimilarity      float64  `json:"cosine_similarity"`
	KLDivergence          *float64 `json:"kl_divergence"`
	EuclideanDistance     float64  `json:"euclidean_distance"`
	Degenerate            []string `json:"degenerate,omitempty"`
}

func runScore(cmd *cobra.Command, args []string) error {
	original, generated := args[0], args[1]
	if scoreFromFiles {
		var err error
		if original, err = readText(original); err != nil {
			return err
		}
		if generated, err = readText(generated); err != nil {
			return err
		}
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	scorer, err := evaluation.NewScorer(cfg.MetricsConfig(), log)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	scores := scorer.Score(ctx, original, generated)

	var degenerate []string
	for _, r := range scores.Results {
		if r.Degenerate() {
			degenerate = append(degenerate, r.Name)
		}
	}

	if scoreJSON {
		out := scoreOutput{
			LevenshteinSimilarity: scores.LevenshteinSimilarity,
			JaccardSimilarity:     scores.JaccardSimilarity,
			CosineSimilarity:      scores.CosineSimilarity,
			EuclideanDistance:     scores.EuclideanDistance,
			Degenerate:            degenerate,
		}
		// JSON has no infinity; an unbounded divergence is null.
		if kl := scores.KLDivergence; !math.IsInf(kl, 0) {
			out.KLDivergence = &kl
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal scores: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("levenshtein_similarity  %v\n", scores.LevenshteinSimilarity)
	cmd.Printf("jaccard_similarity      %v\n", scores.JaccardSimilarity)
	cmd.Printf("cosine_similarity       %v\n", scores.CosineSimilarity)
	cmd.Printf("kl_divergence           %v\n", scores.KLDivergence)
	cmd.Printf("euclidean_distance      %v\n", scores.EuclideanDistance)
	for _, name := range degenerate {
		cmd.Printf("warning: %s is undefined for this input, sentinel reported\n", name)
	}
	return nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
