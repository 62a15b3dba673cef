package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/baditaflorin/go_length_eval/internal/core/domain"
	"github.com/baditaflorin/go_length_eval/internal/core/evaluation"
	"github.com/baditaflorin/go_length_eval/internal/core/prompt"
)

var (
	promptRatio     float64
	promptDirection string
)

var promptCmd = &cobra.Command{
	Use:   "prompt [text]",
	Short: "Render the prompt of one trial",
	Long: `Prints the target word count and the prompt the benchmark would send for
the given text, ratio and direction. Without an argument the text is read
from standard input.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPrompt,
}

func init() {
	promptCmd.Flags().Float64VarP(&promptRatio, "ratio", "r", 0.5, "length ratio in (0, 1]")
	promptCmd.Flags().StringVarP(&promptDirection, "direction", "d", domain.Expand.String(), "expand or compress")
	rootCmd.AddCommand(promptCmd)
}

func runPrompt(cmd *cobra.Command, args []string) error {
	dir, err := domain.ParseDirection(promptDirection)
	if err != nil {
		return err
	}
	if _, err := evaluation.NewPlan([]float64{promptRatio}, []domain.Direction{dir}); err != nil {
		return err
	}

	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading standard input: %w", err)
		}
		text = string(data)
	}
	if text == "" {
		return errors.New("no text given")
	}

	target, p := prompt.Build(text, promptRatio, dir)
	cmd.Printf("original_length: %d\n", prompt.WordCount(text))
	cmd.Printf("target_length: %d\n\n", target)
	cmd.Println(p)
	return nil
}
