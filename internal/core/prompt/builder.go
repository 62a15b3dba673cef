// Package prompt renders the length-control instruction sent to the generation model.
package prompt

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/baditaflorin/go_length_eval/internal/core/domain"
)

// Template is filled with the target percentage and the source text.
const Template = "Generate an essay that is %s%% the length of this in the same style:\n\n%s"

// WordCount returns the number of whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// TargetLength returns the word count to aim for: words*ratio when expanding,
// words/ratio when compressing, rounded to the nearest integer.
func TargetLength(words int, ratio float64, direction domain.Direction) int {
	if direction == domain.Compress {
		return int(math.Round(float64(words) / ratio))
	}
	return int(math.Round(float64(words) * ratio))
}

// Percentage returns the target length relative to the original, in percent.
func Percentage(ratio float64, direction domain.Direction) float64 {
	if direction == domain.Compress {
		return 100 / ratio
	}
	return ratio * 100
}

// FormatPercentage renders p with at most two decimals and no trailing zeros.
func FormatPercentage(p float64) string {
	return strconv.FormatFloat(math.Round(p*100)/100, 'f', -1, 64)
}

// Build returns the target word count and the prompt for text at the given
// ratio and direction. The ratio is not validated; callers reject ratios
// outside (0, 1] before building prompts.
func Build(text string, ratio float64, direction domain.Direction) (int, string) {
	target := TargetLength(WordCount(text), ratio, direction)
	pct := FormatPercentage(Percentage(ratio, direction))
	return target, fmt.Sprintf(Template, pct, text)
}
