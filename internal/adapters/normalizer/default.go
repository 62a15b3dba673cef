package normalizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/baditaflorin/go_length_eval/internal/pool"
	"github.com/baditaflorin/go_length_eval/internal/ports"
)

var buffers = pool.NewBufferPool(1024)

// DefaultNormalizer implements the default text normalization strategy.
type DefaultNormalizer struct{}

// NewDefaultNormalizer creates a new default normalizer.
func NewDefaultNormalizer() ports.Normalizer {
	return &DefaultNormalizer{}
}

// Normalize converts the input text to lower case and replaces punctuation with spaces.
// The underscore is kept, it counts as a word character.
func (n *DefaultNormalizer) Normalize(text string) string {
	text = strings.ToLower(text)
	buf := buffers.Get()
	b := *buf
	for _, r := range text {
		if unicode.IsPunct(r) && r != '_' {
			b = append(b, ' ')
		} else {
			b = utf8.AppendRune(b, r)
		}
	}
	out := string(b)
	*buf = b
	buffers.Put(buf)
	return out
}

// WordAnalyzer extracts vector-space terms: lower-cased runs of word characters
// (letters, digits, marks and underscore) at least MinRunes long.
type WordAnalyzer struct {
	normalizer ports.Normalizer
	minRunes   int
}

// DefaultMinTermRunes drops single-character terms.
const DefaultMinTermRunes = 2

// NewWordAnalyzer creates an analyzer on top of the given normalizer.
// A nil normalizer selects the default one; minRunes < 1 selects DefaultMinTermRunes.
func NewWordAnalyzer(normalizer ports.Normalizer, minRunes int) *WordAnalyzer {
	if normalizer == nil {
		normalizer = NewDefaultNormalizer()
	}
	if minRunes < 1 {
		minRunes = DefaultMinTermRunes
	}
	return &WordAnalyzer{normalizer: normalizer, minRunes: minRunes}
}

// Terms returns the terms of text in order of appearance, duplicates included.
func (a *WordAnalyzer) Terms(text string) []string {
	fields := strings.FieldsFunc(a.normalizer.Normalize(text), func(r rune) bool {
		return !isWordRune(r)
	})
	terms := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= a.minRunes {
			terms = append(terms, f)
		}
	}
	return terms
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
