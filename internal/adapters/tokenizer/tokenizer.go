// Package tokenizer provides the vocabulary encoders used to bound generation length.
package tokenizer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pkoukk/tiktoken-go"

	"github.com/baditaflorin/go_length_eval/internal/ports"
)

// Words is the encoding name of the whitespace word encoder.
const Words = "words"

// DefaultEncoding is used when no encoding is configured.
const DefaultEncoding = "cl100k_base"

// New returns the encoder for encoding, which is either Words, a tiktoken
// encoding name (cl100k_base, o200k_base, ...) or a model name tiktoken knows.
func New(encoding string) (ports.Tokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	if encoding == Words {
		return NewWordTokenizer(), nil
	}
	return NewTiktoken(encoding)
}

// Tiktoken encodes text with a BPE vocabulary from tiktoken-go.
type Tiktoken struct {
	encoding string
	tke      *tiktoken.Tiktoken
}

var _ ports.Tokenizer = (*Tiktoken)(nil)

// NewTiktoken loads the named encoding, or the encoding of the named model.
func NewTiktoken(encodingOrModel string) (*Tiktoken, error) {
	tke, err := tiktoken.GetEncoding(encodingOrModel)
	if err != nil {
		tke, err = tiktoken.EncodingForModel(encodingOrModel)
		if err != nil {
			return nil, fmt.Errorf("loading tiktoken encoding %q: %w", encodingOrModel, err)
		}
	}
	return &Tiktoken{encoding: encodingOrModel, tke: tke}, nil
}

// Encoding returns the configured encoding or model name.
func (t *Tiktoken) Encoding() string { return t.encoding }

// Encode returns the token ids of text. Special tokens are encoded as plain text.
func (t *Tiktoken) Encode(text string) []int {
	return t.tke.Encode(text, nil, nil)
}

// Decode turns token ids back into text.
func (t *Tiktoken) Decode(tokens []int) string {
	return t.tke.Decode(tokens)
}

// Count returns the number of tokens in text.
func (t *Tiktoken) Count(text string) int {
	return len(t.Encode(text))
}

// Truncate keeps the first max tokens of text.
func (t *Tiktoken) Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	tokens := t.Encode(text)
	if len(tokens) <= max {
		return text
	}
	return t.Decode(tokens[:max])
}

// WordTokenizer treats every whitespace-separated word as one unit. Ids index
// an append-only vocabulary built while encoding.
type WordTokenizer struct {
	index map[string]int
	words []string
}

var _ ports.Tokenizer = (*WordTokenizer)(nil)

// NewWordTokenizer creates an empty word vocabulary.
func NewWordTokenizer() *WordTokenizer {
	return &WordTokenizer{index: make(map[string]int)}
}

// Encoding returns Words.
func (w *WordTokenizer) Encoding() string { return Words }

// Encode returns one id per word, growing the vocabulary as needed.
func (w *WordTokenizer) Encode(text string) []int {
	fields := strings.Fields(text)
	ids := make([]int, len(fields))
	for i, f := range fields {
		id, ok := w.index[f]
		if !ok {
			id = len(w.words)
			w.index[f] = id
			w.words = append(w.words, f)
		}
		ids[i] = id
	}
	return ids
}

// Decode joins the words of ids with single spaces. Unknown ids are skipped.
func (w *WordTokenizer) Decode(tokens []int) string {
	out := make([]string, 0, len(tokens))
	for _, id := range tokens {
		if id >= 0 && id < len(w.words) {
			out = append(out, w.words[id])
		}
	}
	return strings.Join(out, " ")
}

// Count returns the number of words in text.
func (w *WordTokenizer) Count(text string) int {
	return len(strings.Fields(text))
}

// Truncate keeps the first max words of text with their original spacing.
func (w *WordTokenizer) Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	words := 0
	inWord := false
	for i, r := range text {
		if unicode.IsSpace(r) {
			if inWord && words == max {
				return text[:i]
			}
			inWord = false
			continue
		}
		if !inWord {
			inWord = true
			words++
		}
	}
	return text
}
