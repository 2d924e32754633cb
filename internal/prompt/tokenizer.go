package prompt

import (
	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer counts how many model tokens a piece of text costs. The
// assembler only ever compares counts against a budget, so an estimator
// is an acceptable stand-in when the real encoding is unavailable.
type Tokenizer interface {
	Count(text string) int
}

// tiktokenTokenizer counts with the model's real BPE encoding
type tiktokenTokenizer struct {
	encoding *tiktoken.Tiktoken
}

func (t *tiktokenTokenizer) Count(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

// Estimator approximates token counts as ceil(len/4), the usual
// rule of thumb for English text. Deterministic and dependency-free,
// which is what tests want.
type Estimator struct{}

// Count implements Tokenizer
func (Estimator) Count(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}

// NewTokenizer returns a tokenizer for the given model, falling back to
// the estimator when the model's encoding cannot be loaded.
func NewTokenizer(model string) Tokenizer {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return Estimator{}
	}
	return &tiktokenTokenizer{encoding: encoding}
}
