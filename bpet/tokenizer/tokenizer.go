package tokenizer

import (
	"errors"
	"fmt"
)

// Tokenizer converts raw text to model-ready token IDs and attention masks
type Tokenizer interface {
	Tokenize(texts []string) (inputIDs [][]int64, attentionMasks [][]int64, err error)
}

// Config holds basic tokenizer settings
type Config struct {
	// MaxSeqLen truncates and pads every row to this length. Zero pads to the
	// longest row of the batch instead.
	MaxSeqLen int
	// PadID fills padded positions; their mask is always zero.
	PadID int64
	// Workers bounds the number of texts encoded concurrently.
	Workers int
}

// Common error types used across the tokenizer
var (
	ErrUnknownToken     = errors.New("unknown token")
	ErrEmptyCorpus      = errors.New("corpus contains no words")
	ErrInvalidVocabSize = errors.New("target vocabulary size must be positive")
	ErrInvalidModel     = errors.New("invalid model")
)

// UnknownTokenError reports a symbol missing from the vocabulary during
// encoding, or an id outside the vocabulary range during decoding.
type UnknownTokenError struct {
	Symbol string
	ID     int
	// ByID is set when the error comes from decoding an id.
	ByID bool
}

func (e *UnknownTokenError) Error() string {
	if e.ByID {
		return fmt.Sprintf("unknown token id %d", e.ID)
	}
	return fmt.Sprintf("unknown token %q", e.Symbol)
}

// Is lets errors.Is(err, ErrUnknownToken) match.
func (e *UnknownTokenError) Is(target error) bool {
	return target == ErrUnknownToken
}

func unknownSymbol(symbol string) error {
	return &UnknownTokenError{Symbol: symbol}
}

func unknownID(id int) error {
	return &UnknownTokenError{ID: id, ByID: true}
}
