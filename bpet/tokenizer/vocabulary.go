package tokenizer

import (
	"fmt"
	"sort"

	"github.com/armon/go-radix"
)

// Vocabulary is an ordered set of unique symbols. A symbol's id is its
// position. Lookups by symbol go through a patricia tree, which also serves
// prefix queries.
type Vocabulary struct {
	symbols []string
	index   *radix.Tree
}

func newVocabulary() *Vocabulary {
	return &Vocabulary{index: radix.New()}
}

// NewVocabulary builds a vocabulary from symbols in id order. Duplicate or
// empty symbols are rejected.
func NewVocabulary(symbols []string) (*Vocabulary, error) {
	v := newVocabulary()
	for i, s := range symbols {
		if s == "" {
			return nil, fmt.Errorf("%w: empty symbol at id %d", ErrInvalidModel, i)
		}
		if !v.add(s) {
			return nil, fmt.Errorf("%w: duplicate symbol %q at id %d", ErrInvalidModel, s, i)
		}
	}
	return v, nil
}

// SeedVocabulary collects the distinct characters of the distinct words in
// first-encounter order. Frequencies play no part.
func SeedVocabulary(wf *WordFrequency) *Vocabulary {
	v := newVocabulary()
	for _, w := range wf.words {
		for _, r := range w {
			v.add(string(r))
		}
	}
	return v
}

// add appends symbol with the next id. It reports false, leaving the
// vocabulary unchanged, when the symbol is already present.
func (v *Vocabulary) add(symbol string) bool {
	if _, exists := v.index.Get(symbol); exists {
		return false
	}
	v.index.Insert(symbol, len(v.symbols))
	v.symbols = append(v.symbols, symbol)
	return true
}

// Len returns the number of symbols.
func (v *Vocabulary) Len() int {
	return len(v.symbols)
}

// ID returns the id of symbol.
func (v *Vocabulary) ID(symbol string) (int, bool) {
	raw, ok := v.index.Get(symbol)
	if !ok {
		return 0, false
	}
	return raw.(int), true
}

// Symbol returns the symbol with the given id.
func (v *Vocabulary) Symbol(id int) (string, bool) {
	if id < 0 || id >= len(v.symbols) {
		return "", false
	}
	return v.symbols[id], true
}

// Contains reports whether symbol is in the vocabulary.
func (v *Vocabulary) Contains(symbol string) bool {
	_, ok := v.index.Get(symbol)
	return ok
}

// Symbols returns a copy of the symbols in id order.
func (v *Vocabulary) Symbols() []string {
	out := make([]string, len(v.symbols))
	copy(out, v.symbols)
	return out
}

// WithPrefix returns every symbol starting with prefix, ordered by id.
func (v *Vocabulary) WithPrefix(prefix string) []string {
	var ids []int
	v.index.WalkPrefix(prefix, func(_ string, value interface{}) bool {
		ids = append(ids, value.(int))
		return false
	})
	sort.Ints(ids)

	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = v.symbols[id]
	}
	return out
}
