package tokenizer

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// EncoderConfig tunes an Encoder.
type EncoderConfig struct {
	// CacheSize is the number of distinct words whose segmentation is kept.
	// Zero disables the cache.
	CacheSize int
	// Normalizer, when set, runs on text before pre-segmentation.
	Normalizer Normalizer
}

// Encoder turns text into token ids with a trained Model. It is safe for
// concurrent use.
type Encoder struct {
	model      *Model
	cache      *lru.Cache
	normalizer Normalizer
}

// NewEncoder creates an Encoder for m.
func NewEncoder(m *Model, cfg EncoderConfig) (*Encoder, error) {
	if m == nil || m.Vocabulary == nil || m.Merges == nil {
		return nil, fmt.Errorf("%w: model is incomplete", ErrInvalidModel)
	}
	e := &Encoder{model: m, normalizer: cfg.Normalizer}
	if cfg.CacheSize > 0 {
		cache, err := lru.New(cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create encode cache: %w", err)
		}
		e.cache = cache
	}
	return e, nil
}

// Encode pre-segments text, applies every merge rule in training order and
// maps the resulting symbols to ids. A symbol missing from the vocabulary
// fails the whole call with an *UnknownTokenError.
func Encode(text string, merges *MergeRules, vocab *Vocabulary) ([]int, error) {
	e, err := NewEncoder(&Model{Vocabulary: vocab, Merges: merges}, EncoderConfig{})
	if err != nil {
		return nil, err
	}
	return e.Encode(text)
}

// Model returns the model the encoder was built with.
func (e *Encoder) Model() *Model {
	return e.model
}

// Encode converts text to token ids.
func (e *Encoder) Encode(text string) ([]int, error) {
	if e.normalizer != nil {
		text = e.normalizer(text)
	}
	return e.EncodeWords(Presegment([]string{text}))
}

// EncodeWords converts already pre-segmented words to token ids.
func (e *Encoder) EncodeWords(words []string) ([]int, error) {
	ids := make([]int, 0, len(words))
	for _, w := range words {
		for _, s := range e.segment(w) {
			id, ok := e.model.Vocabulary.ID(s)
			if !ok {
				return nil, unknownSymbol(s)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Segment returns the symbols word is split into after all merges.
func (e *Encoder) Segment(word string) []string {
	seq := e.segment(word)
	out := make([]string, len(seq))
	copy(out, seq)
	return out
}

// segment applies the merge rules to a single word. Rules never span two
// words, so this gives the same result as applying each rule across the
// whole text before moving to the next. The returned slice may be shared
// through the cache and must not be modified.
func (e *Encoder) segment(word string) []string {
	if e.cache != nil {
		if v, ok := e.cache.Get(word); ok {
			return v.([]string)
		}
	}

	seq := splitChars(word)
	for _, r := range e.model.Merges.rules {
		if len(seq) < 2 {
			break
		}
		seq = applyPair(seq, r.Pair.Left, r.Pair.Right, r.Result)
	}

	if e.cache != nil {
		e.cache.Add(word, seq)
	}
	return seq
}
