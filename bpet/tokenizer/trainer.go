package tokenizer

import (
	"fmt"
	"unicode/utf8"

	"github.com/ZanzyTHEbar/bpe-tokenizer/bpet/indexing"

	"github.com/rs/zerolog"
)

// Trainer learns a vocabulary and merge rules from a corpus.
//
// Training algorithm:
//  1. Pre-segment the corpus and count distinct words
//  2. Seed the vocabulary with every character seen
//  3. Count adjacent symbol pairs, each weighted by its word's frequency
//  4. Merge the most frequent pair into a new symbol in every word
//  5. Repeat until the target vocabulary size is reached or no pair is left
//
// Ties in step 4 go to the pair counted first, where words are visited in
// first-occurrence order and symbols left to right. A Trainer holds no
// per-run state and may be reused.
type Trainer struct {
	logger        zerolog.Logger
	maxIterations int
	logEvery      int
	normalizer    Normalizer
}

// TrainerOption configures a Trainer.
type TrainerOption func(*Trainer)

// WithLogger sets the logger used for progress reporting.
func WithLogger(logger zerolog.Logger) TrainerOption {
	return func(t *Trainer) { t.logger = logger }
}

// WithMaxIterations caps the number of merge steps. Zero means no cap.
func WithMaxIterations(n int) TrainerOption {
	return func(t *Trainer) { t.maxIterations = n }
}

// WithLogEvery sets how often (in merges) progress is logged.
func WithLogEvery(n int) TrainerOption {
	return func(t *Trainer) { t.logEvery = n }
}

// WithNormalizer applies n to every corpus text before pre-segmentation.
func WithNormalizer(n Normalizer) TrainerOption {
	return func(t *Trainer) { t.normalizer = n }
}

// NewTrainer creates a Trainer. By default it logs nowhere and never stops
// before the target size.
func NewTrainer(opts ...TrainerOption) *Trainer {
	t := &Trainer{
		logger:   zerolog.Nop(),
		logEvery: 100,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Train learns a model from corpus with a default Trainer.
func Train(corpus []string, targetVocabSize int) (*Model, error) {
	return NewTrainer().Train(corpus, targetVocabSize)
}

// Train pre-segments and counts corpus, then learns merges until the
// vocabulary holds targetVocabSize symbols.
func (t *Trainer) Train(corpus []string, targetVocabSize int) (*Model, error) {
	wf := CountWords(Presegment(normalizeAll(t.normalizer, corpus)))
	return t.TrainFrequencies(wf, targetVocabSize)
}

// TrainFrequencies learns merges over already counted words.
//
// The returned vocabulary is smaller than requested when every word has been
// reduced to a single symbol first; that is a normal outcome, not an error.
// It is never smaller than the alphabet, even for a lower target.
func (t *Trainer) TrainFrequencies(wf *WordFrequency, targetVocabSize int) (*Model, error) {
	if targetVocabSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidVocabSize, targetVocabSize)
	}
	if wf == nil || wf.Len() == 0 {
		return nil, ErrEmptyCorpus
	}

	vocab := SeedVocabulary(wf)
	merges := newMergeRules()
	splits := newWordSplits(wf)

	t.logger.Info().
		Int("distinct_words", wf.Len()).
		Int("alphabet", vocab.Len()).
		Int("target_vocab_size", targetVocabSize).
		Msg("bpe training started")

	for step := 0; vocab.Len() < targetVocabSize; step++ {
		if t.maxIterations > 0 && step >= t.maxIterations {
			t.logger.Warn().
				Int("max_iterations", t.maxIterations).
				Int("vocab_size", vocab.Len()).
				Msg("bpe training stopped at iteration cap")
			break
		}

		best, freq, ok := splits.mostFrequentPair()
		if !ok {
			t.logger.Info().
				Int("vocab_size", vocab.Len()).
				Int("target_vocab_size", targetVocabSize).
				Msg("bpe training stopped: no pairs left")
			break
		}

		rule := merges.append(best)
		added := vocab.add(rule.Result)
		removed := splits.merge(rule)

		if step < 5 || (t.logEvery > 0 && (step+1)%t.logEvery == 0) {
			t.logger.Debug().
				Int("merge", step+1).
				Str("left", rule.Pair.Left).
				Str("right", rule.Pair.Right).
				Str("result", rule.Result).
				Int("freq", freq).
				Int("symbols_removed", removed).
				Uint64("words_with_result", splits.postings.Cardinality(rule.Result)).
				Bool("new_symbol", added).
				Msg("bpe merge")
		}
	}

	chars, symbols := splits.totals()
	ratio := 0.0
	if symbols > 0 {
		ratio = float64(chars) / float64(symbols)
	}
	t.logger.Info().
		Int("vocab_size", vocab.Len()).
		Int("merges", merges.Len()).
		Float64("compression", ratio).
		Msg("bpe training done")

	return &Model{Vocabulary: vocab, Merges: merges}, nil
}

// wordSplits is the training arena: the current symbols of every distinct
// word, indexed by the word's first-occurrence position. It belongs to a
// single TrainFrequencies call.
type wordSplits struct {
	counts   []int
	splits   [][]string
	postings *indexing.SymbolPostings
}

func newWordSplits(wf *WordFrequency) *wordSplits {
	ws := &wordSplits{
		counts:   make([]int, len(wf.words)),
		splits:   make([][]string, len(wf.words)),
		postings: indexing.NewSymbolPostings(),
	}
	for i, w := range wf.words {
		ws.counts[i] = wf.counts[w]
		ws.splits[i] = splitChars(w)
		for _, s := range ws.splits[i] {
			ws.postings.Add(s, indexing.WordID(i))
		}
	}
	return ws
}

// countPairs returns frequency-weighted adjacent pair counts and the order
// in which each pair was first counted.
func (ws *wordSplits) countPairs() ([]Pair, map[Pair]int) {
	var order []Pair
	freq := make(map[Pair]int)
	for i, split := range ws.splits {
		if len(split) < 2 {
			continue
		}
		for j := 0; j+1 < len(split); j++ {
			p := Pair{Left: split[j], Right: split[j+1]}
			if _, seen := freq[p]; !seen {
				order = append(order, p)
			}
			freq[p] += ws.counts[i]
		}
	}
	return order, freq
}

func (ws *wordSplits) mostFrequentPair() (Pair, int, bool) {
	order, freq := ws.countPairs()
	var best Pair
	bestFreq := 0
	for _, p := range order {
		if f := freq[p]; f > bestFreq {
			best, bestFreq = p, f
		}
	}
	return best, bestFreq, bestFreq > 0
}

// merge applies rule to every word holding both of its symbols and returns
// how many symbols disappeared across all splits.
func (ws *wordSplits) merge(rule MergeRule) int {
	left, right := rule.Pair.Left, rule.Pair.Right
	removed := 0
	for _, wid := range ws.postings.And(left, right) {
		before := ws.splits[wid]
		after := applyPair(before, left, right, rule.Result)
		if len(after) == len(before) {
			continue
		}
		ws.splits[wid] = after
		removed += len(before) - len(after)

		ws.postings.Add(rule.Result, wid)
		ws.unpostIfGone(wid, left)
		if right != left {
			ws.unpostIfGone(wid, right)
		}
	}
	return removed
}

func (ws *wordSplits) unpostIfGone(wid indexing.WordID, symbol string) {
	for _, s := range ws.splits[wid] {
		if s == symbol {
			return
		}
	}
	ws.postings.Remove(symbol, wid)
}

// totals returns corpus-weighted character and symbol counts.
func (ws *wordSplits) totals() (chars, symbols int) {
	for i, split := range ws.splits {
		n := 0
		for _, s := range split {
			n += utf8.RuneCountInString(s)
		}
		chars += n * ws.counts[i]
		symbols += len(split) * ws.counts[i]
	}
	return chars, symbols
}
