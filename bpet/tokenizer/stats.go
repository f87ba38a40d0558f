package tokenizer

import (
	"unicode/utf8"

	"gonum.org/v1/gonum/stat"
)

// Stats summarizes how a text encodes.
type Stats struct {
	Words      int
	Tokens     int
	Characters int
	// MeanTokensPerWord and StdDevTokensPerWord describe the per-word
	// segment counts.
	MeanTokensPerWord   float64
	StdDevTokensPerWord float64
	// CharsPerToken is the compression ratio over pre-segmented characters.
	CharsPerToken float64
}

// Stats encodes text and reports segmentation statistics. It fails like
// Encode on symbols missing from the vocabulary.
func (e *Encoder) Stats(text string) (Stats, error) {
	if e.normalizer != nil {
		text = e.normalizer(text)
	}
	words := Presegment([]string{text})

	var st Stats
	perWord := make([]float64, len(words))
	for i, w := range words {
		seq := e.segment(w)
		for _, s := range seq {
			if !e.model.Vocabulary.Contains(s) {
				return Stats{}, unknownSymbol(s)
			}
		}
		perWord[i] = float64(len(seq))
		st.Tokens += len(seq)
		st.Characters += utf8.RuneCountInString(w)
	}
	st.Words = len(words)

	switch len(perWord) {
	case 0:
	case 1:
		st.MeanTokensPerWord = perWord[0]
	default:
		st.MeanTokensPerWord, st.StdDevTokensPerWord = stat.MeanStdDev(perWord, nil)
	}
	if st.Tokens > 0 {
		st.CharsPerToken = float64(st.Characters) / float64(st.Tokens)
	}
	return st, nil
}
