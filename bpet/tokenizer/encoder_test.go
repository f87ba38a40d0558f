package tokenizer

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainSample(t *testing.T, target int) *Model {
	t.Helper()
	m, err := Train(sampleCorpus, target)
	require.NoError(t, err)
	return m
}

func TestEncode(t *testing.T) {
	m := trainSample(t, 50)

	ids, err := Encode("I love doing work in NLP!", m.Merges, m.Vocabulary)
	require.NoError(t, err)
	assert.Equal(t, []int{18, 4, 2, 3, 28, 1, 4, 7, 3, 39, 44, 26, 4, 35, 46, 20}, ids)
}

func TestEncoderSegment(t *testing.T) {
	m := trainSample(t, 50)
	enc, err := NewEncoder(m, EncoderConfig{CacheSize: 16})
	require.NoError(t, err)

	assert.Equal(t, []string{"Ġ", "d", "o", "ing"}, enc.Segment("Ġdoing"))
	assert.Equal(t, []string{"Ġwor", "k"}, enc.Segment("Ġwork"))
	assert.Equal(t, []string{"ĠNLP"}, enc.Segment("ĠNLP"))

	// callers own the returned slice
	seg := enc.Segment("ĠNLP")
	seg[0] = "x"
	assert.Equal(t, []string{"ĠNLP"}, enc.Segment("ĠNLP"))
}

func TestEncodeUnknownSymbol(t *testing.T) {
	m := trainSample(t, 50)
	enc, err := NewEncoder(m, EncoderConfig{})
	require.NoError(t, err)

	ids, err := enc.Encode("quiz")
	assert.Nil(t, ids)
	require.ErrorIs(t, err, ErrUnknownToken)

	var ute *UnknownTokenError
	require.True(t, errors.As(err, &ute))
	assert.Equal(t, "q", ute.Symbol)
	assert.False(t, ute.ByID)

	_, err = enc.Encode("I have 2 cats")
	require.True(t, errors.As(err, &ute))
	assert.Equal(t, "2", ute.Symbol)
}

func TestEncodeEmptyText(t *testing.T) {
	m := trainSample(t, 50)
	ids, err := Encode("  ", m.Merges, m.Vocabulary)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestEncoderCacheMatchesUncached(t *testing.T) {
	m := trainSample(t, 120)
	cached, err := NewEncoder(m, EncoderConfig{CacheSize: 4})
	require.NoError(t, err)
	plain, err := NewEncoder(m, EncoderConfig{})
	require.NoError(t, err)

	for _, text := range sampleCorpus {
		for i := 0; i < 2; i++ {
			want, err := plain.Encode(text)
			require.NoError(t, err)
			got, err := cached.Encode(text)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	}
}

func TestEncoderConcurrentUse(t *testing.T) {
	m := trainSample(t, 80)
	enc, err := NewEncoder(m, EncoderConfig{CacheSize: 8})
	require.NoError(t, err)
	want, err := enc.Encode(sampleCorpus[3])
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := enc.Encode(sampleCorpus[3])
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestNewEncoderRejectsIncompleteModel(t *testing.T) {
	_, err := NewEncoder(nil, EncoderConfig{})
	assert.ErrorIs(t, err, ErrInvalidModel)

	_, err = NewEncoder(&Model{Vocabulary: newVocabulary()}, EncoderConfig{})
	assert.ErrorIs(t, err, ErrInvalidModel)
}

func TestEncoderNormalizer(t *testing.T) {
	m, err := Train([]string{"fine fine"}, 10)
	require.NoError(t, err)

	plain, err := NewEncoder(m, EncoderConfig{})
	require.NoError(t, err)
	_, err = plain.Encode("ﬁne")
	assert.ErrorIs(t, err, ErrUnknownToken)

	n, err := ParseNormalization("nfkc")
	require.NoError(t, err)
	normalized, err := NewEncoder(m, EncoderConfig{Normalizer: n})
	require.NoError(t, err)
	ids, err := normalized.Encode("ﬁne")
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestEncoderStats(t *testing.T) {
	m := trainSample(t, 50)
	enc, err := NewEncoder(m, EncoderConfig{})
	require.NoError(t, err)

	st, err := enc.Stats("I love doing work in NLP!")
	require.NoError(t, err)
	assert.Equal(t, 7, st.Words)
	assert.Equal(t, 16, st.Tokens)
	assert.Equal(t, 25, st.Characters)
	assert.InDelta(t, 16.0/7.0, st.MeanTokensPerWord, 1e-9)
	assert.InDelta(t, 1.6036, st.StdDevTokensPerWord, 1e-3)
	assert.InDelta(t, 25.0/16.0, st.CharsPerToken, 1e-9)

	st, err = enc.Stats("NLP")
	require.NoError(t, err)
	assert.Equal(t, Stats{Words: 1, Tokens: 1, Characters: 3, MeanTokensPerWord: 1, CharsPerToken: 3}, st)

	st, err = enc.Stats("")
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)

	_, err = enc.Stats("quiz")
	assert.ErrorIs(t, err, ErrUnknownToken)
}
