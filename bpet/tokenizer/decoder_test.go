package tokenizer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	m := trainSample(t, 50)

	text, err := Decode([]int{18, 4, 2, 3, 28, 1, 4, 7, 3, 39, 44, 26, 4, 35, 46, 20}, m.Merges, m.Vocabulary)
	require.NoError(t, err)
	assert.Equal(t, "I love doing work in NLP!", text)
}

func TestRoundTrip(t *testing.T) {
	m := trainSample(t, 50)
	enc, err := NewEncoder(m, EncoderConfig{})
	require.NoError(t, err)
	dec, err := NewDecoder(m)
	require.NoError(t, err)

	tests := []struct {
		text string
		want string
	}{
		{"I love doing work in NLP!", "I love doing work in NLP!"},
		{"Hello world, how are you doing today?", "Hello world, how are you doing today?"},
		{"This is a NLP tokenizer that I am working on.", "This is a NLP tokenizer that I am working on."},
		{"NLP NLP", "NLP NLP"},
		// lossy cases
		{"hello", " hello"},
		{"I  am", "I am"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			ids, err := enc.Encode(tt.text)
			require.NoError(t, err)
			got, err := dec.Decode(ids)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoundTripWholeCorpus(t *testing.T) {
	for _, target := range []int{35, 80, 1000} {
		m := trainSample(t, target)
		enc, err := NewEncoder(m, EncoderConfig{})
		require.NoError(t, err)
		dec, err := NewDecoder(m)
		require.NoError(t, err)

		for _, text := range sampleCorpus {
			ids, err := enc.Encode(text)
			require.NoError(t, err)
			got, err := dec.Decode(ids)
			require.NoError(t, err)
			assert.Equal(t, text, got, "target %d", target)
		}
	}
}

func TestDecodeUnknownID(t *testing.T) {
	m := trainSample(t, 50)
	dec, err := NewDecoder(m)
	require.NoError(t, err)

	for _, id := range []int{-1, 50, 1 << 20} {
		text, err := dec.Decode([]int{18, id})
		assert.Empty(t, text)
		require.ErrorIs(t, err, ErrUnknownToken)

		var ute *UnknownTokenError
		require.True(t, errors.As(err, &ute))
		assert.True(t, ute.ByID)
		assert.Equal(t, id, ute.ID)
	}
}

func TestDecodeEmpty(t *testing.T) {
	m := trainSample(t, 50)
	text, err := Decode(nil, m.Merges, m.Vocabulary)
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestDecoderTokens(t *testing.T) {
	m := trainSample(t, 50)
	dec, err := NewDecoder(m)
	require.NoError(t, err)

	tokens, err := dec.Tokens([]int{39, 44, 26, 46})
	require.NoError(t, err)
	assert.Equal(t, []string{"ing", "Ġwor", "k", "ĠNLP"}, tokens)
}

func TestExpand(t *testing.T) {
	m := trainSample(t, 50)
	dec, err := NewDecoder(m)
	require.NoError(t, err)

	assert.Equal(t, []string{"Ġ", "N", "L", "P"}, dec.Expand("ĠNLP"))
	assert.Equal(t, []string{"i", "n", "g"}, dec.Expand("ing"))
	assert.Equal(t, []string{"x"}, dec.Expand("x"))
}

func TestExpandUsesMostRecentRule(t *testing.T) {
	m, err := NewModel(
		[]string{"a", "b", "c", "bc", "ab", "abc"},
		[]MergeRule{
			{Pair: Pair{"b", "c"}, Result: "bc"},
			{Pair: Pair{"a", "b"}, Result: "ab"},
			{Pair: Pair{"a", "bc"}, Result: "abc"},
			{Pair: Pair{"ab", "c"}, Result: "abc"},
		},
	)
	require.NoError(t, err)
	dec, err := NewDecoder(m)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, dec.Expand("abc"))

	text, err := dec.Decode([]int{5, 3})
	require.NoError(t, err)
	assert.Equal(t, "abcbc", text)
}
