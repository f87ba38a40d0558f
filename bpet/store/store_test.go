package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/bpe-tokenizer/bpet/corpus"
	"github.com/ZanzyTHEbar/bpe-tokenizer/bpet/tokenizer"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *ModelStore {
	t.Helper()
	s, err := Open("file:" + filepath.Join(t.TempDir(), "nested", "models.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// TestModelStoreIntegration exercises the store against a real libsql file.
func TestModelStoreIntegration(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	small, err := tokenizer.Train(corpus.Sample(), 50)
	require.NoError(t, err)
	large, err := tokenizer.Train(corpus.Sample(), 90)
	require.NoError(t, err)

	t.Run("SaveAndGet", func(t *testing.T) {
		info, err := s.SaveModel(ctx, "sample", small)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, info.ID)
		assert.Equal(t, 50, info.VocabSize)
		assert.Equal(t, small.Merges.Len(), info.Merges)
		assert.False(t, info.CreatedAt.IsZero())

		m, got, err := s.GetModel(ctx, info.ID)
		require.NoError(t, err)
		assert.Equal(t, info.ID, got.ID)
		assert.Equal(t, "sample", got.Name)
		assert.Equal(t, small.Vocabulary.Symbols(), m.Vocabulary.Symbols())
		assert.Equal(t, small.Merges.Rules(), m.Merges.Rules())
	})

	t.Run("GetLatestModel", func(t *testing.T) {
		info, err := s.SaveModel(ctx, "sample", large)
		require.NoError(t, err)

		m, got, err := s.GetLatestModel(ctx, "sample")
		require.NoError(t, err)
		assert.Equal(t, info.ID, got.ID)
		assert.Equal(t, 90, m.Vocabulary.Len())

		_, got, err = s.GetLatestModel(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, info.ID, got.ID)

		_, _, err = s.GetLatestModel(ctx, "other")
		assert.ErrorIs(t, err, ErrModelNotFound)
	})

	t.Run("ListModels", func(t *testing.T) {
		models, err := s.ListModels(ctx)
		require.NoError(t, err)
		require.Len(t, models, 2)
		assert.Equal(t, 90, models[0].VocabSize)
		assert.Equal(t, 50, models[1].VocabSize)
	})

	t.Run("DeleteModel", func(t *testing.T) {
		info, err := s.SaveModel(ctx, "temp", small)
		require.NoError(t, err)

		require.NoError(t, s.DeleteModel(ctx, info.ID))
		_, _, err = s.GetModel(ctx, info.ID)
		assert.ErrorIs(t, err, ErrModelNotFound)

		err = s.DeleteModel(ctx, info.ID)
		assert.ErrorIs(t, err, ErrModelNotFound)
	})

	t.Run("EncodeWithStoredModel", func(t *testing.T) {
		m, _, err := s.GetLatestModel(ctx, "sample")
		require.NoError(t, err)

		want, err := tokenizer.Encode("I love doing work in NLP!", large.Merges, large.Vocabulary)
		require.NoError(t, err)
		got, err := tokenizer.Encode("I love doing work in NLP!", m.Merges, m.Vocabulary)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestSaveModelRequiresName(t *testing.T) {
	s := openTestStore(t)
	m, err := tokenizer.Train(corpus.Sample(), 40)
	require.NoError(t, err)

	_, err = s.SaveModel(context.Background(), "", m)
	assert.Error(t, err)
}

func TestGetModelMissing(t *testing.T) {
	s := openTestStore(t)
	_, _, err := s.GetModel(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrModelNotFound)
}
