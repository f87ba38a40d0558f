package tokenizer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/model/bpe"
)

const (
	hfVocabFile  = "vocab.json"
	hfMergesFile = "merges.txt"
)

// ExportHF writes m as a HuggingFace-style BPE pair: vocab.json
// (symbol -> id) and merges.txt (one "left right" rule per line, in
// training order).
func ExportHF(m *Model, dir string) (vocabPath, mergesPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create export directory: %w", err)
	}
	vocabPath = filepath.Join(dir, hfVocabFile)
	mergesPath = filepath.Join(dir, hfMergesFile)

	vocab := make(map[string]int, m.Vocabulary.Len())
	for id, s := range m.Vocabulary.symbols {
		vocab[s] = id
	}
	b, err := json.Marshal(vocab)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal vocab: %w", err)
	}
	if err := os.WriteFile(vocabPath, b, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write %s: %w", vocabPath, err)
	}

	f, err := os.Create(mergesPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create %s: %w", mergesPath, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "#version: 0.2")
	for _, r := range m.Merges.rules {
		fmt.Fprintf(w, "%s %s\n", r.Pair.Left, r.Pair.Right)
	}
	if err := w.Flush(); err != nil {
		return "", "", fmt.Errorf("failed to write %s: %w", mergesPath, err)
	}
	return vocabPath, mergesPath, nil
}

// SugarBPE wraps a sugarme/tokenizer BPE model loaded from files written by
// ExportHF, so exported models can be checked against an independent BPE
// implementation.
type SugarBPE struct {
	t     *tk.Tokenizer
	model *bpe.BPE
}

// NewSugarBPE loads vocab.json and merges.txt from dir.
func NewSugarBPE(dir string) (*SugarBPE, error) {
	model, err := bpe.NewBpeFromFiles(filepath.Join(dir, hfVocabFile), filepath.Join(dir, hfMergesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load bpe files from %s: %w", dir, err)
	}
	return &SugarBPE{t: tk.NewTokenizer(model), model: model}, nil
}

// EncodeWords encodes pre-segmented words.
func (s *SugarBPE) EncodeWords(words []string) ([]int, error) {
	enc, err := s.t.Encode(tk.NewSingleEncodeInput(tk.NewInputSequence(words)), false)
	if err != nil {
		return nil, err
	}
	return enc.GetIds(), nil
}

// VocabSize returns the size of the loaded vocabulary.
func (s *SugarBPE) VocabSize() int {
	return s.model.GetVocabSize()
}

// TokenToID looks a symbol up in the loaded vocabulary.
func (s *SugarBPE) TokenToID(token string) (int, bool) {
	return s.model.TokenToId(token)
}
