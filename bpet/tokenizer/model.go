package tokenizer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Model is a trained vocabulary together with its ordered merge rules.
// It is immutable and safe for concurrent use.
type Model struct {
	Vocabulary *Vocabulary
	Merges     *MergeRules
}

// NewModel rebuilds a model from its persisted parts and checks that every
// rule refers only to vocabulary symbols.
func NewModel(symbols []string, rules []MergeRule) (*Model, error) {
	vocab, err := NewVocabulary(symbols)
	if err != nil {
		return nil, err
	}
	merges, err := NewMergeRules(rules)
	if err != nil {
		return nil, err
	}
	for i, r := range merges.rules {
		for _, s := range [...]string{r.Pair.Left, r.Pair.Right, r.Result} {
			if !vocab.Contains(s) {
				return nil, fmt.Errorf("%w: rule %d uses %q which is not in the vocabulary", ErrInvalidModel, i, s)
			}
		}
	}
	return &Model{Vocabulary: vocab, Merges: merges}, nil
}

// persistedModel is the on-disk layout: an ordered symbol list and ordered
// (left, right, result) triples.
type persistedModel struct {
	Vocabulary []string    `json:"vocabulary"`
	Merges     [][3]string `json:"merges"`
}

func (m *Model) MarshalJSON() ([]byte, error) {
	p := persistedModel{
		Vocabulary: m.Vocabulary.Symbols(),
		Merges:     make([][3]string, m.Merges.Len()),
	}
	for i, r := range m.Merges.rules {
		p.Merges[i] = [3]string{r.Pair.Left, r.Pair.Right, r.Result}
	}
	return json.Marshal(p)
}

func (m *Model) UnmarshalJSON(data []byte) error {
	var p persistedModel
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("error while unmarshalling model: %w", err)
	}
	rules := make([]MergeRule, len(p.Merges))
	for i, t := range p.Merges {
		rules[i] = MergeRule{Pair: Pair{Left: t[0], Right: t[1]}, Result: t[2]}
	}
	built, err := NewModel(p.Vocabulary, rules)
	if err != nil {
		return err
	}
	*m = *built
	return nil
}

// SaveModel writes m as indented JSON, creating parent directories.
func SaveModel(path string, m *Model) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create model file %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

// LoadModel reads a model written by SaveModel.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error while reading model file: %w", err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
