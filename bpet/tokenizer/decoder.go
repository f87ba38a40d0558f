package tokenizer

import (
	"fmt"
	"strings"
)

// Decoder turns token ids back into text. It is safe for concurrent use.
type Decoder struct {
	model *Model
	// splits maps a merged symbol to the pair it was built from. When
	// several rules produce the same symbol the most recent one wins.
	splits map[string]Pair
}

// NewDecoder creates a Decoder for m.
func NewDecoder(m *Model) (*Decoder, error) {
	if m == nil || m.Vocabulary == nil || m.Merges == nil {
		return nil, fmt.Errorf("%w: model is incomplete", ErrInvalidModel)
	}
	splits := make(map[string]Pair, m.Merges.Len())
	for i := m.Merges.Len() - 1; i >= 0; i-- {
		r := m.Merges.rules[i]
		if _, seen := splits[r.Result]; !seen {
			splits[r.Result] = r.Pair
		}
	}
	return &Decoder{model: m, splits: splits}, nil
}

// Decode maps ids to symbols, undoes every merge and turns boundary markers
// into spaces. An id outside the vocabulary fails the whole call with an
// *UnknownTokenError.
func Decode(ids []int, merges *MergeRules, vocab *Vocabulary) (string, error) {
	d, err := NewDecoder(&Model{Vocabulary: vocab, Merges: merges})
	if err != nil {
		return "", err
	}
	return d.Decode(ids)
}

// Decode converts ids to text.
func (d *Decoder) Decode(ids []int) (string, error) {
	tokens, err := d.Tokens(ids)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, tok := range tokens {
		for _, atom := range d.Expand(tok) {
			sb.WriteString(atom)
		}
	}
	return strings.ReplaceAll(sb.String(), boundaryMarker, " "), nil
}

// Tokens maps ids to their vocabulary symbols without expanding them.
func (d *Decoder) Tokens(ids []int) ([]string, error) {
	tokens := make([]string, len(ids))
	for i, id := range ids {
		s, ok := d.model.Vocabulary.Symbol(id)
		if !ok {
			return nil, unknownID(id)
		}
		tokens[i] = s
	}
	return tokens, nil
}

// Expand splits symbol back into the symbols it was merged from, most recent
// merge first, until no rule applies. Each split yields strictly shorter
// symbols, so the expansion always terminates.
func (d *Decoder) Expand(symbol string) []string {
	var out []string
	stack := []string{symbol}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p, ok := d.splits[s]; ok {
			stack = append(stack, p.Right, p.Left)
			continue
		}
		out = append(out, s)
	}
	return out
}
