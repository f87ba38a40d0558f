package tokenizer

import "fmt"

// Pair is two adjacent symbols.
type Pair struct {
	Left, Right string
}

// Merged returns the concatenation of the pair.
func (p Pair) Merged() string {
	return p.Left + p.Right
}

// MergeRule replaces an adjacent Pair with Result (always Left+Right).
type MergeRule struct {
	Pair   Pair
	Result string
}

// MergeRules is the ordered list of learned rules. Index is priority:
// encoding applies rules first to last, decoding undoes them last to first.
type MergeRules struct {
	rules []MergeRule
	rank  map[Pair]int
}

func newMergeRules() *MergeRules {
	return &MergeRules{rank: make(map[Pair]int)}
}

// NewMergeRules validates and indexes rules in their given order. Results
// must be the concatenation of their pair.
func NewMergeRules(rules []MergeRule) (*MergeRules, error) {
	m := newMergeRules()
	for i, r := range rules {
		if r.Pair.Left == "" || r.Pair.Right == "" {
			return nil, fmt.Errorf("%w: rule %d has an empty symbol", ErrInvalidModel, i)
		}
		if r.Result != r.Pair.Merged() {
			return nil, fmt.Errorf("%w: rule %d merges %q+%q into %q", ErrInvalidModel, i, r.Pair.Left, r.Pair.Right, r.Result)
		}
		m.append(r.Pair)
	}
	return m, nil
}

// append adds a rule for p. A pair can be learned twice when a later merge
// rebuilds one of its symbols; Rank keeps the first position.
func (m *MergeRules) append(p Pair) MergeRule {
	rule := MergeRule{Pair: p, Result: p.Merged()}
	if _, ok := m.rank[p]; !ok {
		m.rank[p] = len(m.rules)
	}
	m.rules = append(m.rules, rule)
	return rule
}

// Len returns the number of rules.
func (m *MergeRules) Len() int {
	return len(m.rules)
}

// At returns the rule with priority i.
func (m *MergeRules) At(i int) MergeRule {
	return m.rules[i]
}

// Rules returns a copy of the rules in training order.
func (m *MergeRules) Rules() []MergeRule {
	out := make([]MergeRule, len(m.rules))
	copy(out, m.rules)
	return out
}

// Rank returns the training position of the rule for p.
func (m *MergeRules) Rank(p Pair) (int, bool) {
	r, ok := m.rank[p]
	return r, ok
}

// Lookup returns the symbol p merges into.
func (m *MergeRules) Lookup(p Pair) (string, bool) {
	r, ok := m.rank[p]
	if !ok {
		return "", false
	}
	return m.rules[r].Result, true
}

// applyPair replaces every non-overlapping occurrence of (left, right) in seq
// with merged, scanning left to right. It returns seq itself, untouched, when
// the pair does not occur.
func applyPair(seq []string, left, right, merged string) []string {
	found := false
	for i := 0; i+1 < len(seq); i++ {
		if seq[i] == left && seq[i+1] == right {
			found = true
			break
		}
	}
	if !found {
		return seq
	}

	out := make([]string, 0, len(seq)-1)
	for i := 0; i < len(seq); {
		if i+1 < len(seq) && seq[i] == left && seq[i+1] == right {
			out = append(out, merged)
			i += 2
		} else {
			out = append(out, seq[i])
			i++
		}
	}
	return out
}

// splitChars splits word into one symbol per rune.
func splitChars(word string) []string {
	out := make([]string, 0, len(word))
	for _, r := range word {
		out = append(out, string(r))
	}
	return out
}
