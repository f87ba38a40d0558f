package tokenizer

// WordFrequency counts word-candidates and remembers the order in which each
// distinct word was first seen. Training iterates words in that order, which
// is what makes pair selection reproducible.
type WordFrequency struct {
	words  []string
	counts map[string]int
}

// CountWords reduces word-candidates to their occurrence counts. Words are
// keyed by exact string: no case folding, no normalization.
func CountWords(candidates []string) *WordFrequency {
	wf := &WordFrequency{counts: make(map[string]int, len(candidates))}
	for _, w := range candidates {
		if _, seen := wf.counts[w]; !seen {
			wf.words = append(wf.words, w)
		}
		wf.counts[w]++
	}
	return wf
}

// Len returns the number of distinct words.
func (wf *WordFrequency) Len() int {
	return len(wf.words)
}

// Words returns the distinct words in first-occurrence order.
func (wf *WordFrequency) Words() []string {
	out := make([]string, len(wf.words))
	copy(out, wf.words)
	return out
}

// Count returns how many times word occurred.
func (wf *WordFrequency) Count(word string) int {
	return wf.counts[word]
}

// Total returns the number of counted candidates.
func (wf *WordFrequency) Total() int {
	total := 0
	for _, c := range wf.counts {
		total += c
	}
	return total
}
