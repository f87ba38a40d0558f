package tokenizer

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalizer rewrites raw text before pre-segmentation.
type Normalizer func(string) string

// ParseNormalization maps a config value to a Normalizer. The empty string
// and "none" disable normalization and return nil. Decomposed forms are not
// offered: pre-segmentation drops combining marks.
func ParseNormalization(name string) (Normalizer, error) {
	var form norm.Form
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return nil, nil
	case "nfc":
		form = norm.NFC
	case "nfkc":
		form = norm.NFKC
	default:
		return nil, fmt.Errorf("unsupported normalization form %q", name)
	}
	return form.String, nil
}

func normalizeAll(n Normalizer, texts []string) []string {
	if n == nil {
		return texts
	}
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = n(t)
	}
	return out
}
