package tokenizer

import (
	"strings"
	"unicode"
)

// BoundaryMarker marks a word-candidate that starts a new space-separated
// word (GPT-2 convention). Decoding turns it back into a single space.
const BoundaryMarker = 'Ġ'

// boundaryMarker is BoundaryMarker as a string, for replacement.
const boundaryMarker = string(BoundaryMarker)

type charClass uint8

const (
	classOther charClass = iota
	classLetter
	classDigit
	classPunct
	classSpace
)

func classify(r rune) charClass {
	switch {
	case unicode.IsLetter(r):
		return classLetter
	case unicode.IsDigit(r):
		return classDigit
	case unicode.IsSpace(r):
		return classSpace
	case unicode.IsPunct(r), unicode.IsSymbol(r):
		return classPunct
	default:
		return classOther
	}
}

// Presegment splits texts into an ordered, flat sequence of word-candidates.
//
// Rules, applied rune by rune per text:
//   - letters accumulate; a new buffer gets the boundary marker when the
//     letter is lowercase or follows whitespace
//   - digits accumulate in their own buffer, separate from letters
//   - punctuation and symbols are flushed as single-rune candidates
//   - whitespace ends the current candidate
//
// Runes in none of these classes (control characters, combining marks) are
// dropped. Empty candidates are never emitted, and buffers never span two
// texts.
func Presegment(texts []string) []string {
	var out []string
	for _, text := range texts {
		out = presegmentText(text, out)
	}
	return out
}

func presegmentText(text string, out []string) []string {
	var (
		buf       strings.Builder
		inNumber  bool
		prevSpace bool
	)
	flush := func() {
		if buf.Len() > 0 {
			out = append(out, buf.String())
			buf.Reset()
		}
	}

	for _, r := range text {
		switch classify(r) {
		case classLetter:
			if inNumber {
				flush()
				inNumber = false
			}
			if buf.Len() == 0 && (unicode.IsLower(r) || prevSpace) {
				buf.WriteRune(BoundaryMarker)
			}
			buf.WriteRune(r)
			prevSpace = false
		case classDigit:
			if !inNumber {
				flush()
			}
			buf.WriteRune(r)
			inNumber = true
			prevSpace = false
		case classPunct:
			flush()
			out = append(out, string(r))
			inNumber = false
			prevSpace = false
		case classSpace:
			flush()
			inNumber = false
			prevSpace = true
		}
	}
	flush()
	return out
}
