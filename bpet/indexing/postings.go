package indexing

import (
	roaring "github.com/RoaringBitmap/roaring"
)

// WordID is the position of a distinct word in a training run.
// It is small and contiguous to suit roaring bitmaps.
type WordID = uint32

// SymbolPostings holds roaring bitmaps keyed by symbol.
// Example: "Ġth" -> bitmap of WordIDs whose current split contains "Ġth".
type SymbolPostings struct {
	bySymbol map[string]*roaring.Bitmap
}

func NewSymbolPostings() *SymbolPostings {
	return &SymbolPostings{bySymbol: make(map[string]*roaring.Bitmap)}
}

func (sp *SymbolPostings) Add(symbol string, wid WordID) {
	bm, ok := sp.bySymbol[symbol]
	if !ok {
		bm = roaring.New()
		sp.bySymbol[symbol] = bm
	}
	bm.Add(wid)
}

// Remove drops wid from symbol's posting list. Empty lists are discarded.
func (sp *SymbolPostings) Remove(symbol string, wid WordID) {
	bm, ok := sp.bySymbol[symbol]
	if !ok {
		return
	}
	bm.Remove(wid)
	if bm.IsEmpty() {
		delete(sp.bySymbol, symbol)
	}
}

// Contains reports whether wid is posted under symbol.
func (sp *SymbolPostings) Contains(symbol string, wid WordID) bool {
	bm, ok := sp.bySymbol[symbol]
	return ok && bm.Contains(wid)
}

// Cardinality returns how many words are posted under symbol.
func (sp *SymbolPostings) Cardinality(symbol string) uint64 {
	bm, ok := sp.bySymbol[symbol]
	if !ok {
		return 0
	}
	return bm.GetCardinality()
}

// And returns the words posted under every given symbol, ascending.
// The result is a fresh slice and may be used while the postings change.
func (sp *SymbolPostings) And(symbols ...string) []WordID {
	if len(symbols) == 0 {
		return nil
	}
	res := sp.clone(sp.bySymbol[symbols[0]])
	for _, s := range symbols[1:] {
		other, ok := sp.bySymbol[s]
		if !ok {
			return nil
		}
		res.And(other)
	}
	return res.ToArray()
}

func (sp *SymbolPostings) clone(b *roaring.Bitmap) *roaring.Bitmap {
	if b == nil {
		return roaring.New()
	}
	c := roaring.New()
	c.Or(b) // copy
	return c
}
