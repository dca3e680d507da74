package kmer

import (
	"fmt"
	"sort"
)

// DefaultProteinSymbols is the 20 canonical amino acids in their customary
// declaration order.
const DefaultProteinSymbols = "GALMFWKQESPVICYHRNDT"

// DefaultProtein is the alphabet used when none is configured.
var DefaultProtein = MustAlphabet(DefaultProteinSymbols)

// Alphabet is an immutable, duplicate-free set of single-byte symbols.
// It remembers the order symbols were declared in and also exposes them
// sorted by code point, which is the order every k-mer list uses.
type Alphabet struct {
	declared string
	sorted   string
	member   [256]bool
	index    [256]int
}

// NewAlphabet builds an alphabet from the bytes of symbols. Symbols must be
// printable, non-space ASCII and must not repeat.
func NewAlphabet(symbols string) (*Alphabet, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("empty alphabet: %w", ErrInvalidAlphabetSymbol)
	}
	a := &Alphabet{declared: symbols}
	for i := range a.index {
		a.index[i] = -1
	}
	for i := 0; i < len(symbols); i++ {
		c := symbols[i]
		if c <= ' ' || c > '~' {
			return nil, fmt.Errorf("symbol %q at offset %d: %w", c, i, ErrInvalidAlphabetSymbol)
		}
		if a.member[c] {
			return nil, fmt.Errorf("duplicate symbol %q: %w", c, ErrInvalidAlphabetSymbol)
		}
		a.member[c] = true
	}

	b := []byte(symbols)
	sort.Slice(b, func(i, j int) bool { return b[i] < b[j] })
	a.sorted = string(b)
	for i := 0; i < len(b); i++ {
		a.index[b[i]] = i
	}
	return a, nil
}

// MustAlphabet is like NewAlphabet but panics on error. It is meant for
// package-level alphabets built from constants.
func MustAlphabet(symbols string) *Alphabet {
	a, err := NewAlphabet(symbols)
	if err != nil {
		panic(err)
	}
	return a
}

// Len returns the number of symbols.
func (a *Alphabet) Len() int {
	return len(a.sorted)
}

// Contains reports whether c is a member of the alphabet.
func (a *Alphabet) Contains(c byte) bool {
	return a.member[c]
}

// Index returns the rank of c among the sorted symbols, or -1.
func (a *Alphabet) Index(c byte) int {
	return a.index[c]
}

// Symbols returns the symbols in ascending code-point order.
func (a *Alphabet) Symbols() string {
	return a.sorted
}

// Declared returns the symbols in the order they were given to NewAlphabet.
func (a *Alphabet) Declared() string {
	return a.declared
}

// Valid reports whether every byte of s is a member of the alphabet.
func (a *Alphabet) Valid(s string) bool {
	for i := 0; i < len(s); i++ {
		if !a.member[s[i]] {
			return false
		}
	}
	return true
}

func (a *Alphabet) String() string {
	return a.declared
}
