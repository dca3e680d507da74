package kmer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// ReadSet reads a k-mer list, one k-mer per line. The set's k is the length
// of the first non-empty line; any later line of another length is an
// ErrSpaceMismatch.
func ReadSet(r io.Reader) (*Set, error) {
	return readSet(r, nil)
}

// ReadValidSet is ReadSet for lists over a: a line holding a symbol outside
// the alphabet is an ErrInvalidAlphabetSymbol.
func ReadValidSet(r io.Reader, a *Alphabet) (*Set, error) {
	return readSet(r, a)
}

func readSet(r io.Reader, a *Alphabet) (*Set, error) {
	s := NewSet(0)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		kmer := bytes.TrimSpace(sc.Bytes())
		if len(kmer) == 0 {
			continue
		}
		if a != nil && !a.Valid(string(kmer)) {
			return nil, fmt.Errorf("line %d: %q outside alphabet %s: %w", line, kmer, a, ErrInvalidAlphabetSymbol)
		}
		if err := s.Add(string(kmer)); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("k-mer list scan: %w", err)
	}
	return s, nil
}

// ListStream is a Stream over a k-mer list held in a reader. K is taken
// from the first non-empty line.
type ListStream struct {
	sc      *bufio.Scanner
	k       int
	pending string
	line    int
}

// NewListStream reads ahead to the first k-mer to learn k. An empty list has
// k 0 and yields nothing.
func NewListStream(r io.Reader) (*ListStream, error) {
	ls := &ListStream{sc: bufio.NewScanner(r)}
	first, err := ls.scan()
	if err == io.EOF {
		return ls, nil
	}
	if err != nil {
		return nil, err
	}
	ls.k = len(first)
	ls.pending = first
	return ls, nil
}

// K returns the length of the first k-mer in the list.
func (ls *ListStream) K() int {
	return ls.k
}

// Next returns the next k-mer, or io.EOF.
func (ls *ListStream) Next() (string, error) {
	if ls.pending != "" {
		kmer := ls.pending
		ls.pending = ""
		return kmer, nil
	}
	return ls.scan()
}

func (ls *ListStream) scan() (string, error) {
	for ls.sc.Scan() {
		ls.line++
		kmer := bytes.TrimSpace(ls.sc.Bytes())
		if len(kmer) > 0 {
			return string(kmer), nil
		}
	}
	if err := ls.sc.Err(); err != nil {
		return "", fmt.Errorf("k-mer list line %d: %w", ls.line, err)
	}
	return "", io.EOF
}
