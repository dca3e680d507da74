package kmer

import "fmt"

// Extract returns every distinct length-k window of seq made only of symbols
// in a. Windows touching an invalid symbol are dropped whole, and windows
// that would run past the end of seq are skipped.
func Extract(a *Alphabet, seq []byte, k int) (*Set, error) {
	s := NewSet(k)
	if err := s.AddSequence(a, seq); err != nil {
		return nil, err
	}
	return s, nil
}

// ExtractMany unions the k-mers of every sequence in seqs.
func ExtractMany(a *Alphabet, seqs [][]byte, k int) (*Set, error) {
	s := NewSet(k)
	for _, seq := range seqs {
		if err := s.AddSequence(a, seq); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AddSequence adds the valid k-mers of seq to s. The set's k must already be
// known.
//
// A window ending at position j is valid exactly when the run of valid
// symbols ending at j is at least k long, so a single scanner pass replaces
// the per-window membership check.
func (s *Set) AddSequence(a *Alphabet, seq []byte) error {
	if s.k < 1 {
		return fmt.Errorf("k=%d: %w", s.k, ErrInvalidLength)
	}
	sc := NewScanner(a, seq)
	for {
		p, ok := sc.Next()
		if !ok {
			return nil
		}
		if p.Run >= s.k {
			start := p.Index - s.k + 1
			s.kmers[string(seq[start:p.Index+1])] = struct{}{}
		}
	}
}
