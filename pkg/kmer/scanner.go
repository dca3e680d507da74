package kmer

// Position is the classification of one symbol of a scanned sequence.
type Position struct {
	Index  int
	Symbol byte // after case folding, if enabled
	Valid  bool
	// Run is the number of consecutive valid symbols ending at Index since the
	// last invalid symbol or the start of the sequence. It is 0 when !Valid.
	Run int
}

// ScanOption configures a Scanner.
type ScanOption func(*Scanner)

// WithFoldCase upper-cases ASCII letters before they are classified.
func WithFoldCase() ScanOption {
	return func(s *Scanner) {
		s.foldCase = true
	}
}

// Scanner walks a sequence one symbol at a time, classifying each position
// against an alphabet and tracking the distance since the last invalid symbol.
type Scanner struct {
	alphabet    *Alphabet
	seq         []byte
	pos         int
	lastInvalid int
	foldCase    bool
}

// NewScanner returns a Scanner positioned before the first symbol of seq.
func NewScanner(a *Alphabet, seq []byte, opts ...ScanOption) *Scanner {
	s := &Scanner{
		alphabet:    a,
		seq:         seq,
		lastInvalid: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next returns the next position, or false once the sequence is exhausted.
func (s *Scanner) Next() (Position, bool) {
	if s.pos >= len(s.seq) {
		return Position{}, false
	}
	i := s.pos
	s.pos++

	c := s.seq[i]
	if s.foldCase && c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	if !s.alphabet.Contains(c) {
		s.lastInvalid = i
		return Position{Index: i, Symbol: c}, true
	}
	return Position{Index: i, Symbol: c, Valid: true, Run: i - s.lastInvalid}, true
}

// Peek returns the symbol after the current position, folded like Next
// would fold it, and whether it is valid. ok is false at the end.
func (s *Scanner) Peek() (c byte, valid, ok bool) {
	if s.pos >= len(s.seq) {
		return 0, false, false
	}
	c = s.seq[s.pos]
	if s.foldCase && c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	return c, s.alphabet.Contains(c), true
}
