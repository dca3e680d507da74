package kmer

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestExtractSkipsInvalidWindows(t *testing.T) {
	a := MustAlphabet("AB")
	s, err := Extract(a, []byte("AXBAB"), 2)
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	want := []string{"AB", "BA"}
	if got := s.Sorted(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestExtractMatchesWindowCheck(t *testing.T) {
	seqs := []string{
		"MKTAYIAKQRQISFVKSHFSRQ",
		"MKXTAYBBIAKQ*RQ",
		"XXXX",
		"",
		"AC",
		"ACDEFGHIKLMNPQRSTVWYUACDE",
	}
	for _, k := range []int{1, 2, 3, 5, 8} {
		for _, seq := range seqs {
			got, err := Extract(DefaultProtein, []byte(seq), k)
			if err != nil {
				t.Fatalf("Extract(%q, %d) failed: %v", seq, k, err)
			}
			want := map[string]struct{}{}
			for i := 0; i+k <= len(seq); i++ {
				if DefaultProtein.Valid(seq[i : i+k]) {
					want[seq[i:i+k]] = struct{}{}
				}
			}
			if got.Len() != len(want) {
				t.Errorf("seq %q k=%d: expected %d k-mers, got %d", seq, k, len(want), got.Len())
			}
			for _, kmer := range got.Sorted() {
				if len(kmer) != k || !DefaultProtein.Valid(kmer) {
					t.Errorf("seq %q k=%d: invalid k-mer %q", seq, k, kmer)
				}
				if _, ok := want[kmer]; !ok {
					t.Errorf("seq %q k=%d: unexpected k-mer %q", seq, k, kmer)
				}
			}
		}
	}
}

func TestExtractManyUnions(t *testing.T) {
	a := MustAlphabet("AB")
	s, err := ExtractMany(a, [][]byte{[]byte("AAB"), []byte("ABB"), []byte("BXA")}, 2)
	if err != nil {
		t.Fatalf("ExtractMany() failed: %v", err)
	}
	want := []string{"AA", "AB", "BB"}
	if got := s.Sorted(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestExtractRejectsZeroK(t *testing.T) {
	if _, err := Extract(DefaultProtein, []byte("MKT"), 0); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("expected ErrInvalidLength, got %v", err)
	}
}

func TestSetWriteToIsSortedAndIdempotent(t *testing.T) {
	seq := []byte("YWVTSRQPNMLKIHGFEDCA")
	var first, second bytes.Buffer
	for _, buf := range []*bytes.Buffer{&first, &second} {
		s, err := Extract(DefaultProtein, seq, 3)
		if err != nil {
			t.Fatalf("Extract() failed: %v", err)
		}
		if _, err = s.WriteTo(buf); err != nil {
			t.Fatalf("WriteTo() failed: %v", err)
		}
	}
	if first.String() != second.String() {
		t.Error("expected byte-identical output across runs")
	}
	lines := strings.Split(strings.TrimSuffix(first.String(), "\n"), "\n")
	if len(lines) != 18 {
		t.Fatalf("expected 18 lines, got %d", len(lines))
	}
	for i := 1; i < len(lines); i++ {
		if lines[i-1] >= lines[i] {
			t.Fatalf("lines %d and %d out of order: %q >= %q", i-1, i, lines[i-1], lines[i])
		}
	}
	if !strings.HasSuffix(first.String(), "\n") {
		t.Error("expected newline-terminated output")
	}
}

func TestSetAddAndUnion(t *testing.T) {
	s := NewSet(0)
	if err := s.Add("AB"); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if s.K() != 2 {
		t.Errorf("expected k to be adopted as 2, got %d", s.K())
	}
	if err := s.Add("ABC"); !errors.Is(err, ErrSpaceMismatch) {
		t.Errorf("expected ErrSpaceMismatch, got %v", err)
	}
	other := NewSet(3)
	_ = other.Add("ABC")
	if err := s.Union(other); !errors.Is(err, ErrSpaceMismatch) {
		t.Errorf("expected ErrSpaceMismatch on union, got %v", err)
	}
	same := NewSet(2)
	_ = same.Add("BA")
	if err := s.Union(same); err != nil {
		t.Fatalf("Union() failed: %v", err)
	}
	if s.Len() != 2 || !s.Contains("BA") {
		t.Errorf("unexpected set after union: %v", s.Sorted())
	}
}
