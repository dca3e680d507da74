package markov

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestScore(t *testing.T) {
	table := Table{"AA": 0.5, "AB": 0.5, "BA": 1, "BB": 0}
	tests := []struct {
		kmer string
		want float64
	}{
		{"AAB", 0.25},
		{"ABA", 0.5},
		{"ABB", 0},
		{"ACA", 0}, // unseen pair
		{"A", 1},
		{"", 1},
	}
	for _, tt := range tests {
		if got := Score(tt.kmer, table); got != tt.want {
			t.Errorf("Score(%q): expected %v, got %v", tt.kmer, tt.want, got)
		}
	}
}

func TestScoreAllPreservesOrder(t *testing.T) {
	table := Table{"AA": 0.5, "AB": 0.5}
	in := []string{"BB", "AAB", "AA"}
	out := ScoreAll(in, table)
	if len(out) != len(in) {
		t.Fatalf("expected %d results, got %d", len(in), len(out))
	}
	for i, s := range out {
		if s.Kmer != in[i] {
			t.Errorf("position %d: expected %q, got %q", i, in[i], s.Kmer)
		}
	}
	if out[1].Prob != 0.25 {
		t.Errorf("expected AAB=0.25, got %v", out[1].Prob)
	}
}

func TestFormatScore(t *testing.T) {
	tests := map[float64]string{
		0.034521: "3.4521e-02",
		0:        "0.0000e+00",
		1:        "1.0000e+00",
		0.25:     "2.5000e-01",
	}
	for p, want := range tests {
		if got := FormatScore(p); got != want {
			t.Errorf("FormatScore(%v): expected %q, got %q", p, want, got)
		}
	}
}

func TestScoreStream(t *testing.T) {
	table := Table{"AA": 0.5, "AB": 0.5}
	var out bytes.Buffer
	n, err := ScoreStream(context.Background(), strings.NewReader("AAB\n\n  AA  \nBB\n"), table, &out)
	if err != nil {
		t.Fatalf("ScoreStream() failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 scored, got %d", n)
	}
	want := "AAB 2.5000e-01\nAA 5.0000e-01\nBB 0.0000e+00\n"
	if out.String() != want {
		t.Errorf("unexpected output:\n%q\nexpected:\n%q", out.String(), want)
	}
}

func TestScoreStreamCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	_, err := ScoreStream(ctx, strings.NewReader("AAB\n"), Table{}, &out)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
