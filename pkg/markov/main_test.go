package markov

import (
	"context"
	"database/sql"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/proteome-lab/kmerspace/pkg/kmer"
)

// setupTestDB creates a new file-backed SQLite database and a Store for testing.
// It uses t.Cleanup to ensure resources are released.
func setupTestDB(t *testing.T) (*sql.DB, *Store) {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbFile+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=-4000")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}

	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(s.Close)

	return db, s
}

// setupTestDBWithEstimate is a convenience helper that also stores an
// estimate under the identifier "UP000005640_9606".
func setupTestDBWithEstimate(t *testing.T) (context.Context, *Store, *Estimate) {
	_, s := setupTestDB(t)
	ctx := context.Background()

	e := NewEstimator(kmer.DefaultProtein)
	if err := e.Train(ctx, strings.NewReader(">sp|P1|A\nMKVLAAGIVG\n>sp|P2|B\nMKXLLAGWWWPPA\n")); err != nil {
		t.Fatalf("setup: Train() failed: %v", err)
	}
	est := e.Estimate()
	if err := s.SaveEstimate(ctx, "UP000005640_9606", est); err != nil {
		t.Fatalf("setup: SaveEstimate() failed: %v", err)
	}
	return ctx, s, est
}

var (
	benchmarkProteome string
	proteomeOnce      sync.Once
)

// createBenchmarkProteome builds a deterministic synthetic FASTA proteome
// for benchmarking, with an occasional invalid residue.
func createBenchmarkProteome() string {
	proteomeOnce.Do(func() {
		rng := rand.New(rand.NewSource(42))
		symbols := kmer.DefaultProteinSymbols + "X"
		var sb strings.Builder
		for i := 0; i < 2000; i++ {
			sb.WriteString(">sp|BENCH|")
			sb.WriteString(strings.Repeat("P", 1+i%5))
			sb.WriteByte('\n')
			for j := 0; j < 350; j++ {
				sb.WriteByte(symbols[rng.Intn(len(symbols))])
				if j%60 == 59 {
					sb.WriteByte('\n')
				}
			}
			sb.WriteByte('\n')
		}
		benchmarkProteome = sb.String()
	})
	return benchmarkProteome
}
