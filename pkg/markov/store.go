package markov

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
)

// Table sources recorded by the store.
const (
	SourceEstimate = "estimate"
	SourceCSV      = "csv"
	SourceImport   = "import"
)

// SetupSchema initializes the tables the Store needs in db. It is idempotent
// and safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaTables = `
CREATE TABLE IF NOT EXISTS markov_tables (
    table_id INTEGER PRIMARY KEY,
    identifier TEXT NOT NULL UNIQUE,
    alphabet TEXT NOT NULL,
    sequences INTEGER NOT NULL DEFAULT 0,
    source TEXT NOT NULL
);
`
		schemaTransitions = `
CREATE TABLE IF NOT EXISTS markov_transitions (
    table_id INTEGER NOT NULL,
    pair TEXT NOT NULL,
    count INTEGER NOT NULL DEFAULT 0,
    probability REAL NOT NULL,
    PRIMARY KEY (table_id, pair)
);
`
		schemaRunLengths = `
CREATE TABLE IF NOT EXISTS markov_run_lengths (
    table_id INTEGER NOT NULL,
    label TEXT NOT NULL,
    count INTEGER NOT NULL,
    PRIMARY KEY (table_id, label)
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	// If the transaction succeeds, tx.Commit() will be called first, and the rollback will do nothing.
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaTables); err != nil {
		return fmt.Errorf("could not create tables schema: %w", err)
	}

	if _, err = tx.Exec(schemaTransitions); err != nil {
		return fmt.Errorf("could not create transitions schema: %w", err)
	}

	if _, err = tx.Exec(schemaRunLengths); err != nil {
		return fmt.Errorf("could not create run lengths schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// Store persists transition tables in SQLite, one per identifier. It holds
// the database connection and prepared statements for the read paths.
type Store struct {
	db                   *sql.DB
	stmtGetTableInfo     *sql.Stmt
	stmtGetTableInfos    *sql.Stmt
	stmtGetTransitions   *sql.Stmt
	stmtGetRunLengths    *sql.Stmt
	stmtTableTransitions *sql.Stmt
	stmtTableObserved    *sql.Stmt
	stmtTableCount       *sql.Stmt
	logger               *slog.Logger
}

// NewStore creates a Store over db, whose schema must already be set up
// with SetupSchema. It returns an error if any statement fails to prepare.
func NewStore(db *sql.DB) (*Store, error) {
	stmtGetTableInfo, err := db.Prepare(`SELECT table_id, alphabet, sequences, source FROM markov_tables WHERE identifier = ?;`)
	if err != nil {
		return nil, err
	}

	stmtGetTableInfos, err := db.Prepare(`SELECT table_id, identifier, alphabet, sequences, source FROM markov_tables ORDER BY identifier;`)
	if err != nil {
		return nil, err
	}

	stmtGetTransitions, err := db.Prepare(`SELECT pair, count, probability FROM markov_transitions WHERE table_id = ? ORDER BY pair;`)
	if err != nil {
		return nil, err
	}

	stmtGetRunLengths, err := db.Prepare(`SELECT label, count FROM markov_run_lengths WHERE table_id = ? ORDER BY label;`)
	if err != nil {
		return nil, err
	}

	stmtTableTransitions, err := db.Prepare(`SELECT COUNT(*), coalesce(SUM(count), 0) FROM markov_transitions WHERE table_id = ?;`)
	if err != nil {
		return nil, err
	}

	stmtTableObserved, err := db.Prepare(`SELECT COUNT(*) FROM markov_transitions WHERE table_id = ? AND probability > 0;`)
	if err != nil {
		return nil, err
	}

	stmtTableCount, err := db.Prepare(`SELECT COUNT(*) FROM markov_tables;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:                   db,
		stmtGetTableInfo:     stmtGetTableInfo,
		stmtGetTableInfos:    stmtGetTableInfos,
		stmtGetTransitions:   stmtGetTransitions,
		stmtGetRunLengths:    stmtGetRunLengths,
		stmtTableTransitions: stmtTableTransitions,
		stmtTableObserved:    stmtTableObserved,
		stmtTableCount:       stmtTableCount,
		logger:               slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases the prepared statements held by the Store.
func (s *Store) Close() {
	_ = s.stmtGetTableInfo.Close()
	_ = s.stmtGetTableInfos.Close()
	_ = s.stmtGetTransitions.Close()
	_ = s.stmtGetRunLengths.Close()
	_ = s.stmtTableTransitions.Close()
	_ = s.stmtTableObserved.Close()
	_ = s.stmtTableCount.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}
