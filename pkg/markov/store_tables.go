package markov

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/proteome-lab/kmerspace/pkg/kmer"
)

// TableInfo holds the metadata of a stored transition table.
type TableInfo struct {
	Id         int
	Identifier string
	Alphabet   string
	Sequences  int
	Source     string
}

// ExportedTable is the serializable representation of a stored table, used
// for JSON-based import and export.
type ExportedTable struct {
	Identifier  string               `json:"identifier"`
	Alphabet    string               `json:"alphabet"`
	Sequences   int                  `json:"sequences"`
	Source      string               `json:"source"`
	Transitions []ExportedTransition `json:"transitions"`
	RunLengths  map[string]uint64    `json:"run_lengths,omitempty"`
}

// ExportedTransition is one pair of an ExportedTable.
type ExportedTransition struct {
	Pair        string  `json:"pair"`
	Count       uint64  `json:"count"`
	Probability float64 `json:"probability"`
}

// TableInfos returns the metadata of every stored table, keyed by identifier.
func (s *Store) TableInfos(ctx context.Context) (map[string]TableInfo, error) {
	rows, err := s.stmtGetTableInfos.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	infos := make(map[string]TableInfo)
	for rows.Next() {
		var info TableInfo
		if err = rows.Scan(&info.Id, &info.Identifier, &info.Alphabet, &info.Sequences, &info.Source); err != nil {
			return nil, err
		}
		infos[info.Identifier] = info
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return infos, nil
}

// TableInfo returns the metadata of the table stored under identifier.
func (s *Store) TableInfo(ctx context.Context, identifier string) (TableInfo, error) {
	info := TableInfo{Identifier: identifier}
	err := s.stmtGetTableInfo.QueryRowContext(ctx, identifier).Scan(&info.Id, &info.Alphabet, &info.Sequences, &info.Source)
	if errors.Is(err, sql.ErrNoRows) {
		return TableInfo{}, fmt.Errorf("stored table %q: %w", identifier, kmer.ErrIdentifierNotFound)
	}
	if err != nil {
		return TableInfo{}, err
	}
	return info, nil
}

// Table returns the transition table stored under identifier. It makes the
// Store a TableSource.
func (s *Store) Table(ctx context.Context, identifier string) (Table, error) {
	info, err := s.TableInfo(ctx, identifier)
	if err != nil {
		return nil, err
	}
	transitions, err := s.transitions(ctx, info.Id)
	if err != nil {
		return nil, err
	}
	t := make(Table, len(transitions))
	for _, tr := range transitions {
		t[tr.Pair] = tr.Probability
	}
	return t, nil
}

func (s *Store) transitions(ctx context.Context, tableID int) ([]ExportedTransition, error) {
	rows, err := s.stmtGetTransitions.QueryContext(ctx, tableID)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var out []ExportedTransition
	for rows.Next() {
		var tr ExportedTransition
		if err = rows.Scan(&tr.Pair, &tr.Count, &tr.Probability); err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (s *Store) runLengths(ctx context.Context, tableID int) (map[string]uint64, error) {
	rows, err := s.stmtGetRunLengths.QueryContext(ctx, tableID)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	out := make(map[string]uint64)
	for rows.Next() {
		var label string
		var count uint64
		if err = rows.Scan(&label, &count); err != nil {
			return nil, err
		}
		out[label] = count
	}
	return out, rows.Err()
}

// SaveEstimate stores est under identifier, replacing any table already
// stored there. Counts and the run-length histogram are kept alongside the
// probabilities.
func (s *Store) SaveEstimate(ctx context.Context, identifier string, est *Estimate) error {
	exported := ExportedTable{
		Identifier: identifier,
		Alphabet:   est.Alphabet.Declared(),
		Sequences:  est.Sequences,
		Source:     SourceEstimate,
		RunLengths: make(map[string]uint64, MaxRunBucket-MinRunBucket+1),
	}
	for _, pair := range est.Table.Pairs() {
		exported.Transitions = append(exported.Transitions, ExportedTransition{
			Pair:        pair,
			Count:       est.Counts[pair],
			Probability: est.Table[pair],
		})
	}
	for k := MinRunBucket; k <= MaxRunBucket; k++ {
		exported.RunLengths[HistogramLabel(k)] = est.Histogram.Count(k)
	}
	return s.save(ctx, exported)
}

// SaveTable stores a bare probability table under identifier, replacing
// any table already stored there.
func (s *Store) SaveTable(ctx context.Context, identifier, source string, t Table) error {
	exported := ExportedTable{Identifier: identifier, Source: source}
	for _, pair := range t.Pairs() {
		exported.Transitions = append(exported.Transitions, ExportedTransition{Pair: pair, Probability: t[pair]})
	}
	return s.save(ctx, exported)
}

// save replaces the table named by exported.Identifier within a single
// transaction.
func (s *Store) save(ctx context.Context, exported ExportedTable) error {
	if exported.Identifier == "" {
		return errors.New("table identifier must not be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction for table %q: %w", exported.Identifier, err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	var oldID int
	err = tx.QueryRowContext(ctx, "SELECT table_id FROM markov_tables WHERE identifier = ?", exported.Identifier).Scan(&oldID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("failed to query for table %q: %w", exported.Identifier, err)
	default:
		if err = deleteTables(ctx, tx, []interface{}{oldID}); err != nil {
			return fmt.Errorf("failed to replace table %q: %w", exported.Identifier, err)
		}
	}

	res, err := tx.ExecContext(ctx, "INSERT INTO markov_tables (identifier, alphabet, sequences, source) VALUES (?, ?, ?, ?)",
		exported.Identifier, exported.Alphabet, exported.Sequences, exported.Source)
	if err != nil {
		return fmt.Errorf("failed to insert table %q: %w", exported.Identifier, err)
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	stmtInsertTransition, err := tx.PrepareContext(ctx, `INSERT INTO markov_transitions (table_id, pair, count, probability) VALUES (?, ?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("failed to prepare transition insert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtInsertTransition)

	for _, tr := range exported.Transitions {
		if _, err = stmtInsertTransition.ExecContext(ctx, newID, tr.Pair, tr.Count, tr.Probability); err != nil {
			return fmt.Errorf("failed to insert transition %q: %w", tr.Pair, err)
		}
	}

	for label, count := range exported.RunLengths {
		if _, err = tx.ExecContext(ctx, "INSERT INTO markov_run_lengths (table_id, label, count) VALUES (?, ?, ?)", newID, label, count); err != nil {
			return fmt.Errorf("failed to insert run length %q: %w", label, err)
		}
	}

	s.logger.InfoContext(ctx, "Transition table saved",
		slog.String("identifier", exported.Identifier),
		slog.String("source", exported.Source),
		slog.Int64("table_id", newID),
		slog.Int("transitions", len(exported.Transitions)),
	)

	return tx.Commit()
}

// RemoveTables deletes the tables stored under identifiers, with their
// transitions and run lengths, in one transaction. Unknown identifiers are
// ignored. It returns the number of tables removed.
func (s *Store) RemoveTables(ctx context.Context, identifiers ...string) (int, error) {
	if len(identifiers) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("could not begin transaction for removal: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	var ids []interface{}
	for _, identifier := range identifiers {
		var id int
		err = tx.QueryRowContext(ctx, "SELECT table_id FROM markov_tables WHERE identifier = ?", identifier).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to query for table %q: %w", identifier, err)
		}
		ids = append(ids, id)
	}

	if err = deleteTables(ctx, tx, ids); err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "Transition tables removed",
		slog.Int("requested", len(identifiers)),
		slog.Int("removed", len(ids)),
	)

	return len(ids), tx.Commit()
}

// deleteTables removes everything stored for the given table ids.
func deleteTables(ctx context.Context, tx *sql.Tx, ids []interface{}) error {
	if err := batchDelete(ctx, tx, "markov_transitions", "table_id", ids); err != nil {
		return fmt.Errorf("failed to remove transitions: %w", err)
	}
	if err := batchDelete(ctx, tx, "markov_run_lengths", "table_id", ids); err != nil {
		return fmt.Errorf("failed to remove run lengths: %w", err)
	}
	if err := batchDelete(ctx, tx, "markov_tables", "table_id", ids); err != nil {
		return fmt.Errorf("failed to remove tables: %w", err)
	}
	return nil
}

// batchDelete deletes rows whose column is in ids, splitting large lists to
// stay under SQLite's variable limit.
func batchDelete(ctx context.Context, tx *sql.Tx, table, column string, ids []interface{}) error {
	if len(ids) == 0 {
		return nil
	}

	// SQLite's default variable limit is 999, so around half that is good
	const batchSize = 500

	for i := 0; i < len(ids); i += batchSize {
		end := min(i+batchSize, len(ids))
		batch := ids[i:end]

		query := fmt.Sprintf("DELETE FROM %s WHERE %s IN (?%s)", table, column, strings.Repeat(",?", len(batch)-1))

		if _, err := tx.ExecContext(ctx, query, batch...); err != nil {
			return err
		}
	}
	return nil
}

// ExportTable serializes the table stored under identifier as JSON to w.
func (s *Store) ExportTable(ctx context.Context, identifier string, w io.Writer) error {
	info, err := s.TableInfo(ctx, identifier)
	if err != nil {
		return err
	}
	transitions, err := s.transitions(ctx, info.Id)
	if err != nil {
		return fmt.Errorf("could not query transitions for export: %w", err)
	}
	runLengths, err := s.runLengths(ctx, info.Id)
	if err != nil {
		return fmt.Errorf("could not query run lengths for export: %w", err)
	}

	exported := ExportedTable{
		Identifier:  info.Identifier,
		Alphabet:    info.Alphabet,
		Sequences:   info.Sequences,
		Source:      info.Source,
		Transitions: transitions,
		RunLengths:  runLengths,
	}

	s.logger.InfoContext(ctx, "Transition table exported",
		slog.String("identifier", identifier),
		slog.Int("table_id", info.Id),
		slog.Int("transitions_exported", len(transitions)),
	)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exported)
}

// ImportTable reads a JSON table written by ExportTable and stores it,
// replacing any table with the same identifier. The stored source becomes
// SourceImport unless the export names one.
func (s *Store) ImportTable(ctx context.Context, r io.Reader) (string, error) {
	var imported ExportedTable
	if err := json.NewDecoder(r).Decode(&imported); err != nil {
		return "", fmt.Errorf("failed to decode json table: %w", err)
	}
	for _, tr := range imported.Transitions {
		if len(tr.Pair) != 2 {
			return "", fmt.Errorf("transition pair %q: %w", tr.Pair, kmer.ErrMalformedTable)
		}
	}
	if imported.Source == "" {
		imported.Source = SourceImport
	}
	if err := s.save(ctx, imported); err != nil {
		return "", err
	}
	return imported.Identifier, nil
}
