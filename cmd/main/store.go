package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/proteome-lab/kmerspace/pkg/markov"
)

// openStore opens the configured transition table database, creating its
// directory and schema as needed. The returned func closes both the store
// and the database.
func openStore(cfg *StoreConfig, logger *slog.Logger) (*markov.Store, func(), error) {
	dataSource := cfg.DatabasePath
	file, _, _ := strings.Cut(dataSource, "?")
	if dir := filepath.Dir(file); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(sqliteDriver, dataSource)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	// Units save concurrently; SQLite takes one writer at a time.
	db.SetMaxOpenConns(1)
	if err = markov.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to setup markov schema: %w", err)
	}
	store, err := markov.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("error creating transition table store: %w", err)
	}
	store.SetLogger(logger)

	closeFn := func() {
		store.Close()
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}
	return store, closeFn, nil
}
