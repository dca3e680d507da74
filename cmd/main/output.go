package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// writeArtifact streams what write produces into path. The file only appears,
// replacing any previous one, once write has returned nil; on error nothing
// is left behind.
func writeArtifact(path string, write func(w io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	pr, pw := io.Pipe()
	var writeErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		writeErr = write(pw)
		pw.CloseWithError(writeErr)
	}()
	err := atomic.WriteFile(path, pr)
	// Unblock the writer if WriteFile stopped reading early.
	_ = pr.CloseWithError(io.ErrClosedPipe)
	<-done
	// WriteFile flattens the errors it reports, so the writer's own error
	// is returned when there is one.
	if writeErr != nil && !errors.Is(writeErr, io.ErrClosedPipe) {
		return fmt.Errorf("failed to write %s: %w", path, writeErr)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// fileRoot strips up to two extensions from the base name of path, so both
// "x.fasta.gz" and "x.fasta" become "x".
func fileRoot(path string) string {
	root := filepath.Base(path)
	root = strings.TrimSuffix(root, filepath.Ext(root))
	return strings.TrimSuffix(root, filepath.Ext(root))
}

// kmerListName names the k-mer list extracted from an archive.
func kmerListName(archive string, k int) string {
	return fmt.Sprintf("%s_%dmers.txt", fileRoot(archive), k)
}

// exhaustiveName names the exhaustive space file of length k.
func exhaustiveName(k int, domain string) string {
	return fmt.Sprintf("%dmers_%s.txt", k, domain)
}

// nullomerName names the nullomer list of length k.
func nullomerName(k int) string {
	return fmt.Sprintf("%dnullomers_protein.txt", k)
}

// reportName names the estimator report of an archive.
func reportName(archive string) string {
	return strings.ReplaceAll(filepath.Base(archive), ".fasta", "") + "_output.csv"
}

// scoredName names the scored output of a k-mer list. Lists without a .gz
// in their name get the suffix appended.
func scoredName(list string) string {
	base := filepath.Base(list)
	if !strings.Contains(base, ".gz") {
		return base + "_probabilities.gz"
	}
	return strings.ReplaceAll(base, ".gz", "_probabilities.gz")
}
