package kmer

import "errors"

// Errors shared by the k-mer engine and the packages built on it. Callers
// wrap them with the identifier or path responsible and test with errors.Is.
var (
	// ErrInvalidAlphabetSymbol is returned when an alphabet is constructed from
	// an unusable symbol, or when a k-mer list holds a symbol outside the
	// alphabet. It is never returned while scanning; invalid symbols in a
	// sequence are an expected outcome, not an error.
	ErrInvalidAlphabetSymbol = errors.New("invalid alphabet symbol")
	// ErrInvalidLength is returned for a k-mer length below 1.
	ErrInvalidLength = errors.New("invalid k-mer length")
	// ErrSpaceMismatch is returned when two k-mer collections are for different k.
	ErrSpaceMismatch = errors.New("k-mer space mismatch")
	// ErrSpaceTooLarge is returned when materializing an exhaustive space, or
	// buffering a difference, larger than the configured bound.
	ErrSpaceTooLarge = errors.New("k-mer space too large to materialize")
	// ErrSpaceUnsorted is returned by an Ascending stream whose source is
	// not in strictly ascending order.
	ErrSpaceUnsorted = errors.New("k-mer space not in ascending order")
	// ErrMissingArtifact is returned when a required input artifact, such as
	// an exhaustive-space file, is absent.
	ErrMissingArtifact = errors.New("missing artifact")
	// ErrIdentifierNotFound is returned when a bucket or a transition table
	// identifier is not present in its registry.
	ErrIdentifierNotFound = errors.New("identifier not found")
	// ErrMalformedTable is returned when an external transition table row
	// does not have the expected shape.
	ErrMalformedTable = errors.New("malformed transition table")
)
