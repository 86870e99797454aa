package compiler

import "errors"

// Compilation failures are synchronous and final: a layer either compiles
// fully or fails as a whole. Callers match the sentinels with errors.Is.
var (
	// ErrIncompatibleTypes wraps any operand conversion that cannot be
	// constructed; the underlying conversion failure is not leaked.
	ErrIncompatibleTypes = errors.New("query creation failed due to incompatible types")

	// ErrNotACollection is returned when has or count targets a field that
	// does not resolve to a to-many relationship.
	ErrNotACollection = errors.New("target is not a collection")

	// ErrNotText is returned when a text match targets a non-text field.
	ErrNotText = errors.New("target is not text")

	// ErrInternal marks invariant violations: operator values outside the
	// recognized set, or AST shapes the constructors should have rejected.
	// These indicate a programming error upstream, not a bad query.
	ErrInternal = errors.New("internal invariant violation")
)
