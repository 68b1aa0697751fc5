package codebase

import "github.com/shinyvision/ward/internal/fqsen"

// MissingSymbolError is raised when a requested FQSEN is absent from the
// CodeBase. Callers at a visitor boundary typically recover by
// emitting the appropriate Undeclared* diagnostic instead of propagating
// this further.
type MissingSymbolError struct {
	FQSEN fqsen.FQSEN
	Kind  string // "class", "method", "property", "class constant", "function", "global constant"
}

func (e *MissingSymbolError) Error() string {
	return "ward: missing " + e.Kind + " " + e.FQSEN.String()
}

func missingSymbol(kind string, f fqsen.FQSEN) error {
	return &MissingSymbolError{FQSEN: f, Kind: kind}
}
