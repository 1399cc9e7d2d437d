package irgen

import (
	"irgen/internal/autolink"
	"irgen/internal/diag"
)

// Frontend is the part of the front end the generator talks back to.
type Frontend interface {
	Diagnostics() diag.Reporter
}

type reporterFrontend struct{ r diag.Reporter }

func (f reporterFrontend) Diagnostics() diag.Reporter { return f.r }

// NewFrontend wraps a reporter as a Frontend.
func NewFrontend(r diag.Reporter) Frontend {
	return reporterFrontend{r: r}
}

// Options configure one unit.
type Options struct {
	OptLevel      int
	DisableFPElim bool
	DebugInfo     bool

	// Dedup selects how autolink entries are collapsed at Finalize.
	Dedup autolink.DedupPolicy
	// Producer is recorded in debug metadata; defaults to "irgen".
	Producer string
	// SourceDir is the compile-unit directory for debug metadata.
	SourceDir string
}

// State is the lifecycle state of a Unit.
type State uint8

const (
	StateOpen State = iota
	StateFinalizing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateFinalizing:
		return "finalizing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
