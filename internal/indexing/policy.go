package indexing

import (
	"fmt"

	"lumen/internal/ledger"
)

// Mode selects which books a run will touch.
type Mode string

const (
	// ModeNew processes only books absent from the ledger.
	ModeNew Mode = "new"
	// ModeAll reprocesses every discovered book regardless of the ledger.
	ModeAll Mode = "all"
)

// ParseMode validates a user-supplied mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNew, ModeAll:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown indexing mode: %q (expected new or all)", s)
	}
}

// Policy decides per path whether a book should be processed. The decision
// is provider-agnostic: a book indexed under any provider counts as indexed,
// so switching providers does not re-trigger processing in new mode.
type Policy struct {
	mode    Mode
	indexed map[string]struct{}
}

// NewPolicy captures the ledger snapshot taken at run start. Entries added
// during the run do not affect decisions within the same run.
func NewPolicy(mode Mode, entries map[string]ledger.Entry) Policy {
	indexed := make(map[string]struct{}, len(entries))
	for path := range entries {
		indexed[path] = struct{}{}
	}
	return Policy{mode: mode, indexed: indexed}
}

func (p Policy) ShouldProcess(path string) bool {
	if p.mode == ModeAll {
		return true
	}
	_, ok := p.indexed[path]
	return !ok
}
