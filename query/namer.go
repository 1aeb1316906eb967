package query

import (
	"strconv"
	"sync/atomic"
)

// ParamNamer hands out globally unique placeholder names within one
// builder lineage.
//
// A single namer is created by ForEntity and shared by reference across
// every builder derived from that root: copy-on-write mutators copy every
// other field but keep the same counter. That guarantees no two predicates
// anywhere in one lineage receive the same generated name, even when two
// independently derived branches both add predicates before either is
// finalized.
//
// Thread-safety: Next is a single atomic increment. Branches held by
// multiple goroutines may race on the counter and still get distinct
// names. Gaps in the sequence are harmless; duplicates never occur.
type ParamNamer struct {
	n atomic.Int64
}

// NewParamNamer creates a namer whose first generated name is "p1".
func NewParamNamer() *ParamNamer {
	return &ParamNamer{}
}

// Next returns the next unique placeholder name: "p1", "p2", ...
func (p *ParamNamer) Next() string {
	return "p" + strconv.FormatInt(p.n.Add(1), 10)
}
