package spanmodel

import (
	"sort"

	"github.com/pkg/errors"
)

// StructuralError reports a span forest that is not well-formed: a
// parent_id that resolves to nothing, or a parent chain that cycles. Both
// are fatal to the analysis run.
type StructuralError struct {
	SpanID string
	Reason string
}

func (e *StructuralError) Error() string {
	return "span " + e.SpanID + ": " + e.Reason
}

// Forest is a read-only, once-built collection of spans indexed by id, with
// deterministic ordered iteration and parent/ancestor lookups.
type Forest struct {
	byID    map[string]Span
	ordered []Span
}

// Build collapses duplicate records (identical identity tuple), indexes
// spans by id, and validates that every non-null parent_id resolves within
// the set. Iteration order is fixed at construction time: ascending
// StartTime, ties broken by SpanID.
func Build(spans []Span) (*Forest, error) {
	seen := make(map[[4]string]Span, len(spans))
	for _, s := range spans {
		seen[s.IdentityKey()] = s
	}

	byID := make(map[string]Span, len(seen))
	unique := make([]Span, 0, len(seen))
	for _, s := range seen {
		byID[s.SpanID] = s
		unique = append(unique, s)
	}

	for _, s := range unique {
		if !s.HasParent {
			continue
		}
		if _, ok := byID[s.ParentID]; !ok {
			return nil, errors.WithStack(&StructuralError{
				SpanID: s.SpanID,
				Reason: "parent_id " + s.ParentID + " does not resolve to any span in the forest",
			})
		}
	}

	sort.Slice(unique, func(i, j int) bool {
		if !unique[i].StartTime.Equal(unique[j].StartTime) {
			return unique[i].StartTime.Before(unique[j].StartTime)
		}
		return unique[i].SpanID < unique[j].SpanID
	})

	return &Forest{byID: byID, ordered: unique}, nil
}

// Ordered returns every span in the forest's deterministic order: ascending
// StartTime, ties broken by SpanID.
func (f *Forest) Ordered() []Span {
	return f.ordered
}

// Parent returns the span referenced by s.ParentID, or ok=false if s is a
// root. Panics never occur here: Build already validated resolvability.
func (f *Forest) Parent(s Span) (Span, bool) {
	if !s.HasParent {
		return Span{}, false
	}
	parent, ok := f.byID[s.ParentID]
	return parent, ok
}

// Ancestors returns the chain from s's immediate parent to the root,
// child-first. It terminates because well-formed trace ids from the
// producer make the parent chain acyclic; a cycle is a structural error
// that Build would already have had to let through (Build cannot detect a
// cycle among mutually-resolvable parents), so Ancestors defends against it
// directly and reports a StructuralError rather than looping forever.
func (f *Forest) Ancestors(s Span) ([]Span, error) {
	var chain []Span
	visited := map[string]bool{s.SpanID: true}

	cur := s
	for {
		parent, ok := f.Parent(cur)
		if !ok {
			return chain, nil
		}
		if visited[parent.SpanID] {
			return nil, errors.WithStack(&StructuralError{
				SpanID: parent.SpanID,
				Reason: "parent chain cycles back on itself",
			})
		}
		visited[parent.SpanID] = true
		chain = append(chain, parent)
		cur = parent
	}
}

// EnclosingTest walks Ancestors(s) and returns the first TEST span's test
// info, or ok=false if none is found (or if ancestry is malformed, in which
// case the zero value and false are returned — callers treat "no enclosing
// test" and "can't determine" identically, both just suppress attribution).
func (f *Forest) EnclosingTest(s Span) (Test, bool) {
	ancestors, err := f.Ancestors(s)
	if err != nil {
		return Test{}, false
	}
	for _, a := range ancestors {
		if a.Kind() == TEST {
			if t, ok := a.TestInfo(); ok {
				return t, ok
			}
		}
	}
	return Test{}, false
}
