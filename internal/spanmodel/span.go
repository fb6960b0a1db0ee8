// Package spanmodel provides a typed representation of trace spans ingested
// from a CI test run, along with the read-only forest built over them.
package spanmodel

import (
	"time"
)

// Kind classifies a Span. Classification is derived from attributes, never
// stored directly on the record.
type Kind int

const (
	// OTHER is any span that is neither a DB call nor a test boundary.
	OTHER Kind = iota
	// DB is a span whose attributes carry a db.statement.
	DB
	// TEST is a span whose attributes carry a test.name.
	TEST
)

func (k Kind) String() string {
	switch k {
	case DB:
		return "DB"
	case TEST:
		return "TEST"
	default:
		return "OTHER"
	}
}

// Attribute keys recognized on a span record. These mirror the OpenTelemetry
// semantic-convention-style keys the original instrumentation emits.
const (
	AttrDBStatement = "db.statement"
	AttrDBName      = "db.name"
	AttrTestPath    = "test.path"
	AttrTestLine    = "test.line"
	AttrTestName    = "test.name"
)

// Test identifies a single test function by source location. It is totally
// ordered lexicographically by (Path, Line, Name), and is used as a set
// element on Finding.Tests.
type Test struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Name string `json:"name"`
}

// Less implements the total order from spec.md §3: lexicographic on
// (path, line, name) in that order.
func (t Test) Less(other Test) bool {
	if t.Path != other.Path {
		return t.Path < other.Path
	}
	if t.Line != other.Line {
		return t.Line < other.Line
	}
	return t.Name < other.Name
}

// Span is an immutable record of one unit of work in a distributed trace.
// Identity is (Name, TraceID, SpanID, ParentID); two records with the same
// identity tuple are the same span.
type Span struct {
	Name       string
	TraceID    string
	SpanID     string
	ParentID   string // empty means root; HasParent reports presence
	HasParent  bool
	Attributes map[string]any
	StartTime  time.Time
	EndTime    time.Time
}

// IdentityKey is the tuple that determines span equality, used when
// collapsing duplicate records during forest construction.
func (s Span) IdentityKey() [4]string {
	return [4]string{s.Name, s.TraceID, s.SpanID, s.ParentID}
}

// Kind classifies the span per spec.md §3: DB iff db.statement is present,
// TEST iff test.name is present (checked in that order; a span can't be
// both by construction of the producer, but DB takes precedence if it
// somehow were).
func (s Span) Kind() Kind {
	if _, ok := s.Attributes[AttrDBStatement]; ok {
		return DB
	}
	if _, ok := s.Attributes[AttrTestName]; ok {
		return TEST
	}
	return OTHER
}

// SQL returns the db.statement attribute. Only meaningful when Kind() == DB.
func (s Span) SQL() (string, bool) {
	v, ok := s.Attributes[AttrDBStatement]
	if !ok {
		return "", false
	}
	sql, ok := v.(string)
	return sql, ok
}

// TestInfo extracts the (path, line, name) triple from a TEST span's
// attributes. Only meaningful when Kind() == TEST.
func (s Span) TestInfo() (Test, bool) {
	name, ok := s.Attributes[AttrTestName].(string)
	if !ok {
		return Test{}, false
	}
	path, _ := s.Attributes[AttrTestPath].(string)

	var line int
	switch v := s.Attributes[AttrTestLine].(type) {
	case int:
		line = v
	case int64:
		line = int(v)
	case float64:
		line = int(v)
	}

	return Test{Path: path, Line: line, Name: name}, true
}

// ParseError reports a malformed span record: a missing mandatory field or
// an unparseable timestamp. It is fatal to the analysis run.
type ParseError struct {
	Field string
	Cause error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return "span record: field " + e.Field + ": " + e.Cause.Error()
	}
	return "span record: missing field " + e.Field
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Record is the raw, JSON-decoded shape of one span as described in
// spec.md §6 ("Span record schema").
type Record struct {
	Name    string `json:"name"`
	Context struct {
		TraceID string `json:"trace_id"`
		SpanID  string `json:"span_id"`
	} `json:"context"`
	ParentID   *string        `json:"parent_id"`
	Attributes map[string]any `json:"attributes"`
	StartTime  string         `json:"start_time"`
	EndTime    string         `json:"end_time"`
}

// Parse converts a raw decoded record into a Span, validating mandatory
// fields and timestamp formats.
func Parse(r Record) (Span, error) {
	if r.Name == "" {
		return Span{}, &ParseError{Field: "name"}
	}
	if r.Context.TraceID == "" {
		return Span{}, &ParseError{Field: "context.trace_id"}
	}
	if r.Context.SpanID == "" {
		return Span{}, &ParseError{Field: "context.span_id"}
	}

	start, err := time.Parse(time.RFC3339Nano, r.StartTime)
	if err != nil {
		return Span{}, &ParseError{Field: "start_time", Cause: err}
	}
	end, err := time.Parse(time.RFC3339Nano, r.EndTime)
	if err != nil {
		return Span{}, &ParseError{Field: "end_time", Cause: err}
	}

	span := Span{
		Name:       r.Name,
		TraceID:    r.Context.TraceID,
		SpanID:     r.Context.SpanID,
		Attributes: r.Attributes,
		StartTime:  start,
		EndTime:    end,
	}
	if r.ParentID != nil {
		span.ParentID = *r.ParentID
		span.HasParent = true
	}
	if span.Attributes == nil {
		span.Attributes = map[string]any{}
	}
	return span, nil
}
