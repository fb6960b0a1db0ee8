package spanmodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParse(t *testing.T) {
	assertions := assert.New(t)

	r := Record{
		Name: "SELECT",
		Context: struct {
			TraceID string `json:"trace_id"`
			SpanID  string `json:"span_id"`
		}{TraceID: "t1", SpanID: "s1"},
		ParentID:   strPtr("p1"),
		Attributes: map[string]any{AttrDBStatement: "SELECT 1"},
		StartTime:  "2024-01-01T00:00:00.123456789Z",
		EndTime:    "2024-01-01T00:00:00.223456789Z",
	}

	span, err := Parse(r)
	require.NoError(t, err)

	assertions.Equal("SELECT", span.Name)
	assertions.Equal("t1", span.TraceID)
	assertions.Equal("s1", span.SpanID)
	assertions.True(span.HasParent)
	assertions.Equal("p1", span.ParentID)
	assertions.Equal(DB, span.Kind())

	sql, ok := span.SQL()
	assertions.True(ok)
	assertions.Equal("SELECT 1", sql)

	wantStart, _ := time.Parse(time.RFC3339Nano, "2024-01-01T00:00:00.123456789Z")
	assertions.True(wantStart.Equal(span.StartTime))
}

func TestParse_RootSpanHasNoParent(t *testing.T) {
	r := Record{
		Name: "test",
		Context: struct {
			TraceID string `json:"trace_id"`
			SpanID  string `json:"span_id"`
		}{TraceID: "t1", SpanID: "root"},
		StartTime: "2024-01-01T00:00:00Z",
		EndTime:   "2024-01-01T00:00:01Z",
	}

	span, err := Parse(r)
	require.NoError(t, err)
	assert.False(t, span.HasParent)
	_, ok := (&Forest{byID: map[string]Span{}}).Parent(span)
	assert.False(t, ok)
}

func TestParse_MissingMandatoryField(t *testing.T) {
	for _, tt := range []struct {
		name  string
		field string
		r     Record
	}{
		{"name", "name", Record{StartTime: "2024-01-01T00:00:00Z", EndTime: "2024-01-01T00:00:00Z"}},
		{"trace_id", "context.trace_id", Record{Name: "x", StartTime: "2024-01-01T00:00:00Z", EndTime: "2024-01-01T00:00:00Z"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.r)
			require.Error(t, err)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.field, pe.Field)
		})
	}
}

func TestParse_UnparseableTimestamp(t *testing.T) {
	r := Record{
		Name: "x",
		Context: struct {
			TraceID string `json:"trace_id"`
			SpanID  string `json:"span_id"`
		}{TraceID: "t", SpanID: "s"},
		StartTime: "not-a-time",
		EndTime:   "2024-01-01T00:00:00Z",
	}
	_, err := Parse(r)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "start_time", pe.Field)
}

func TestKind(t *testing.T) {
	assertions := assert.New(t)

	db := Span{Attributes: map[string]any{AttrDBStatement: "SELECT 1"}}
	assertions.Equal(DB, db.Kind())

	test := Span{Attributes: map[string]any{AttrTestName: "test_foo"}}
	assertions.Equal(TEST, test.Kind())

	other := Span{Attributes: map[string]any{}}
	assertions.Equal(OTHER, other.Kind())
}

func TestTestInfo(t *testing.T) {
	assertions := assert.New(t)

	s := Span{Attributes: map[string]any{
		AttrTestName: "test_entries",
		AttrTestPath: "tests/test_entries.py",
		AttrTestLine: float64(9), // JSON numbers decode as float64
	}}

	info, ok := s.TestInfo()
	assertions.True(ok)
	assertions.Equal(Test{Path: "tests/test_entries.py", Line: 9, Name: "test_entries"}, info)
}

func TestTest_Less(t *testing.T) {
	assertions := assert.New(t)

	a := Test{Path: "a.py", Line: 1, Name: "z"}
	b := Test{Path: "a.py", Line: 2, Name: "a"}
	c := Test{Path: "b.py", Line: 1, Name: "a"}

	assertions.True(a.Less(b))
	assertions.True(b.Less(c))
	assertions.False(c.Less(a))
}
