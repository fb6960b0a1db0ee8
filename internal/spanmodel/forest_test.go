package spanmodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkSpan(id, parent string, start time.Time, attrs map[string]any) Span {
	s := Span{
		Name:       "span",
		TraceID:    "t1",
		SpanID:     id,
		Attributes: attrs,
		StartTime:  start,
		EndTime:    start.Add(time.Millisecond),
	}
	if parent != "" {
		s.ParentID = parent
		s.HasParent = true
	}
	if s.Attributes == nil {
		s.Attributes = map[string]any{}
	}
	return s
}

func TestBuild_OrderingByStartTimeThenSpanID(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	a := mkSpan("b", "", base, nil)
	b := mkSpan("a", "", base, nil) // same start time, lexicographically first span_id
	c := mkSpan("c", "", base.Add(time.Second), nil)

	forest, err := Build([]Span{a, b, c})
	require.NoError(t, err)

	ids := make([]string, 0, 3)
	for _, s := range forest.Ordered() {
		ids = append(ids, s.SpanID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestBuild_CollapsesDuplicateIdentity(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := mkSpan("x", "", base, nil)
	dup := mkSpan("x", "", base, nil) // identical identity tuple

	forest, err := Build([]Span{a, dup})
	require.NoError(t, err)
	assert.Len(t, forest.Ordered(), 1)
}

func TestBuild_UnresolvedParentIsFatal(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	orphan := mkSpan("child", "missing-parent", base, nil)

	_, err := Build([]Span{orphan})
	require.Error(t, err)
	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "child", se.SpanID)
}

func TestForest_ParentAndAncestors(t *testing.T) {
	assertions := assert.New(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	root := mkSpan("root", "", base, map[string]any{AttrTestName: "test_x", AttrTestPath: "f.py", AttrTestLine: float64(1)})
	mid := mkSpan("mid", "root", base.Add(time.Millisecond), nil)
	leaf := mkSpan("leaf", "mid", base.Add(2*time.Millisecond), map[string]any{AttrDBStatement: "SELECT 1"})

	forest, err := Build([]Span{root, mid, leaf})
	require.NoError(t, err)

	parent, ok := forest.Parent(leaf)
	assertions.True(ok)
	assertions.Equal("mid", parent.SpanID)

	_, ok = forest.Parent(root)
	assertions.False(ok, "root span has no parent")

	ancestors, err := forest.Ancestors(leaf)
	require.NoError(t, err)
	require.Len(t, ancestors, 2)
	assertions.Equal("mid", ancestors[0].SpanID, "child-first order")
	assertions.Equal("root", ancestors[1].SpanID)

	test, ok := forest.EnclosingTest(leaf)
	assertions.True(ok)
	assertions.Equal(Test{Path: "f.py", Line: 1, Name: "test_x"}, test)
}

func TestForest_EnclosingTest_NoneFound(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	root := mkSpan("root", "", base, nil) // not a TEST span
	leaf := mkSpan("leaf", "root", base.Add(time.Millisecond), map[string]any{AttrDBStatement: "SELECT 1"})

	forest, err := Build([]Span{root, leaf})
	require.NoError(t, err)

	_, ok := forest.EnclosingTest(leaf)
	assert.False(t, ok)
}
