package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boginw/jsonapi/queryable"
	"github.com/boginw/jsonapi/queryable/plan"
	"github.com/boginw/jsonapi/queryable/query"
)

func TestSourceFor(t *testing.T) {
	c := newTestCompiler()

	node, err := c.SourceFor("contents")
	require.NoError(t, err)
	scan, ok := node.(*plan.Scan)
	require.True(t, ok)
	require.Equal(t, "contents", scan.Resource)
	require.Equal(t, "Content", scan.Storage)

	_, err = c.SourceFor("missing")
	require.Error(t, err)
}

func TestIncludeCompilation(t *testing.T) {
	c := newTestCompiler()
	source, err := c.SourceFor("contents")
	require.NoError(t, err)

	layer := &query.Layer{
		ResourceType: "contents",
		Include: &query.Include{Elements: []*query.IncludeElement{
			{Relationship: "author"},
			{Relationship: "comments", Children: []*query.IncludeElement{{Relationship: "author"}}},
		}},
	}
	node, err := c.Compile(layer, source)
	require.NoError(t, err)

	include, ok := node.(*plan.Include)
	require.True(t, ok, "expected an Include operator, got %T", node)
	require.Equal(t, [][]string{{"author"}, {"comments", "author"}}, include.Paths)
}

func TestIncludeUnknownRelationship(t *testing.T) {
	c := newTestCompiler()
	source, err := c.SourceFor("contents")
	require.NoError(t, err)

	layer := &query.Layer{
		ResourceType: "contents",
		Include:      &query.Include{Elements: []*query.IncludeElement{{Relationship: "missing"}}},
	}
	_, err = c.Compile(layer, source)
	require.Error(t, err)
	require.Contains(t, err.Error(), `unknown relationship "missing"`)
}

func fullLayer() *query.Layer {
	return &query.Layer{
		ResourceType: "contents",
		Filter: &query.Comparison{
			Op:    query.OpEquals,
			Left:  query.NewFieldChain("featured"),
			Right: &query.Literal{Value: queryable.Bool(true)},
		},
		Sort:       []query.SortTerm{{Key: query.NewFieldChain("title")}},
		Pagination: &query.Pagination{Number: 2, Size: 5},
		Selection: &query.FieldSelection{Types: map[string]*query.FieldSelectors{
			"contents": {Fields: map[string]*query.Layer{"title": nil}},
		}},
		Include: &query.Include{Elements: []*query.IncludeElement{{Relationship: "author"}}},
	}
}

func TestStageOrder(t *testing.T) {
	c := newTestCompiler()
	source, err := c.SourceFor("contents")
	require.NoError(t, err)

	node, err := c.Compile(fullLayer(), source)
	require.NoError(t, err)

	// Top-down: selection last, include first above the scan.
	project, ok := node.(*plan.Project)
	require.True(t, ok, "expected Project on top, got %T", node)
	take, ok := project.Input().(*plan.Take)
	require.True(t, ok, "expected Take, got %T", project.Input())
	skip, ok := take.Input().(*plan.Skip)
	require.True(t, ok, "expected Skip, got %T", take.Input())
	sorted, ok := skip.Input().(*plan.Sort)
	require.True(t, ok, "expected Sort, got %T", skip.Input())
	filter, ok := sorted.Input().(*plan.Filter)
	require.True(t, ok, "expected Filter, got %T", sorted.Input())
	include, ok := filter.Input().(*plan.Include)
	require.True(t, ok, "expected Include, got %T", filter.Input())
	require.Same(t, source, include.Input())
}

func TestScopeNamesUniqueAcrossStages(t *testing.T) {
	c := newTestCompiler()
	source, err := c.SourceFor("contents")
	require.NoError(t, err)

	node, err := c.Compile(fullLayer(), source)
	require.NoError(t, err)

	names := make(map[string]int)
	for cur := node; cur != nil; cur = cur.Input() {
		switch op := cur.(type) {
		case *plan.Filter:
			names[op.Predicate.Param.Name]++
		case *plan.Sort:
			for _, key := range op.Keys {
				names[key.Key.Param.Name]++
			}
		case *plan.Project:
			names[op.Projection.Param.Name]++
		}
	}
	require.Len(t, names, 3, "each lambda-emitting stage binds its own scope")
	for name, uses := range names {
		require.Equal(t, 1, uses, "scope %s bound by more than one stage", name)
	}
}

func TestCompileUnknownResource(t *testing.T) {
	c := newTestCompiler()
	_, err := c.Compile(&query.Layer{ResourceType: "missing"}, &plan.Scan{Resource: "missing", Storage: "Missing"})
	require.Error(t, err)
}

func TestCompiledPlanRendering(t *testing.T) {
	c := newTestCompiler()
	source, err := c.SourceFor("contents")
	require.NoError(t, err)

	layer := &query.Layer{
		ResourceType: "contents",
		Filter: &query.TextMatch{
			Target: query.NewFieldChain("title"),
			Kind:   query.MatchStartsWith,
			Text:   "Go",
		},
		Pagination: &query.Pagination{Number: 1, Size: 3},
	}
	node, err := c.Compile(layer, source)
	require.NoError(t, err)

	expected := "Scan(contents)\n" +
		"  Filter(e0 => e0.title.StartsWith('Go'))\n" +
		"    Take(3)"
	require.Equal(t, expected, plan.Render(node))
}
