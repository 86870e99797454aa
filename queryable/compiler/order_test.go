package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boginw/jsonapi/queryable/plan"
	"github.com/boginw/jsonapi/queryable/query"
)

func compileContentSort(t *testing.T, terms ...query.SortTerm) (plan.Node, error) {
	t.Helper()
	c := newTestCompiler()
	source, err := c.SourceFor("contents")
	require.NoError(t, err)
	return c.Compile(&query.Layer{ResourceType: "contents", Sort: terms}, source)
}

func TestSortCompilation(t *testing.T) {
	node, err := compileContentSort(t,
		query.SortTerm{Key: query.NewFieldChain("title"), Descending: true},
		query.SortTerm{Key: &query.Count{Relationship: query.NewFieldChain("comments")}},
	)
	require.NoError(t, err)

	sorted, ok := node.(*plan.Sort)
	require.True(t, ok, "expected a Sort operator, got %T", node)
	require.Len(t, sorted.Keys, 2)

	// Declared order is preserved; all keys share one scope.
	require.Equal(t, "e0 => e0.title desc", sorted.Keys[0].String())
	require.Equal(t, "e0 => e0.comments.Count()", sorted.Keys[1].String())
}

func TestSortThroughToOneChain(t *testing.T) {
	node, err := compileContentSort(t,
		query.SortTerm{Key: query.NewFieldChain("author", "name")},
	)
	require.NoError(t, err)
	require.Equal(t, "Sort(e0 => e0.author.name)", node.(*plan.Sort).String())
}

func TestSortByRelationshipFails(t *testing.T) {
	_, err := compileContentSort(t, query.SortTerm{Key: query.NewFieldChain("author")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot sort by relationship")
}

func TestSortByCountRequiresCollection(t *testing.T) {
	_, err := compileContentSort(t, query.SortTerm{
		Key: &query.Count{Relationship: query.NewFieldChain("author")},
	})
	require.ErrorIs(t, err, ErrNotACollection)
}
