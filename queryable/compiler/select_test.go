package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boginw/jsonapi/queryable"
	"github.com/boginw/jsonapi/queryable/plan"
	"github.com/boginw/jsonapi/queryable/query"
)

func selectFields(types map[string][]string) *query.FieldSelection {
	selection := &query.FieldSelection{Types: make(map[string]*query.FieldSelectors)}
	for typeName, fields := range types {
		selectors := &query.FieldSelectors{Fields: make(map[string]*query.Layer)}
		for _, f := range fields {
			selectors.Fields[f] = nil
		}
		selection.Types[typeName] = selectors
	}
	return selection
}

// projectionOf compiles a selection-only layer and returns the projection
// lambda body.
func projectionOf(t *testing.T, selection *query.FieldSelection) plan.Expr {
	t.Helper()
	c := newTestCompiler()
	source, err := c.SourceFor("contents")
	require.NoError(t, err)
	node, err := c.Compile(&query.Layer{ResourceType: "contents", Selection: selection}, source)
	require.NoError(t, err)
	project, ok := node.(*plan.Project)
	require.True(t, ok, "expected a Project operator, got %T", node)
	return project.Projection.Body
}

func initProperties(t *testing.T, e plan.Expr) []string {
	t.Helper()
	construct, ok := e.(*plan.Construct)
	require.True(t, ok, "expected a Construct, got %T", e)
	props := make([]string, len(construct.Inits))
	for i, init := range construct.Inits {
		props[i] = init.Property
	}
	return props
}

func TestRelationshipOnlySelectionPullsAllScalars(t *testing.T) {
	body := projectionOf(t, selectFields(map[string][]string{"contents": {"author"}}))

	// All writable scalars plus the ownership navigation; the read-only
	// popularity property is never materialized directly.
	require.Equal(t,
		[]string{"id", "title", "slug", "featured", "publishedAt", "author"},
		initProperties(t, body))
}

func TestEmptySelectionPullsAllScalars(t *testing.T) {
	body := projectionOf(t, &query.FieldSelection{Types: map[string]*query.FieldSelectors{}})
	require.Equal(t,
		[]string{"id", "title", "slug", "featured", "publishedAt", "author"},
		initProperties(t, body))
}

func TestExplicitSelectionAddsEagerLoads(t *testing.T) {
	body := projectionOf(t, selectFields(map[string][]string{"contents": {"title"}}))
	require.Equal(t, []string{"title", "slug"}, initProperties(t, body))
}

func TestReadOnlySelectionPullsAllScalars(t *testing.T) {
	body := projectionOf(t, selectFields(map[string][]string{"contents": {"popularity"}}))

	props := initProperties(t, body)
	require.NotContains(t, props, "popularity")
	require.Contains(t, props, "title")
	require.Contains(t, props, "author")
}

func TestPolymorphicProjectionCascade(t *testing.T) {
	body := projectionOf(t, selectFields(map[string][]string{
		"contents": {"title"},
		"articles": {"body"},
		"videos":   {"durationSeconds"},
	}))

	// Branches nest in declared derived order, base construct as fallback.
	outer, ok := body.(*plan.Conditional)
	require.True(t, ok, "expected a Conditional cascade, got %T", body)
	articleTest, ok := outer.When.(*plan.TypeEquals)
	require.True(t, ok)
	require.Equal(t, "Article", articleTest.Storage)

	articleBranch, ok := outer.Then.(*plan.Construct)
	require.True(t, ok)
	require.Equal(t, "Article", articleBranch.Storage)
	require.Equal(t, []string{"body", "slug"}, initProperties(t, articleBranch))
	require.Equal(t, "(e0 as Article).body", articleBranch.Inits[0].Value.String())

	inner, ok := outer.Else.(*plan.Conditional)
	require.True(t, ok, "expected the Video branch below the Article branch")
	videoTest, ok := inner.When.(*plan.TypeEquals)
	require.True(t, ok)
	require.Equal(t, "Video", videoTest.Storage)

	fallback, ok := inner.Else.(*plan.Construct)
	require.True(t, ok, "expected the base construct as fallback")
	require.Equal(t, "Content", fallback.Storage)
	require.Equal(t, []string{"title", "slug"}, initProperties(t, fallback))
}

func TestDerivedTypesWithoutSelectionSkipCascade(t *testing.T) {
	body := projectionOf(t, selectFields(map[string][]string{"contents": {"title"}}))
	_, ok := body.(*plan.Construct)
	require.True(t, ok, "expected a plain Construct without cascade, got %T", body)
}

func TestToOneNestedProjectionIsNullGuarded(t *testing.T) {
	selection := &query.FieldSelection{Types: map[string]*query.FieldSelectors{
		"contents": {Fields: map[string]*query.Layer{
			"author": {
				ResourceType: "people",
				Selection:    selectFields(map[string][]string{"people": {"name"}}),
			},
		}},
	}}
	body := projectionOf(t, selection)

	construct, ok := body.(*plan.Construct)
	require.True(t, ok)
	var authorInit plan.Expr
	for _, init := range construct.Inits {
		if init.Property == "author" {
			authorInit = init.Value
		}
	}
	require.NotNil(t, authorInit)
	require.Equal(t,
		"((e0.author == null) ? null : new Person{name: e0.author.name})",
		authorInit.String())
}

func TestToManyNestedLayerRecursesFullPipeline(t *testing.T) {
	selection := &query.FieldSelection{Types: map[string]*query.FieldSelectors{
		"contents": {Fields: map[string]*query.Layer{
			"comments": {
				ResourceType: "comments",
				Filter: &query.Comparison{
					Op:    query.OpGreaterThan,
					Left:  query.NewFieldChain("rating"),
					Right: &query.Literal{Value: queryable.Int(3)},
				},
			},
		}},
	}}
	body := projectionOf(t, selection)

	construct, ok := body.(*plan.Construct)
	require.True(t, ok)

	var commentsInit plan.Expr
	for _, init := range construct.Inits {
		if init.Property == "comments" {
			commentsInit = init.Value
		}
	}
	realize, ok := commentsInit.(*plan.Realize)
	require.True(t, ok, "expected a Realize, got %T", commentsInit)
	require.Equal(t, plan.CollectionList, realize.As)

	filter, ok := realize.Source.(*plan.Filter)
	require.True(t, ok, "expected the nested pipeline to filter, got %T", realize.Source)
	bind, ok := filter.From.(*plan.Bind)
	require.True(t, ok, "expected the nested pipeline rooted at a Bind")
	require.Equal(t, "e0.comments", bind.Source.String())

	// The nested scope draws from the same pool as the outer projection.
	require.Equal(t, "e1 => (e1.rating > '3')", filter.Predicate.String())
}

func TestUniqueToManyRealizesAsSet(t *testing.T) {
	selection := &query.FieldSelection{Types: map[string]*query.FieldSelectors{
		"contents": {Fields: map[string]*query.Layer{
			"tags": {ResourceType: "tags"},
		}},
	}}
	body := projectionOf(t, selection)

	construct := body.(*plan.Construct)
	var tagsInit plan.Expr
	for _, init := range construct.Inits {
		if init.Property == "tags" {
			tagsInit = init.Value
		}
	}
	realize, ok := tagsInit.(*plan.Realize)
	require.True(t, ok)
	require.Equal(t, plan.CollectionSet, realize.As)

	// A nested layer without clauses leaves the bound collection untouched.
	_, ok = realize.Source.(*plan.Bind)
	require.True(t, ok, "expected a bare Bind, got %T", realize.Source)
}

func TestAbsentSelectionSkipsProjection(t *testing.T) {
	c := newTestCompiler()
	source, err := c.SourceFor("contents")
	require.NoError(t, err)
	node, err := c.Compile(&query.Layer{ResourceType: "contents"}, source)
	require.NoError(t, err)
	require.Same(t, source, node)
}
