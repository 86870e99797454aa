package plan

import (
	"testing"

	"github.com/boginw/jsonapi/queryable"
)

func TestExprStrings(t *testing.T) {
	e := &Var{Name: "e0", Of: "Content"}
	title := &Field{Target: e, Property: "title"}

	cases := []struct {
		expr     Expr
		expected string
	}{
		{title, "e0.title"},
		{&Field{Target: &Field{Target: e, Property: "author"}, Property: "name"}, "e0.author.name"},
		{&Comparison{Op: "=", Left: title, Right: &Literal{Value: queryable.String("Go")}}, "(e0.title = 'Go')"},
		{&And{Left: &IsNull{Target: title}, Right: &Not{Term: &NullExpr{}}}, "((e0.title == null) && !(null))"},
		{&TextMatch{Target: title, Kind: "Contains", Text: "Go"}, "e0.title.Contains('Go')"},
		{&In{Target: title, Values: []queryable.Value{queryable.Int(1), queryable.Int(2)}}, "e0.title.In('1','2')"},
		{&TypeEquals{Target: e, Storage: "Video"}, "(typeof(e0) == Video)"},
		{&DownCast{Target: e, Storage: "Video"}, "(e0 as Video)"},
		{&CountOf{Source: &Field{Target: e, Property: "comments"}}, "e0.comments.Count()"},
		{&Convert{Target: title, To: queryable.Type{Kind: queryable.KindString, Nullable: true}}, "(string?)(e0.title)"},
		{
			&Conditional{When: &IsNull{Target: title}, Then: &NullExpr{}, Else: title},
			"((e0.title == null) ? null : e0.title)",
		},
		{
			&Construct{Storage: "Content", Inits: []FieldInit{{Property: "title", Value: title}}},
			"new Content{title: e0.title}",
		},
		{
			&Exists{
				Source:    &Field{Target: e, Property: "comments"},
				Predicate: &Lambda{Param: &Var{Name: "e1", Of: "Comment"}, Body: &NullExpr{}},
			},
			"e0.comments.Any(e1 => null)",
		},
	}
	for _, tc := range cases {
		if got := tc.expr.String(); got != tc.expected {
			t.Errorf("expected %s, got %s", tc.expected, got)
		}
	}
}

func TestCollectionKindString(t *testing.T) {
	if CollectionList.String() != "ToList" || CollectionSet.String() != "ToSet" {
		t.Error("unexpected collection kind names")
	}
}

func TestRenderOrdersSourceFirst(t *testing.T) {
	e := &Var{Name: "e0", Of: "Content"}
	n := &Take{
		Count: 10,
		From: &Filter{
			Predicate: &Lambda{Param: e, Body: &IsNull{Target: &Field{Target: e, Property: "publishedAt"}}},
			From:      &Scan{Resource: "contents", Storage: "Content"},
		},
	}
	expected := "Scan(contents)\n" +
		"  Filter(e0 => (e0.publishedAt == null))\n" +
		"    Take(10)"
	if got := Render(n); got != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, got)
	}
}

func TestIncludeString(t *testing.T) {
	n := &Include{
		From:  &Scan{Resource: "contents", Storage: "Content"},
		Paths: [][]string{{"author"}, {"comments", "author"}},
	}
	if got := n.String(); got != "Include(author, comments.author)" {
		t.Errorf("unexpected rendering %s", got)
	}
}
