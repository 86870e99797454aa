// Package plan is the provider-agnostic operator tree the compiler emits:
// a pipeline of filter/sort/skip/take/project/include nodes over a source,
// with expression trees for predicates, sort keys and projections. Plans are
// immutable and deferred; nothing here executes anything.
package plan

import (
	"fmt"
	"strings"

	"github.com/boginw/jsonapi/queryable"
)

// Expr is an expression node. The variant set is closed; executors dispatch
// over it exhaustively.
type Expr interface {
	expr()
	String() string
}

// Var references the variable bound for the current element of a scope.
type Var struct {
	Name string
	Of   string // element storage type name
}

func (v *Var) expr()          {}
func (v *Var) String() string { return v.Name }

// Field accesses a storage property of the target expression. Chained
// Fields traverse to-one navigations.
type Field struct {
	Target   Expr
	Property string
}

func (f *Field) expr()          {}
func (f *Field) String() string { return f.Target.String() + "." + f.Property }

// Literal is a typed constant.
type Literal struct {
	Value queryable.Value
}

func (l *Literal) expr()          {}
func (l *Literal) String() string { return "'" + l.Value.String() + "'" }

// NullExpr is the untyped null constant, used as the null-guard result for
// absent to-one navigations.
type NullExpr struct{}

func (n *NullExpr) expr()          {}
func (n *NullExpr) String() string { return "null" }

// Comparison applies a comparison operator; both operands have been brought
// to a common type by the compiler.
type Comparison struct {
	Op    string // "=", "<", "<=", ">", ">="
	Left  Expr
	Right Expr
}

func (c *Comparison) expr() {}
func (c *Comparison) String() string {
	return fmt.Sprintf("(%s %s %s)", c.Left, c.Op, c.Right)
}

// And is binary conjunction; n-ary compositions are left-associative chains.
type And struct {
	Left  Expr
	Right Expr
}

func (a *And) expr()          {}
func (a *And) String() string { return fmt.Sprintf("(%s && %s)", a.Left, a.Right) }

// Or is binary disjunction; n-ary compositions are left-associative chains.
type Or struct {
	Left  Expr
	Right Expr
}

func (o *Or) expr()          {}
func (o *Or) String() string { return fmt.Sprintf("(%s || %s)", o.Left, o.Right) }

// Not is boolean negation.
type Not struct {
	Term Expr
}

func (n *Not) expr()          {}
func (n *Not) String() string { return fmt.Sprintf("!(%s)", n.Term) }

// Exists tests a collection-valued expression for a matching element.
// A nil predicate tests plain non-emptiness.
type Exists struct {
	Source    Expr
	Predicate *Lambda
}

func (e *Exists) expr() {}
func (e *Exists) String() string {
	if e.Predicate != nil {
		return fmt.Sprintf("%s.Any(%s)", e.Source, e.Predicate)
	}
	return fmt.Sprintf("%s.Any()", e.Source)
}

// In tests membership of the target in a literal set.
type In struct {
	Target Expr
	Values []queryable.Value
}

func (i *In) expr() {}
func (i *In) String() string {
	parts := make([]string, len(i.Values))
	for idx, v := range i.Values {
		parts[idx] = "'" + v.String() + "'"
	}
	return fmt.Sprintf("%s.In(%s)", i.Target, strings.Join(parts, ","))
}

// TextMatch tests a textual target for a prefix, suffix or substring.
type TextMatch struct {
	Target Expr
	Kind   string // "StartsWith", "EndsWith", "Contains"
	Text   string
}

func (m *TextMatch) expr() {}
func (m *TextMatch) String() string {
	return fmt.Sprintf("%s.%s('%s')", m.Target, m.Kind, m.Text)
}

// TypeEquals tests the exact runtime storage type of the target. Exact
// equality, not a subtype test, keeps polymorphic branches order-independent.
type TypeEquals struct {
	Target  Expr
	Storage string
}

func (t *TypeEquals) expr() {}
func (t *TypeEquals) String() string {
	return fmt.Sprintf("(typeof(%s) == %s)", t.Target, t.Storage)
}

// DownCast re-types the target as a derived storage type. The compiler only
// emits one under a matching TypeEquals guard.
type DownCast struct {
	Target  Expr
	Storage string
}

func (d *DownCast) expr() {}
func (d *DownCast) String() string {
	return fmt.Sprintf("(%s as %s)", d.Target, d.Storage)
}

// CountOf resolves to the cardinality of a collection-valued expression.
type CountOf struct {
	Source Expr
}

func (c *CountOf) expr()          {}
func (c *CountOf) String() string { return fmt.Sprintf("%s.Count()", c.Source) }

// IsNull tests a navigation or nullable value for null.
type IsNull struct {
	Target Expr
}

func (i *IsNull) expr()          {}
func (i *IsNull) String() string { return fmt.Sprintf("(%s == null)", i.Target) }

// Conditional is if/then/else. Polymorphic projection cascades and to-one
// null guards are built from these.
type Conditional struct {
	When Expr
	Then Expr
	Else Expr
}

func (c *Conditional) expr() {}
func (c *Conditional) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", c.When, c.Then, c.Else)
}

// Convert widens the target to another scalar type, e.g. int to float or a
// non-nullable type to its nullable form.
type Convert struct {
	Target Expr
	To     queryable.Type
}

func (c *Convert) expr() {}
func (c *Convert) String() string {
	return fmt.Sprintf("(%s)(%s)", c.To, c.Target)
}

// Construct builds a new instance of a storage type, assigning each listed
// property from its expression. Properties not listed stay unset.
type Construct struct {
	Storage string
	Inits   []FieldInit
}

// FieldInit assigns one property during construction.
type FieldInit struct {
	Property string
	Value    Expr
}

func (c *Construct) expr() {}
func (c *Construct) String() string {
	parts := make([]string, len(c.Inits))
	for i, init := range c.Inits {
		parts[i] = init.Property + ": " + init.Value.String()
	}
	return fmt.Sprintf("new %s{%s}", c.Storage, strings.Join(parts, ", "))
}

// CollectionKind selects how a realized nested collection is materialized.
type CollectionKind int

const (
	CollectionList CollectionKind = iota // ordered list
	CollectionSet                        // unique set
)

func (k CollectionKind) String() string {
	if k == CollectionSet {
		return "ToSet"
	}
	return "ToList"
}

// Realize materializes a nested sub-plan as a collection of the given kind.
// This is how a selected to-many relationship carrying its own Layer embeds
// a full nested pipeline inside a projection.
type Realize struct {
	Source Node
	As     CollectionKind
}

func (r *Realize) expr() {}
func (r *Realize) String() string {
	return fmt.Sprintf("%s.%s()", r.Source, r.As)
}

// Lambda is an anonymous function over one bound element variable.
type Lambda struct {
	Param *Var
	Body  Expr
}

func (l *Lambda) String() string {
	return fmt.Sprintf("%s => %s", l.Param, l.Body)
}
