package compiler

import (
	"fmt"

	"github.com/boginw/jsonapi/queryable"
	"github.com/boginw/jsonapi/queryable/plan"
	"github.com/boginw/jsonapi/queryable/query"
	"github.com/boginw/jsonapi/queryable/schema"
)

// applyFilter compiles the layer's filter tree into a Filter operator over
// the current node, with a fresh scope for the predicate lambda.
func (c *Compiler) applyFilter(filter query.FilterNode, resource *schema.ResourceType, node plan.Node, pool *ScopePool) (plan.Node, error) {
	scope := pool.CreateScope(resource.Storage)
	defer scope.Release()

	predicate, err := c.compileFilter(filter, resource, scope.Accessor(), scope)
	if err != nil {
		return nil, err
	}
	return &plan.Filter{
		From:      node,
		Predicate: &plan.Lambda{Param: scope.Accessor(), Body: predicate},
	}, nil
}

// compileFilter compiles one filter node into a boolean-valued expression
// over target, the expression for the current element. target is usually the
// scope's accessor; under an is-type narrowing it is a downcast of it.
func (c *Compiler) compileFilter(f query.FilterNode, resource *schema.ResourceType, target plan.Expr, scope *Scope) (plan.Expr, error) {
	switch f := f.(type) {
	case *query.Comparison:
		return c.compileComparison(f, resource, target, scope)

	case *query.Logical:
		// Term count ≥2 is an AST construction invariant, not re-validated here.
		acc, err := c.compileFilter(f.Terms[0], resource, target, scope)
		if err != nil {
			return nil, err
		}
		for _, term := range f.Terms[1:] {
			compiled, err := c.compileFilter(term, resource, target, scope)
			if err != nil {
				return nil, err
			}
			switch f.Op {
			case query.OpAnd:
				acc = &plan.And{Left: acc, Right: compiled}
			case query.OpOr:
				acc = &plan.Or{Left: acc, Right: compiled}
			default:
				return nil, fmt.Errorf("%w: unknown logical operator %q", ErrInternal, f.Op)
			}
		}
		return acc, nil

	case *query.Not:
		term, err := c.compileFilter(f.Term, resource, target, scope)
		if err != nil {
			return nil, err
		}
		return &plan.Not{Term: term}, nil

	case *query.Has:
		return c.compileHas(f, resource, target, scope)

	case *query.Any:
		return c.compileAny(f, resource, target)

	case *query.TextMatch:
		return c.compileTextMatch(f, resource, target)

	case *query.IsType:
		return c.compileIsType(f, resource, target, scope)

	case *query.FieldChain:
		ct, err := c.resolveChain(resource, f, target)
		if err != nil {
			return nil, err
		}
		if ct.attr == nil || ct.attr.Type.Kind != queryable.KindBool {
			return nil, fmt.Errorf("field %q is not a boolean predicate", f)
		}
		return ct.expr, nil

	case *query.Literal, *query.Null, *query.Count:
		return nil, fmt.Errorf("expression %s is not a predicate", f)

	default:
		return nil, fmt.Errorf("%w: unknown filter node %T", ErrInternal, f)
	}
}

// compileComparison resolves a common type for both operands before emitting
// the comparison; operands whose conversion cannot be constructed fail as
// incompatible without surfacing the underlying conversion error.
func (c *Compiler) compileComparison(f *query.Comparison, resource *schema.ResourceType, target plan.Expr, scope *Scope) (plan.Expr, error) {
	op, err := comparisonOperator(f.Op)
	if err != nil {
		return nil, err
	}

	left, err := c.compileOperand(f.Left, resource, target)
	if err != nil {
		return nil, err
	}
	right, err := c.compileOperand(f.Right, resource, target)
	if err != nil {
		return nil, err
	}

	// Navigation operands only support equality, against null or another
	// navigation of the same target type.
	if left.nav || right.nav {
		if f.Op != query.OpEquals || !(left.nav && right.null || right.nav && left.null || left.nav && right.nav) {
			return nil, fmt.Errorf("%w: relationship comparisons support equality against null only", ErrIncompatibleTypes)
		}
		return &plan.Comparison{Op: op, Left: left.expr, Right: right.expr}, nil
	}

	switch {
	case left.null && right.null:
		return &plan.Comparison{Op: op, Left: left.expr, Right: right.expr}, nil

	case left.null:
		widened, err := convertExpr(right.expr, right.typ, right.typ.AsNullable())
		if err != nil {
			return nil, err
		}
		return &plan.Comparison{Op: op, Left: left.expr, Right: widened}, nil

	case right.null:
		common := resolveCommonType(left.typ, queryable.Type{}, true)
		converted, err := convertExpr(left.expr, left.typ, common)
		if err != nil {
			return nil, err
		}
		return &plan.Comparison{Op: op, Left: converted, Right: right.expr}, nil

	default:
		common := resolveCommonType(left.typ, right.typ, false)
		convertedLeft, err := convertExpr(left.expr, left.typ, common)
		if err != nil {
			return nil, err
		}
		convertedRight, err := convertExpr(right.expr, right.typ, common)
		if err != nil {
			return nil, err
		}
		return &plan.Comparison{Op: op, Left: convertedLeft, Right: convertedRight}, nil
	}
}

// operand is one compiled comparison operand.
type operand struct {
	expr plan.Expr
	typ  queryable.Type
	null bool // the null literal
	nav  bool // a chain ending in a to-one navigation
}

func (c *Compiler) compileOperand(f query.FilterNode, resource *schema.ResourceType, target plan.Expr) (operand, error) {
	switch f := f.(type) {
	case *query.FieldChain:
		ct, err := c.resolveChain(resource, f, target)
		if err != nil {
			return operand{}, err
		}
		if ct.rel != nil {
			if ct.rel.ToMany {
				return operand{}, fmt.Errorf("to-many relationship %q cannot be a comparison operand", f)
			}
			return operand{expr: ct.expr, nav: true}, nil
		}
		return operand{expr: ct.expr, typ: ct.attr.Type}, nil

	case *query.Literal:
		return operand{expr: &plan.Literal{Value: f.Value}, typ: f.Value.Type()}, nil

	case *query.Null:
		return operand{expr: &plan.NullExpr{}, null: true}, nil

	case *query.Count:
		ct, err := c.resolveChain(resource, f.Relationship, target)
		if err != nil {
			return operand{}, err
		}
		if ct.rel == nil || !ct.rel.ToMany {
			return operand{}, fmt.Errorf("%w: count(%s)", ErrNotACollection, f.Relationship)
		}
		return operand{expr: &plan.CountOf{Source: ct.expr}, typ: queryable.Type{Kind: queryable.KindInt}}, nil

	default:
		return operand{}, fmt.Errorf("%w: %T is not a comparison operand", ErrInternal, f)
	}
}

// compileHas builds an existential test over a to-many relationship, with the
// optional nested predicate compiled in a fresh child scope over the related
// element type.
func (c *Compiler) compileHas(f *query.Has, resource *schema.ResourceType, target plan.Expr, scope *Scope) (plan.Expr, error) {
	ct, err := c.resolveChain(resource, f.Relationship, target)
	if err != nil {
		return nil, err
	}
	if ct.rel == nil || !ct.rel.ToMany {
		return nil, fmt.Errorf("%w: has(%s)", ErrNotACollection, f.Relationship)
	}
	if f.Filter == nil {
		return &plan.Exists{Source: ct.expr}, nil
	}

	related, err := c.catalog.Resource(ct.rel.Target)
	if err != nil {
		return nil, err
	}
	child := scope.pool.CreateScope(related.Storage)
	defer child.Release()

	nested, err := c.compileFilter(f.Filter, related, child.Accessor(), child)
	if err != nil {
		return nil, err
	}
	return &plan.Exists{
		Source:    ct.expr,
		Predicate: &plan.Lambda{Param: child.Accessor(), Body: nested},
	}, nil
}

// compileAny builds a set-membership test typed to the attribute.
func (c *Compiler) compileAny(f *query.Any, resource *schema.ResourceType, target plan.Expr) (plan.Expr, error) {
	ct, err := c.resolveChain(resource, f.Target, target)
	if err != nil {
		return nil, err
	}
	if ct.attr == nil {
		return nil, fmt.Errorf("any(%s): target is not an attribute", f.Target)
	}
	for _, v := range f.Values {
		if _, err := convertExpr(&plan.Literal{Value: v}, v.Type(), ct.attr.Type.AsNullable()); err != nil {
			return nil, err
		}
	}
	return &plan.In{Target: ct.expr, Values: f.Values}, nil
}

func (c *Compiler) compileTextMatch(f *query.TextMatch, resource *schema.ResourceType, target plan.Expr) (plan.Expr, error) {
	ct, err := c.resolveChain(resource, f.Target, target)
	if err != nil {
		return nil, err
	}
	if ct.attr == nil || ct.attr.Type.Kind != queryable.KindString {
		return nil, fmt.Errorf("%w: %s(%s)", ErrNotText, f.Kind, f.Target)
	}

	var kind string
	switch f.Kind {
	case query.MatchStartsWith:
		kind = "StartsWith"
	case query.MatchEndsWith:
		kind = "EndsWith"
	case query.MatchContains:
		kind = "Contains"
	default:
		return nil, fmt.Errorf("%w: unknown match kind %q", ErrInternal, f.Kind)
	}
	return &plan.TextMatch{Target: ct.expr, Kind: kind, Text: f.Text}, nil
}

// compileIsType emits an exact runtime-type test against the derived storage
// type; a nested filter is compiled against the accessor narrowed to the
// derived type and combined with logical AND.
func (c *Compiler) compileIsType(f *query.IsType, resource *schema.ResourceType, target plan.Expr, scope *Scope) (plan.Expr, error) {
	derived, err := c.catalog.Resource(f.DerivedType)
	if err != nil {
		return nil, err
	}
	base, err := c.model.StorageType(resource.Storage)
	if err != nil {
		return nil, err
	}
	if !containsString(base.Derived, derived.Storage) {
		return nil, fmt.Errorf("resource type %q is not derived from %q", f.DerivedType, resource.Name)
	}

	test := &plan.TypeEquals{Target: target, Storage: derived.Storage}
	if f.Filter == nil {
		return test, nil
	}

	narrowed := &plan.DownCast{Target: target, Storage: derived.Storage}
	nested, err := c.compileFilter(f.Filter, derived, narrowed, scope)
	if err != nil {
		return nil, err
	}
	return &plan.And{Left: test, Right: nested}, nil
}

func comparisonOperator(op query.CompareOp) (string, error) {
	switch op {
	case query.OpEquals:
		return "=", nil
	case query.OpLessThan:
		return "<", nil
	case query.OpLessOrEqual:
		return "<=", nil
	case query.OpGreaterThan:
		return ">", nil
	case query.OpGreaterOrEqual:
		return ">=", nil
	default:
		return "", fmt.Errorf("%w: unknown comparison operator %q", ErrInternal, op)
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
