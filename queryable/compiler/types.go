package compiler

import (
	"fmt"

	"github.com/boginw/jsonapi/queryable"
	"github.com/boginw/jsonapi/queryable/plan"
	"github.com/boginw/jsonapi/queryable/query"
	"github.com/boginw/jsonapi/queryable/schema"
)

// chainTarget is a resolved field chain: the property-access expression plus
// the schema field it lands on. Exactly one of attr and rel is set.
type chainTarget struct {
	expr plan.Expr
	attr *schema.Attribute
	rel  *schema.Relationship
}

// resolveChain walks a field chain from the given resource type, building a
// property access expression over base. Intermediate steps must be to-one
// relationships; the final step may be an attribute or a relationship.
func (c *Compiler) resolveChain(resource *schema.ResourceType, chain *query.FieldChain, base plan.Expr) (*chainTarget, error) {
	if len(chain.Fields) == 0 {
		return nil, fmt.Errorf("%w: empty field chain", ErrInternal)
	}

	cur := resource
	expr := base
	for i, field := range chain.Fields {
		last := i == len(chain.Fields)-1

		if attr, ok := cur.Attribute(field); ok {
			if !last {
				return nil, fmt.Errorf("cannot traverse attribute %q on resource type %q", field, cur.Name)
			}
			return &chainTarget{expr: &plan.Field{Target: expr, Property: attr.Property}, attr: attr}, nil
		}

		rel, ok := cur.Relationship(field)
		if !ok {
			return nil, fmt.Errorf("unknown field %q on resource type %q", field, cur.Name)
		}
		expr = &plan.Field{Target: expr, Property: rel.Property}
		if last {
			return &chainTarget{expr: expr, rel: rel}, nil
		}
		if rel.ToMany {
			return nil, fmt.Errorf("cannot traverse to-many relationship %q on resource type %q", field, cur.Name)
		}

		next, err := c.catalog.Resource(rel.Target)
		if err != nil {
			return nil, err
		}
		cur = next
	}

	return nil, fmt.Errorf("%w: unreachable chain state", ErrInternal)
}

// resolveCommonType picks the type both comparison operands are brought to.
// The left operand's static type wins unless nullability forces widening:
// a nullable left is used as-is, a null literal on the right widens the left
// to nullable, and a nullable right is preferred over a non-nullable left.
func resolveCommonType(left, right queryable.Type, rightIsNull bool) queryable.Type {
	common := left
	switch {
	case left.Nullable:
		common = left
	case rightIsNull:
		common = left.AsNullable()
	case right.Nullable:
		common = right
	}

	// Mixed int/float comparisons settle on float.
	if !rightIsNull && left.Kind != right.Kind && isNumericKind(left.Kind) && isNumericKind(right.Kind) {
		common.Kind = queryable.KindFloat
	}
	return common
}

// convertExpr wraps expr in a conversion to the common type when its static
// type differs. A conversion that cannot be constructed is an incompatible
// comparison; the underlying cause is not surfaced to callers.
func convertExpr(expr plan.Expr, from, to queryable.Type) (plan.Expr, error) {
	if from == to {
		return expr, nil
	}
	if from.Kind != to.Kind && !(isNumericKind(from.Kind) && isNumericKind(to.Kind)) {
		return nil, fmt.Errorf("%w: cannot compare %s with %s", ErrIncompatibleTypes, from, to)
	}
	return &plan.Convert{Target: expr, To: to}, nil
}

func isNumericKind(k queryable.Kind) bool {
	return k == queryable.KindInt || k == queryable.KindFloat
}
