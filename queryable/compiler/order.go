package compiler

import (
	"fmt"

	"github.com/boginw/jsonapi/queryable/plan"
	"github.com/boginw/jsonapi/queryable/query"
	"github.com/boginw/jsonapi/queryable/schema"
)

// applySort compiles the sort terms in declared order: the first term is the
// primary key, each subsequent term a then-by step. Count terms sort by the
// relationship's cardinality.
func (c *Compiler) applySort(terms []query.SortTerm, resource *schema.ResourceType, node plan.Node, pool *ScopePool) (plan.Node, error) {
	scope := pool.CreateScope(resource.Storage)
	defer scope.Release()

	keys := make([]plan.SortKey, 0, len(terms))
	for _, term := range terms {
		key, err := c.compileSortKey(term.Key, resource, scope)
		if err != nil {
			return nil, err
		}
		keys = append(keys, plan.SortKey{
			Key:        &plan.Lambda{Param: scope.Accessor(), Body: key},
			Descending: term.Descending,
		})
	}
	return &plan.Sort{From: node, Keys: keys}, nil
}

func (c *Compiler) compileSortKey(key query.SortKey, resource *schema.ResourceType, scope *Scope) (plan.Expr, error) {
	switch key := key.(type) {
	case *query.FieldChain:
		ct, err := c.resolveChain(resource, key, scope.Accessor())
		if err != nil {
			return nil, err
		}
		if ct.attr == nil {
			return nil, fmt.Errorf("cannot sort by relationship %q", key)
		}
		return ct.expr, nil

	case *query.Count:
		ct, err := c.resolveChain(resource, key.Relationship, scope.Accessor())
		if err != nil {
			return nil, err
		}
		if ct.rel == nil || !ct.rel.ToMany {
			return nil, fmt.Errorf("%w: count(%s)", ErrNotACollection, key.Relationship)
		}
		return &plan.CountOf{Source: ct.expr}, nil

	default:
		return nil, fmt.Errorf("%w: unknown sort key %T", ErrInternal, key)
	}
}
