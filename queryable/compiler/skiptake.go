package compiler

import (
	"github.com/boginw/jsonapi/queryable/plan"
	"github.com/boginw/jsonapi/queryable/query"
)

// applySkipTake turns pagination into skip and take steps. The offset is
// (page-1)*size; a skip step is emitted only when the offset is positive, a
// take step whenever a size is present. Without a size neither step is
// emitted: offset is only meaningful together with a size in this model.
func applySkipTake(p *query.Pagination, node plan.Node) plan.Node {
	if p.Size <= 0 {
		return node
	}
	if offset := (p.Number - 1) * p.Size; offset > 0 {
		node = &plan.Skip{From: node, Count: offset}
	}
	return &plan.Take{From: node, Count: p.Size}
}
