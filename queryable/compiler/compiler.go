// Package compiler translates a query descriptor (query.Layer) into a
// provider-agnostic operator tree (plan.Node).
//
// File organization:
//   - compiler.go: Compiler struct and the Compile orchestrator
//   - scope.go: variable binding pool for nested anonymous-function scopes
//   - where.go: filter tree compilation
//   - order.go: sort term compilation
//   - skiptake.go: pagination
//   - select.go: sparse field selection and polymorphic projection
//   - include.go: eager-load paths
//   - types.go: field chain resolution and common-type resolution
//
// Start with Compile to understand the flow.
package compiler

import (
	"github.com/boginw/jsonapi/queryable/plan"
	"github.com/boginw/jsonapi/queryable/query"
	"github.com/boginw/jsonapi/queryable/schema"
)

// Compiler compiles layers against a resource catalog and storage model.
// A Compiler is stateless and safe for concurrent use; every Compile call
// runs with its own scope pool.
type Compiler struct {
	catalog schema.Catalog
	model   schema.Model
}

// New creates a compiler over the given catalogs.
func New(catalog schema.Catalog, model schema.Model) *Compiler {
	return &Compiler{catalog: catalog, model: model}
}

// SourceFor returns the root scan node for a resource type, the usual
// starting source for Compile.
func (c *Compiler) SourceFor(resourceType string) (plan.Node, error) {
	resource, err := c.catalog.Resource(resourceType)
	if err != nil {
		return nil, err
	}
	return &plan.Scan{Resource: resource.Name, Storage: resource.Storage}, nil
}

// Compile applies the layer's clauses to the source in fixed order:
// include, filter, sort, pagination, selection. Stages whose AST field is
// absent are skipped. Selection always runs last because projection may
// introduce nested sub-queries that must see the outer filtering, sorting
// and pagination already applied.
//
// A layer either compiles fully to a plan or fails as a whole; there is no
// partial compilation.
func (c *Compiler) Compile(layer *query.Layer, source plan.Node) (plan.Node, error) {
	return c.compileLayer(layer, source, NewScopePool())
}

// compileLayer is the recursion point shared by Compile and nested
// relationship sub-queries; all depths draw scope names from one pool.
func (c *Compiler) compileLayer(layer *query.Layer, source plan.Node, pool *ScopePool) (plan.Node, error) {
	resource, err := c.catalog.Resource(layer.ResourceType)
	if err != nil {
		return nil, err
	}

	node := source
	if layer.Include != nil && len(layer.Include.Elements) > 0 {
		if node, err = c.applyInclude(layer.Include, resource, node); err != nil {
			return nil, err
		}
	}
	if layer.Filter != nil {
		if node, err = c.applyFilter(layer.Filter, resource, node, pool); err != nil {
			return nil, err
		}
	}
	if len(layer.Sort) > 0 {
		if node, err = c.applySort(layer.Sort, resource, node, pool); err != nil {
			return nil, err
		}
	}
	if layer.Pagination != nil {
		node = applySkipTake(layer.Pagination, node)
	}
	if layer.Selection != nil {
		if node, err = c.applySelection(layer, resource, node, pool); err != nil {
			return nil, err
		}
	}
	return node, nil
}
