package compiler

import (
	"fmt"

	"github.com/boginw/jsonapi/queryable/plan"
	"github.com/boginw/jsonapi/queryable/query"
	"github.com/boginw/jsonapi/queryable/schema"
)

// applyInclude walks the include tree and emits one Include operator carrying
// every root-relative navigation path, so the provider eagerly loads each
// included relationship and its children. Constrained loading of a
// relationship is expressed through nested Layers on the selection side, not
// here.
func (c *Compiler) applyInclude(inc *query.Include, resource *schema.ResourceType, node plan.Node) (plan.Node, error) {
	paths, err := c.includePaths(inc.Elements, resource, nil)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return node, nil
	}
	return &plan.Include{From: node, Paths: paths}, nil
}

func (c *Compiler) includePaths(elements []*query.IncludeElement, resource *schema.ResourceType, prefix []string) ([][]string, error) {
	var paths [][]string
	for _, el := range elements {
		rel, ok := resource.Relationship(el.Relationship)
		if !ok {
			return nil, fmt.Errorf("unknown relationship %q on resource type %q", el.Relationship, resource.Name)
		}
		path := append(append([]string(nil), prefix...), rel.Property)

		if len(el.Children) == 0 {
			paths = append(paths, path)
			continue
		}
		related, err := c.catalog.Resource(rel.Target)
		if err != nil {
			return nil, err
		}
		children, err := c.includePaths(el.Children, related, path)
		if err != nil {
			return nil, err
		}
		paths = append(paths, children...)
	}
	return paths, nil
}
