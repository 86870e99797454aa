package compiler

import (
	"github.com/boginw/jsonapi/queryable/plan"
	"github.com/boginw/jsonapi/queryable/query"
	"github.com/boginw/jsonapi/queryable/schema"
)

// applySelection compiles the layer's field selection into a Project
// operator. Projection runs last, so nested sub-queries introduced here see
// any filtering, sorting and pagination already applied to the root sequence.
func (c *Compiler) applySelection(layer *query.Layer, resource *schema.ResourceType, node plan.Node, pool *ScopePool) (plan.Node, error) {
	scope := pool.CreateScope(resource.Storage)
	defer scope.Release()

	body, err := c.buildProjection(layer.Selection, resource, scope.Accessor(), scope)
	if err != nil {
		return nil, err
	}
	return &plan.Project{
		From:       node,
		Projection: &plan.Lambda{Param: scope.Accessor(), Body: body},
	}, nil
}

// buildProjection builds the constructor expression for one element. For a
// polymorphic base type it emits a cascade of exact runtime-type
// conditionals, one per derived type with a non-empty selection, falling back
// to the base type's own projection. Exact type equality keeps the branches
// order-independent: the fallback safely catches anything the listed
// concrete types did not match.
func (c *Compiler) buildProjection(selection *query.FieldSelection, resource *schema.ResourceType, target plan.Expr, scope *Scope) (plan.Expr, error) {
	storage, err := c.model.StorageType(resource.Storage)
	if err != nil {
		return nil, err
	}

	result, err := c.construct(selection, resource, storage, target, scope)
	if err != nil {
		return nil, err
	}
	if len(storage.Derived) == 0 {
		return result, nil
	}

	for i := len(storage.Derived) - 1; i >= 0; i-- {
		derived, err := c.catalog.ResourceByStorage(storage.Derived[i])
		if err != nil {
			return nil, err
		}
		sel := selection.ForType(derived.Name)
		if sel == nil || len(sel.Fields) == 0 {
			continue
		}
		derivedStorage, err := c.model.StorageType(derived.Storage)
		if err != nil {
			return nil, err
		}
		branch, err := c.construct(selection, derived, derivedStorage, &plan.DownCast{Target: target, Storage: derived.Storage}, scope)
		if err != nil {
			return nil, err
		}
		result = &plan.Conditional{
			When: &plan.TypeEquals{Target: target, Storage: derived.Storage},
			Then: branch,
			Else: result,
		}
	}
	return result, nil
}

// initializer accumulates field initializers, keeping first-insertion order
// while letting later additions overwrite earlier ones by property.
type initializer struct {
	order []string
	inits map[string]plan.Expr
}

func newInitializer() *initializer {
	return &initializer{inits: make(map[string]plan.Expr)}
}

func (in *initializer) set(property string, value plan.Expr) {
	if _, ok := in.inits[property]; !ok {
		in.order = append(in.order, property)
	}
	in.inits[property] = value
}

func (in *initializer) has(property string) bool {
	_, ok := in.inits[property]
	return ok
}

func (in *initializer) fields() []plan.FieldInit {
	result := make([]plan.FieldInit, len(in.order))
	for i, prop := range in.order {
		result[i] = plan.FieldInit{Property: prop, Value: in.inits[prop]}
	}
	return result
}

// construct builds the initializer expression for one concrete resource
// type. Field resolution order: a relationship-only selection, or one
// containing a read-only attribute, first pulls in every scalar property and
// ownership navigation of the storage type; explicit selections are added
// next, then server-declared eager-load fields not already present. Only
// writable backing properties are emitted; a read-only backing property is
// skipped even when nominally selected, its value being derived after
// materialization.
func (c *Compiler) construct(selection *query.FieldSelection, resource *schema.ResourceType, storage *schema.StorageType, target plan.Expr, scope *Scope) (plan.Expr, error) {
	var sel *query.FieldSelectors
	if selection != nil {
		sel = selection.ForType(resource.Name)
	}
	explicit := sel != nil && len(sel.Fields) > 0

	in := newInitializer()
	addAttribute := func(attr *schema.Attribute) {
		if !storage.Writable(attr.Property) {
			return
		}
		in.set(attr.Property, &plan.Field{Target: target, Property: attr.Property})
	}

	if needsAllScalars(resource, sel) {
		for i := range resource.Attributes {
			addAttribute(&resource.Attributes[i])
		}
		for _, nav := range storage.Ownership {
			in.set(nav, &plan.Field{Target: target, Property: nav})
		}
	}

	if explicit {
		for _, name := range sel.FieldNames() {
			if attr, ok := resource.Attribute(name); ok {
				addAttribute(attr)
				continue
			}
			if rel, ok := resource.Relationship(name); ok {
				value, err := c.relationshipInit(sel.Fields[name], rel, target, scope)
				if err != nil {
					return nil, err
				}
				in.set(rel.Property, value)
			}
		}
	}

	for i := range resource.Attributes {
		attr := &resource.Attributes[i]
		if attr.EagerLoad && !in.has(attr.Property) {
			addAttribute(attr)
		}
	}
	for i := range resource.Relationships {
		rel := &resource.Relationships[i]
		if rel.EagerLoad && !in.has(rel.Property) {
			in.set(rel.Property, &plan.Field{Target: target, Property: rel.Property})
		}
	}

	return &plan.Construct{Storage: storage.Name, Inits: in.fields()}, nil
}

// needsAllScalars reports whether the whole scalar set must be fetched: no
// explicit selection, a relationship-only selection (client code building
// the resource object needs the scalars alongside), or a selection carrying
// a read-only attribute (its computed value may depend on scalars not
// otherwise selected).
func needsAllScalars(resource *schema.ResourceType, sel *query.FieldSelectors) bool {
	if sel == nil || len(sel.Fields) == 0 {
		return true
	}
	relationshipOnly := true
	for name := range sel.Fields {
		attr, ok := resource.Attribute(name)
		if !ok {
			continue
		}
		relationshipOnly = false
		if attr.ReadOnly {
			return true
		}
	}
	return relationshipOnly
}

// relationshipInit builds the initializer value for a selected relationship.
// Without a nested Layer the navigation is copied as-is. A to-many nested
// Layer recurses through the full pipeline over the collection and
// materializes per the relationship's collection semantics. A to-one nested
// Layer recurses for projection only, wrapped in a null guard so a null
// navigation yields null without evaluating the nested projection.
func (c *Compiler) relationshipInit(nested *query.Layer, rel *schema.Relationship, target plan.Expr, scope *Scope) (plan.Expr, error) {
	nav := &plan.Field{Target: target, Property: rel.Property}
	if nested == nil {
		return nav, nil
	}

	if rel.ToMany {
		sub, err := c.compileLayer(nested, &plan.Bind{Source: nav}, scope.pool)
		if err != nil {
			return nil, err
		}
		kind := plan.CollectionList
		if rel.Unique {
			kind = plan.CollectionSet
		}
		return &plan.Realize{Source: sub, As: kind}, nil
	}

	related, err := c.catalog.Resource(nested.ResourceType)
	if err != nil {
		return nil, err
	}
	projection, err := c.buildProjection(nested.Selection, related, nav, scope)
	if err != nil {
		return nil, err
	}
	return &plan.Conditional{
		When: &plan.IsNull{Target: nav},
		Then: &plan.NullExpr{},
		Else: projection,
	}, nil
}
