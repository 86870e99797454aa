// Package schema describes the metadata the clause compilers consume: the
// resource-type catalog (attributes, relationships, backing properties,
// eager-load declarations) and the storage model (concrete derived types,
// scalar properties, ownership navigations, writability). The compiler only
// depends on the Catalog and Model interfaces; the map-backed
// implementations here are what servers and tests register their types with.
package schema

import (
	"fmt"

	"github.com/boginw/jsonapi/queryable"
)

// Attribute is a scalar field of a resource type.
type Attribute struct {
	Name     string
	Type     queryable.Type
	Property string // backing storage property
	ReadOnly bool   // computed after materialization; its backing property is not writable
	EagerLoad bool  // always fetched regardless of client selection
}

// Relationship is a link from one resource type to another.
type Relationship struct {
	Name      string
	Target    string // target resource type name
	ToMany    bool
	Unique    bool   // to-many realized as a unique set instead of an ordered list
	Property  string // backing navigation property
	Ownership bool   // ownership navigation: fetched with the scalars
	EagerLoad bool
}

// ResourceType is one entry in the resource-type catalog.
type ResourceType struct {
	Name          string
	Storage       string // backing storage type name
	Attributes    []Attribute
	Relationships []Relationship
}

// Attribute looks up an attribute by field name.
func (t *ResourceType) Attribute(name string) (*Attribute, bool) {
	for i := range t.Attributes {
		if t.Attributes[i].Name == name {
			return &t.Attributes[i], true
		}
	}
	return nil, false
}

// Relationship looks up a relationship by field name.
func (t *ResourceType) Relationship(name string) (*Relationship, bool) {
	for i := range t.Relationships {
		if t.Relationships[i].Name == name {
			return &t.Relationships[i], true
		}
	}
	return nil, false
}

// Property is one storage-level property with its writability. Read-only
// properties back computed attributes and are never materialized directly.
type Property struct {
	Name     string
	Writable bool
}

// StorageType is one entry in the storage model.
type StorageType struct {
	Name      string
	Derived   []string   // concrete derived storage type names, empty unless polymorphic base
	Scalars   []Property // scalar properties
	Ownership []string   // ownership navigation property names
}

// Writable reports whether a property of this storage type can be assigned
// during materialization. Navigations are always assignable.
func (t *StorageType) Writable(property string) bool {
	for _, p := range t.Scalars {
		if p.Name == property {
			return p.Writable
		}
	}
	return true
}

// Catalog resolves resource types by name or by backing storage type.
type Catalog interface {
	Resource(name string) (*ResourceType, error)
	ResourceByStorage(storage string) (*ResourceType, error)
}

// Model resolves storage types by name.
type Model interface {
	StorageType(name string) (*StorageType, error)
}

// MapCatalog is the map-backed Catalog.
type MapCatalog struct {
	byName    map[string]*ResourceType
	byStorage map[string]*ResourceType
}

// NewCatalog builds a catalog from resource types. Types without an explicit
// Storage name default to their own name.
func NewCatalog(resources ...*ResourceType) *MapCatalog {
	c := &MapCatalog{
		byName:    make(map[string]*ResourceType, len(resources)),
		byStorage: make(map[string]*ResourceType, len(resources)),
	}
	for _, r := range resources {
		if r.Storage == "" {
			r.Storage = r.Name
		}
		c.byName[r.Name] = r
		c.byStorage[r.Storage] = r
	}
	return c
}

// Resource implements Catalog.
func (c *MapCatalog) Resource(name string) (*ResourceType, error) {
	r, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown resource type %q", name)
	}
	return r, nil
}

// ResourceByStorage implements Catalog.
func (c *MapCatalog) ResourceByStorage(storage string) (*ResourceType, error) {
	r, ok := c.byStorage[storage]
	if !ok {
		return nil, fmt.Errorf("no resource type backed by storage type %q", storage)
	}
	return r, nil
}

// MapModel is the map-backed Model.
type MapModel struct {
	types map[string]*StorageType
}

// NewModel builds a storage model from storage types.
func NewModel(types ...*StorageType) *MapModel {
	m := &MapModel{types: make(map[string]*StorageType, len(types))}
	for _, t := range types {
		m.types[t.Name] = t
	}
	return m
}

// StorageType implements Model.
func (m *MapModel) StorageType(name string) (*StorageType, error) {
	t, ok := m.types[name]
	if !ok {
		return nil, fmt.Errorf("unknown storage type %q", name)
	}
	return t, nil
}
