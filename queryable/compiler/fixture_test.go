package compiler

import (
	"github.com/boginw/jsonapi/queryable"
	"github.com/boginw/jsonapi/queryable/schema"
)

// Test fixture: a content catalog with a polymorphic base (contents backed
// by Content, derived Article and Video), a to-one author, an ordered
// comments collection and a unique tags collection.

func contentAttributes(extra ...schema.Attribute) []schema.Attribute {
	attrs := []schema.Attribute{
		{Name: "id", Type: queryable.Type{Kind: queryable.KindString}, Property: "id"},
		{Name: "title", Type: queryable.Type{Kind: queryable.KindString}, Property: "title"},
		{Name: "slug", Type: queryable.Type{Kind: queryable.KindString}, Property: "slug", EagerLoad: true},
		{Name: "featured", Type: queryable.Type{Kind: queryable.KindBool}, Property: "featured"},
		{Name: "publishedAt", Type: queryable.Type{Kind: queryable.KindTime, Nullable: true}, Property: "publishedAt"},
		{Name: "popularity", Type: queryable.Type{Kind: queryable.KindInt}, Property: "popularity", ReadOnly: true},
	}
	return append(attrs, extra...)
}

func contentRelationships() []schema.Relationship {
	return []schema.Relationship{
		{Name: "author", Target: "people", Property: "author", Ownership: true},
		{Name: "comments", Target: "comments", ToMany: true, Property: "comments"},
		{Name: "tags", Target: "tags", ToMany: true, Unique: true, Property: "tags"},
	}
}

func newTestCatalog() *schema.MapCatalog {
	return schema.NewCatalog(
		&schema.ResourceType{
			Name:          "contents",
			Storage:       "Content",
			Attributes:    contentAttributes(),
			Relationships: contentRelationships(),
		},
		&schema.ResourceType{
			Name:    "articles",
			Storage: "Article",
			Attributes: contentAttributes(
				schema.Attribute{Name: "body", Type: queryable.Type{Kind: queryable.KindString}, Property: "body"},
			),
			Relationships: contentRelationships(),
		},
		&schema.ResourceType{
			Name:    "videos",
			Storage: "Video",
			Attributes: contentAttributes(
				schema.Attribute{Name: "durationSeconds", Type: queryable.Type{Kind: queryable.KindInt}, Property: "durationSeconds"},
			),
			Relationships: contentRelationships(),
		},
		&schema.ResourceType{
			Name:    "people",
			Storage: "Person",
			Attributes: []schema.Attribute{
				{Name: "id", Type: queryable.Type{Kind: queryable.KindString}, Property: "id"},
				{Name: "name", Type: queryable.Type{Kind: queryable.KindString}, Property: "name"},
				{Name: "age", Type: queryable.Type{Kind: queryable.KindInt, Nullable: true}, Property: "age"},
			},
		},
		&schema.ResourceType{
			Name:    "comments",
			Storage: "Comment",
			Attributes: []schema.Attribute{
				{Name: "id", Type: queryable.Type{Kind: queryable.KindString}, Property: "id"},
				{Name: "text", Type: queryable.Type{Kind: queryable.KindString}, Property: "text"},
				{Name: "rating", Type: queryable.Type{Kind: queryable.KindInt}, Property: "rating"},
			},
			Relationships: []schema.Relationship{
				{Name: "author", Target: "people", Property: "author"},
			},
		},
		&schema.ResourceType{
			Name:    "tags",
			Storage: "Tag",
			Attributes: []schema.Attribute{
				{Name: "id", Type: queryable.Type{Kind: queryable.KindString}, Property: "id"},
				{Name: "label", Type: queryable.Type{Kind: queryable.KindString}, Property: "label"},
			},
		},
	)
}

func contentScalars(extra ...schema.Property) []schema.Property {
	scalars := []schema.Property{
		{Name: "id", Writable: true},
		{Name: "title", Writable: true},
		{Name: "slug", Writable: true},
		{Name: "featured", Writable: true},
		{Name: "publishedAt", Writable: true},
		{Name: "popularity", Writable: false},
	}
	return append(scalars, extra...)
}

func newTestModel() *schema.MapModel {
	return schema.NewModel(
		&schema.StorageType{
			Name:      "Content",
			Derived:   []string{"Article", "Video"},
			Scalars:   contentScalars(),
			Ownership: []string{"author"},
		},
		&schema.StorageType{
			Name:      "Article",
			Scalars:   contentScalars(schema.Property{Name: "body", Writable: true}),
			Ownership: []string{"author"},
		},
		&schema.StorageType{
			Name:      "Video",
			Scalars:   contentScalars(schema.Property{Name: "durationSeconds", Writable: true}),
			Ownership: []string{"author"},
		},
		&schema.StorageType{
			Name: "Person",
			Scalars: []schema.Property{
				{Name: "id", Writable: true},
				{Name: "name", Writable: true},
				{Name: "age", Writable: true},
			},
		},
		&schema.StorageType{
			Name: "Comment",
			Scalars: []schema.Property{
				{Name: "id", Writable: true},
				{Name: "text", Writable: true},
				{Name: "rating", Writable: true},
			},
		},
		&schema.StorageType{
			Name: "Tag",
			Scalars: []schema.Property{
				{Name: "id", Writable: true},
				{Name: "label", Writable: true},
			},
		},
	)
}

func newTestCompiler() *Compiler {
	return New(newTestCatalog(), newTestModel())
}
