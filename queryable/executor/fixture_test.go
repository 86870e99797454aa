package executor

import (
	"github.com/boginw/jsonapi/queryable"
	"github.com/boginw/jsonapi/queryable/schema"
)

// Test fixture: the content catalog (polymorphic Content base with Article
// and Video) and a small linked dataset.

func contentAttributes(extra ...schema.Attribute) []schema.Attribute {
	attrs := []schema.Attribute{
		{Name: "id", Type: queryable.Type{Kind: queryable.KindString}, Property: "id"},
		{Name: "title", Type: queryable.Type{Kind: queryable.KindString}, Property: "title"},
		{Name: "slug", Type: queryable.Type{Kind: queryable.KindString}, Property: "slug", EagerLoad: true},
		{Name: "featured", Type: queryable.Type{Kind: queryable.KindBool}, Property: "featured"},
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
		&schema.StorageType{Name: "Person"},
		&schema.StorageType{Name: "Comment"},
		&schema.StorageType{Name: "Tag"},
	)
}

type testData struct {
	source *MemorySource
	byID   map[string]*Record
}

func (d *testData) record(id string) *Record {
	return d.byID[id]
}

func newTestData() *testData {
	alice := NewRecord("Person", "p1").
		Set("id", queryable.String("p1")).
		Set("name", queryable.String("Alice")).
		Set("age", queryable.Int(30))
	bob := NewRecord("Person", "p2").
		Set("id", queryable.String("p2")).
		Set("name", queryable.String("Bob")).
		Set("age", queryable.NullOf(queryable.KindInt))

	c1 := NewRecord("Comment", "c1").
		Set("id", queryable.String("c1")).
		Set("text", queryable.String("Nice")).
		Set("rating", queryable.Int(5))
	c1.LinkOne("author", bob)
	c2 := NewRecord("Comment", "c2").
		Set("id", queryable.String("c2")).
		Set("text", queryable.String("Meh")).
		Set("rating", queryable.Int(2))
	c2.LinkOne("author", alice)
	c3 := NewRecord("Comment", "c3").
		Set("id", queryable.String("c3")).
		Set("text", queryable.String("Helpful")).
		Set("rating", queryable.Int(4))
	c3.LinkOne("author", alice)

	t1 := NewRecord("Tag", "t1").
		Set("id", queryable.String("t1")).
		Set("label", queryable.String("go"))
	t2 := NewRecord("Tag", "t2").
		Set("id", queryable.String("t2")).
		Set("label", queryable.String("tutorial"))

	a1 := NewRecord("Article", "a1").
		Set("id", queryable.String("a1")).
		Set("title", queryable.String("Go Guide")).
		Set("slug", queryable.String("go-guide")).
		Set("featured", queryable.Bool(true)).
		Set("popularity", queryable.Int(10)).
		Set("body", queryable.String("Channels and goroutines."))
	a1.LinkOne("author", alice)
	a1.LinkMany("comments", c1, c2)
	a1.LinkMany("tags", t1, t2)

	a2 := NewRecord("Article", "a2").
		Set("id", queryable.String("a2")).
		Set("title", queryable.String("Rust Primer")).
		Set("slug", queryable.String("rust-primer")).
		Set("featured", queryable.Bool(false)).
		Set("popularity", queryable.Int(5)).
		Set("body", queryable.String("Ownership and borrowing."))
	a2.LinkOne("author", bob)
	a2.LinkMany("comments")
	a2.LinkMany("tags", t1)

	v1 := NewRecord("Video", "v1").
		Set("id", queryable.String("v1")).
		Set("title", queryable.String("Go Talk")).
		Set("slug", queryable.String("go-talk")).
		Set("featured", queryable.Bool(true)).
		Set("popularity", queryable.Int(7)).
		Set("durationSeconds", queryable.Int(120))
	v1.LinkOne("author", nil)
	v1.LinkMany("comments", c3)
	v1.LinkMany("tags")

	all := []*Record{alice, bob, c1, c2, c3, t1, t2, a1, a2, v1}
	data := &testData{
		source: NewMemorySource().Add(all...),
		byID:   make(map[string]*Record, len(all)),
	}
	for _, rec := range all {
		data.byID[rec.ID] = rec
	}
	return data
}
