// Package executor evaluates compiled plans against a record source. It is
// a collaborator of the compiler, not part of it: plans stay deferred until
// Execute is called here.
package executor

import (
	"fmt"
	"sort"

	"github.com/boginw/jsonapi/queryable"
)

// Record is one storage-level entity instance: a concrete storage type,
// scalar property values, and navigation links. Projection produces fresh
// Records holding only the materialized properties.
type Record struct {
	Storage string
	ID      string
	Attrs   map[string]queryable.Value

	related map[string][]*Record
	toMany  map[string]bool
}

// NewRecord creates an empty record of the given concrete storage type.
func NewRecord(storage, id string) *Record {
	return &Record{
		Storage: storage,
		ID:      id,
		Attrs:   make(map[string]queryable.Value),
		related: make(map[string][]*Record),
		toMany:  make(map[string]bool),
	}
}

// Set assigns a scalar property and returns the record for chaining.
func (r *Record) Set(property string, v queryable.Value) *Record {
	r.Attrs[property] = v
	return r
}

// Attr returns a scalar property value.
func (r *Record) Attr(property string) (queryable.Value, bool) {
	v, ok := r.Attrs[property]
	return v, ok
}

// LinkOne sets a to-one navigation; target may be nil.
func (r *Record) LinkOne(navigation string, target *Record) *Record {
	if target == nil {
		r.related[navigation] = nil
	} else {
		r.related[navigation] = []*Record{target}
	}
	r.toMany[navigation] = false
	return r
}

// LinkMany sets a to-many navigation.
func (r *Record) LinkMany(navigation string, targets ...*Record) *Record {
	r.related[navigation] = targets
	r.toMany[navigation] = true
	return r
}

// Related returns the linked records for a navigation and whether the
// navigation is to-many. The second return is false when the navigation was
// never linked.
func (r *Record) Related(navigation string) ([]*Record, bool, bool) {
	recs, ok := r.related[navigation]
	return recs, r.toMany[navigation], ok
}

// Navigations returns the linked navigation names, sorted.
func (r *Record) Navigations() []string {
	names := make([]string, 0, len(r.related))
	for nav := range r.related {
		names = append(names, nav)
	}
	sort.Strings(names)
	return names
}

// One returns the single linked record of a to-one navigation, or nil.
func (r *Record) One(navigation string) *Record {
	recs := r.related[navigation]
	if len(recs) == 0 {
		return nil
	}
	return recs[0]
}

func (r *Record) String() string {
	return fmt.Sprintf("%s(%s)", r.Storage, r.ID)
}
