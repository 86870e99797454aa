// Package query defines the immutable AST a resource query is described
// with: one Layer per resource type, carrying filter, sort, pagination,
// sparse field selection and include subtrees. Layers nest through selected
// relationships and through includes; no node is mutated after construction.
package query

import (
	"fmt"
	"sort"
	"strings"
)

// Layer is one resource type's complete query descriptor. A Layer owns its
// subtrees exclusively; subtrees are never shared across Layers.
type Layer struct {
	ResourceType string
	Filter       FilterNode      // optional
	Sort         []SortTerm      // optional, declared order is significance
	Pagination   *Pagination     // optional
	Selection    *FieldSelection // optional
	Include      *Include        // optional
}

// SortKey is the target of a sort term: a field chain or a relationship
// count. Implemented by *FieldChain and *Count.
type SortKey interface {
	sortKey()
	String() string
}

// SortTerm is one ordered sort specification.
type SortTerm struct {
	Key        SortKey
	Descending bool
}

// String renders the term with a leading "-" for descending order.
func (t SortTerm) String() string {
	if t.Descending {
		return "-" + t.Key.String()
	}
	return t.Key.String()
}

// Pagination is a one-based page number with an optional size.
// Size 0 means no size was requested: the full result set is returned and
// no skip is applied either.
type Pagination struct {
	Number int
	Size   int
}

// String renders as number.size, e.g. 3.10.
func (p *Pagination) String() string {
	return fmt.Sprintf("%d.%d", p.Number, p.Size)
}

// FieldSelection maps each concrete resource type to the fields to
// materialize for it.
type FieldSelection struct {
	// Types maps resource type name to that type's selectors.
	Types map[string]*FieldSelectors
}

// FieldSelectors maps a field name (attribute or relationship) to an
// optional nested Layer, present only for relationships being re-queried.
type FieldSelectors struct {
	Fields map[string]*Layer
}

// IsEmpty reports whether no field is selected for any type.
func (s *FieldSelection) IsEmpty() bool {
	if s == nil {
		return true
	}
	for _, sel := range s.Types {
		if len(sel.Fields) > 0 {
			return false
		}
	}
	return true
}

// ForType returns the selectors for a resource type, or nil.
func (s *FieldSelection) ForType(resourceType string) *FieldSelectors {
	if s == nil {
		return nil
	}
	return s.Types[resourceType]
}

// FieldNames returns the selected field names sorted alphabetically.
func (s *FieldSelectors) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String renders the selection deterministically, types and fields sorted.
func (s *FieldSelection) String() string {
	if s.IsEmpty() {
		return ""
	}
	types := make([]string, 0, len(s.Types))
	for name := range s.Types {
		types = append(types, name)
	}
	sort.Strings(types)

	var b strings.Builder
	for i, typeName := range types {
		if i > 0 {
			b.WriteString(";")
		}
		b.WriteString(typeName)
		b.WriteString("(")
		sel := s.Types[typeName]
		for j, field := range sel.FieldNames() {
			if j > 0 {
				b.WriteString(",")
			}
			b.WriteString(field)
			if nested := sel.Fields[field]; nested != nil {
				b.WriteString(":")
				b.WriteString(nested.String())
			}
		}
		b.WriteString(")")
	}
	return b.String()
}

// Include is a tree of relationships to load eagerly, independent of the
// output selection. Children form an unordered set.
type Include struct {
	Elements []*IncludeElement
}

// IncludeElement is one relationship node in the include tree. Constrained
// loading of a relationship is expressed through a nested Layer on the
// selection side, not here.
type IncludeElement struct {
	Relationship string
	Children     []*IncludeElement
}

// String renders the include tree with children sorted by relationship name,
// so element order never affects equality or hashing.
func (i *Include) String() string {
	if i == nil || len(i.Elements) == 0 {
		return ""
	}
	return renderIncludeElements(i.Elements)
}

func renderIncludeElements(elements []*IncludeElement) string {
	rendered := make([]string, len(elements))
	for idx, el := range elements {
		s := el.Relationship
		if len(el.Children) > 0 {
			s += "." + renderIncludeElements(el.Children)
		}
		rendered[idx] = s
	}
	sort.Strings(rendered)
	return strings.Join(rendered, ",")
}

// String renders the full descriptor deterministically. Present clauses
// appear in compile order; absent clauses are omitted.
func (l *Layer) String() string {
	var parts []string
	if l.Include != nil && len(l.Include.Elements) > 0 {
		parts = append(parts, "include: "+l.Include.String())
	}
	if l.Filter != nil {
		parts = append(parts, "filter: "+l.Filter.String())
	}
	if len(l.Sort) > 0 {
		terms := make([]string, len(l.Sort))
		for i, t := range l.Sort {
			terms[i] = t.String()
		}
		parts = append(parts, "sort: "+strings.Join(terms, ","))
	}
	if l.Pagination != nil {
		parts = append(parts, "page: "+l.Pagination.String())
	}
	if !l.Selection.IsEmpty() {
		parts = append(parts, "fields: "+l.Selection.String())
	}
	if len(parts) == 0 {
		return fmt.Sprintf("layer(%s)", l.ResourceType)
	}
	return fmt.Sprintf("layer(%s, %s)", l.ResourceType, strings.Join(parts, ", "))
}
