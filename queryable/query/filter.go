package query

import (
	"fmt"
	"strings"

	"github.com/boginw/jsonapi/queryable"
)

// FilterNode is a node in a filter expression tree. The set of variants is
// closed; the clause compilers dispatch over it exhaustively.
type FilterNode interface {
	filterNode()

	// String renders the node in the canonical function notation, e.g.
	// and(equals(title,'Hello'),greaterThan(viewCount,'10')).
	// The rendering is deterministic and complete, so two nodes are
	// structurally equal exactly when their strings are equal.
	String() string
}

// CompareOp enumerates comparison operators.
type CompareOp string

const (
	OpEquals         CompareOp = "equals"
	OpLessThan       CompareOp = "lessThan"
	OpLessOrEqual    CompareOp = "lessOrEqual"
	OpGreaterThan    CompareOp = "greaterThan"
	OpGreaterOrEqual CompareOp = "greaterOrEqual"
)

// LogicalOp enumerates boolean composition operators.
type LogicalOp string

const (
	OpAnd LogicalOp = "and"
	OpOr  LogicalOp = "or"
)

// MatchKind enumerates text match styles.
type MatchKind string

const (
	MatchStartsWith MatchKind = "startsWith"
	MatchEndsWith   MatchKind = "endsWith"
	MatchContains   MatchKind = "contains"
)

// Comparison applies a comparison operator to two operand expressions.
type Comparison struct {
	Op    CompareOp
	Left  FilterNode
	Right FilterNode
}

func (c *Comparison) filterNode() {}
func (c *Comparison) String() string {
	return fmt.Sprintf("%s(%s,%s)", c.Op, c.Left, c.Right)
}

// Logical combines two or more terms with and/or. Construct via NewLogical,
// which enforces the minimum term count; callers must collapse single-term
// compositions before constructing one.
type Logical struct {
	Op    LogicalOp
	Terms []FilterNode
}

// NewLogical builds a logical composition. Fewer than two terms is a
// structural error, rejected here rather than at compile time.
func NewLogical(op LogicalOp, terms ...FilterNode) (*Logical, error) {
	if len(terms) < 2 {
		return nil, fmt.Errorf("logical %s requires at least 2 terms, got %d", op, len(terms))
	}
	return &Logical{Op: op, Terms: terms}, nil
}

func (l *Logical) filterNode() {}
func (l *Logical) String() string {
	parts := make([]string, len(l.Terms))
	for i, t := range l.Terms {
		parts[i] = t.String()
	}
	return fmt.Sprintf("%s(%s)", l.Op, strings.Join(parts, ","))
}

// Not negates a single term.
type Not struct {
	Term FilterNode
}

func (n *Not) filterNode() {}
func (n *Not) String() string {
	return fmt.Sprintf("not(%s)", n.Term)
}

// Has tests that a to-many relationship is non-empty, optionally with a
// nested filter over the related resources.
type Has struct {
	Relationship *FieldChain
	Filter       FilterNode // optional
}

func (h *Has) filterNode() {}
func (h *Has) String() string {
	if h.Filter != nil {
		return fmt.Sprintf("has(%s,%s)", h.Relationship, h.Filter)
	}
	return fmt.Sprintf("has(%s)", h.Relationship)
}

// Any tests membership of an attribute in a literal set.
type Any struct {
	Target *FieldChain
	Values []queryable.Value
}

func (a *Any) filterNode() {}
func (a *Any) String() string {
	parts := make([]string, 0, len(a.Values)+1)
	parts = append(parts, a.Target.String())
	for _, v := range a.Values {
		parts = append(parts, "'"+v.String()+"'")
	}
	return fmt.Sprintf("any(%s)", strings.Join(parts, ","))
}

// TextMatch tests a textual attribute for a prefix, suffix or substring.
type TextMatch struct {
	Target *FieldChain
	Kind   MatchKind
	Text   string
}

func (m *TextMatch) filterNode() {}
func (m *TextMatch) String() string {
	return fmt.Sprintf("%s(%s,'%s')", m.Kind, m.Target, m.Text)
}

// IsType tests the runtime type of the current resource against a derived
// type, optionally with a nested filter scoped to that derived type.
type IsType struct {
	DerivedType string
	Filter      FilterNode // optional, compiled against the narrowed type
}

func (t *IsType) filterNode() {}
func (t *IsType) String() string {
	if t.Filter != nil {
		return fmt.Sprintf("isType(%s,%s)", t.DerivedType, t.Filter)
	}
	return fmt.Sprintf("isType(%s)", t.DerivedType)
}

// FieldChain is a path of attribute or to-one relationship names rooted at
// the current resource, e.g. author.name.
type FieldChain struct {
	Fields []string
}

// NewFieldChain builds a chain from one or more field names.
func NewFieldChain(fields ...string) *FieldChain {
	return &FieldChain{Fields: fields}
}

func (f *FieldChain) filterNode() {}
func (f *FieldChain) sortKey()    {}
func (f *FieldChain) String() string {
	return strings.Join(f.Fields, ".")
}

// Literal is a typed constant value.
type Literal struct {
	Value queryable.Value
}

func (l *Literal) filterNode() {}
func (l *Literal) String() string {
	return "'" + l.Value.String() + "'"
}

// Null is the null constant.
type Null struct{}

func (n *Null) filterNode() {}
func (n *Null) String() string {
	return "null"
}

// Count resolves to the cardinality of a to-many relationship.
type Count struct {
	Relationship *FieldChain
}

func (c *Count) filterNode() {}
func (c *Count) sortKey()    {}
func (c *Count) String() string {
	return fmt.Sprintf("count(%s)", c.Relationship)
}
