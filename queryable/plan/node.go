package plan

import (
	"fmt"
	"strings"
)

// Node is one operator in the pipeline. Each node except the sources wraps
// an input node; the chain is deferred until a collaborator executes it.
type Node interface {
	node()

	// Input returns the wrapped node, or nil for sources.
	Input() Node

	// String renders this operator alone, without its input.
	String() string
}

// Scan is the root source: every record whose storage type is Storage or
// one of its concrete derived types.
type Scan struct {
	Resource string // resource type name
	Storage  string // backing storage type name
}

func (s *Scan) node()          {}
func (s *Scan) Input() Node    { return nil }
func (s *Scan) String() string { return fmt.Sprintf("Scan(%s)", s.Resource) }

// Bind is a source over a sequence-valued expression, used when a nested
// Layer is compiled against a relationship collection instead of a root scan.
type Bind struct {
	Source Expr
}

func (b *Bind) node()          {}
func (b *Bind) Input() Node    { return nil }
func (b *Bind) String() string { return fmt.Sprintf("Bind(%s)", b.Source) }

// Filter keeps the elements satisfying the predicate.
type Filter struct {
	From      Node
	Predicate *Lambda
}

func (f *Filter) node()          {}
func (f *Filter) Input() Node    { return f.From }
func (f *Filter) String() string { return fmt.Sprintf("Filter(%s)", f.Predicate) }

// SortKey is one ordering step; the first is primary, the rest then-by.
type SortKey struct {
	Key        *Lambda
	Descending bool
}

func (k SortKey) String() string {
	if k.Descending {
		return k.Key.String() + " desc"
	}
	return k.Key.String()
}

// Sort orders the sequence by successive keys.
type Sort struct {
	From Node
	Keys []SortKey
}

func (s *Sort) node()       {}
func (s *Sort) Input() Node { return s.From }
func (s *Sort) String() string {
	parts := make([]string, len(s.Keys))
	for i, k := range s.Keys {
		parts[i] = k.String()
	}
	return fmt.Sprintf("Sort(%s)", strings.Join(parts, ", "))
}

// Skip drops the first Count elements.
type Skip struct {
	From  Node
	Count int
}

func (s *Skip) node()          {}
func (s *Skip) Input() Node    { return s.From }
func (s *Skip) String() string { return fmt.Sprintf("Skip(%d)", s.Count) }

// Take keeps at most Count elements.
type Take struct {
	From  Node
	Count int
}

func (t *Take) node()          {}
func (t *Take) Input() Node    { return t.From }
func (t *Take) String() string { return fmt.Sprintf("Take(%d)", t.Count) }

// Project maps each element through the projection lambda.
type Project struct {
	From       Node
	Projection *Lambda
}

func (p *Project) node()          {}
func (p *Project) Input() Node    { return p.From }
func (p *Project) String() string { return fmt.Sprintf("Project(%s)", p.Projection) }

// Include asks the provider to eagerly load the given navigation paths,
// each path root-relative, independent of the output projection.
type Include struct {
	From  Node
	Paths [][]string
}

func (i *Include) node()       {}
func (i *Include) Input() Node { return i.From }
func (i *Include) String() string {
	parts := make([]string, len(i.Paths))
	for idx, p := range i.Paths {
		parts[idx] = strings.Join(p, ".")
	}
	return fmt.Sprintf("Include(%s)", strings.Join(parts, ", "))
}

// Render formats a plan as an indented tree, sources first, one operator
// per line. Used for explain output and plan assertions.
func Render(n Node) string {
	var chain []Node
	for cur := n; cur != nil; cur = cur.Input() {
		chain = append(chain, cur)
	}

	var b strings.Builder
	for i := len(chain) - 1; i >= 0; i-- {
		depth := len(chain) - 1 - i
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(chain[i].String())
		if i > 0 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
