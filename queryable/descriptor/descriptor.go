// Package descriptor reads query descriptors and datasets from YAML. It is
// a convenience surface for the CLI and fixture tests, not the HTTP query
// string parser of a full server.
package descriptor

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/boginw/jsonapi/queryable"
	"github.com/boginw/jsonapi/queryable/query"
)

type layerSpec struct {
	Resource string                           `yaml:"resource"`
	Filter   *filterSpec                      `yaml:"filter,omitempty"`
	Sort     []string                         `yaml:"sort,omitempty"`
	Page     *pageSpec                        `yaml:"page,omitempty"`
	Fields   map[string]map[string]*layerSpec `yaml:"fields,omitempty"`
	Include  []string                         `yaml:"include,omitempty"`
}

type pageSpec struct {
	Number int `yaml:"number"`
	Size   int `yaml:"size,omitempty"`
}

type filterSpec struct {
	Op     string        `yaml:"op"`
	Field  string        `yaml:"field,omitempty"`
	Count  bool          `yaml:"count,omitempty"` // compare count(field) instead of field
	Value  *yaml.Node    `yaml:"value,omitempty"`
	Values []*yaml.Node  `yaml:"values,omitempty"`
	Text   string        `yaml:"text,omitempty"`
	Type   string        `yaml:"type,omitempty"`
	Terms  []*filterSpec `yaml:"terms,omitempty"`
	Term   *filterSpec   `yaml:"term,omitempty"`
	Filter *filterSpec   `yaml:"filter,omitempty"`
}

// ParseLayer decodes a YAML query descriptor into a Layer.
func ParseLayer(data []byte) (*query.Layer, error) {
	var spec layerSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	return buildLayer(&spec)
}

func buildLayer(spec *layerSpec) (*query.Layer, error) {
	if spec.Resource == "" {
		return nil, fmt.Errorf("descriptor has no resource")
	}
	layer := &query.Layer{ResourceType: spec.Resource}

	if spec.Filter != nil {
		filter, err := buildFilter(spec.Filter)
		if err != nil {
			return nil, err
		}
		layer.Filter = filter
	}
	for _, term := range spec.Sort {
		parsed, err := parseSortTerm(term)
		if err != nil {
			return nil, err
		}
		layer.Sort = append(layer.Sort, parsed)
	}
	if spec.Page != nil {
		if spec.Page.Number < 1 {
			return nil, fmt.Errorf("page number must be at least 1, got %d", spec.Page.Number)
		}
		layer.Pagination = &query.Pagination{Number: spec.Page.Number, Size: spec.Page.Size}
	}
	if len(spec.Fields) > 0 {
		selection := &query.FieldSelection{Types: make(map[string]*query.FieldSelectors)}
		for typeName, fields := range spec.Fields {
			selectors := &query.FieldSelectors{Fields: make(map[string]*query.Layer)}
			for field, nested := range fields {
				if nested == nil {
					selectors.Fields[field] = nil
					continue
				}
				nestedLayer, err := buildLayer(nested)
				if err != nil {
					return nil, err
				}
				selectors.Fields[field] = nestedLayer
			}
			selection.Types[typeName] = selectors
		}
		layer.Selection = selection
	}
	if len(spec.Include) > 0 {
		layer.Include = buildInclude(spec.Include)
	}
	return layer, nil
}

// buildInclude merges dotted paths like "comments.author" into a tree.
func buildInclude(paths []string) *query.Include {
	root := &query.IncludeElement{}
	for _, path := range paths {
		cur := root
		for _, segment := range strings.Split(path, ".") {
			var child *query.IncludeElement
			for _, c := range cur.Children {
				if c.Relationship == segment {
					child = c
					break
				}
			}
			if child == nil {
				child = &query.IncludeElement{Relationship: segment}
				cur.Children = append(cur.Children, child)
			}
			cur = child
		}
	}
	return &query.Include{Elements: root.Children}
}

func buildFilter(spec *filterSpec) (query.FilterNode, error) {
	switch spec.Op {
	case "equals", "lessThan", "lessOrEqual", "greaterThan", "greaterOrEqual":
		return buildComparison(spec)

	case "and", "or":
		if len(spec.Terms) < 2 {
			return nil, fmt.Errorf("%s requires at least 2 terms", spec.Op)
		}
		terms := make([]query.FilterNode, len(spec.Terms))
		for i, t := range spec.Terms {
			built, err := buildFilter(t)
			if err != nil {
				return nil, err
			}
			terms[i] = built
		}
		return query.NewLogical(query.LogicalOp(spec.Op), terms...)

	case "not":
		if spec.Term == nil {
			return nil, fmt.Errorf("not requires a term")
		}
		term, err := buildFilter(spec.Term)
		if err != nil {
			return nil, err
		}
		return &query.Not{Term: term}, nil

	case "has":
		node := &query.Has{Relationship: chainOf(spec.Field)}
		if spec.Filter != nil {
			nested, err := buildFilter(spec.Filter)
			if err != nil {
				return nil, err
			}
			node.Filter = nested
		}
		return node, nil

	case "any":
		values := make([]queryable.Value, len(spec.Values))
		for i, node := range spec.Values {
			v, err := valueOf(node)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return &query.Any{Target: chainOf(spec.Field), Values: values}, nil

	case "startsWith", "endsWith", "contains":
		return &query.TextMatch{
			Target: chainOf(spec.Field),
			Kind:   query.MatchKind(spec.Op),
			Text:   spec.Text,
		}, nil

	case "isType":
		node := &query.IsType{DerivedType: spec.Type}
		if spec.Filter != nil {
			nested, err := buildFilter(spec.Filter)
			if err != nil {
				return nil, err
			}
			node.Filter = nested
		}
		return node, nil

	default:
		return nil, fmt.Errorf("unknown filter op %q", spec.Op)
	}
}

func buildComparison(spec *filterSpec) (query.FilterNode, error) {
	var left query.FilterNode
	if spec.Count {
		left = &query.Count{Relationship: chainOf(spec.Field)}
	} else {
		left = chainOf(spec.Field)
	}

	var right query.FilterNode
	if spec.Value == nil || spec.Value.Tag == "!!null" {
		right = &query.Null{}
	} else {
		v, err := valueOf(spec.Value)
		if err != nil {
			return nil, err
		}
		right = &query.Literal{Value: v}
	}
	return &query.Comparison{Op: query.CompareOp(spec.Op), Left: left, Right: right}, nil
}

func parseSortTerm(term string) (query.SortTerm, error) {
	descending := false
	if strings.HasPrefix(term, "-") {
		descending = true
		term = term[1:]
	}
	if term == "" {
		return query.SortTerm{}, fmt.Errorf("empty sort term")
	}
	if strings.HasPrefix(term, "count(") && strings.HasSuffix(term, ")") {
		inner := term[len("count(") : len(term)-1]
		return query.SortTerm{
			Key:        &query.Count{Relationship: chainOf(inner)},
			Descending: descending,
		}, nil
	}
	return query.SortTerm{Key: chainOf(term), Descending: descending}, nil
}

func chainOf(field string) *query.FieldChain {
	return query.NewFieldChain(strings.Split(field, ".")...)
}
