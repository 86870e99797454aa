package descriptor

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/boginw/jsonapi/queryable"
	"github.com/boginw/jsonapi/queryable/executor"
)

type datasetSpec struct {
	Records []recordSpec `yaml:"records"`
}

type recordSpec struct {
	Type  string                `yaml:"type"`
	ID    string                `yaml:"id"`
	Attrs map[string]*yaml.Node `yaml:"attrs,omitempty"`
	Rels  map[string]relSpec    `yaml:"rels,omitempty"`
}

type relSpec struct {
	ToMany bool     `yaml:"toMany,omitempty"`
	Refs   []string `yaml:"refs"` // "storage/id"
}

// LoadDataset decodes a YAML dataset into linked records. References are
// resolved in a second pass, so records may reference each other regardless
// of document order.
func LoadDataset(data []byte) ([]*executor.Record, error) {
	var spec datasetSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	byKey := make(map[string]*executor.Record, len(spec.Records))
	records := make([]*executor.Record, 0, len(spec.Records))
	for _, rs := range spec.Records {
		if rs.Type == "" || rs.ID == "" {
			return nil, fmt.Errorf("record needs both type and id, got %q/%q", rs.Type, rs.ID)
		}
		key := rs.Type + "/" + rs.ID
		if _, dup := byKey[key]; dup {
			return nil, fmt.Errorf("duplicate record %s", key)
		}
		rec := executor.NewRecord(rs.Type, rs.ID)
		rec.Set("id", queryable.String(rs.ID))
		for prop, node := range rs.Attrs {
			v, err := valueOf(node)
			if err != nil {
				return nil, fmt.Errorf("record %s: attr %s: %w", key, prop, err)
			}
			rec.Set(prop, v)
		}
		byKey[key] = rec
		records = append(records, rec)
	}

	for _, rs := range spec.Records {
		rec := byKey[rs.Type+"/"+rs.ID]
		for nav, rel := range rs.Rels {
			targets := make([]*executor.Record, 0, len(rel.Refs))
			for _, ref := range rel.Refs {
				target, ok := byKey[ref]
				if !ok {
					return nil, fmt.Errorf("record %s: rel %s: unknown reference %q", rec, nav, ref)
				}
				targets = append(targets, target)
			}
			if rel.ToMany {
				rec.LinkMany(nav, targets...)
			} else if len(targets) > 1 {
				return nil, fmt.Errorf("record %s: rel %s: to-one with %d refs", rec, nav, len(targets))
			} else if len(targets) == 1 {
				rec.LinkOne(nav, targets[0])
			} else {
				rec.LinkOne(nav, nil)
			}
		}
	}
	return records, nil
}

// valueOf converts a YAML scalar node into a typed value based on its tag.
// Strings of the form "2024-01-02T15:04:05Z" stay strings; use !!timestamp
// or an explicit time tag for time values.
func valueOf(node *yaml.Node) (queryable.Value, error) {
	if node.Kind != yaml.ScalarNode {
		return queryable.Value{}, fmt.Errorf("expected scalar, got %s", nodeKind(node))
	}
	switch node.Tag {
	case "!!str":
		return queryable.String(node.Value), nil
	case "!!int":
		i, err := strconv.ParseInt(node.Value, 10, 64)
		if err != nil {
			return queryable.Value{}, fmt.Errorf("parse int %q: %w", node.Value, err)
		}
		return queryable.Int(i), nil
	case "!!float":
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return queryable.Value{}, fmt.Errorf("parse float %q: %w", node.Value, err)
		}
		return queryable.Float(f), nil
	case "!!bool":
		b, err := strconv.ParseBool(node.Value)
		if err != nil {
			return queryable.Value{}, fmt.Errorf("parse bool %q: %w", node.Value, err)
		}
		return queryable.Bool(b), nil
	case "!!timestamp":
		t, err := time.Parse(time.RFC3339, node.Value)
		if err != nil {
			return queryable.Value{}, fmt.Errorf("parse timestamp %q: %w", node.Value, err)
		}
		return queryable.Time(t), nil
	case "!!null":
		return queryable.NullOf(queryable.KindString), nil
	default:
		return queryable.Value{}, fmt.Errorf("unsupported value tag %s", node.Tag)
	}
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	default:
		return "document"
	}
}
