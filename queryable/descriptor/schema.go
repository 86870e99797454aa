package descriptor

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/boginw/jsonapi/queryable"
	"github.com/boginw/jsonapi/queryable/schema"
)

type schemaSpec struct {
	Resources []resourceSpec `yaml:"resources"`
	Storage   []storageSpec  `yaml:"storage,omitempty"`
}

type resourceSpec struct {
	Name          string             `yaml:"name"`
	Storage       string             `yaml:"storage,omitempty"`
	Attributes    []attributeSpec    `yaml:"attributes,omitempty"`
	Relationships []relationshipSpec `yaml:"relationships,omitempty"`
}

type attributeSpec struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"` // string, int, float, bool, time; "?" suffix for nullable
	Property  string `yaml:"property,omitempty"`
	ReadOnly  bool   `yaml:"readOnly,omitempty"`
	EagerLoad bool   `yaml:"eagerLoad,omitempty"`
}

type relationshipSpec struct {
	Name      string `yaml:"name"`
	Target    string `yaml:"target"`
	ToMany    bool   `yaml:"toMany,omitempty"`
	Unique    bool   `yaml:"unique,omitempty"`
	Property  string `yaml:"property,omitempty"`
	Ownership bool   `yaml:"ownership,omitempty"`
	EagerLoad bool   `yaml:"eagerLoad,omitempty"`
}

type storageSpec struct {
	Name      string       `yaml:"name"`
	Derived   []string     `yaml:"derived,omitempty"`
	Scalars   []scalarSpec `yaml:"scalars,omitempty"`
	Ownership []string     `yaml:"ownership,omitempty"`
}

type scalarSpec struct {
	Name     string `yaml:"name"`
	ReadOnly bool   `yaml:"readOnly,omitempty"`
}

// LoadSchema decodes a YAML schema into a catalog and a storage model.
// Storage types omitted from the storage section are derived from their
// resource type: one writable scalar per attribute plus an id property, and
// ownership navigations for the ownership relationships.
func LoadSchema(data []byte) (*schema.MapCatalog, *schema.MapModel, error) {
	var spec schemaSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, nil, fmt.Errorf("decode schema: %w", err)
	}
	if len(spec.Resources) == 0 {
		return nil, nil, fmt.Errorf("schema has no resources")
	}

	declared := make(map[string]bool, len(spec.Storage))
	storageTypes := make([]*schema.StorageType, 0, len(spec.Storage))
	for _, ss := range spec.Storage {
		scalars := make([]schema.Property, len(ss.Scalars))
		for i, sc := range ss.Scalars {
			scalars[i] = schema.Property{Name: sc.Name, Writable: !sc.ReadOnly}
		}
		declared[ss.Name] = true
		storageTypes = append(storageTypes, &schema.StorageType{
			Name:      ss.Name,
			Derived:   ss.Derived,
			Scalars:   scalars,
			Ownership: ss.Ownership,
		})
	}

	resources := make([]*schema.ResourceType, 0, len(spec.Resources))
	for _, rs := range spec.Resources {
		if rs.Name == "" {
			return nil, nil, fmt.Errorf("resource without a name")
		}
		rt := &schema.ResourceType{Name: rs.Name, Storage: rs.Storage}
		for _, as := range rs.Attributes {
			typ, err := parseType(as.Type)
			if err != nil {
				return nil, nil, fmt.Errorf("resource %s: attribute %s: %w", rs.Name, as.Name, err)
			}
			prop := as.Property
			if prop == "" {
				prop = as.Name
			}
			rt.Attributes = append(rt.Attributes, schema.Attribute{
				Name:      as.Name,
				Type:      typ,
				Property:  prop,
				ReadOnly:  as.ReadOnly,
				EagerLoad: as.EagerLoad,
			})
		}
		for _, ls := range rs.Relationships {
			prop := ls.Property
			if prop == "" {
				prop = ls.Name
			}
			rt.Relationships = append(rt.Relationships, schema.Relationship{
				Name:      ls.Name,
				Target:    ls.Target,
				ToMany:    ls.ToMany,
				Unique:    ls.Unique,
				Property:  prop,
				Ownership: ls.Ownership,
				EagerLoad: ls.EagerLoad,
			})
		}
		resources = append(resources, rt)

		storageName := rs.Storage
		if storageName == "" {
			storageName = rs.Name
		}
		if !declared[storageName] {
			declared[storageName] = true
			storageTypes = append(storageTypes, defaultStorage(storageName, rt))
		}
	}

	return schema.NewCatalog(resources...), schema.NewModel(storageTypes...), nil
}

func defaultStorage(name string, rt *schema.ResourceType) *schema.StorageType {
	st := &schema.StorageType{Name: name}
	st.Scalars = append(st.Scalars, schema.Property{Name: "id", Writable: true})
	for _, attr := range rt.Attributes {
		if attr.Property == "id" {
			continue
		}
		st.Scalars = append(st.Scalars, schema.Property{Name: attr.Property, Writable: !attr.ReadOnly})
	}
	for _, rel := range rt.Relationships {
		if rel.Ownership {
			st.Ownership = append(st.Ownership, rel.Property)
		}
	}
	return st
}

func parseType(name string) (queryable.Type, error) {
	nullable := strings.HasSuffix(name, "?")
	base := strings.TrimSuffix(name, "?")
	var kind queryable.Kind
	switch base {
	case "string":
		kind = queryable.KindString
	case "int":
		kind = queryable.KindInt
	case "float":
		kind = queryable.KindFloat
	case "bool":
		kind = queryable.KindBool
	case "time":
		kind = queryable.KindTime
	default:
		return queryable.Type{}, fmt.Errorf("unknown type %q", name)
	}
	return queryable.Type{Kind: kind, Nullable: nullable}, nil
}
