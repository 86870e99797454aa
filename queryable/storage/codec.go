package storage

import (
	"fmt"
	"strconv"
	"time"

	"github.com/boginw/jsonapi/queryable"
)

// Wire format for persisted records. Scalar values carry their kind so the
// typed value round-trips exactly; navigations persist as references and are
// resolved lazily on load.

type wireValue struct {
	Kind  string `json:"kind"`
	Null  bool   `json:"null,omitempty"`
	Value string `json:"value,omitempty"`
}

type wireRef struct {
	Storage string `json:"storage"`
	ID      string `json:"id"`
}

type wireRel struct {
	ToMany bool      `json:"toMany"`
	Refs   []wireRef `json:"refs"`
}

type wireRecord struct {
	Storage string               `json:"storage"`
	ID      string               `json:"id"`
	Attrs   map[string]wireValue `json:"attrs"`
	Rels    map[string]wireRel   `json:"rels,omitempty"`
}

func encodeValue(v queryable.Value) wireValue {
	w := wireValue{Kind: v.Kind.String(), Null: v.Null}
	if v.Null {
		return w
	}
	switch v.Kind {
	case queryable.KindString:
		w.Value = v.Str
	case queryable.KindInt:
		w.Value = strconv.FormatInt(v.Int, 10)
	case queryable.KindFloat:
		w.Value = strconv.FormatFloat(v.Float, 'g', -1, 64)
	case queryable.KindBool:
		w.Value = strconv.FormatBool(v.Bool)
	case queryable.KindTime:
		w.Value = v.Time.Format(time.RFC3339Nano)
	}
	return w
}

func decodeValue(w wireValue) (queryable.Value, error) {
	kind, err := kindOf(w.Kind)
	if err != nil {
		return queryable.Value{}, err
	}
	if w.Null {
		return queryable.NullOf(kind), nil
	}
	switch kind {
	case queryable.KindString:
		return queryable.String(w.Value), nil
	case queryable.KindInt:
		i, err := strconv.ParseInt(w.Value, 10, 64)
		if err != nil {
			return queryable.Value{}, fmt.Errorf("decode int %q: %w", w.Value, err)
		}
		return queryable.Int(i), nil
	case queryable.KindFloat:
		f, err := strconv.ParseFloat(w.Value, 64)
		if err != nil {
			return queryable.Value{}, fmt.Errorf("decode float %q: %w", w.Value, err)
		}
		return queryable.Float(f), nil
	case queryable.KindBool:
		b, err := strconv.ParseBool(w.Value)
		if err != nil {
			return queryable.Value{}, fmt.Errorf("decode bool %q: %w", w.Value, err)
		}
		return queryable.Bool(b), nil
	case queryable.KindTime:
		t, err := time.Parse(time.RFC3339Nano, w.Value)
		if err != nil {
			return queryable.Value{}, fmt.Errorf("decode time %q: %w", w.Value, err)
		}
		return queryable.Time(t), nil
	default:
		return queryable.Value{}, fmt.Errorf("unknown kind %q", w.Kind)
	}
}

func kindOf(name string) (queryable.Kind, error) {
	switch name {
	case "string":
		return queryable.KindString, nil
	case "int":
		return queryable.KindInt, nil
	case "float":
		return queryable.KindFloat, nil
	case "bool":
		return queryable.KindBool, nil
	case "time":
		return queryable.KindTime, nil
	default:
		return 0, fmt.Errorf("unknown kind %q", name)
	}
}
