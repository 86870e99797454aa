package executor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/boginw/jsonapi/queryable"
	"github.com/boginw/jsonapi/queryable/plan"
	"github.com/boginw/jsonapi/queryable/schema"
)

// Executor evaluates plans over a Source. Execution is synchronous and
// in-memory; expression values are queryable.Value for scalars, *Record for
// to-one navigations, []*Record for collections, and nil for null.
type Executor struct {
	source Source
	model  schema.Model
}

// New creates an executor over a source and the storage model (used to
// union a polymorphic base scan with its derived types).
func New(source Source, model schema.Model) *Executor {
	return &Executor{source: source, model: model}
}

// Execute runs a plan to completion and returns the resulting records.
func (e *Executor) Execute(n plan.Node) ([]*Record, error) {
	return e.evalNode(n, make(map[string]interface{}))
}

func (e *Executor) evalNode(n plan.Node, env map[string]interface{}) ([]*Record, error) {
	switch n := n.(type) {
	case *plan.Scan:
		st, err := e.model.StorageType(n.Storage)
		if err != nil {
			return nil, err
		}
		records, err := e.source.Records(n.Storage)
		if err != nil {
			return nil, err
		}
		for _, derived := range st.Derived {
			more, err := e.source.Records(derived)
			if err != nil {
				return nil, err
			}
			records = append(records, more...)
		}
		return records, nil

	case *plan.Bind:
		v, err := e.evalExpr(n.Source, env)
		if err != nil {
			return nil, err
		}
		switch v := v.(type) {
		case nil:
			return nil, nil
		case *Record:
			return []*Record{v}, nil
		case []*Record:
			return v, nil
		default:
			return nil, fmt.Errorf("bind source %s is not a sequence", n.Source)
		}

	case *plan.Filter:
		input, err := e.evalNode(n.From, env)
		if err != nil {
			return nil, err
		}
		var result []*Record
		for _, rec := range input {
			pass, err := e.evalPredicate(n.Predicate, rec, env)
			if err != nil {
				return nil, err
			}
			if pass {
				result = append(result, rec)
			}
		}
		return result, nil

	case *plan.Sort:
		input, err := e.evalNode(n.From, env)
		if err != nil {
			return nil, err
		}
		return e.sortRecords(input, n.Keys, env)

	case *plan.Skip:
		input, err := e.evalNode(n.From, env)
		if err != nil {
			return nil, err
		}
		if n.Count >= len(input) {
			return nil, nil
		}
		return input[n.Count:], nil

	case *plan.Take:
		input, err := e.evalNode(n.From, env)
		if err != nil {
			return nil, err
		}
		if n.Count < len(input) {
			return input[:n.Count], nil
		}
		return input, nil

	case *plan.Project:
		input, err := e.evalNode(n.From, env)
		if err != nil {
			return nil, err
		}
		result := make([]*Record, 0, len(input))
		for _, rec := range input {
			v, err := e.evalLambda(n.Projection, rec, env)
			if err != nil {
				return nil, err
			}
			projected, ok := v.(*Record)
			if !ok {
				return nil, fmt.Errorf("projection produced %T, want record", v)
			}
			result = append(result, projected)
		}
		return result, nil

	case *plan.Include:
		records, err := e.evalNode(n.From, env)
		if err != nil {
			return nil, err
		}
		for _, path := range n.Paths {
			frontier := records
			for _, nav := range path {
				var next []*Record
				for _, rec := range frontier {
					related, _, err := e.source.Related(rec, nav)
					if err != nil {
						return nil, err
					}
					next = append(next, related...)
				}
				frontier = next
			}
		}
		return records, nil

	default:
		return nil, fmt.Errorf("unknown plan node %T", n)
	}
}

func (e *Executor) sortRecords(records []*Record, keys []plan.SortKey, env map[string]interface{}) ([]*Record, error) {
	// Evaluate every key up front so the comparator cannot fail.
	matrix := make([][]queryable.Value, len(records))
	for i, rec := range records {
		row := make([]queryable.Value, len(keys))
		for j, key := range keys {
			v, err := e.evalLambda(key.Key, rec, env)
			if err != nil {
				return nil, err
			}
			value, err := asValue(v)
			if err != nil {
				return nil, fmt.Errorf("sort key %s: %w", key.Key, err)
			}
			row[j] = value
		}
		matrix[i] = row
	}

	indexes := make([]int, len(records))
	for i := range indexes {
		indexes[i] = i
	}
	sort.SliceStable(indexes, func(a, b int) bool {
		for j, key := range keys {
			cmp := queryable.CompareValues(matrix[indexes[a]][j], matrix[indexes[b]][j])
			if cmp == 0 {
				continue
			}
			if key.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	result := make([]*Record, len(records))
	for i, idx := range indexes {
		result[i] = records[idx]
	}
	return result, nil
}

func (e *Executor) evalLambda(l *plan.Lambda, rec *Record, env map[string]interface{}) (interface{}, error) {
	env[l.Param.Name] = rec
	defer delete(env, l.Param.Name)
	return e.evalExpr(l.Body, env)
}

func (e *Executor) evalPredicate(l *plan.Lambda, rec *Record, env map[string]interface{}) (bool, error) {
	v, err := e.evalLambda(l, rec, env)
	if err != nil {
		return false, err
	}
	pass, ok := v.(bool)
	if !ok {
		// A bare boolean attribute used as a predicate.
		if value, valErr := asValue(v); valErr == nil && value.Kind == queryable.KindBool {
			return !value.Null && value.Bool, nil
		}
		return false, fmt.Errorf("predicate %s produced %T, want bool", l, v)
	}
	return pass, nil
}

func (e *Executor) evalExpr(x plan.Expr, env map[string]interface{}) (interface{}, error) {
	switch x := x.(type) {
	case *plan.Var:
		v, ok := env[x.Name]
		if !ok {
			return nil, fmt.Errorf("unbound variable %s", x.Name)
		}
		return v, nil

	case *plan.Field:
		target, err := e.evalExpr(x.Target, env)
		if err != nil {
			return nil, err
		}
		switch t := target.(type) {
		case nil:
			return nil, nil
		case *Record:
			if v, ok := t.Attr(x.Property); ok {
				return v, nil
			}
			related, toMany, err := e.source.Related(t, x.Property)
			if err != nil {
				return nil, err
			}
			if toMany {
				return related, nil
			}
			if len(related) == 0 {
				return nil, nil
			}
			return related[0], nil
		default:
			return nil, fmt.Errorf("cannot access %s on %T", x.Property, target)
		}

	case *plan.Literal:
		return x.Value, nil

	case *plan.NullExpr:
		return nil, nil

	case *plan.Comparison:
		return e.evalComparison(x, env)

	case *plan.And:
		left, err := e.evalBool(x.Left, env)
		if err != nil || !left {
			return false, err
		}
		return e.evalBool(x.Right, env)

	case *plan.Or:
		left, err := e.evalBool(x.Left, env)
		if err != nil || left {
			return left, err
		}
		return e.evalBool(x.Right, env)

	case *plan.Not:
		v, err := e.evalBool(x.Term, env)
		if err != nil {
			return nil, err
		}
		return !v, nil

	case *plan.Exists:
		records, err := e.evalRecords(x.Source, env)
		if err != nil {
			return nil, err
		}
		if x.Predicate == nil {
			return len(records) > 0, nil
		}
		for _, rec := range records {
			pass, err := e.evalPredicate(x.Predicate, rec, env)
			if err != nil {
				return nil, err
			}
			if pass {
				return true, nil
			}
		}
		return false, nil

	case *plan.In:
		v, err := e.evalExpr(x.Target, env)
		if err != nil {
			return nil, err
		}
		value, err := asValue(v)
		if err != nil {
			return nil, err
		}
		for _, candidate := range x.Values {
			if queryable.ValuesEqual(value, candidate) {
				return true, nil
			}
		}
		return false, nil

	case *plan.TextMatch:
		v, err := e.evalExpr(x.Target, env)
		if err != nil {
			return nil, err
		}
		value, err := asValue(v)
		if err != nil {
			return nil, err
		}
		if value.Null || value.Kind != queryable.KindString {
			return false, nil
		}
		switch x.Kind {
		case "StartsWith":
			return strings.HasPrefix(value.Str, x.Text), nil
		case "EndsWith":
			return strings.HasSuffix(value.Str, x.Text), nil
		case "Contains":
			return strings.Contains(value.Str, x.Text), nil
		default:
			return nil, fmt.Errorf("unknown text match kind %q", x.Kind)
		}

	case *plan.TypeEquals:
		v, err := e.evalExpr(x.Target, env)
		if err != nil {
			return nil, err
		}
		rec, ok := v.(*Record)
		if !ok {
			return false, nil
		}
		return rec.Storage == x.Storage, nil

	case *plan.DownCast:
		// Records are dynamically typed; the cascade's type test already
		// guarded this branch.
		return e.evalExpr(x.Target, env)

	case *plan.CountOf:
		records, err := e.evalRecords(x.Source, env)
		if err != nil {
			return nil, err
		}
		return queryable.Int(int64(len(records))), nil

	case *plan.IsNull:
		v, err := e.evalExpr(x.Target, env)
		if err != nil {
			return nil, err
		}
		return isNullish(v), nil

	case *plan.Conditional:
		cond, err := e.evalBool(x.When, env)
		if err != nil {
			return nil, err
		}
		if cond {
			return e.evalExpr(x.Then, env)
		}
		return e.evalExpr(x.Else, env)

	case *plan.Convert:
		v, err := e.evalExpr(x.Target, env)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, nil
		}
		value, err := asValue(v)
		if err != nil {
			return nil, err
		}
		if x.To.Kind == queryable.KindFloat && value.Kind == queryable.KindInt && !value.Null {
			return queryable.Float(float64(value.Int)), nil
		}
		return value, nil

	case *plan.Construct:
		rec := NewRecord(x.Storage, "")
		for _, init := range x.Inits {
			v, err := e.evalExpr(init.Value, env)
			if err != nil {
				return nil, err
			}
			switch v := v.(type) {
			case queryable.Value:
				rec.Set(init.Property, v)
			case *Record:
				rec.LinkOne(init.Property, v)
			case []*Record:
				rec.LinkMany(init.Property, v...)
			case nil:
				rec.LinkOne(init.Property, nil)
			default:
				return nil, fmt.Errorf("cannot assign %T to property %s", v, init.Property)
			}
		}
		if id, ok := rec.Attr("id"); ok {
			rec.ID = id.String()
		}
		return rec, nil

	case *plan.Realize:
		records, err := e.evalNode(x.Source, env)
		if err != nil {
			return nil, err
		}
		if x.As == plan.CollectionSet {
			records = dedupeRecords(records)
		}
		if records == nil {
			records = []*Record{}
		}
		return records, nil

	default:
		return nil, fmt.Errorf("unknown expression %T", x)
	}
}

func (e *Executor) evalComparison(x *plan.Comparison, env map[string]interface{}) (interface{}, error) {
	left, err := e.evalExpr(x.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := e.evalExpr(x.Right, env)
	if err != nil {
		return nil, err
	}

	// Record (navigation) equality compares identity.
	leftRec, leftIsRec := left.(*Record)
	rightRec, rightIsRec := right.(*Record)
	if leftIsRec || rightIsRec {
		if x.Op != "=" {
			return nil, fmt.Errorf("operator %q is not defined for records", x.Op)
		}
		if leftIsRec && rightIsRec {
			return leftRec == rightRec, nil
		}
		return false, nil
	}

	// Null only ever equals null; ordered comparisons with null are false.
	if isNullish(left) || isNullish(right) {
		return x.Op == "=" && isNullish(left) && isNullish(right), nil
	}

	leftValue, err := asValue(left)
	if err != nil {
		return nil, err
	}
	rightValue, err := asValue(right)
	if err != nil {
		return nil, err
	}
	cmp := queryable.CompareValues(leftValue, rightValue)
	switch x.Op {
	case "=":
		return cmp == 0, nil
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	default:
		return nil, fmt.Errorf("unknown comparison operator %q", x.Op)
	}
}

func (e *Executor) evalBool(x plan.Expr, env map[string]interface{}) (bool, error) {
	v, err := e.evalExpr(x, env)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		// A bare boolean attribute used as a predicate.
		if value, valErr := asValue(v); valErr == nil && value.Kind == queryable.KindBool {
			return !value.Null && value.Bool, nil
		}
		return false, fmt.Errorf("expression %s produced %T, want bool", x, v)
	}
	return b, nil
}

func (e *Executor) evalRecords(x plan.Expr, env map[string]interface{}) ([]*Record, error) {
	v, err := e.evalExpr(x, env)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case nil:
		return nil, nil
	case []*Record:
		return v, nil
	case *Record:
		return []*Record{v}, nil
	default:
		return nil, fmt.Errorf("expression %s is not a sequence", x)
	}
}

func isNullish(v interface{}) bool {
	if v == nil {
		return true
	}
	if value, ok := v.(queryable.Value); ok {
		return value.Null
	}
	return false
}

func asValue(v interface{}) (queryable.Value, error) {
	switch v := v.(type) {
	case nil:
		return queryable.Value{Null: true}, nil
	case queryable.Value:
		return v, nil
	default:
		return queryable.Value{}, fmt.Errorf("%T is not a scalar value", v)
	}
}

func dedupeRecords(records []*Record) []*Record {
	seen := make(map[interface{}]bool, len(records))
	var result []*Record
	for _, rec := range records {
		var key interface{} = rec
		if rec.ID != "" {
			key = rec.Storage + "/" + rec.ID
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, rec)
	}
	return result
}
