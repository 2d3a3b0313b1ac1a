package store

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// normalize turns any JSON-encodable value into its decoded JSON form so
// stored values compare and sort the same way regardless of backend.
func normalize(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func cloneDocument(doc Document) Document {
	if doc == nil {
		return Document{}
	}
	out, err := normalize(map[string]interface{}(doc))
	if err != nil {
		return Document{}
	}
	m, _ := out.(map[string]interface{})
	return Document(m)
}

func lookup(doc Document, path string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(doc)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// applyFields applies a partial update to doc in place.
func applyFields(doc Document, fields map[string]interface{}) error {
	// Deterministic order so a failing field leaves a predictable prefix applied.
	paths := make([]string, 0, len(fields))
	for p := range fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if path == "" || strings.HasPrefix(path, ".") || strings.HasSuffix(path, ".") {
			return errors.Errorf("invalid field path %q", path)
		}
		parts := strings.Split(path, ".")
		parent := map[string]interface{}(doc)
		for _, part := range parts[:len(parts)-1] {
			next, ok := parent[part].(map[string]interface{})
			if !ok {
				next = map[string]interface{}{}
				parent[part] = next
			}
			parent = next
		}
		leaf := parts[len(parts)-1]

		switch v := fields[path].(type) {
		case Increment:
			cur, err := toFloat(parent[leaf])
			if err != nil {
				return errors.Wrapf(err, "increment %s", path)
			}
			parent[leaf] = cur + v.By
		case ArrayUnion:
			arr, _ := parent[leaf].([]interface{})
			for _, raw := range v.Values {
				val, err := normalize(raw)
				if err != nil {
					return errors.Wrapf(err, "array union %s", path)
				}
				if !containsValue(arr, val) {
					arr = append(arr, val)
				}
			}
			if arr == nil {
				arr = []interface{}{}
			}
			parent[leaf] = arr
		default:
			val, err := normalize(v)
			if err != nil {
				return errors.Wrapf(err, "set %s", path)
			}
			parent[leaf] = val
		}
	}
	return nil
}

// mergeInto deep-merges src maps into dst.
func mergeInto(dst, src map[string]interface{}) {
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]interface{})
		dstMap, dstIsMap := dst[k].(map[string]interface{})
		if srcIsMap && dstIsMap {
			mergeInto(dstMap, srcMap)
			continue
		}
		dst[k] = v
	}
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("field holds non-numeric value %v", v)
}

func containsValue(arr []interface{}, val interface{}) bool {
	for _, existing := range arr {
		if reflect.DeepEqual(existing, val) {
			return true
		}
	}
	return false
}

// applyQuery filters, orders and limits snapshots already in insertion order.
func applyQuery(snaps []Snapshot, q Query) ([]Snapshot, error) {
	filters := make([]Filter, len(q.Filters))
	for i, f := range q.Filters {
		val, err := normalize(f.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "filter %s", f.Field)
		}
		filters[i] = Filter{Field: f.Field, Value: val}
	}

	out := make([]Snapshot, 0, len(snaps))
	for _, s := range snaps {
		if matches(s.Data, filters) {
			out = append(out, s)
		}
	}

	if q.OrderBy != "" {
		// Equal keys keep insertion order ascending and reverse it descending.
		if q.Descending {
			for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
				out[i], out[j] = out[j], out[i]
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			a, _ := lookup(out[i].Data, q.OrderBy)
			b, _ := lookup(out[j].Data, q.OrderBy)
			if q.Descending {
				return compareValues(a, b) > 0
			}
			return compareValues(a, b) < 0
		})
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func matches(doc Document, filters []Filter) bool {
	for _, f := range filters {
		v, ok := lookup(doc, f.Field)
		if !ok || !reflect.DeepEqual(v, f.Value) {
			return false
		}
	}
	return true
}

// compareValues orders nil < bool < number < string; other types compare equal.
func compareValues(a, b interface{}) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		}
		return 1
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case string:
		return strings.Compare(av, b.(string))
	}
	return 0
}

func rank(v interface{}) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	}
	return 4
}
