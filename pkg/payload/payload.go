// Package payload provides a read-only view over a decoded webhook body.
//
// GitLab payloads are deeply nested and vary between event kinds, so the
// rest of the pipeline reads them through dotted-path lookups instead of
// per-event struct types. A missing key resolves to an absent value,
// never an error.
package payload

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Tree is an immutable view over a parsed JSON document.
type Tree struct {
	root interface{}
}

// Parse decodes raw JSON into a Tree. Numbers are decoded as json.Number
// to keep integer identifiers exact.
func Parse(raw []byte) (Tree, error) {
	decoder := json.NewDecoder(strings.NewReader(string(raw)))
	decoder.UseNumber()

	var root interface{}
	if err := decoder.Decode(&root); err != nil {
		return Tree{}, err
	}
	return Tree{root: root}, nil
}

// FromValue wraps an already-decoded value.
func FromValue(value interface{}) Tree {
	return Tree{root: value}
}

// Root returns the underlying decoded document.
func (t Tree) Root() interface{} {
	return t.root
}

// Get resolves a dotted path like "object_attributes.state" or
// "commits.0.id". Numeric segments index into arrays. The second return
// is false when any segment is absent.
func (t Tree) Get(path string) (interface{}, bool) {
	current := t.root
	if path == "" {
		return current, current != nil
	}
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			child, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = child
		case []interface{}:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(node) {
				return nil, false
			}
			current = node[index]
		default:
			return nil, false
		}
	}
	return current, true
}

// String returns the string at path, or "" when absent or not a string.
func (t Tree) String(path string) string {
	value, ok := t.Get(path)
	if !ok {
		return ""
	}
	s, _ := value.(string)
	return s
}

// Int returns the integer at path. Absent or non-numeric values yield
// (0, false).
func (t Tree) Int(path string) (int64, bool) {
	value, ok := t.Get(path)
	if !ok {
		return 0, false
	}
	switch number := value.(type) {
	case json.Number:
		n, err := number.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	case float64:
		return int64(number), true
	case int64:
		return number, true
	case int:
		return int64(number), true
	default:
		return 0, false
	}
}

// Slice returns the array at path as a slice of sub-trees, or nil when
// absent or not an array.
func (t Tree) Slice(path string) []Tree {
	value, ok := t.Get(path)
	if !ok {
		return nil
	}
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}
	out := make([]Tree, 0, len(items))
	for _, item := range items {
		out = append(out, Tree{root: item})
	}
	return out
}

// Sub returns the subtree at path. An absent path yields an empty Tree
// whose lookups all report absent.
func (t Tree) Sub(path string) Tree {
	value, ok := t.Get(path)
	if !ok {
		return Tree{}
	}
	return Tree{root: value}
}

// Flatten collapses the document into a single-level map whose keys join
// nested map keys with "." and array elements with "[i]". Arrays are also
// exposed whole under their own path. Scalars decoded as json.Number are
// converted to float64 so expression engines can compare them.
func (t Tree) Flatten() map[string]interface{} {
	out := make(map[string]interface{})
	object, ok := t.root.(map[string]interface{})
	if !ok {
		return out
	}
	for key, value := range object {
		flattenInto(out, key, value)
	}
	return out
}

func flattenInto(out map[string]interface{}, path string, value interface{}) {
	switch typed := value.(type) {
	case map[string]interface{}:
		for key, child := range typed {
			flattenInto(out, fmt.Sprintf("%s.%s", path, key), child)
		}
	case []interface{}:
		out[path] = typed
		for i, child := range typed {
			flattenInto(out, fmt.Sprintf("%s[%d]", path, i), child)
		}
	case json.Number:
		if n, err := typed.Float64(); err == nil {
			out[path] = n
		} else {
			out[path] = typed.String()
		}
	default:
		out[path] = value
	}
}
