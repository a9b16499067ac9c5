package record

import "strings"

// Wildcard matches every element of an array or every value of an object.
const Wildcard = "*"

// splitPath splits a dot-notation path into segments. An empty path has no segments.
func splitPath(path string) []string {
	path = strings.Trim(path, ".")
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Lookup returns the value at a dot-notation path. Wildcards are not allowed.
func Lookup(doc any, path string) (any, bool) {
	current := doc
	for _, seg := range splitPath(path) {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// update walks node along segs and replaces every matched value with fn's result.
// When fn reports keep=false the matched value is removed from its parent
// (object key deleted, array element dropped). It returns the possibly replaced node.
func update(node any, segs []string, fn func(v any) (any, bool)) any {
	if len(segs) == 0 {
		return node
	}
	seg, rest := segs[0], segs[1:]

	switch n := node.(type) {
	case map[string]any:
		if seg == Wildcard {
			for key, child := range n {
				if len(rest) == 0 {
					if nv, keep := fn(child); keep {
						n[key] = nv
					} else {
						delete(n, key)
					}
					continue
				}
				n[key] = update(child, rest, fn)
			}
			return n
		}
		child, ok := n[seg]
		if !ok {
			return n
		}
		if len(rest) == 0 {
			if nv, keep := fn(child); keep {
				n[seg] = nv
			} else {
				delete(n, seg)
			}
			return n
		}
		n[seg] = update(child, rest, fn)
		return n

	case []any:
		if seg != Wildcard {
			return n
		}
		out := n[:0]
		for _, child := range n {
			if len(rest) == 0 {
				if nv, keep := fn(child); keep {
					out = append(out, nv)
				}
				continue
			}
			out = append(out, update(child, rest, fn))
		}
		return out
	}

	return node
}

// Clone returns a deep copy of a decoded JSON tree.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = Clone(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = Clone(child)
		}
		return out
	default:
		return v
	}
}
