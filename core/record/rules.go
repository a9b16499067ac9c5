package record

import (
	"fmt"
	"sort"

	"change-monitor/core/utils"
)

// Rule mutates a decoded object tree in place.
type Rule interface {
	Apply(doc any) error
}

// RuleFunc adapts a closure to the Rule interface.
type RuleFunc func(doc any) error

// Apply calls f(doc).
func (f RuleFunc) Apply(doc any) error { return f(doc) }

// Policy is an ordered list of rules evaluated in sequence.
type Policy []Rule

// Apply runs every rule in order and stops at the first error.
func (p Policy) Apply(doc any) error {
	for i, rule := range p {
		if err := rule.Apply(doc); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}

// Delete removes the value at path. Missing paths are ignored.
func Delete(path string) Rule {
	segs := splitPath(path)
	return RuleFunc(func(doc any) error {
		update(doc, segs, func(any) (any, bool) { return nil, false })
		return nil
	})
}

// DropNulls removes null-valued keys from the object at path (the root when path is empty).
func DropNulls(path string) Rule {
	segs := splitPath(path)
	prune := func(v any) (any, bool) {
		if obj, ok := v.(map[string]any); ok {
			for k, child := range obj {
				if child == nil {
					delete(obj, k)
				}
			}
		}
		return v, true
	}
	return RuleFunc(func(doc any) error {
		if len(segs) == 0 {
			prune(doc)
			return nil
		}
		update(doc, segs, prune)
		return nil
	})
}

// Truncate shortens strings to limit runes and arrays to limit elements.
func Truncate(path string, limit int) Rule {
	segs := splitPath(path)
	return RuleFunc(func(doc any) error {
		if limit < 0 {
			return fmt.Errorf("truncate %q: negative length %d", path, limit)
		}
		update(doc, segs, func(v any) (any, bool) {
			switch t := v.(type) {
			case string:
				if r := []rune(t); len(r) > limit {
					return string(r[:limit]), true
				}
			case []any:
				if len(t) > limit {
					return t[:limit], true
				}
			}
			return v, true
		})
		return nil
	})
}

// KeepKeys reduces every object matched by path to the listed keys.
func KeepKeys(path string, keys ...string) Rule {
	segs := splitPath(path)
	allowed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		allowed[k] = struct{}{}
	}
	return RuleFunc(func(doc any) error {
		update(doc, segs, func(v any) (any, bool) {
			if obj, ok := v.(map[string]any); ok {
				for k := range obj {
					if _, keep := allowed[k]; !keep {
						delete(obj, k)
					}
				}
			}
			return v, true
		})
		return nil
	})
}

// SortBy sorts the array at path by the value of field in each element.
// Numeric values compare numerically, everything else by string form.
func SortBy(path, field string) Rule {
	segs := splitPath(path)
	return RuleFunc(func(doc any) error {
		update(doc, segs, func(v any) (any, bool) {
			arr, ok := v.([]any)
			if !ok {
				return v, true
			}
			sort.SliceStable(arr, func(i, j int) bool {
				return less(fieldOf(arr[i], field), fieldOf(arr[j], field))
			})
			return arr, true
		})
		return nil
	})
}

// FilterBelow drops elements of the array at path whose numeric field is below threshold.
// Elements without a numeric field are kept.
func FilterBelow(path, field string, threshold float64) Rule {
	segs := splitPath(path)
	return RuleFunc(func(doc any) error {
		update(doc, segs, func(v any) (any, bool) {
			arr, ok := v.([]any)
			if !ok {
				return v, true
			}
			out := arr[:0]
			for _, elem := range arr {
				if n, ok := utils.ToFloat(fieldOf(elem, field)); ok && n < threshold {
					continue
				}
				out = append(out, elem)
			}
			return out, true
		})
		return nil
	})
}

// Transform replaces every value matched by path with fn's result.
func Transform(path string, fn func(v any) any) Rule {
	segs := splitPath(path)
	return RuleFunc(func(doc any) error {
		update(doc, segs, func(v any) (any, bool) { return fn(v), true })
		return nil
	})
}

// When evaluates then when the value at path equals want, otherwise otherwise.
// Values compare by their string form so json.Number(1) equals 1; a bool want
// also matches "true", "1" and 1.
func When(path string, want any, then, otherwise Policy) Rule {
	return RuleFunc(func(doc any) error {
		if got, ok := Lookup(doc, path); ok && matches(got, want) {
			return then.Apply(doc)
		}
		return otherwise.Apply(doc)
	})
}

func matches(got, want any) bool {
	if b, ok := want.(bool); ok {
		return utils.ToBool(got) == b
	}
	return utils.ToString(got) == utils.ToString(want)
}

func fieldOf(v any, field string) any {
	if field == "" {
		return v
	}
	got, _ := Lookup(v, field)
	return got
}

func less(a, b any) bool {
	fa, okA := utils.ToFloat(a)
	fb, okB := utils.ToFloat(b)
	if okA && okB {
		return fa < fb
	}
	return utils.ToString(a) < utils.ToString(b)
}
