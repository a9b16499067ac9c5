package record

import "fmt"

// Rule operations understood by BuildPolicy.
const (
	OpDelete      = "delete"
	OpDropNulls   = "drop_nulls"
	OpTruncate    = "truncate"
	OpKeepKeys    = "keep_keys"
	OpSortBy      = "sort_by"
	OpFilterBelow = "filter_below"
	OpWhen        = "when"
)

// RuleSpec is the declarative form of a Rule, as written in module definition files.
type RuleSpec struct {
	Op     string     `yaml:"op" json:"op"`
	Path   string     `yaml:"path" json:"path"`
	Field  string     `yaml:"field,omitempty" json:"field,omitempty"`
	Keys   []string   `yaml:"keys,omitempty" json:"keys,omitempty"`
	Max    int        `yaml:"max,omitempty" json:"max,omitempty"`
	Min    float64    `yaml:"min,omitempty" json:"min,omitempty"`
	Equals any        `yaml:"equals,omitempty" json:"equals,omitempty"`
	Then   []RuleSpec `yaml:"then,omitempty" json:"then,omitempty"`
	Else   []RuleSpec `yaml:"else,omitempty" json:"else,omitempty"`
}

// BuildPolicy compiles rule specs into a Policy.
func BuildPolicy(specs []RuleSpec) (Policy, error) {
	policy := make(Policy, 0, len(specs))
	for i, s := range specs {
		rule, err := s.build()
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, s.Op, err)
		}
		policy = append(policy, rule)
	}
	return policy, nil
}

func (s RuleSpec) build() (Rule, error) {
	switch s.Op {
	case OpDelete:
		if s.Path == "" {
			return nil, fmt.Errorf("path is required")
		}
		return Delete(s.Path), nil
	case OpDropNulls:
		return DropNulls(s.Path), nil
	case OpTruncate:
		if s.Max <= 0 {
			return nil, fmt.Errorf("max must be positive")
		}
		return Truncate(s.Path, s.Max), nil
	case OpKeepKeys:
		if len(s.Keys) == 0 {
			return nil, fmt.Errorf("keys are required")
		}
		return KeepKeys(s.Path, s.Keys...), nil
	case OpSortBy:
		return SortBy(s.Path, s.Field), nil
	case OpFilterBelow:
		if s.Field == "" {
			return nil, fmt.Errorf("field is required")
		}
		return FilterBelow(s.Path, s.Field, s.Min), nil
	case OpWhen:
		if s.Path == "" {
			return nil, fmt.Errorf("path is required")
		}
		then, err := BuildPolicy(s.Then)
		if err != nil {
			return nil, err
		}
		otherwise, err := BuildPolicy(s.Else)
		if err != nil {
			return nil, err
		}
		return When(s.Path, s.Equals, then, otherwise), nil
	default:
		return nil, fmt.Errorf("unknown operation")
	}
}
