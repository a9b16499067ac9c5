package modules

import (
	"bytes"
	"fmt"
	"io"

	"change-monitor/core/fetch"
	"change-monitor/core/record"
	"change-monitor/core/runner"

	"gopkg.in/yaml.v3"
)

// Definition is the YAML form of a module.
type Definition struct {
	Name       string            `yaml:"name"`
	Disabled   bool              `yaml:"disabled,omitempty"`
	Query      fetch.Query       `yaml:"query"`
	IDPath     string            `yaml:"id_path,omitempty"`
	NamePath   string            `yaml:"name_path,omitempty"`
	FixedID    string            `yaml:"fixed_id,omitempty"`
	FixedName  string            `yaml:"fixed_name,omitempty"`
	BaseSuffix string            `yaml:"base_suffix,omitempty"`
	Payloads   []record.Payload  `yaml:"payloads,omitempty"`
	Rules      []record.RuleSpec `yaml:"rules,omitempty"`
}

type file struct {
	Modules []Definition `yaml:"modules"`
}

// Decode reads module definitions. Unknown fields are rejected.
func Decode(r io.Reader) ([]Definition, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	var f file
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode module definitions: %w", err)
	}
	return f.Modules, nil
}

// Build compiles the definition into a validated module.
func (d Definition) Build() (*runner.Module, error) {
	policy, err := record.BuildPolicy(d.Rules)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", d.Name, err)
	}
	m := &runner.Module{
		Name:  d.Name,
		Query: d.Query,
		Normalizer: &record.Normalizer{
			IDPath:     d.IDPath,
			NamePath:   d.NamePath,
			FixedID:    d.FixedID,
			FixedName:  d.FixedName,
			BaseSuffix: d.BaseSuffix,
			Policy:     policy,
			Payloads:   d.Payloads,
		},
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
