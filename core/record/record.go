package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"change-monitor/core/utils"
)

// ErrNoIdentity is returned when an object carries no value at the identity path.
var ErrNoIdentity = errors.New("object has no identity")

// ErrUnsafeIdentity is returned when an identity cannot be used as a file name.
var ErrUnsafeIdentity = errors.New("identity is not a safe file name")

// Raw is one decoded object as returned by the fetch capability.
type Raw = any

// Unit is one persisted file of an object.
type Unit struct {
	// Suffix is appended to the identity to form the file name ("" for single-file modules).
	Suffix string
	// Content is the canonical byte content of the unit.
	Content []byte
}

// Record is the canonical form of one fetched object.
type Record struct {
	// ID is the stable identity of the object within its module.
	ID string
	// Name is the human readable name used in commit messages and reports.
	Name string
	// Units holds the metadata unit first, followed by payload units in definition order.
	Units []Unit
}

// Unit returns the unit with the given suffix.
func (r Record) Unit(suffix string) (Unit, bool) {
	for _, u := range r.Units {
		if u.Suffix == suffix {
			return u, true
		}
	}
	return Unit{}, false
}

// Payload formats.
const (
	FormatText = "text"
	FormatXML  = "xml"
)

// Payload lifts a free-form value out of the metadata tree into its own unit.
type Payload struct {
	// Suffix of the payload file (e.g. ".script").
	Suffix string `yaml:"suffix"`
	// Path to the payload value; it is removed from the metadata unit.
	Path string `yaml:"path"`
	// Format is FormatText (default) or FormatXML (pretty printed).
	Format string `yaml:"format,omitempty"`
	// Optional payloads produce no unit when the value is missing or empty.
	Optional bool `yaml:"optional,omitempty"`
}

// Normalizer maps raw objects of one module to Records.
type Normalizer struct {
	// IDPath locates the identity. Ignored when FixedID is set.
	IDPath string
	// NamePath locates the display name; the identity is used when it is missing.
	NamePath string
	// FixedID and FixedName describe singleton modules that persist one object.
	FixedID   string
	FixedName string
	// BaseSuffix is the suffix of the metadata unit.
	BaseSuffix string
	// Policy is applied to the metadata tree after payloads are lifted.
	Policy Policy
	// Payloads are extracted into their own units.
	Payloads []Payload
}

// Suffixes returns every unit suffix this normalizer can produce, metadata first.
func (n *Normalizer) Suffixes() []string {
	out := []string{n.BaseSuffix}
	for _, p := range n.Payloads {
		out = append(out, p.Suffix)
	}
	return out
}

// Identity extracts the identity of a raw object without normalizing it.
func (n *Normalizer) Identity(raw Raw) (string, error) {
	if n.FixedID != "" {
		return n.FixedID, nil
	}
	v, ok := Lookup(raw, n.IDPath)
	id := utils.ToString(v)
	if !ok || id == "" {
		return "", fmt.Errorf("%w at %q", ErrNoIdentity, n.IDPath)
	}
	if !SafeIdentity(id) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeIdentity, id)
	}
	return id, nil
}

// SafeIdentity reports whether id stays inside its module directory when used
// as a file name: no path separators and no leading dot.
func SafeIdentity(id string) bool {
	return id != "" && !strings.HasPrefix(id, ".") && !strings.ContainsAny(id, `/\`)
}

// Normalize converts raw into a Record. raw is not modified.
func (n *Normalizer) Normalize(raw Raw) (Record, error) {
	doc := Clone(raw)
	if _, ok := doc.(map[string]any); !ok {
		return Record{}, fmt.Errorf("object is %T, not an object", raw)
	}

	id, err := n.Identity(doc)
	if err != nil {
		return Record{}, err
	}
	rec := Record{ID: id, Name: n.name(doc, id)}

	var payloads []Unit
	for _, p := range n.Payloads {
		v, found := Lookup(doc, p.Path)
		update(doc, splitPath(p.Path), func(any) (any, bool) { return nil, false })

		text := utils.ToString(v)
		if (!found || text == "") && p.Optional {
			continue
		}
		content := []byte(text)
		if p.Format == FormatXML && len(content) > 0 {
			// Payloads that are not well-formed XML are kept verbatim.
			if pretty, err := PrettyXML(content); err == nil {
				content = pretty
			}
		}
		payloads = append(payloads, Unit{Suffix: p.Suffix, Content: content})
	}

	if err := n.Policy.Apply(doc); err != nil {
		return Record{}, fmt.Errorf("redact %s: %w", id, err)
	}
	meta, err := Canonical(doc)
	if err != nil {
		return Record{}, fmt.Errorf("encode %s: %w", id, err)
	}

	rec.Units = append([]Unit{{Suffix: n.BaseSuffix, Content: meta}}, payloads...)
	return rec, nil
}

// NameFromStored recovers the display name from a persisted metadata unit.
// It falls back to id when the content cannot be decoded.
func (n *Normalizer) NameFromStored(id string, content []byte) string {
	if n.FixedName != "" {
		return n.FixedName
	}
	var doc any
	if err := json.Unmarshal(content, &doc); err != nil {
		return id
	}
	return n.name(doc, id)
}

func (n *Normalizer) name(doc any, id string) string {
	if n.FixedName != "" {
		return n.FixedName
	}
	if v, ok := Lookup(doc, n.NamePath); ok {
		if s := utils.ToString(v); s != "" {
			return s
		}
	}
	return id
}
