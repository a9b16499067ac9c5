// Package record turns raw objects fetched from the management API into
// canonical, comparable records.
//
// A Normalizer is configured per module and is a pure function: it extracts the
// identity and display name, lifts free-form payloads (scripts, configuration
// profile XML) into their own units, applies the module's redaction policy and
// serializes the remaining tree deterministically.
//
// # Paths
//
// Rules address values with dot-notation paths. A "*" segment matches every
// element of an array (or every value of an object):
//
//	computer_group.computers
//	localUserAccounts.*.homeDirectorySizeMb
//
// # Policies
//
// A Policy is an ordered list of Rules evaluated in sequence. Built-in rules cover
// deletion, null pruning, truncation, key projection, sorting and numeric
// filtering; RuleFunc accepts any closure. Policies can also be declared as data
// (RuleSpec) and compiled with BuildPolicy, which is how module definitions loaded
// from YAML express their redactions.
//
// # Canonical content
//
// Canonical bytes are indented JSON with sorted object keys and no HTML escaping,
// so re-fetching unchanged state yields byte-identical content.
package record
