// Package modules defines which Jamf collections are synchronized.
//
// # Catalogue
//
// Builtin returns the modules that ship with the monitor. Each one pairs a
// fetch.Query with a record.Normalizer:
//
//	categories                    Pro, paged                    <id>
//	scripts                       Pro, paged                    <id>.data, <id>.script
//	computers-inventory           Pro, paged, three sections    <id>
//	computergroups                Classic, list + detail        <id>
//	computerextensionattributes   Classic, list + detail        <id>.data, <id>.script
//	osxconfigurationprofiles      Classic, list + detail        <id>.json, <id>.mobileconfig
//	advancedcomputersearches      Classic, list + detail        <id>.json
//	accounts_groups               Classic, list + detail        <id>.json
//	directorybindings             Classic, list + detail        <id>.json
//	computercheckin               Classic, single               data.json
//	computerinventorycollection   Classic, single               data
//
// # Definition files
//
// Extra modules are declared in a YAML file (modules.file). A definition with
// the name of a built-in module replaces it; `disabled: true` removes it.
//
//	modules:
//	  - name: policies
//	    query:
//	      path: policies
//	      result_path: policies
//	      detail_path: policies/id/{id}
//	    id_path: policy.general.id
//	    name_path: policy.general.name
//	    base_suffix: .json
//	    rules:
//	      - op: delete
//	        path: policy.scope
//
// # Registry
//
// The Registry holds the effective module set. Select resolves the names
// given with --module and fails with ErrUnknownModule for names it does not
// know. The feature also serves GET /modules on the status API.
package modules
