package modules

import (
	"change-monitor/core/fetch"
	"change-monitor/core/record"
	"change-monitor/core/runner"
)

// Sections requested from the computers inventory. More sections make
// reports noisy as computer details change frequently.
var inventorySections = []string{"USER_AND_LOCATION", "LOCAL_USER_ACCOUNTS", "OPERATING_SYSTEM"}

// Builtin returns the built-in modules in name order.
func Builtin() []*runner.Module {
	return []*runner.Module{
		{
			Name:       "accounts_groups",
			Query:      classicDetail("accounts", "accounts.groups", "accounts/groupid/{id}"),
			Normalizer: &record.Normalizer{IDPath: "group.id", NamePath: "group.name", BaseSuffix: ".json"},
		},
		{
			Name:  "advancedcomputersearches",
			Query: classicDetail("advancedcomputersearches", "advanced_computer_searches", "advancedcomputersearches/id/{id}"),
			Normalizer: &record.Normalizer{
				IDPath:     "advanced_computer_search.id",
				NamePath:   "advanced_computer_search.name",
				BaseSuffix: ".json",
				Policy: record.Policy{
					record.Delete("advanced_computer_search.computers"),
					record.Delete("advanced_computer_search.display_fields"),
					record.Delete("advanced_computer_search.view_as"),
					record.Delete("advanced_computer_search.sort_1"),
					record.Delete("advanced_computer_search.sort_2"),
					record.Delete("advanced_computer_search.sort_3"),
				},
			},
		},
		{
			Name: "categories",
			Query: fetch.Query{
				Mode: fetch.ModePaged,
				Path: "v1/categories",
			},
			Normalizer: &record.Normalizer{IDPath: "id", NamePath: "name"},
		},
		{
			Name:  "computercheckin",
			Query: fetch.Query{Mode: fetch.ModeSingle, Path: "computercheckin"},
			Normalizer: &record.Normalizer{
				FixedID:    "data",
				FixedName:  "computercheckin",
				BaseSuffix: ".json",
			},
		},
		{
			Name:  "computerextensionattributes",
			Query: classicDetail("computerextensionattributes", "computer_extension_attributes", "computerextensionattributes/id/{id}"),
			Normalizer: &record.Normalizer{
				IDPath:     "computer_extension_attribute.id",
				NamePath:   "computer_extension_attribute.name",
				BaseSuffix: ".data",
				Payloads: []record.Payload{
					// Only script input types carry a script.
					{Suffix: ".script", Path: "computer_extension_attribute.input_type.script", Optional: true},
				},
			},
		},
		{
			Name:  "computergroups",
			Query: classicDetail("computergroups", "computer_groups", "computergroups/id/{id}"),
			Normalizer: &record.Normalizer{
				IDPath:   "computer_group.id",
				NamePath: "computer_group.name",
				Policy: record.Policy{
					record.When("computer_group.is_smart", true,
						record.Policy{record.Delete("computer_group.computers")},
						record.Policy{
							record.KeepKeys("computer_group.computers.*", "id"),
							record.SortBy("computer_group.computers", "id"),
						},
					),
				},
			},
		},
		{
			Name:  "computerinventorycollection",
			Query: fetch.Query{Mode: fetch.ModeSingle, Path: "computerinventorycollection"},
			Normalizer: &record.Normalizer{
				FixedID:   "data",
				FixedName: "computerinventorycollection",
			},
		},
		{
			Name: "computers-inventory",
			Query: fetch.Query{
				Mode:     fetch.ModePaged,
				Path:     "v1/computers-inventory",
				PageSize: 200,
				Sections: inventorySections,
			},
			Normalizer: &record.Normalizer{
				IDPath:   "id",
				NamePath: "udid",
				Policy: record.Policy{
					record.DropNulls(""),
					// System accounts have uids below 500.
					record.FilterBelow("localUserAccounts", "uid", 500),
					record.Delete("localUserAccounts.*.homeDirectorySizeMb"),
					record.SortBy("localUserAccounts", "uid"),
					record.Delete("userAndLocation.extensionAttributes"),
					record.Delete("operatingSystem.extensionAttributes"),
					record.Delete("operatingSystem.softwareUpdateDeviceId"),
				},
			},
		},
		{
			Name:  "directorybindings",
			Query: classicDetail("directorybindings", "directory_bindings", "directorybindings/id/{id}"),
			Normalizer: &record.Normalizer{
				IDPath:     "directory_binding.id",
				NamePath:   "directory_binding.name",
				BaseSuffix: ".json",
			},
		},
		{
			Name:  "osxconfigurationprofiles",
			Query: classicDetail("osxconfigurationprofiles", "os_x_configuration_profiles", "osxconfigurationprofiles/id/{id}"),
			Normalizer: &record.Normalizer{
				IDPath:     "os_x_configuration_profile.general.id",
				NamePath:   "os_x_configuration_profile.general.name",
				BaseSuffix: ".json",
				Payloads: []record.Payload{
					{Suffix: ".mobileconfig", Path: "os_x_configuration_profile.general.payloads", Format: record.FormatXML},
				},
			},
		},
		{
			Name:  "scripts",
			Query: fetch.Query{Mode: fetch.ModePaged, Path: "v1/scripts"},
			Normalizer: &record.Normalizer{
				IDPath:     "id",
				NamePath:   "name",
				BaseSuffix: ".data",
				Payloads:   []record.Payload{{Suffix: ".script", Path: "scriptContents"}},
			},
		},
	}
}

func classicDetail(path, resultPath, detailPath string) fetch.Query {
	return fetch.Query{
		Mode:       fetch.ModeList,
		API:        fetch.Classic,
		Path:       path,
		ResultPath: resultPath,
		DetailPath: detailPath,
	}
}
