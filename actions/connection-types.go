package actions

import (
	"sort"
	"strings"
)

// IsSupportedConnectionType returns true if the connection type is found in the list of ActionFuncs, else false.
func IsSupportedConnectionType(schema string) bool {
	m := getSupportedConnectionTypesMap("")
	_, ok := m[schema]
	return ok
}

func GetSupportedLoadConnectionTypes() string {
	return getSupportedConnectionTypes("")
}

// getSupportedConnectionTypes returns a comma separated string containing all supported connection types based on
// the contents of ActionFuncs. Keys of the final map are target connection types.
// Optionally supply a subCommandFilter to limit the checking of connection types to the given sub command.
func getSupportedConnectionTypes(subCommandFilter string) string {
	var s []string
	m := getSupportedConnectionTypesMap(subCommandFilter)
	for k := range m { // for each supported connection type as a key...
		s = append(s, k) // save unique connection type key
	}
	sort.Strings(s)
	return strings.Join(s, ", ")
}

func getSupportedConnectionTypesMap(subCommandFilter string) map[string]struct{} {
	m := make(map[string]struct{})
	for _, command := range ActionFuncs { // for each command in ActionFuncs...
		for sk, subcommand := range command { // for each subcommand in command...
			if subCommandFilter != "" && sk != subCommandFilter { // if a subcommand filter applies and this is not it...
				continue
			}
			for k := range subcommand { // for each Action...
				m[k] = struct{}{} // save the target connection type.
			}
		}
	}
	return m
}
