package testreg

import (
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// The filters below narrow an already-resolved registry. They never mutate
// their input and return an empty slice (sorted by test name) when nothing
// matches.

// FilterByNames keeps only the named tests.
func FilterByNames(registry map[string]TestMetadata, names []string) []TestMetadata {
	var out []TestMetadata
	for _, name := range names {
		if md, ok := registry[name]; ok {
			out = append(out, md)
		}
	}
	sortByName(out)
	return out
}

// FilterBySuites keeps tests belonging to any of the given suites.
func FilterBySuites(registry map[string]TestMetadata, suites []string) []TestMetadata {
	want := mapset.NewSet(suites...)
	var out []TestMetadata
	for _, md := range registry {
		if want.Contains(md.Suite) {
			out = append(out, md)
		}
	}
	sortByName(out)
	return out
}

// FilterByCategory keeps tests with the given effective category.
func FilterByCategory(registry map[string]TestMetadata, category string) []TestMetadata {
	var out []TestMetadata
	for _, md := range registry {
		if md.Category == category {
			out = append(out, md)
		}
	}
	sortByName(out)
	return out
}

// FilterByPriority keeps tests with the given effective priority.
func FilterByPriority(registry map[string]TestMetadata, priority string) []TestMetadata {
	var out []TestMetadata
	for _, md := range registry {
		if md.Priority == priority {
			out = append(out, md)
		}
	}
	sortByName(out)
	return out
}

// All returns the whole registry sorted by test name.
func All(registry map[string]TestMetadata) []TestMetadata {
	out := make([]TestMetadata, 0, len(registry))
	for _, md := range registry {
		out = append(out, md)
	}
	sortByName(out)
	return out
}

func sortByName(tests []TestMetadata) {
	sort.Slice(tests, func(i, j int) bool { return tests[i].Name < tests[j].Name })
}

// Tags projects metadata onto the tag set used by reporting collaborators:
// category, suite, priority, one tag per platform (or all_platforms for
// the "all" sentinel) and requires_hardware when set. The projection is
// deterministic.
func Tags(md TestMetadata) mapset.Set[string] {
	tags := mapset.NewSet(md.Category, md.Suite, md.Priority)
	if md.Platforms.Contains(PlatformAll) {
		tags.Add("all_platforms")
	} else {
		for p := range md.Platforms.Iter() {
			tags.Add("platform_" + p)
		}
	}
	if md.RequiresHardware {
		tags.Add("requires_hardware")
	}
	return tags
}

// severityByPriority maps test priority to report severity.
var severityByPriority = map[string]string{
	"critical": "blocker",
	"high":     "critical",
	"medium":   "normal",
	"low":      "minor",
}

// Severity returns the report severity for a priority; unknown priorities
// map to "normal".
func Severity(priority string) string {
	if s, ok := severityByPriority[priority]; ok {
		return s
	}
	return "normal"
}

// ReportLabels builds the label map consumed by external report tooling.
func ReportLabels(md TestMetadata) map[string]string {
	return map[string]string{
		"feature":  titleCase(strings.ReplaceAll(md.Suite, "_", " ")),
		"story":    md.Description,
		"severity": Severity(md.Priority),
		"tag":      md.Category,
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
