package main

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/testreg"
)

var (
	testsProfile  string
	testsSuite    string
	testsCategory string
	testsPriority string
)

var testsCmd = &cobra.Command{
	Use:   "tests",
	Short: "Inspect resolved test metadata",
}

var testsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tests with their effective metadata",
	RunE:  runTestsList,
}

func init() {
	testsListCmd.Flags().StringVar(&testsProfile, "profile", "", "Execution profile to resolve (default: base registry)")
	testsListCmd.Flags().StringVar(&testsSuite, "suite", "", "Filter by suite (comma-separated)")
	testsListCmd.Flags().StringVar(&testsCategory, "category", "", "Filter by effective category")
	testsListCmd.Flags().StringVar(&testsPriority, "priority", "", "Filter by effective priority")
	testsCmd.AddCommand(testsListCmd)
}

func runTestsList(cmd *cobra.Command, args []string) error {
	registry, err := newResolver().ResolveProfile(testsProfile)
	if err != nil {
		return err
	}

	if suites := splitCSV(testsSuite); len(suites) > 0 {
		registry = reindex(testreg.FilterBySuites(registry, suites))
	}
	if testsCategory != "" {
		registry = reindex(testreg.FilterByCategory(registry, testsCategory))
	}
	if testsPriority != "" {
		registry = reindex(testreg.FilterByPriority(registry, testsPriority))
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(map[string]any{"tests": testViews(registry)})
	}
	printTestTable(registry)
	return nil
}

// testView is the structured-output shape of one resolved test.
type testView struct {
	Name             string   `json:"name"`
	Suite            string   `json:"suite"`
	Category         string   `json:"category"`
	Priority         string   `json:"priority"`
	Description      string   `json:"description,omitempty"`
	Platforms        []string `json:"platforms"`
	RequiresHardware bool     `json:"requires_hardware"`
	MaxDuration      string   `json:"max_duration,omitempty"`
}

func toTestView(md testreg.TestMetadata) testView {
	platforms := md.Platforms.ToSlice()
	sort.Strings(platforms)
	return testView{
		Name:             md.Name,
		Suite:            md.Suite,
		Category:         md.Category,
		Priority:         md.Priority,
		Description:      md.Description,
		Platforms:        platforms,
		RequiresHardware: md.RequiresHardware,
		MaxDuration:      md.MaxDuration,
	}
}

func testViews(registry map[string]testreg.TestMetadata) []testView {
	tests := testreg.All(registry)
	out := make([]testView, 0, len(tests))
	for _, md := range tests {
		out = append(out, toTestView(md))
	}
	return out
}

func printTestTable(registry map[string]testreg.TestMetadata) {
	tests := testreg.All(registry)
	rows := make([][]string, 0, len(tests))
	for _, md := range tests {
		platforms := md.Platforms.ToSlice()
		sort.Strings(platforms)
		hw := ""
		if md.RequiresHardware {
			hw = "hw"
		}
		rows = append(rows, []string{
			md.Name,
			md.Suite,
			md.Category,
			md.Priority,
			strings.Join(platforms, ","),
			hw,
		})
	}
	printTable([]string{"Test", "Suite", "Category", "Priority", "Platforms", "HW"}, rows)
}

func reindex(tests []testreg.TestMetadata) map[string]testreg.TestMetadata {
	out := make(map[string]testreg.TestMetadata, len(tests))
	for _, md := range tests {
		out[md.Name] = md
	}
	return out
}
