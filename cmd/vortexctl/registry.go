package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var suitesCmd = &cobra.Command{
	Use:   "suites",
	Short: "Inspect test suites",
}

var suitesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List test suites declared in the registry",
	RunE:  runSuitesList,
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Inspect execution profiles",
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available execution profiles",
	RunE:  runProfilesList,
}

var profilesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one execution profile and its resolved tests",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfilesShow,
}

func init() {
	suitesCmd.AddCommand(suitesListCmd)
	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesShowCmd)
}

func runSuitesList(cmd *cobra.Command, args []string) error {
	suites, err := newResolver().Suites()
	if err != nil {
		return err
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(map[string]any{"suites": suites})
	}

	rows := make([][]string, 0, len(suites))
	for _, s := range suites {
		rows = append(rows, []string{s})
	}
	printTable([]string{"Suite"}, rows)
	return nil
}

func runProfilesList(cmd *cobra.Command, args []string) error {
	resolver := newResolver()
	names, err := resolver.Profiles()
	if err != nil {
		return err
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(map[string]any{"profiles": names})
	}

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		info, err := resolver.ProfileInfo(name)
		if err != nil {
			return err
		}
		rows = append(rows, []string{name, fmt.Sprintf("%d", len(info.Include)), truncate(info.Description, 60)})
	}
	printTable([]string{"Profile", "Includes", "Description"}, rows)
	return nil
}

func runProfilesShow(cmd *cobra.Command, args []string) error {
	resolver := newResolver()
	name := args[0]

	info, err := resolver.ProfileInfo(name)
	if err != nil {
		return err
	}
	registry, err := resolver.ResolveProfile(name)
	if err != nil {
		return err
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(map[string]any{
			"profile": info,
			"tests":   testViews(registry),
		})
	}

	fmt.Printf("Profile: %s\n", info.Name)
	if info.Description != "" {
		fmt.Println(info.Description)
	}
	if info.Timeout > 0 {
		fmt.Printf("Timeout: %ds\n", info.Timeout)
	}
	fmt.Println()
	printTestTable(registry)
	return nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
