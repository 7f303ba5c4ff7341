package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var adaptersCmd = &cobra.Command{
	Use:   "adapters",
	Short: "Inspect capability adapters for the active platform",
}

var adaptersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List adapters available on the active platform",
	RunE:  runAdaptersList,
}

var adaptersDescribeCmd = &cobra.Command{
	Use:   "describe <name>",
	Short: "Describe one adapter",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdaptersDescribe,
}

func init() {
	adaptersCmd.AddCommand(adaptersListCmd)
	adaptersCmd.AddCommand(adaptersDescribeCmd)
}

func runAdaptersList(cmd *cobra.Command, args []string) error {
	registry, err := newRegistry()
	if err != nil {
		return err
	}

	names := registry.ListAvailable()
	if outputFmt == "json" || outputFmt == "yaml" {
		descriptions := make([]any, 0, len(names))
		for _, name := range names {
			descriptions = append(descriptions, registry.Describe(name))
		}
		return printOutput(map[string]any{"adapters": descriptions})
	}

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		desc := registry.Describe(name)
		impl := "-"
		if desc.Configured {
			impl = desc.Config.Type()
		}
		rows = append(rows, []string{
			name,
			yesNo(desc.Configured),
			yesNo(desc.Available),
			impl,
		})
	}
	printTable([]string{"Name", "Configured", "Registered", "Type"}, rows)
	return nil
}

func runAdaptersDescribe(cmd *cobra.Command, args []string) error {
	registry, err := newRegistry()
	if err != nil {
		return err
	}

	desc := registry.Describe(args[0])
	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(desc)
	}

	fmt.Printf("Name:       %s\n", desc.Name)
	fmt.Printf("Configured: %s\n", yesNo(desc.Configured))
	fmt.Printf("Registered: %s\n", yesNo(desc.Available))
	fmt.Printf("Loaded:     %s\n", yesNo(desc.Loaded))
	if desc.Configured {
		fmt.Printf("Type:       %s\n", desc.Config.Type())
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
