package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/platform"
)

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "Inspect hardware platform configurations",
}

var platformsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available platform configurations",
	RunE:  runPlatformsList,
}

var platformsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration of the active platform",
	RunE:  runPlatformsShow,
}

func init() {
	platformsCmd.AddCommand(platformsListCmd)
	platformsCmd.AddCommand(platformsShowCmd)
}

func runPlatformsList(cmd *cobra.Command, args []string) error {
	loader := platform.NewLoader(configDir)
	names := loader.ListAvailablePlatforms()

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(map[string]any{"platforms": names})
	}

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name})
	}
	printTable([]string{"Platform"}, rows)
	return nil
}

func runPlatformsShow(cmd *cobra.Command, args []string) error {
	loader, err := newLoader()
	if err != nil {
		return err
	}
	cfg, err := loader.Current()
	if err != nil {
		return err
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(cfg)
	}

	fmt.Printf("Platform: %s (version %s, vendor %s)\n", cfg.Platform.Name, cfg.Platform.Version, cfg.Platform.Vendor)
	if cfg.Platform.Description != "" {
		fmt.Println(cfg.Platform.Description)
	}
	fmt.Println()

	names := make([]string, 0, len(cfg.Interfaces))
	for name := range cfg.Interfaces {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		ifCfg := cfg.Interfaces[name]
		impl := ifCfg.Type()
		if ifCfg.IsMock() {
			impl = "mock"
		}
		rows = append(rows, []string{name, impl})
	}
	printTable([]string{"Interface", "Type"}, rows)
	return nil
}
