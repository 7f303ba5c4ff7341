package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/platform"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/testreg"
)

var (
	configDir    string
	registryDir  string
	platformName string
	outputFmt    string
)

var rootCmd = &cobra.Command{
	Use:   "vortexctl",
	Short: "CLI for the hardware-in-the-loop test harness",
	Long: `vortexctl inspects and drives the test harness: available hardware
platforms, capability adapters, test suites and execution profiles.

The active platform is chosen by --platform, the VORTEX_PLATFORM
environment variable, or the built-in default, in that order.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "config/platforms", "Directory containing platform configuration files")
	rootCmd.PersistentFlags().StringVar(&registryDir, "registry-dir", "config/test_registry", "Directory containing the split test registry")
	rootCmd.PersistentFlags().StringVarP(&platformName, "platform", "p", "", "Platform to load (default: from VORTEX_PLATFORM env)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")

	viper.SetDefault("platform", "")
	_ = viper.BindEnv("platform", platform.EnvPlatform)

	rootCmd.AddCommand(platformsCmd)
	rootCmd.AddCommand(adaptersCmd)
	rootCmd.AddCommand(suitesCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(testsCmd)
	rootCmd.AddCommand(runCmd)
}

// resolvedPlatform returns the effective platform name.
// Priority: --platform flag > VORTEX_PLATFORM env var > loader default.
func resolvedPlatform() string {
	if platformName != "" {
		return platformName
	}
	return viper.GetString("platform")
}

// newLoader builds a loader over --config-dir with the resolved platform
// loaded.
func newLoader() (*platform.Loader, error) {
	loader := platform.NewLoader(configDir)
	if _, err := loader.Load(resolvedPlatform()); err != nil {
		return nil, err
	}
	return loader, nil
}

// newRegistry builds an adapter registry over a freshly loaded platform.
func newRegistry() (*hal.Registry, error) {
	loader, err := newLoader()
	if err != nil {
		return nil, err
	}
	return hal.NewRegistry(loader), nil
}

func newResolver() *testreg.Resolver {
	return testreg.NewResolver(registryDir)
}
