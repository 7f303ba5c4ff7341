package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/runner"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/testreg"
)

var (
	runProfile  string
	runSuite    string
	runCategory string
	runPriority string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Plan a test run for the active platform",
	Long: `Plan resolves the execution profile and filters against the active
platform and prints the resulting selection: which tests would run and
which would be skipped as platform-incompatible. Execution itself happens
in the test binaries that link the runner package.`,
	RunE: runPlan,
}

func init() {
	runCmd.Flags().StringVar(&runProfile, "profile", "", "Execution profile to plan (default: base registry)")
	runCmd.Flags().StringVar(&runSuite, "suite", "", "Filter by suite (comma-separated)")
	runCmd.Flags().StringVar(&runCategory, "category", "", "Filter by effective category")
	runCmd.Flags().StringVar(&runPriority, "priority", "", "Filter by effective priority")
}

func runPlan(cmd *cobra.Command, args []string) error {
	loader, err := newLoader()
	if err != nil {
		return err
	}
	r := runner.New(newResolver(), loader, nil, nil)

	plan, err := r.Plan(runProfile, runner.Filters{
		Suites:   splitCSV(runSuite),
		Category: runCategory,
		Priority: runPriority,
	})
	if err != nil {
		return err
	}

	type planView struct {
		testView
		Action string `json:"action"`
	}
	views := make([]planView, 0, len(plan.Tests))
	runnable := 0
	for _, md := range plan.Tests {
		action := "run"
		if !testreg.CompatibleWith(md, plan.Platform) {
			action = "skip"
		} else {
			runnable++
		}
		views = append(views, planView{testView: toTestView(md), Action: action})
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(map[string]any{
			"platform": plan.Platform,
			"profile":  plan.Profile,
			"tests":    views,
		})
	}

	fmt.Printf("Platform: %s\n", plan.Platform)
	if plan.Profile != "" {
		fmt.Printf("Profile:  %s\n", plan.Profile)
	}
	fmt.Println()

	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{v.Name, v.Suite, v.Priority, v.Action})
	}
	printTable([]string{"Test", "Suite", "Priority", "Action"}, rows)
	fmt.Printf("\n%d of %d tests runnable on %s\n", runnable, len(plan.Tests), plan.Platform)
	return nil
}
