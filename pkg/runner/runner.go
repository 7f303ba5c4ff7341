// Package runner orchestrates test execution: it materializes a selection
// of tests from the registry, skips those incompatible with the loaded
// platform, records outcomes in the results store and cleans up every
// adapter at the end of the run.
package runner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/golang/glog"

	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/platform"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/results"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/testreg"
)

// Func is one executable test. It receives the adapter registry for the
// loaded platform and fails by returning a non-nil error.
type Func func(ctx context.Context, registry *hal.Registry) error

// Filters narrows a profile's test selection. Empty fields select
// everything.
type Filters struct {
	Names    []string
	Suites   []string
	Category string
	Priority string
}

// Plan is an ordered selection of tests ready to execute.
type Plan struct {
	Profile  string
	Platform string
	Tests    []testreg.TestMetadata
}

// Summary aggregates one run's outcomes.
type Summary struct {
	RunID   string
	Passed  int
	Failed  int
	Skipped int
}

// Total returns the number of tests accounted for.
func (s Summary) Total() int { return s.Passed + s.Failed + s.Skipped }

// Runner wires the metadata resolver, the adapter registry and the results
// store together.
type Runner struct {
	resolver *testreg.Resolver
	loader   *platform.Loader
	registry *hal.Registry
	store    *results.Store
}

// New builds a runner. The results store may be nil when persistence is
// not wanted (planning only).
func New(resolver *testreg.Resolver, loader *platform.Loader, registry *hal.Registry, store *results.Store) *Runner {
	return &Runner{resolver: resolver, loader: loader, registry: registry, store: store}
}

// Plan materializes the profile, applies the filters and returns the
// ordered selection together with the loaded platform name.
func (r *Runner) Plan(profileName string, filters Filters) (*Plan, error) {
	registry, err := r.resolver.ResolveProfile(profileName)
	if err != nil {
		return nil, err
	}

	selection := registry
	if len(filters.Names) > 0 {
		selection = indexByName(testreg.FilterByNames(selection, filters.Names))
	}
	if len(filters.Suites) > 0 {
		selection = indexByName(testreg.FilterBySuites(selection, filters.Suites))
	}
	if filters.Category != "" {
		selection = indexByName(testreg.FilterByCategory(selection, filters.Category))
	}
	if filters.Priority != "" {
		selection = indexByName(testreg.FilterByPriority(selection, filters.Priority))
	}

	platformName, err := r.loader.PlatformName()
	if err != nil {
		return nil, err
	}
	return &Plan{
		Profile:  profileName,
		Platform: platformName,
		Tests:    testreg.All(selection),
	}, nil
}

// Run executes the plan. Tests whose platform set excludes the loaded
// platform are recorded as skipped without running. Adapter cleanup always
// happens, even when a test panics the run into an early error return.
func (r *Runner) Run(ctx context.Context, plan *Plan, tests map[string]Func) (*Summary, error) {
	defer func() {
		if r.registry == nil {
			return
		}
		if err := r.registry.CleanupAll(); err != nil {
			glog.Errorf("adapter cleanup after run: %v", err)
		}
	}()

	summary := &Summary{}
	var runID string
	if r.store != nil {
		sessionID := ""
		if r.registry != nil {
			sessionID = r.registry.SessionID()
		}
		run, err := r.store.BeginRun(sessionID, plan.Platform, plan.Profile)
		if err != nil {
			return nil, err
		}
		runID = run.ID
		summary.RunID = runID
	}

	for _, md := range plan.Tests {
		select {
		case <-ctx.Done():
			r.finish(runID, results.RunStatusAborted)
			return summary, ctx.Err()
		default:
		}

		if !testreg.CompatibleWith(md, plan.Platform) {
			summary.Skipped++
			r.record(runID, md, results.OutcomeSkipped, fmt.Sprintf("platform %s not in %v", plan.Platform, md.Platforms.ToSlice()), 0)
			glog.Infof("SKIP %s (platform %s)", md.Name, plan.Platform)
			continue
		}

		fn, ok := tests[md.Name]
		if !ok {
			summary.Skipped++
			r.record(runID, md, results.OutcomeSkipped, "no test function registered", 0)
			glog.Warningf("SKIP %s: no test function registered", md.Name)
			continue
		}

		start := time.Now()
		err := fn(ctx, r.registry)
		elapsed := time.Since(start)
		if err != nil {
			summary.Failed++
			r.record(runID, md, results.OutcomeFailed, err.Error(), elapsed)
			glog.Errorf("FAIL %s: %v", md.Name, err)
			continue
		}
		summary.Passed++
		r.record(runID, md, results.OutcomePassed, "", elapsed)
		glog.Infof("PASS %s (%s)", md.Name, elapsed)
	}

	status := results.RunStatusCompleted
	r.finish(runID, status)
	return summary, nil
}

func (r *Runner) record(runID string, md testreg.TestMetadata, outcome, message string, elapsed time.Duration) {
	if r.store == nil || runID == "" {
		return
	}
	result := &results.TestResult{
		TestName:   md.Name,
		Suite:      md.Suite,
		Category:   md.Category,
		Priority:   md.Priority,
		Severity:   testreg.Severity(md.Priority),
		Outcome:    outcome,
		Message:    message,
		DurationMS: elapsed.Milliseconds(),
		Tags:       results.JSONStringSlice(sortedTags(md)),
	}
	if err := r.store.RecordResult(runID, result); err != nil {
		glog.Errorf("recording result for %s: %v", md.Name, err)
	}
}

func (r *Runner) finish(runID, status string) {
	if r.store == nil || runID == "" {
		return
	}
	if err := r.store.FinishRun(runID, status); err != nil {
		glog.Errorf("finishing run %s: %v", runID, err)
	}
}

func sortedTags(md testreg.TestMetadata) []string {
	tags := testreg.Tags(md).ToSlice()
	sort.Strings(tags)
	return tags
}

func indexByName(tests []testreg.TestMetadata) map[string]testreg.TestMetadata {
	out := make(map[string]testreg.TestMetadata, len(tests))
	for _, md := range tests {
		out[md.Name] = md
	}
	return out
}
