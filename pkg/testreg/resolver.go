package testreg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/golang/glog"
	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"
)

var (
	// ErrProfileNotFound is returned when the named execution profile does
	// not exist in the registry's execution directory.
	ErrProfileNotFound = errors.New("execution profile not found")

	// ErrDuplicateTestName is returned when two suite files declare the
	// same test name. The legacy silent-overwrite behavior hid catalog
	// bugs, so duplicates are rejected outright.
	ErrDuplicateTestName = errors.New("duplicate test name")
)

// PlatformAll is the platform sentinel meaning "runs everywhere".
const PlatformAll = "all"

// Resolver derives effective test metadata from a split registry
// directory. It holds no cached state: each resolution re-reads the source
// files, which keeps whole-suite profile inclusions live.
type Resolver struct {
	registryDir  string
	suitesDir    string
	executionDir string
	globalsFile  string
}

// NewResolver builds a resolver over the given registry directory, which
// is expected to contain suites/, execution/ and optionally _globals.yaml.
func NewResolver(registryDir string) *Resolver {
	return &Resolver{
		registryDir:  registryDir,
		suitesDir:    filepath.Join(registryDir, "suites"),
		executionDir: filepath.Join(registryDir, "execution"),
		globalsFile:  filepath.Join(registryDir, "_globals.yaml"),
	}
}

// LoadBase reads every suite file and returns the base registry: test name
// to effective metadata with the three-tier fill-down applied. A test name
// declared by more than one suite is an error.
func (r *Resolver) LoadBase() (map[string]TestMetadata, error) {
	globals, err := r.loadGlobals()
	if err != nil {
		return nil, err
	}

	base := map[string]TestMetadata{}
	for _, path := range listYAML(r.suitesDir) {
		suiteName := stem(path)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading suite %s: %w", suiteName, err)
		}
		var suite SuiteFile
		if err := yaml.Unmarshal(data, &suite); err != nil {
			return nil, fmt.Errorf("parsing suite %s: %w", suiteName, err)
		}
		glog.V(2).Infof("loading suite %q (%d tests)", suiteName, len(suite.Tests))
		for _, decl := range suite.Tests {
			if decl.Name == "" {
				return nil, fmt.Errorf("suite %s declares a test without a name", suiteName)
			}
			if prev, ok := base[decl.Name]; ok {
				return nil, fmt.Errorf("%w: %q declared by suites %q and %q",
					ErrDuplicateTestName, decl.Name, prev.Suite, suiteName)
			}
			base[decl.Name] = resolveDecl(decl, suiteName, suite.SuiteInfo, globals.Defaults)
		}
	}
	return base, nil
}

// resolveDecl applies the fill-down: the declaration's own fields win,
// then the suite's default_platforms, then the global defaults.
func resolveDecl(decl TestDecl, suiteName string, info SuiteInfo, defaults GlobalDefaults) TestMetadata {
	md := TestMetadata{
		Name:        decl.Name,
		Suite:       suiteName,
		Category:    decl.Category,
		Priority:    decl.Priority,
		Description: decl.Description,
	}
	if md.Category == "" {
		md.Category = defaults.Category
	}
	if md.Priority == "" {
		md.Priority = defaults.Priority
	}

	platforms := decl.Platforms
	if len(platforms) == 0 {
		platforms = info.DefaultPlatforms
	}
	if len(platforms) == 0 {
		platforms = defaults.Platforms
	}
	if len(platforms) == 0 {
		platforms = []string{PlatformAll}
	}
	md.Platforms = mapset.NewSet(platforms...)

	switch {
	case decl.RequiresHardware != nil:
		md.RequiresHardware = *decl.RequiresHardware
	case defaults.RequiresHardware != nil:
		md.RequiresHardware = *defaults.RequiresHardware
	}

	switch {
	case decl.MaxDuration != nil:
		md.MaxDuration = *decl.MaxDuration
	case defaults.MaxDuration != nil:
		md.MaxDuration = *defaults.MaxDuration
	}
	return md
}

// ResolveProfile materializes an execution profile against the current
// base registry. The empty profile name yields the base registry itself.
// Include entries are processed in declaration order and later entries
// overwrite earlier ones for the same test name.
func (r *Resolver) ResolveProfile(name string) (map[string]TestMetadata, error) {
	base, err := r.LoadBase()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return base, nil
	}

	profiles, err := r.loadProfiles()
	if err != nil {
		return nil, err
	}
	profile, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)",
			ErrProfileNotFound, name, strings.Join(sortedKeys(profiles), ", "))
	}

	resolved := map[string]TestMetadata{}
	for _, entry := range profile.Include {
		if entry.Suite == "" {
			glog.Warningf("profile %q: include entry without a suite, skipping", name)
			continue
		}
		for testName, md := range base {
			if md.Suite != entry.Suite {
				continue
			}
			if entry.Tests != nil && !contains(entry.Tests, testName) {
				continue
			}
			resolved[testName] = applyOverrides(md, entry.Overrides)
		}
	}
	return resolved, nil
}

// applyOverrides gives profile overrides unconditional precedence over the
// already-resolved metadata, one field at a time.
func applyOverrides(md TestMetadata, ov *Overrides) TestMetadata {
	out := md.clone()
	if ov == nil {
		return out
	}
	if ov.Category != nil {
		out.Category = *ov.Category
	}
	if ov.Priority != nil {
		out.Priority = *ov.Priority
	}
	if len(ov.Platforms) > 0 {
		out.Platforms = mapset.NewSet(ov.Platforms...)
	}
	if ov.RequiresHardware != nil {
		out.RequiresHardware = *ov.RequiresHardware
	}
	if ov.MaxDuration != nil {
		out.MaxDuration = *ov.MaxDuration
	}
	if ov.Timeout != nil {
		out.MaxDuration = *ov.Timeout
	}
	return out
}

// Metadata returns the effective metadata for one test, with the profile
// applied when given.
func (r *Resolver) Metadata(testName, profileName string) (TestMetadata, error) {
	registry, err := r.ResolveProfile(profileName)
	if err != nil {
		return TestMetadata{}, err
	}
	md, ok := registry[testName]
	if !ok {
		return TestMetadata{}, fmt.Errorf("test %q not found", testName)
	}
	return md, nil
}

// Suites returns the sorted list of suites declaring at least one test.
func (r *Resolver) Suites() ([]string, error) {
	base, err := r.LoadBase()
	if err != nil {
		return nil, err
	}
	set := mapset.NewSet[string]()
	for _, md := range base {
		set.Add(md.Suite)
	}
	out := set.ToSlice()
	sort.Strings(out)
	return out, nil
}

// Profiles returns the sorted list of available execution profile names.
func (r *Resolver) Profiles() ([]string, error) {
	profiles, err := r.loadProfiles()
	if err != nil {
		return nil, err
	}
	return sortedKeys(profiles), nil
}

// ProfileInfo returns the declaration of one execution profile without
// materializing it.
func (r *Resolver) ProfileInfo(name string) (Profile, error) {
	profiles, err := r.loadProfiles()
	if err != nil {
		return Profile{}, err
	}
	profile, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q (available: %s)",
			ErrProfileNotFound, name, strings.Join(sortedKeys(profiles), ", "))
	}
	return profile, nil
}

func (r *Resolver) loadGlobals() (Globals, error) {
	var globals Globals
	data, err := os.ReadFile(r.globalsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return globals, nil
		}
		return globals, fmt.Errorf("reading globals: %w", err)
	}
	if err := yaml.Unmarshal(data, &globals); err != nil {
		return globals, fmt.Errorf("parsing globals: %w", err)
	}
	return globals, nil
}

func (r *Resolver) loadProfiles() (map[string]Profile, error) {
	profiles := map[string]Profile{}
	for _, path := range listYAML(r.executionDir) {
		name := stem(path)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading profile %s: %w", name, err)
		}
		var pf profileFile
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return nil, fmt.Errorf("parsing profile %s: %w", name, err)
		}
		profile := Profile{
			Name:        pf.ExecutionProfile.Name,
			Description: pf.ExecutionProfile.Description,
			Timeout:     pf.ExecutionProfile.Timeout,
			Include:     pf.Include,
		}
		if profile.Name == "" {
			profile.Name = name
		}
		profiles[name] = profile
	}
	return profiles, nil
}

// CompatibleWith reports whether the test applies to the given platform.
func CompatibleWith(md TestMetadata, platform string) bool {
	return md.Platforms.Contains(PlatformAll) || md.Platforms.Contains(platform)
}

// listYAML returns the sorted .yaml/.yml paths directly under dir. A
// missing directory is treated as empty.
func listYAML(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func sortedKeys[V any](m map[string]V) []string {
	out := maps.Keys(m)
	sort.Strings(out)
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
