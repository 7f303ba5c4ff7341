// Package testreg resolves test metadata from a split registry directory:
// suite definitions under suites/, execution profiles under execution/, and
// shared defaults in _globals.yaml. Resolution is pure given the same
// source files, so every call re-reads from disk and profiles act as live
// views over the suites.
package testreg

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// TestMetadata is the effective classification of one test after the
// three-tier fill-down (test declaration, then suite defaults, then global
// defaults) and any profile overrides.
//
// Name is globally unique across all loaded suites. Platforms is never
// empty; a test with no platform constraint carries the "all" sentinel.
type TestMetadata struct {
	Name             string
	Suite            string
	Category         string
	Priority         string
	Description      string
	Platforms        mapset.Set[string]
	RequiresHardware bool
	MaxDuration      string
}

func (md TestMetadata) clone() TestMetadata {
	out := md
	out.Platforms = md.Platforms.Clone()
	return out
}

// SuiteInfo is the suite_info block of a suite file.
type SuiteInfo struct {
	Description      string   `yaml:"description"`
	DefaultPlatforms []string `yaml:"default_platforms"`
}

// TestDecl is one entry of a suite file's tests list. Optional fields are
// pointers so an absent field is distinguishable from a zero value during
// fill-down.
type TestDecl struct {
	Name             string   `yaml:"name"`
	Category         string   `yaml:"category"`
	Priority         string   `yaml:"priority"`
	Description      string   `yaml:"description"`
	Platforms        []string `yaml:"platforms"`
	RequiresHardware *bool    `yaml:"requirements_hardware"`
	MaxDuration      *string  `yaml:"max_duration"`
}

// SuiteFile is the schema of one suites/<name>.yaml file. The suite name
// is the file stem.
type SuiteFile struct {
	SuiteInfo SuiteInfo  `yaml:"suite_info"`
	Tests     []TestDecl `yaml:"tests"`
}

// Overrides is the per-inclusion override block of an execution profile.
// Only the fields present in the YAML are applied; nil fields leave the
// resolved value untouched. Timeout is a legacy alias for MaxDuration and
// wins when both are given.
type Overrides struct {
	Category         *string  `yaml:"category"`
	Priority         *string  `yaml:"priority"`
	Platforms        []string `yaml:"platforms"`
	RequiresHardware *bool    `yaml:"requirements_hardware"`
	MaxDuration      *string  `yaml:"max_duration"`
	Timeout          *string  `yaml:"timeout"`
}

// IncludeEntry selects tests from one suite. A nil Tests list means the
// whole suite, resolved live at materialization time rather than frozen
// when the profile was written.
type IncludeEntry struct {
	Suite     string     `yaml:"suite"`
	Tests     []string   `yaml:"tests"`
	Overrides *Overrides `yaml:"overrides"`
}

// Profile is a named, reusable test selection loaded from
// execution/<name>.yaml.
type Profile struct {
	Name        string
	Description string
	Timeout     int
	Include     []IncludeEntry
}

type profileFile struct {
	ExecutionProfile struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Timeout     int    `yaml:"timeout"`
	} `yaml:"execution_profile"`
	Include []IncludeEntry `yaml:"include"`
}

// GlobalDefaults fills fields a test declaration leaves unset.
type GlobalDefaults struct {
	Platforms        []string `yaml:"platforms"`
	Category         string   `yaml:"category"`
	Priority         string   `yaml:"priority"`
	RequiresHardware *bool    `yaml:"requirements_hardware"`
	MaxDuration      *string  `yaml:"max_duration"`
}

// Globals is the schema of _globals.yaml.
type Globals struct {
	Categories map[string]any `yaml:"categories"`
	Priorities map[string]any `yaml:"priorities"`
	Defaults   GlobalDefaults `yaml:"defaults"`
}
