// Package profile resolves named benchmark profiles into run configurations.
//
// A profile is a fixed bundle of overrides. Apply copies the base
// configuration and patches only the fields the profile owns, so values such
// as the target URL, tokenizer or run metadata always come from the caller.
// The package holds no mutable state and is safe for concurrent use.
package profile

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/torosent/inferbench/internal/config"
)

const (
	FixedLength    = "fixed-length"
	Chat           = "chat"
	CodeGeneration = "code-generation"
)

const benchmarkDataset = "hlarcher/inference-benchmarker"

// ErrUnknownProfile is matched by errors.Is for every *UnknownProfileError.
var ErrUnknownProfile = errors.New("unknown profile")

// UnknownProfileError reports a profile name that is not in the known set.
type UnknownProfileError struct {
	Name string
}

func (e *UnknownProfileError) Error() string {
	return fmt.Sprintf("unknown profile: %s (available: %s)", e.Name, strings.Join(Names(), ", "))
}

func (e *UnknownProfileError) Is(target error) bool {
	return target == ErrUnknownProfile
}

// Profile is the set of literal overrides a named profile applies.
type Profile struct {
	Name           string
	Description    string
	MaxVUs         int
	Duration       time.Duration
	NumRates       int
	BenchmarkKind  config.BenchmarkKind
	WarmupDuration time.Duration
	// PromptOptions is nil when prompts are taken from the dataset verbatim.
	PromptOptions *config.TokenizeOptions
	DecodeOptions *config.TokenizeOptions
	Dataset       string
	DatasetFile   string
}

func tokens(num, lo, hi, variance int) *config.TokenizeOptions {
	return &config.TokenizeOptions{
		NumTokens: &num,
		MinTokens: lo,
		MaxTokens: hi,
		Variance:  variance,
	}
}

// profiles must not be mutated; Lookup and Apply hand out copies.
var profiles = map[string]Profile{
	FixedLength: {
		Name:           FixedLength,
		Description:    "Sweep with fixed 200 token prompts and up to 800 decoded tokens",
		MaxVUs:         128,
		Duration:       120 * time.Second,
		NumRates:       10,
		BenchmarkKind:  config.BenchmarkKindSweep,
		WarmupDuration: 30 * time.Second,
		PromptOptions:  tokens(200, 200, 200, 0),
		DecodeOptions:  tokens(800, 50, 800, 100),
		Dataset:        benchmarkDataset,
		DatasetFile:    "share_gpt_0_turns.json",
	},
	Chat: {
		Name:           Chat,
		Description:    "Sweep replaying multi-turn ShareGPT conversations as-is",
		MaxVUs:         128,
		Duration:       120 * time.Second,
		NumRates:       10,
		BenchmarkKind:  config.BenchmarkKindSweep,
		WarmupDuration: 30 * time.Second,
		PromptOptions:  nil,
		DecodeOptions:  tokens(800, 50, 800, 100),
		Dataset:        benchmarkDataset,
		DatasetFile:    "share_gpt_turns.json",
	},
	CodeGeneration: {
		Name:           CodeGeneration,
		Description:    "Throughput run with long code prompts and short completions",
		MaxVUs:         128,
		Duration:       120 * time.Second,
		NumRates:       10,
		BenchmarkKind:  config.BenchmarkKindThroughput,
		WarmupDuration: 30 * time.Second,
		PromptOptions:  tokens(4096, 3000, 6000, 1000),
		DecodeOptions:  tokens(50, 30, 80, 10),
		Dataset:        benchmarkDataset,
		DatasetFile:    "github_code.json",
	},
}

// Names returns the known profile names in sorted order.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a copy of the named profile. Matching is exact and case-sensitive.
func Lookup(name string) (Profile, bool) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, false
	}
	p.PromptOptions = p.PromptOptions.Clone()
	p.DecodeOptions = p.DecodeOptions.Clone()
	return p, true
}

// Apply returns base with the named profile's overrides applied. Fields the
// profile does not own are carried over unchanged, and base itself is never
// modified. Unknown names yield an *UnknownProfileError.
func Apply(name string, base config.RunConfiguration) (config.RunConfiguration, error) {
	p, ok := Lookup(name)
	if !ok {
		return config.RunConfiguration{}, &UnknownProfileError{Name: name}
	}
	return p.apply(base), nil
}

func (p Profile) apply(base config.RunConfiguration) config.RunConfiguration {
	out := base.Clone()
	out.MaxVUs = p.MaxVUs
	out.Duration = p.Duration
	out.Rates = nil
	out.NumRates = p.NumRates
	out.BenchmarkKind = p.BenchmarkKind
	out.WarmupDuration = p.WarmupDuration
	out.PromptOptions = p.PromptOptions.Clone()
	out.DecodeOptions = p.DecodeOptions.Clone()
	out.Dataset = p.Dataset
	out.DatasetFile = p.DatasetFile
	return out
}
