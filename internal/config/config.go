package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

type BenchmarkKind string

const (
	BenchmarkKindSweep      BenchmarkKind = "sweep"
	BenchmarkKindThroughput BenchmarkKind = "throughput"
	BenchmarkKindRate       BenchmarkKind = "rate"
)

type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

// TokenizeOptions constrains the token length of generated prompts or completions.
// A nil NumTokens means no fixed target; the bounds still apply.
type TokenizeOptions struct {
	NumTokens *int `mapstructure:"num_tokens"`
	MinTokens int  `mapstructure:"min_tokens"`
	MaxTokens int  `mapstructure:"max_tokens"`
	Variance  int  `mapstructure:"variance"`
}

// Clone returns a deep copy of o. It is safe to call on a nil receiver.
func (o *TokenizeOptions) Clone() *TokenizeOptions {
	if o == nil {
		return nil
	}
	out := *o
	if o.NumTokens != nil {
		n := *o.NumTokens
		out.NumTokens = &n
	}
	return &out
}

// Validate reports bound violations prefixed with label.
func (o *TokenizeOptions) Validate(label string) []string {
	if o == nil {
		return nil
	}
	var issues []string
	if o.MinTokens < 0 || o.MaxTokens < 0 {
		issues = append(issues, fmt.Sprintf("%s: min_tokens and max_tokens must be >= 0", label))
	}
	if o.MinTokens > o.MaxTokens {
		issues = append(issues, fmt.Sprintf("%s: min_tokens (%d) must be <= max_tokens (%d)", label, o.MinTokens, o.MaxTokens))
	}
	if o.Variance < 0 {
		issues = append(issues, fmt.Sprintf("%s: variance must be >= 0", label))
	}
	if o.NumTokens != nil && (*o.NumTokens < o.MinTokens || *o.NumTokens > o.MaxTokens) {
		issues = append(issues, fmt.Sprintf("%s: num_tokens (%d) must be within [%d, %d]", label, *o.NumTokens, o.MinTokens, o.MaxTokens))
	}
	return issues
}

func (o *TokenizeOptions) String() string {
	if o == nil {
		return "none"
	}
	num := "auto"
	if o.NumTokens != nil {
		num = fmt.Sprintf("%d", *o.NumTokens)
	}
	return fmt.Sprintf("num_tokens=%s,min_tokens=%d,max_tokens=%d,variance=%d", num, o.MinTokens, o.MaxTokens, o.Variance)
}

// RunConfiguration describes a single inference benchmark run.
type RunConfiguration struct {
	URL            string            `mapstructure:"url"`
	APIKey         string            `mapstructure:"api_key"`
	TokenizerName  string            `mapstructure:"tokenizer_name"`
	ModelName      string            `mapstructure:"model_name"`
	Profile        string            `mapstructure:"profile"`
	MaxVUs         int               `mapstructure:"max_vus"`
	Duration       time.Duration     `mapstructure:"duration"`
	Rates          []float64         `mapstructure:"rates"`
	NumRates       int               `mapstructure:"num_rates"`
	BenchmarkKind  BenchmarkKind     `mapstructure:"benchmark_kind"`
	WarmupDuration time.Duration     `mapstructure:"warmup"`
	Interactive    bool              `mapstructure:"interactive"`
	PromptOptions  *TokenizeOptions  `mapstructure:"prompt_options"`
	DecodeOptions  *TokenizeOptions  `mapstructure:"decode_options"`
	Dataset        string            `mapstructure:"dataset"`
	DatasetFile    string            `mapstructure:"dataset_file"`
	HFToken        string            `mapstructure:"hf_token"`
	ExtraMetadata  map[string]string `mapstructure:"extra_meta"`
	RunID          string            `mapstructure:"run_id"`
	OutputFormat   OutputFormat      `mapstructure:"output"`
	ListProfiles   bool              `mapstructure:"-"`
	ConfigFile     string            `mapstructure:"-"`
}

// Clone returns a copy of c that shares no slices, maps or pointers with it.
func (c RunConfiguration) Clone() RunConfiguration {
	out := c
	if c.Rates != nil {
		out.Rates = append([]float64(nil), c.Rates...)
	}
	if c.ExtraMetadata != nil {
		out.ExtraMetadata = make(map[string]string, len(c.ExtraMetadata))
		for k, v := range c.ExtraMetadata {
			out.ExtraMetadata[k] = v
		}
	}
	out.PromptOptions = c.PromptOptions.Clone()
	out.DecodeOptions = c.DecodeOptions.Clone()
	return out
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c RunConfiguration) Validate() error {
	var issues []string

	if strings.TrimSpace(c.URL) == "" {
		issues = append(issues, "url is required")
	}
	if strings.TrimSpace(c.TokenizerName) == "" {
		issues = append(issues, "tokenizer_name is required (use --help for usage information)")
	}

	if c.MaxVUs > 500 {
		warnf("WARNING: High virtual user count configured (%d VUs). Ensure the inference server can sustain this load.", c.MaxVUs)
	}

	if c.MaxVUs < 1 {
		issues = append(issues, "max_vus must be >= 1")
	}
	if c.Duration <= 0 {
		issues = append(issues, "duration must be > 0")
	}
	if c.WarmupDuration < 0 {
		issues = append(issues, "warmup must be >= 0")
	}
	if c.NumRates < 0 {
		issues = append(issues, "num_rates must be >= 0")
	}

	issues = append(issues, validateBenchmarkKind(c.BenchmarkKind, c.Rates, c.NumRates)...)

	for idx, rate := range c.Rates {
		if rate <= 0 {
			issues = append(issues, fmt.Sprintf("rates[%d]: must be > 0", idx))
		}
	}

	if strings.TrimSpace(c.Dataset) == "" {
		issues = append(issues, "dataset is required")
	}
	if strings.TrimSpace(c.DatasetFile) == "" {
		issues = append(issues, "dataset_file is required")
	}

	issues = append(issues, c.PromptOptions.Validate("prompt_options")...)
	issues = append(issues, c.DecodeOptions.Validate("decode_options")...)

	switch c.OutputFormat {
	case "", OutputFormatText, OutputFormatJSON, OutputFormatYAML:
	default:
		issues = append(issues, fmt.Sprintf("output: must be 'text', 'json', or 'yaml', got %q", c.OutputFormat))
	}

	if c.APIKey != "" && strings.HasPrefix(strings.ToLower(strings.TrimSpace(c.URL)), "http://") &&
		!isLocalURL(c.URL) {
		warnf("WARNING: API key will be sent over plain HTTP to %s. Prefer https for remote endpoints.", c.URL)
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateBenchmarkKind(kind BenchmarkKind, rates []float64, numRates int) []string {
	switch kind {
	case BenchmarkKindSweep:
		if len(rates) == 0 && numRates < 1 {
			return []string{"num_rates must be >= 1 for sweep when rates are not set"}
		}
	case BenchmarkKindThroughput:
	case BenchmarkKindRate:
		if len(rates) == 0 {
			return []string{"rates are required for benchmark_kind 'rate'"}
		}
	case "":
		return []string{"benchmark_kind is required"}
	default:
		return []string{fmt.Sprintf("benchmark_kind: must be 'sweep', 'throughput', or 'rate', got %q", kind)}
	}
	return nil
}

// isLocalURL reports whether raw targets the local machine by host name.
func isLocalURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Hostname()) {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

var warnColor = color.New(color.FgYellow)

// warnf prints a warning line to stderr, colored when stderr is a terminal.
func warnf(format string, args ...interface{}) {
	warnColor.Fprintf(os.Stderr, format+"\n", args...)
}
