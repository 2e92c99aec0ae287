package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/torosent/inferbench/internal/config"
	"github.com/torosent/inferbench/internal/profile"
)

const redacted = "<redacted>"

// TokenShape is the serialized form of config.TokenizeOptions.
type TokenShape struct {
	NumTokens *int `json:"num_tokens" yaml:"num_tokens"`
	MinTokens int  `json:"min_tokens" yaml:"min_tokens"`
	MaxTokens int  `json:"max_tokens" yaml:"max_tokens"`
	Variance  int  `json:"variance" yaml:"variance"`
}

// Rates is an explicit rate list. A nil list means the engine picks rates
// itself and encodes as null in both JSON and YAML.
type Rates []float64

// MarshalYAML keeps a nil list distinct from an empty one.
func (r Rates) MarshalYAML() (interface{}, error) {
	if r == nil {
		return nil, nil
	}
	return []float64(r), nil
}

// Document is the serialized form of a resolved run configuration handed to
// the benchmark engine. Secrets are redacted and durations are rendered as
// Go duration strings.
type Document struct {
	RunID          string            `json:"run_id" yaml:"run_id"`
	Profile        string            `json:"profile,omitempty" yaml:"profile,omitempty"`
	URL            string            `json:"url" yaml:"url"`
	APIKey         string            `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	TokenizerName  string            `json:"tokenizer_name" yaml:"tokenizer_name"`
	ModelName      string            `json:"model_name" yaml:"model_name"`
	MaxVUs         int               `json:"max_vus" yaml:"max_vus"`
	Duration       string            `json:"duration" yaml:"duration"`
	Rates          Rates             `json:"rates" yaml:"rates"`
	NumRates       int               `json:"num_rates" yaml:"num_rates"`
	BenchmarkKind  string            `json:"benchmark_kind" yaml:"benchmark_kind"`
	WarmupDuration string            `json:"warmup" yaml:"warmup"`
	Interactive    bool              `json:"interactive" yaml:"interactive"`
	PromptOptions  *TokenShape       `json:"prompt_options" yaml:"prompt_options"`
	DecodeOptions  *TokenShape       `json:"decode_options" yaml:"decode_options"`
	Dataset        string            `json:"dataset" yaml:"dataset"`
	DatasetFile    string            `json:"dataset_file" yaml:"dataset_file"`
	HFToken        string            `json:"hf_token,omitempty" yaml:"hf_token,omitempty"`
	ExtraMetadata  map[string]string `json:"extra_meta,omitempty" yaml:"extra_meta,omitempty"`
}

// NewDocument converts cfg into its serialized form.
func NewDocument(cfg config.RunConfiguration) Document {
	return Document{
		RunID:          cfg.RunID,
		Profile:        cfg.Profile,
		URL:            cfg.URL,
		APIKey:         redact(cfg.APIKey),
		TokenizerName:  cfg.TokenizerName,
		ModelName:      cfg.ModelName,
		MaxVUs:         cfg.MaxVUs,
		Duration:       cfg.Duration.String(),
		Rates:          Rates(cfg.Rates),
		NumRates:       cfg.NumRates,
		BenchmarkKind:  string(cfg.BenchmarkKind),
		WarmupDuration: cfg.WarmupDuration.String(),
		Interactive:    cfg.Interactive,
		PromptOptions:  newTokenShape(cfg.PromptOptions),
		DecodeOptions:  newTokenShape(cfg.DecodeOptions),
		Dataset:        cfg.Dataset,
		DatasetFile:    cfg.DatasetFile,
		HFToken:        redact(cfg.HFToken),
		ExtraMetadata:  cfg.ExtraMetadata,
	}
}

func newTokenShape(opts *config.TokenizeOptions) *TokenShape {
	if opts == nil {
		return nil
	}
	opts = opts.Clone()
	return &TokenShape{
		NumTokens: opts.NumTokens,
		MinTokens: opts.MinTokens,
		MaxTokens: opts.MaxTokens,
		Variance:  opts.Variance,
	}
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return redacted
}

// Print writes cfg in the requested format. An empty format means text.
func Print(w io.Writer, format config.OutputFormat, cfg config.RunConfiguration) error {
	switch format {
	case config.OutputFormatJSON:
		return PrintJSONConfiguration(w, cfg)
	case config.OutputFormatYAML:
		return PrintYAMLConfiguration(w, cfg)
	case config.OutputFormatText, "":
		PrintConfiguration(w, cfg)
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// PrintConfiguration outputs a human-readable summary of the run configuration.
func PrintConfiguration(w io.Writer, cfg config.RunConfiguration) {
	doc := NewDocument(cfg)
	fmt.Fprintln(w, "--- Run Configuration ---")
	fmt.Fprintf(w, "Run ID:            %s\n", doc.RunID)
	if doc.Profile != "" {
		fmt.Fprintf(w, "Profile:           %s\n", doc.Profile)
	}
	fmt.Fprintf(w, "Target:            %s\n", doc.URL)
	if doc.APIKey != "" {
		fmt.Fprintf(w, "API Key:           %s\n", doc.APIKey)
	}
	fmt.Fprintf(w, "Tokenizer:         %s\n", doc.TokenizerName)
	fmt.Fprintf(w, "Model:             %s\n", doc.ModelName)

	fmt.Fprintln(w, "\nLoad:")
	fmt.Fprintf(w, "  Benchmark Kind:  %s\n", doc.BenchmarkKind)
	fmt.Fprintf(w, "  Max VUs:         %d\n", doc.MaxVUs)
	fmt.Fprintf(w, "  Duration:        %s\n", doc.Duration)
	fmt.Fprintf(w, "  Warmup:          %s\n", doc.WarmupDuration)
	if len(doc.Rates) == 0 {
		fmt.Fprintf(w, "  Rates:           auto (%d steps)\n", doc.NumRates)
	} else {
		rates := make([]string, len(doc.Rates))
		for i, r := range doc.Rates {
			rates[i] = fmt.Sprintf("%g", r)
		}
		fmt.Fprintf(w, "  Rates:           %s req/s\n", strings.Join(rates, ", "))
	}

	fmt.Fprintln(w, "\nTokens:")
	if cfg.PromptOptions == nil {
		fmt.Fprintln(w, "  Prompt:          from dataset")
	} else {
		fmt.Fprintf(w, "  Prompt:          %s\n", cfg.PromptOptions)
	}
	if cfg.DecodeOptions == nil {
		fmt.Fprintln(w, "  Decode:          unconstrained")
	} else {
		fmt.Fprintf(w, "  Decode:          %s\n", cfg.DecodeOptions)
	}

	fmt.Fprintln(w, "\nDataset:")
	fmt.Fprintf(w, "  Repository:      %s\n", doc.Dataset)
	fmt.Fprintf(w, "  File:            %s\n", doc.DatasetFile)

	if len(doc.ExtraMetadata) > 0 {
		fmt.Fprintln(w, "\nMetadata:")
		keys := make([]string, 0, len(doc.ExtraMetadata))
		for key := range doc.ExtraMetadata {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(w, "  %s: %s\n", key, doc.ExtraMetadata[key])
		}
	}
}

// PrintJSONConfiguration outputs the run configuration as indented JSON.
func PrintJSONConfiguration(w io.Writer, cfg config.RunConfiguration) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(cfg))
}

// PrintYAMLConfiguration outputs the run configuration as YAML.
func PrintYAMLConfiguration(w io.Writer, cfg config.RunConfiguration) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(cfg)); err != nil {
		return err
	}
	return enc.Close()
}

// PrintProfiles lists the known benchmark profiles.
func PrintProfiles(w io.Writer) {
	fmt.Fprintln(w, "Available profiles:")
	for _, name := range profile.Names() {
		p, _ := profile.Lookup(name)
		fmt.Fprintf(w, "  %-16s %s\n", p.Name, p.Description)
		fmt.Fprintf(w, "  %-16s kind=%s vus=%d duration=%s dataset_file=%s\n", "", p.BenchmarkKind, p.MaxVUs, p.Duration, p.DatasetFile)
	}
}
