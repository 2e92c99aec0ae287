package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "inferbench",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Target flags
	flags.String("url", DefaultURL, "Base URL of the inference server")
	flags.String("api-key", "", "API key sent to the inference server (or set "+EnvAPIKey+")")
	flags.String("tokenizer-name", "", "Tokenizer repository used to shape prompts (e.g. meta-llama/Llama-3.1-8B-Instruct)")
	flags.String("model-name", "", "Model name sent in requests (defaults to the tokenizer name)")

	// Profile flags
	flags.String("profile", "", "Named benchmark profile: 'fixed-length', 'chat', or 'code-generation'")
	flags.Bool("list-profiles", false, "List available benchmark profiles and exit")

	// Load control flags
	flags.Int("max-vus", DefaultMaxVUs, "Maximum number of concurrent virtual users")
	flags.DurationP("duration", "d", DefaultDuration, "Duration of each benchmark step (e.g. 120s, 2m)")
	flags.Float64Slice("rates", nil, "Request rates to benchmark in req/s (repeatable or comma separated)")
	flags.Int("num-rates", DefaultNumRates, "Number of rates to probe when sweeping and no rates are given")
	flags.String("benchmark-kind", string(BenchmarkKindSweep), "Benchmark kind: 'sweep', 'throughput', or 'rate'")
	flags.Duration("warmup", DefaultWarmup, "Warmup duration before measurement")
	flags.Bool("interactive", false, "Run with an interactive terminal UI")

	// Token shape flags
	flags.String("prompt-options", "", "Prompt token shape, e.g. num_tokens=200,min_tokens=180,max_tokens=220,variance=10")
	flags.String("decode-options", "", "Decode token shape, e.g. num_tokens=200,min_tokens=180,max_tokens=220,variance=10")

	// Dataset flags
	flags.String("dataset", DefaultDataset, "Hugging Face dataset repository holding the prompts")
	flags.String("dataset-file", DefaultDatasetFile, "File within the dataset repository")
	flags.String("hf-token", "", "Hugging Face token for gated datasets (or set "+EnvHFToken+")")

	// Run metadata and output flags
	flags.String("extra-meta", "", "Extra run metadata as key1=value1,key2=value2 or a JSON object")
	flags.String("run-id", "", "Run identifier (generated when empty)")
	flags.StringP("output", "o", string(OutputFormatText), "Output format: 'text', 'json', or 'yaml'")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *RunConfiguration, fs *pflag.FlagSet) error {
	stringFlags := []struct {
		name string
		dst  *string
	}{
		{"url", &cfg.URL},
		{"api-key", &cfg.APIKey},
		{"tokenizer-name", &cfg.TokenizerName},
		{"model-name", &cfg.ModelName},
		{"profile", &cfg.Profile},
		{"dataset", &cfg.Dataset},
		{"dataset-file", &cfg.DatasetFile},
		{"hf-token", &cfg.HFToken},
		{"run-id", &cfg.RunID},
	}
	for _, f := range stringFlags {
		if !fs.Changed(f.name) {
			continue
		}
		val, err := fs.GetString(f.name)
		if err != nil {
			return err
		}
		*f.dst = strings.TrimSpace(val)
	}

	if fs.Changed("list-profiles") {
		val, err := fs.GetBool("list-profiles")
		if err != nil {
			return err
		}
		cfg.ListProfiles = val
	}
	if fs.Changed("max-vus") {
		val, err := fs.GetInt("max-vus")
		if err != nil {
			return err
		}
		cfg.MaxVUs = val
	}
	if fs.Changed("duration") {
		val, err := fs.GetDuration("duration")
		if err != nil {
			return err
		}
		cfg.Duration = val
	}
	if fs.Changed("rates") {
		val, err := fs.GetFloat64Slice("rates")
		if err != nil {
			return err
		}
		if len(val) == 0 {
			val = nil
		}
		cfg.Rates = val
	}
	if fs.Changed("num-rates") {
		val, err := fs.GetInt("num-rates")
		if err != nil {
			return err
		}
		cfg.NumRates = val
	}
	if fs.Changed("benchmark-kind") {
		val, err := fs.GetString("benchmark-kind")
		if err != nil {
			return err
		}
		cfg.BenchmarkKind = BenchmarkKind(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("warmup") {
		val, err := fs.GetDuration("warmup")
		if err != nil {
			return err
		}
		cfg.WarmupDuration = val
	}
	if fs.Changed("interactive") {
		val, err := fs.GetBool("interactive")
		if err != nil {
			return err
		}
		cfg.Interactive = val
	}
	if fs.Changed("prompt-options") {
		val, err := fs.GetString("prompt-options")
		if err != nil {
			return err
		}
		opts, err := ParseTokenizeOptions(val)
		if err != nil {
			return fmt.Errorf("prompt-options: %w", err)
		}
		cfg.PromptOptions = opts
	}
	if fs.Changed("decode-options") {
		val, err := fs.GetString("decode-options")
		if err != nil {
			return err
		}
		opts, err := ParseTokenizeOptions(val)
		if err != nil {
			return fmt.Errorf("decode-options: %w", err)
		}
		cfg.DecodeOptions = opts
	}
	if fs.Changed("extra-meta") {
		val, err := fs.GetString("extra-meta")
		if err != nil {
			return err
		}
		meta, err := ParseExtraMetadata(val)
		if err != nil {
			return fmt.Errorf("extra-meta: %w", err)
		}
		cfg.ExtraMetadata = meta
	}
	if fs.Changed("output") {
		val, err := fs.GetString("output")
		if err != nil {
			return err
		}
		cfg.OutputFormat = OutputFormat(strings.ToLower(strings.TrimSpace(val)))
	}

	return nil
}
