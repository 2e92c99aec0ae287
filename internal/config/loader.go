package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultURL         = "http://localhost:8000"
	DefaultMaxVUs      = 128
	DefaultDuration    = 120 * time.Second
	DefaultNumRates    = 10
	DefaultWarmup      = 30 * time.Second
	DefaultDataset     = "hlarcher/inference-benchmarker"
	DefaultDatasetFile = "share_gpt_filtered_small.json"
)

// Environment variables consulted when the matching secret is not set explicitly.
const (
	EnvAPIKey  = "INFERBENCH_API_KEY"
	EnvHFToken = "HF_TOKEN"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct {
	newRunID func() string
}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{
		newRunID: func() string { return ulid.Make().String() },
	}
}

// Defaults returns the configuration used before any file or flag is applied.
func Defaults() RunConfiguration {
	return RunConfiguration{
		URL:            DefaultURL,
		MaxVUs:         DefaultMaxVUs,
		Duration:       DefaultDuration,
		NumRates:       DefaultNumRates,
		BenchmarkKind:  BenchmarkKindSweep,
		WarmupDuration: DefaultWarmup,
		Dataset:        DefaultDataset,
		DatasetFile:    DefaultDatasetFile,
		OutputFormat:   OutputFormatText,
	}
}

// Load parses command-line arguments and configuration files to produce a RunConfiguration.
func (l Loader) Load(args []string) (*RunConfiguration, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := Defaults()
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(&cfg, cfgViper.AllSettings()); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(&cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.URL = strings.TrimSpace(cfg.URL)
	cfg.BenchmarkKind = BenchmarkKind(strings.ToLower(strings.TrimSpace(string(cfg.BenchmarkKind))))
	cfg.OutputFormat = OutputFormat(strings.ToLower(strings.TrimSpace(string(cfg.OutputFormat))))

	if cfg.ModelName == "" {
		cfg.ModelName = cfg.TokenizerName
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(EnvAPIKey)
	}
	if cfg.HFToken == "" {
		cfg.HFToken = os.Getenv(EnvHFToken)
	}
	if cfg.RunID == "" && l.newRunID != nil {
		cfg.RunID = l.newRunID()
	}

	return &cfg, nil
}

// applyConfigSettings applies settings from a config file to the RunConfiguration.
func applyConfigSettings(cfg *RunConfiguration, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	stringFields := []struct {
		dst  *string
		name string
		keys []string
	}{
		{&cfg.URL, "url", []string{"url"}},
		{&cfg.APIKey, "api_key", []string{"api_key", "apikey", "api-key"}},
		{&cfg.TokenizerName, "tokenizer_name", []string{"tokenizer_name", "tokenizername", "tokenizer-name"}},
		{&cfg.ModelName, "model_name", []string{"model_name", "modelname", "model-name"}},
		{&cfg.Profile, "profile", []string{"profile"}},
		{&cfg.Dataset, "dataset", []string{"dataset"}},
		{&cfg.DatasetFile, "dataset_file", []string{"dataset_file", "datasetfile", "dataset-file"}},
		{&cfg.HFToken, "hf_token", []string{"hf_token", "hftoken", "hf-token"}},
		{&cfg.RunID, "run_id", []string{"run_id", "runid", "run-id"}},
	}
	for _, field := range stringFields {
		if raw, ok := lookupSetting(settings, field.keys...); ok {
			val, err := asString(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", field.name, err)
			}
			*field.dst = strings.TrimSpace(val)
		}
	}

	if raw, ok := lookupSetting(settings, "max_vus", "maxvus", "max-vus"); ok {
		val, err := asInteger(raw)
		if err != nil {
			return fmt.Errorf("max_vus: %w", err)
		}
		cfg.MaxVUs = val
	}

	if raw, ok := lookupSetting(settings, "duration"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("duration: %w", err)
		}
		cfg.Duration = dur
	}

	if raw, ok := lookupSetting(settings, "rates"); ok {
		rates, err := asRates(raw)
		if err != nil {
			return fmt.Errorf("rates: %w", err)
		}
		cfg.Rates = rates
	}

	if raw, ok := lookupSetting(settings, "num_rates", "numrates", "num-rates"); ok {
		val, err := asInteger(raw)
		if err != nil {
			return fmt.Errorf("num_rates: %w", err)
		}
		cfg.NumRates = val
	}

	if raw, ok := lookupSetting(settings, "benchmark_kind", "benchmarkkind", "benchmark-kind"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("benchmark_kind: %w", err)
		}
		cfg.BenchmarkKind = BenchmarkKind(strings.ToLower(strings.TrimSpace(val)))
	}

	if raw, ok := lookupSetting(settings, "warmup", "warmup_duration", "warmupduration", "warmup-duration"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("warmup: %w", err)
		}
		cfg.WarmupDuration = dur
	}

	if raw, ok := lookupSetting(settings, "interactive"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("interactive: %w", err)
		}
		cfg.Interactive = val
	}

	if raw, ok := lookupSetting(settings, "prompt_options", "promptoptions", "prompt-options"); ok {
		opts, err := tokenizeOptionsFromSetting(raw)
		if err != nil {
			return fmt.Errorf("prompt_options: %w", err)
		}
		cfg.PromptOptions = opts
	}

	if raw, ok := lookupSetting(settings, "decode_options", "decodeoptions", "decode-options"); ok {
		opts, err := tokenizeOptionsFromSetting(raw)
		if err != nil {
			return fmt.Errorf("decode_options: %w", err)
		}
		cfg.DecodeOptions = opts
	}

	if raw, ok := lookupSetting(settings, "extra_meta", "extrameta", "extra-meta", "extra_metadata"); ok {
		meta, err := extraMetadataFromSetting(raw)
		if err != nil {
			return fmt.Errorf("extra_meta: %w", err)
		}
		cfg.ExtraMetadata = meta
	}

	if raw, ok := lookupSetting(settings, "output", "output_format", "outputformat"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("output: %w", err)
		}
		cfg.OutputFormat = OutputFormat(strings.ToLower(strings.TrimSpace(val)))
	}

	return nil
}
