package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/torosent/inferbench/internal/config"
	"github.com/torosent/inferbench/internal/output"
	"github.com/torosent/inferbench/internal/profile"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}

	if cfg.ListProfiles {
		output.PrintProfiles(stdout)
		return nil
	}

	resolved, err := resolve(*cfg)
	if err != nil {
		return err
	}
	if err := resolved.Validate(); err != nil {
		return err
	}

	return output.Print(stdout, resolved.OutputFormat, resolved)
}

// resolve applies the configured profile, if any. Profile values take
// precedence over file and flag values for the fields the profile owns.
func resolve(cfg config.RunConfiguration) (config.RunConfiguration, error) {
	if cfg.Profile == "" {
		return cfg, nil
	}
	return profile.Apply(cfg.Profile, cfg)
}
