package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/torosent/inferbench/internal/config"
	"github.com/torosent/inferbench/internal/profile"
)

func TestRunAppliesProfile(t *testing.T) {
	var buf bytes.Buffer
	err := run([]string{
		"--tokenizer-name", "meta-llama/Llama-3.1-8B-Instruct",
		"--profile", "code-generation",
		"--max-vus", "4",
		"--rates", "1,2",
		"--url", "http://localhost:9000",
		"--run-id", "run-1",
		"--output", "json",
	}, &buf)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	body := buf.Bytes()
	checks := map[string]string{
		"benchmark_kind":            "throughput",
		"max_vus":                   "128",
		"dataset_file":              "github_code.json",
		"prompt_options.num_tokens": "4096",
		"decode_options.num_tokens": "50",
		"url":                       "http://localhost:9000",
		"run_id":                    "run-1",
		"profile":                   "code-generation",
		"model_name":                "meta-llama/Llama-3.1-8B-Instruct",
	}
	for path, want := range checks {
		if got := gjson.GetBytes(body, path).String(); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
	if rates := gjson.GetBytes(body, "rates"); rates.Type != gjson.Null {
		t.Errorf("rates = %s, want null", rates.Raw)
	}
}

func TestRunWithoutProfileKeepsFlags(t *testing.T) {
	var buf bytes.Buffer
	err := run([]string{
		"--tokenizer-name", "gpt2",
		"--benchmark-kind", "rate",
		"--rates", "5",
		"--rates", "10",
		"--prompt-options", "num_tokens=100,min_tokens=90,max_tokens=110,variance=5",
		"-o", "yaml",
	}, &buf)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"benchmark_kind: rate", "- 5", "- 10", "num_tokens: 100", "dataset_file: share_gpt_filtered_small.json"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunUnknownProfile(t *testing.T) {
	var buf bytes.Buffer
	err := run([]string{"--tokenizer-name", "gpt2", "--profile", "unknown-x"}, &buf)
	if err == nil {
		t.Fatal("run() error = nil, want error")
	}
	if !errors.Is(err, profile.ErrUnknownProfile) {
		t.Errorf("errors.Is(err, ErrUnknownProfile) = false for %v", err)
	}
	if !strings.Contains(err.Error(), "unknown-x") {
		t.Errorf("error %q does not mention unknown-x", err)
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected output on failure: %s", buf.String())
	}
}

func TestRunValidationError(t *testing.T) {
	var buf bytes.Buffer
	err := run([]string{"--profile", "chat"}, &buf)
	if err == nil {
		t.Fatal("run() error = nil, want validation error")
	}
	var verr config.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error %T is not ValidationError", err)
	}
	if !strings.Contains(err.Error(), "tokenizer_name") {
		t.Errorf("error %q does not mention tokenizer_name", err)
	}
}

func TestRunListProfiles(t *testing.T) {
	var buf bytes.Buffer
	if err := run([]string{"--list-profiles"}, &buf); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	for _, name := range profile.Names() {
		if !strings.Contains(buf.String(), name) {
			t.Errorf("output missing %q", name)
		}
	}
}

func TestRunHelp(t *testing.T) {
	var buf bytes.Buffer
	if err := run([]string{"--help"}, &buf); err != nil {
		t.Fatalf("run(--help) error = %v", err)
	}
}

func TestRunConfigFileProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bench.yaml")
	if err := os.WriteFile(path, []byte(`
tokenizer_name: Qwen/Qwen2.5-7B-Instruct
profile: chat
extra_meta:
  gpu: h100
output: json
`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv(config.EnvHFToken, "hf_env")

	var buf bytes.Buffer
	if err := run([]string{"--config", path}, &buf); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	body := buf.Bytes()
	if got := gjson.GetBytes(body, "dataset_file").String(); got != "share_gpt_turns.json" {
		t.Errorf("dataset_file = %q, want share_gpt_turns.json", got)
	}
	if got := gjson.GetBytes(body, "prompt_options"); got.Type != gjson.Null {
		t.Errorf("prompt_options = %s, want null", got.Raw)
	}
	if got := gjson.GetBytes(body, "extra_meta.gpu").String(); got != "h100" {
		t.Errorf("extra_meta.gpu = %q, want h100", got)
	}
	if got := gjson.GetBytes(body, "hf_token").String(); got != "<redacted>" {
		t.Errorf("hf_token = %q, want <redacted>", got)
	}
}

func TestResolveWithoutProfile(t *testing.T) {
	base := config.Defaults()
	base.MaxVUs = 3
	got, err := resolve(base)
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if got.MaxVUs != 3 {
		t.Errorf("MaxVUs = %d, want 3", got.MaxVUs)
	}
}
