package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != "https://zs.zevs.me" {
		t.Fatalf("unexpected host %q", cfg.Host)
	}
	if cfg.Output != OutputJSON {
		t.Fatalf("unexpected output %q", cfg.Output)
	}
	if cfg.Timeout != 0 {
		t.Fatalf("expected no timeout, got %v", cfg.Timeout)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("unexpected token ttl %v", cfg.TokenTTL)
	}
	if cfg.TokenStore != "bbolt" || cfg.TokenStorePath == "" {
		t.Fatalf("unexpected token store %q at %q", cfg.TokenStore, cfg.TokenStorePath)
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("ZSHORT_HOST", "http://localhost:8000/")
	t.Setenv("ZSHORT_TOKEN", "tok")
	t.Setenv("ZSHORT_OUTPUT", "YAML")
	t.Setenv("ZSHORT_TIMEOUT_SECONDS", "7")
	t.Setenv("ZSHORT_FETCH_TITLES", "true")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != "http://localhost:8000" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Host)
	}
	if cfg.Token != "tok" {
		t.Fatalf("unexpected token %q", cfg.Token)
	}
	if cfg.Output != OutputYAML {
		t.Fatalf("unexpected output %q", cfg.Output)
	}
	if cfg.Timeout != 7*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.Timeout)
	}
	if !cfg.FetchTitles {
		t.Fatalf("expected fetch_titles from env")
	}
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("ZSHORT_HOST", "http://env.example")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse([]string{"--host", "http://flag.example", "-o", "text"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != "http://flag.example" {
		t.Fatalf("flag should win over env, got %q", cfg.Host)
	}
	if cfg.Output != OutputText {
		t.Fatalf("unexpected output %q", cfg.Output)
	}
}

func TestUnsetFlagsKeepDefaults(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != "https://zs.zevs.me" || cfg.LogLevel != "warn" {
		t.Fatalf("unexpected config %#v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"ZSHORT_HOST":              "zs.zevs.me",
		"ZSHORT_OUTPUT":            "xml",
		"ZSHORT_TIMEOUT_SECONDS":   "-1",
		"ZSHORT_TOKEN_TTL_SECONDS": "0",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := Load(nil); err == nil {
				t.Fatalf("expected error for %s=%s", key, val)
			}
		})
	}
}
