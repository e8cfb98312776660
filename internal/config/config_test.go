package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alienxp03/parley/internal/core"
)

func TestLoadFromMissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Defaults.MaxRounds != 50 || cfg.Server.Port != 8182 {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFromExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(GenerateExample()), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	p, err := cfg.GetProfile("city_driver")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if len(p.Ranking) != core.NumCriteria || p.Ranking[0] != core.Noise {
		t.Errorf("unexpected ranking: %v", p.Ranking)
	}
	if len(cfg.AllProfiles()) != 6 {
		t.Errorf("expected 5 builtins plus 1 custom, got %d", len(cfg.AllProfiles()))
	}
}

func TestLoadFromRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"ZeroRounds", "defaults:\n  max_rounds: 0\n", "max_rounds"},
		{"UnknownProfile", "defaults:\n  profile_a: gambler\n", "gambler"},
		{"ShortRanking", "profiles:\n  - id: lazy\n    ranking: [NOISE]\n", "lazy"},
		{"UnknownCriterion", "profiles:\n  - id: odd\n    ranking: [SPEED]\n", "criterion"},
		{"ShadowsBuiltin", "profiles:\n  - id: economist\n", "builtin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatalf("write: %v", err)
			}
			_, err := LoadFrom(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Defaults.ProfileA = "engineer"

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Defaults.ProfileA != "engineer" {
		t.Errorf("expected engineer, got %s", loaded.Defaults.ProfileA)
	}
}

func TestLogLevel(t *testing.T) {
	cfg := Default()
	if cfg.LogLevel() != slog.LevelInfo {
		t.Errorf("default level should be info")
	}
	cfg.Log.Level = "DEBUG"
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level")
	}
}
