package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/thomasrohde/scheval/pkg/config"
	"github.com/thomasrohde/scheval/pkg/evaluator"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Prompt != config.DefaultPrompt {
		t.Errorf("prompt = %q", cfg.Prompt)
	}
	if cfg.MaxDepth != evaluator.DefaultMaxDepth {
		t.Errorf("max depth = %d", cfg.MaxDepth)
	}
	if cfg.Source != "" {
		t.Errorf("source = %q, want empty", cfg.Source)
	}
}

func TestLoadProjectFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ProjectFile), `{
		"prompt": "scm> ",
		"maxDepth": 500,
		"preload": ["lib/prelude.scm"]
	}`)

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Prompt != "scm> " || cfg.MaxDepth != 500 {
		t.Errorf("cfg = %+v", cfg)
	}
	want := filepath.Join(dir, "lib", "prelude.scm")
	if len(cfg.Preload) != 1 || cfg.Preload[0] != want {
		t.Errorf("preload = %v, want [%s]", cfg.Preload, want)
	}
}

func TestLoadUserFileFallback(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeFile(t, filepath.Join(home, ".scheval", "config.json"), `{"historyFile": "~/hist"}`)

	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HistoryFile != filepath.Join(home, "hist") {
		t.Errorf("history = %q", cfg.HistoryFile)
	}
	if cfg.Prompt != config.DefaultPrompt {
		t.Errorf("unset prompt should keep default, got %q", cfg.Prompt)
	}
}

func TestProjectOverridesUser(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeFile(t, filepath.Join(home, ".scheval", "config.json"), `{"prompt": "user> "}`)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ProjectFile), `{"prompt": "project> "}`)

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Prompt != "project> " {
		t.Errorf("prompt = %q", cfg.Prompt)
	}
}

func TestMalformedFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ProjectFile), `{"prompt": `)

	cfg, err := config.Load(dir)
	if err == nil {
		t.Fatal("expected error for malformed config")
	}
	if cfg == nil || cfg.Prompt != config.DefaultPrompt {
		t.Error("malformed config should still return defaults")
	}
}
