// Package config loads interpreter settings from project and user config
// files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/thomasrohde/scheval/pkg/evaluator"
)

const (
	// ProjectFile is looked up in the working directory.
	ProjectFile = ".schevalrc.json"
	// DefaultPrompt is the REPL prompt when none is configured.
	DefaultPrompt = "REPL> "
)

// Config holds resolved settings.
type Config struct {
	Prompt      string   `json:"prompt"`
	HistoryFile string   `json:"historyFile"`
	MaxDepth    int64    `json:"maxDepth"`
	Preload     []string `json:"preload"`
	// Source is the file the settings came from, empty for defaults.
	Source string `json:"source,omitempty"`
}

// File represents the JSON structure of a config file. Absent fields keep
// their defaults.
type File struct {
	Prompt      *string  `json:"prompt,omitempty"`
	HistoryFile *string  `json:"historyFile,omitempty"`
	MaxDepth    *int64   `json:"maxDepth,omitempty"`
	Preload     []string `json:"preload,omitempty"`
}

// Default returns the built-in settings.
func Default() *Config {
	history := ""
	if home, err := os.UserHomeDir(); err == nil {
		history = filepath.Join(home, ".scheval_history")
	}
	return &Config{
		Prompt:      DefaultPrompt,
		HistoryFile: history,
		MaxDepth:    evaluator.DefaultMaxDepth,
	}
}

// Load resolves settings with precedence project (.schevalrc.json) → user
// (~/.scheval/config.json) → defaults. A missing file falls through to the
// next source; a malformed one is an error.
func Load(projectDir string) (*Config, error) {
	candidates := []string{filepath.Join(projectDir, ProjectFile)}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".scheval", "config.json"))
	}

	for _, path := range candidates {
		f, err := loadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Default(), err
		}
		return build(f, path), nil
	}
	return Default(), nil
}

func loadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

func build(f *File, path string) *Config {
	cfg := Default()
	cfg.Source = path
	if f.Prompt != nil {
		cfg.Prompt = *f.Prompt
	}
	if f.HistoryFile != nil {
		cfg.HistoryFile = expandHome(*f.HistoryFile)
	}
	if f.MaxDepth != nil {
		cfg.MaxDepth = *f.MaxDepth
	}
	// Preload paths are relative to the config file.
	base := filepath.Dir(path)
	for _, p := range f.Preload {
		p = expandHome(p)
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		cfg.Preload = append(cfg.Preload, p)
	}
	return cfg
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
