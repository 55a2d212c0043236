package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sokinpui/itfcore/internal/edit"
)

// DefaultFile is the config file looked up in the working directory when no
// path is given.
const DefaultFile = "itfcore.yaml"

// Environment overrides.
const (
	EnvNvimAddress = "NVIM_LISTEN_ADDRESS"
	EnvLogPath     = "ITFCORE_LOG"
)

type Config struct {
	Nvim struct {
		// Address of a running Neovim (socket path or host:port).
		Address string `yaml:"address"`
		// StartHeadless spawns an embedded nvim when Address is empty.
		StartHeadless bool `yaml:"start_headless"`
	} `yaml:"nvim"`

	Workspace struct {
		AllowOutsideCwd bool `yaml:"allow_outside_cwd"`
	} `yaml:"workspace"`

	Preview PreviewConfig `yaml:"preview"`

	Log struct {
		Path        string `yaml:"path"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`

	Journal struct {
		Enabled bool `yaml:"enabled"`
		// Dir overrides the journal directory. Empty means <root>/.itf.
		Dir string `yaml:"dir"`
	} `yaml:"journal"`
}

// PreviewConfig bounds the diff preview shown after an edit.
type PreviewConfig struct {
	ContextLines  int `yaml:"context_lines"`
	MaxLines      int `yaml:"max_lines"`
	MaxLineLength int `yaml:"max_line_length"`
}

// Options converts the config into edit preview options.
func (p PreviewConfig) Options() edit.PreviewOptions {
	return edit.PreviewOptions{
		ContextLines:  p.ContextLines,
		MaxLines:      p.MaxLines,
		MaxLineLength: p.MaxLineLength,
	}
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	def := edit.DefaultPreviewOptions()
	cfg.Preview = PreviewConfig{
		ContextLines:  def.ContextLines,
		MaxLines:      def.MaxLines,
		MaxLineLength: def.MaxLineLength,
	}
	cfg.Journal.Enabled = true
	return cfg
}

// Load reads the YAML file at path on top of the defaults and applies
// environment overrides. A missing file is not an error. An empty path
// means DefaultFile.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if addr := os.Getenv(EnvNvimAddress); addr != "" {
		cfg.Nvim.Address = addr
	}
	if p := os.Getenv(EnvLogPath); p != "" {
		cfg.Log.Path = p
	}

	// Non-positive bounds fall back to the defaults.
	def := edit.DefaultPreviewOptions()
	if cfg.Preview.ContextLines < 0 {
		cfg.Preview.ContextLines = def.ContextLines
	}
	if cfg.Preview.MaxLines <= 0 {
		cfg.Preview.MaxLines = def.MaxLines
	}
	if cfg.Preview.MaxLineLength <= 0 {
		cfg.Preview.MaxLineLength = def.MaxLineLength
	}

	if cfg.Journal.Dir != "" {
		abs, err := filepath.Abs(cfg.Journal.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve journal dir: %w", err)
		}
		cfg.Journal.Dir = abs
	}
	return cfg, nil
}
