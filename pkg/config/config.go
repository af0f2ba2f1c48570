// Package config loads build settings from YAML.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nilenso/ai-knowledge-graph/pkg/output"
	"github.com/nilenso/ai-knowledge-graph/pkg/termgraph"
)

// EnvConfigPath names a config file used when no path is passed explicitly.
const EnvConfigPath = "TERMGRAPH_CONFIG"

var ErrInvalidConfig = errors.New("invalid config")

//go:embed default.yaml
var defaultYAML []byte

type Config struct {
	Columns         Columns  `yaml:"columns"`
	SkipCategory    string   `yaml:"skip_category"`
	DefaultCategory string   `yaml:"default_category"`
	Mentions        Mentions `yaml:"mentions"`
	StripHTML       bool     `yaml:"strip_html"`
	Input           Input    `yaml:"input"`
	Output          Output   `yaml:"output"`
	Log             Log      `yaml:"log"`
}

type Columns struct {
	Term        string `yaml:"term"`
	Definition  string `yaml:"definition"`
	Explanation string `yaml:"explanation"`
	Category    string `yaml:"category"`
}

type Mentions struct {
	Enabled   bool `yaml:"enabled"`
	MinLength int  `yaml:"min_length"`
}

type Input struct {
	MaxBytes int64         `yaml:"max_bytes"`
	Timeout  time.Duration `yaml:"timeout"`
}

type Output struct {
	Format string `yaml:"format"`
	Indent int    `yaml:"indent"`
}

type Log struct {
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	var c Config
	if err := decode(defaultYAML, &c); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return c
}

// Load returns the defaults overlaid with the file at path. An empty path
// falls back to $TERMGRAPH_CONFIG, and then to the defaults alone.
func Load(path string) (Config, error) {
	c := Default()
	if strings.TrimSpace(path) == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := decode(data, &c); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// decode overlays data onto c. Unknown keys are rejected so typos surface.
func decode(data []byte, c *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c Config) Validate() error {
	cols := []struct{ key, value string }{
		{"columns.term", c.Columns.Term},
		{"columns.definition", c.Columns.Definition},
		{"columns.explanation", c.Columns.Explanation},
		{"columns.category", c.Columns.Category},
	}
	for _, col := range cols {
		if strings.TrimSpace(col.value) == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidConfig, col.key)
		}
	}
	if c.Mentions.MinLength < 1 {
		return fmt.Errorf("%w: mentions.min_length must be positive", ErrInvalidConfig)
	}
	if c.Input.MaxBytes <= 0 {
		return fmt.Errorf("%w: input.max_bytes must be positive", ErrInvalidConfig)
	}
	if c.Input.Timeout <= 0 {
		return fmt.Errorf("%w: input.timeout must be positive", ErrInvalidConfig)
	}
	if _, err := output.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Output.Indent < 0 {
		return fmt.Errorf("%w: output.indent must not be negative", ErrInvalidConfig)
	}
	return nil
}

// BuildOptions maps the settings onto graph construction options.
func (c Config) BuildOptions() termgraph.Options {
	return termgraph.Options{
		Columns: termgraph.Columns{
			Term:        c.Columns.Term,
			Definition:  c.Columns.Definition,
			Explanation: c.Columns.Explanation,
			Category:    c.Columns.Category,
		},
		SkipCategory:    c.SkipCategory,
		DefaultCategory: c.DefaultCategory,
	}
}
