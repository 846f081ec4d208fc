// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig.  If
// no file has been set, it returns the default config.
func LoadGlobal() (*Config, error) {
	if configFile == "" {
		return NewDefault(), nil
	}
	return Load(configFile)
}

// Worklist orders accepted by the worklist option.
var WorklistOrders = []string{"lifo", "fifo", "smallest"}

// Color modes accepted by the color option.
var ColorModes = []string{"auto", "always", "never"}

// Config is the configuration of one run of the tool.  If some field is not
// defined in the config file, it keeps the value given by NewDefault.
type Config struct {
	Options Options `yaml:"options" toml:"options"`

	sourceFile string
}

type Options struct {
	// LogLevel controls the verbosity of the tool (1 = errors only,
	// 5 = trace every solver step)
	LogLevel int `yaml:"log-level" toml:"log-level"`

	// Worklist is the order in which the solver processes changed nodes:
	// lifo, fifo or smallest.  The results do not depend on it.
	Worklist string `yaml:"worklist" toml:"worklist"`

	// Format names the output format (see engine.AllFormatNames)
	Format string `yaml:"format" toml:"format"`

	// Constants makes integer constants abstract values, so that they
	// propagate alongside closures
	Constants bool `yaml:"constants" toml:"constants"`

	// ShowConstraints includes the generated constraints in the output
	ShowConstraints bool `yaml:"show-constraints" toml:"show-constraints"`

	// ShowStats includes solver and flow graph statistics in the output
	ShowStats bool `yaml:"show-stats" toml:"show-stats"`

	// Color controls colored output: auto, always or never
	Color string `yaml:"color" toml:"color"`

	// Verify checks the solution against every constraint after solving
	Verify bool `yaml:"verify" toml:"verify"`
}

// NewDefault returns the default config.
func NewDefault() *Config {
	return &Config{
		sourceFile: "",
		Options: Options{
			LogLevel:        int(WarnLevel),
			Worklist:        "lifo",
			Format:          "text",
			Constants:       true,
			ShowConstraints: false,
			ShowStats:       false,
			Color:           "auto",
			Verify:          false,
		},
	}
}

// Load reads a configuration from a file.  The file is decoded as YAML and,
// if that fails, as TOML.
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	cfg.sourceFile = filename
	return cfg, nil
}

// Parse decodes a configuration from YAML or TOML text.
func Parse(b []byte) (*Config, error) {
	cfg := NewDefault()
	if errYaml := yaml.Unmarshal(b, cfg); errYaml != nil {
		cfg = NewDefault()
		if _, errToml := toml.Decode(string(b), cfg); errToml != nil {
			return nil, fmt.Errorf("could not unmarshal config file, not as yaml: %w, not as toml: %v",
				errYaml, errToml)
		}
	}

	// If logLevel has not been specified (i.e. it is 0) set the default
	if cfg.Options.LogLevel == 0 {
		cfg.Options.LogLevel = int(WarnLevel)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns an error if an option has a value outside its range.
func (c *Config) Validate() error {
	o := &c.Options
	o.Worklist = strings.ToLower(o.Worklist)
	o.Color = strings.ToLower(o.Color)
	if o.LogLevel < int(ErrLevel) || o.LogLevel > int(TraceLevel) {
		return fmt.Errorf("log-level %d is outside the range %d..%d",
			o.LogLevel, ErrLevel, TraceLevel)
	}
	if !slices.Contains(WorklistOrders, o.Worklist) {
		return fmt.Errorf("unknown worklist order %q (expected one of %s)",
			o.Worklist, strings.Join(WorklistOrders, ", "))
	}
	if !slices.Contains(ColorModes, o.Color) {
		return fmt.Errorf("unknown color mode %q (expected one of %s)",
			o.Color, strings.Join(ColorModes, ", "))
	}
	return nil
}

// SourceFile returns the name of the file the config was loaded from, or
// the empty string for a default config.
func (c Config) SourceFile() string {
	return c.sourceFile
}

// Verbose returns true if the log level is at least Debug.
func (c Config) Verbose() bool {
	return c.Options.LogLevel >= int(DebugLevel)
}
