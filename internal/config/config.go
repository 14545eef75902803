// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config holds iterq-sum settings loaded from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatText    = "txt"
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// Config is the iterq-sum configuration. Flags override file values.
type Config struct {
	Workers  int  `yaml:"workers"`
	Capacity int  `yaml:"capacity"` // 0 = unbounded
	Progress bool `yaml:"progress"`
	Debug    bool `yaml:"debug"`

	Scan struct {
		Filter     string `yaml:"filter"`
		Exclude    bool   `yaml:"exclude"`
		IgnoreCase bool   `yaml:"ignore_case"`
		Base       string `yaml:"base"`
	} `yaml:"scan"`

	Output struct {
		Format string `yaml:"format"`
		File   string `yaml:"file"` // empty = stdout
	} `yaml:"output"`
}

// Default returns the built-in configuration.
func Default() Config {
	var c Config
	c.Workers = runtime.NumCPU()
	c.Capacity = 1024
	c.Scan.Filter = "*"
	c.Output.Format = FormatText
	return c
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return c, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, c.Validate()
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be >= 1, got %d", c.Workers)
	}
	if c.Capacity < 0 {
		return fmt.Errorf("config: capacity must be >= 0, got %d", c.Capacity)
	}
	switch c.Output.Format {
	case FormatText, FormatJSON, FormatMsgpack:
	default:
		return fmt.Errorf("config: unknown output format %q", c.Output.Format)
	}
	if _, err := filepath.Match(c.Scan.Filter, ""); err != nil {
		return fmt.Errorf("config: filter %q: %w", c.Scan.Filter, err)
	}
	return nil
}
