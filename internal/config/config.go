// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package config loads the xdrc.yaml file which describes a generator run
package config

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"go.e43.eu/xdrc/codegen"
)

// DefaultFile is the configuration file looked for when none is named
const DefaultFile = "xdrc.yaml"

// Config holds the settings of a generator run
type Config struct {
	// Package is the name of the generated Go package
	Package string `yaml:"package"`
	// Output is the directory generated files are written to
	Output string `yaml:"output"`
	// Discriminants is "ordinal" or "label"
	Discriminants string `yaml:"discriminants"`
	// Inputs are glob patterns naming the IDL files to compile. They may
	// use ** to match any number of directories
	Inputs []string `yaml:"inputs"`
	// LogLevel is a capnslog level name
	LogLevel string `yaml:"log_level"`
	// Strict warns about generated types the default coder rejects
	Strict bool `yaml:"strict"`
}

// Default returns the settings used when no file is present
func Default() *Config {
	return &Config{
		Package:       "proto",
		Output:        ".",
		Discriminants: codegen.Ordinal.String(),
		LogLevel:      "INFO",
	}
}

// Parse decodes a configuration on top of the defaults. Unknown keys are an
// error
func Parse(data []byte) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	return c, c.Validate()
}

// Load reads the configuration at path. If path is empty, DefaultFile is
// read if it exists and the defaults are used otherwise
func Load(path string) (*Config, error) {
	name := path
	if name == "" {
		name = DefaultFile
	}

	data, err := os.ReadFile(name)
	switch {
	case path == "" && errors.Is(err, os.ErrNotExist):
		return Default(), nil
	case err != nil:
		return nil, err
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return c, nil
}

// Validate checks that the settings are usable
func (c *Config) Validate() error {
	if !token.IsIdentifier(c.Package) {
		return fmt.Errorf("package %q is not a Go identifier", c.Package)
	}
	if _, err := codegen.ParseDiscriminants(c.Discriminants); err != nil {
		return err
	}
	if c.Output == "" {
		return errors.New("output directory is empty")
	}
	return nil
}

// Options returns the generator options the configuration selects
func (c *Config) Options() ([]codegen.Option, error) {
	d, err := codegen.ParseDiscriminants(c.Discriminants)
	if err != nil {
		return nil, err
	}

	opts := []codegen.Option{codegen.WithDiscriminants(d)}
	if c.Strict {
		opts = append(opts, codegen.WithStrictShapes())
	}
	return opts, nil
}

// Marshal encodes the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
