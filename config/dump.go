package config

import (
	"bytes"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Default returns the configuration with no file and no environment
func Default() Config {
	l := &Loader{log: zerolog.Nop()}
	l.v = newViper()
	c, err := l.decode()
	if err != nil {
		panic(fmt.Sprintf("config: defaults do not decode: %v", err))
	}
	return c
}

// DefaultYAML renders Default as a starter config file
func DefaultYAML() ([]byte, error) {
	return Marshal(Default())
}

// Marshal renders c as YAML
func Marshal(c Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
