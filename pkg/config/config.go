// Package config holds the runtime configuration of the sunsense tools.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/sunsense/backend"
	"github.com/mklimuk/sunsense/environment"
	"github.com/mklimuk/sunsense/transport"
)

// Version is injected at build time.
var Version = "latest"

const (
	FormatText = "text"
	FormatYAML = "yaml"
)

type Config struct {
	Backend       string        `yaml:"backend"`
	Bus           int           `yaml:"bus"`
	Address       uint8         `yaml:"address"`
	Configuration uint16        `yaml:"configuration"`
	Interval      time.Duration `yaml:"interval"`
	Format        string        `yaml:"format"`
}

func Default() Config {
	return Config{
		Backend:       backend.Default,
		Bus:           transport.DefaultBus,
		Address:       environment.SunSensorAddr,
		Configuration: environment.DefaultSunSensorConfiguration,
		Interval:      time.Second,
		Format:        FormatText,
	}
}

// Load reads a YAML file on top of the defaults. An empty path yields the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("could not open config file: %w", err)
	}
	defer func() { _ = f.Close() }()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	err = dec.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("could not decode config file %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if !slices.Contains(backend.Names(), c.Backend) {
		return fmt.Errorf("invalid backend %q (available: %v)", c.Backend, backend.Names())
	}
	if c.Bus < 0 {
		return fmt.Errorf("invalid bus number %d", c.Bus)
	}
	if c.Address > 0x7F {
		return fmt.Errorf("invalid device address %#02x: not a 7-bit address", c.Address)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("invalid sampling interval %s", c.Interval)
	}
	if c.Format != FormatText && c.Format != FormatYAML {
		return fmt.Errorf("invalid output format %q", c.Format)
	}
	return nil
}
