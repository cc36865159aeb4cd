// Package config loads the seadragon.toml compiler configuration.
//
//	seadragon = ">= 0.1"
//	backend = "limn2k"
//
//	[limn2k]
//	registers = 26
//	output-slots = [9, 10]
package config

import (
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/pelletier/go-toml"
	"tlog.app/go/errors"

	"github.com/limnarch-extra/seadragon/compiler/back/limn2k"
)

type Config struct {
	// Seadragon is a semver constraint the compiler version must satisfy.
	Seadragon string `toml:"seadragon"`

	Backend string `toml:"backend"`

	Limn2k limn2k.Config `toml:"limn2k"`
}

const (
	BackendLimn2k = "limn2k"
	BackendLLVM   = "llvm"
)

// FileName is looked up in the working directory when no config is given.
const FileName = "seadragon.toml"

// Version of the compiler.
var Version = "0.1.0"

func Default() *Config {
	return &Config{
		Backend: BackendLimn2k,
		Limn2k:  limn2k.DefaultConfig(),
	}
}

func Load(name string) (*Config, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "%v", name)
	}

	return c, nil
}

// Parse decodes and validates a config. Missing settings get defaults.
func Parse(data []byte) (*Config, error) {
	var c Config

	err := toml.Unmarshal(data, &c)
	if err != nil {
		return nil, errors.Wrap(err, "decode toml")
	}

	c.fill()

	err = c.Validate()
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (c *Config) fill() {
	def := Default()

	if c.Backend == "" {
		c.Backend = def.Backend
	}

	if c.Limn2k.Registers == 0 {
		c.Limn2k.Registers = def.Limn2k.Registers
	}

	if c.Limn2k.OutputSlots == nil {
		c.Limn2k.OutputSlots = def.Limn2k.OutputSlots
	}
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendLimn2k, BackendLLVM:
	default:
		return errors.New("unknown backend: %q", c.Backend)
	}

	err := c.Limn2k.Validate()
	if err != nil {
		return errors.Wrap(err, "limn2k")
	}

	if c.Seadragon == "" {
		return nil
	}

	cons, err := semver.NewConstraint(c.Seadragon)
	if err != nil {
		return errors.Wrap(err, "seadragon version constraint")
	}

	v, err := semver.NewVersion(Version)
	if err != nil {
		return errors.Wrap(err, "compiler version")
	}

	if !cons.Check(v) {
		return errors.New("config requires seadragon %v, this is %v", c.Seadragon, Version)
	}

	return nil
}
