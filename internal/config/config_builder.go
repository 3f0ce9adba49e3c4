package config

import (
	"errors"
	"fmt"

	"dario.cat/mergo"
)

const (
	layerEnv      = "env"
	layerFlags    = "flags"
	layerJSON     = "json"
	layerDefaults = "defaults"
)

// layer is one configuration source. Layers are merged in the order they
// were added and a field set by an earlier layer is never overwritten.
type layer struct {
	name string
	cfg  *StructuredConfig
}

// configBuilder collects layers and parse errors. Every with* step records
// its failure and lets the chain continue, so build reports all of them at
// once.
type configBuilder struct {
	layers []layer
	args   []string
	err    error
}

func newConfigBuilder() *configBuilder {
	return &configBuilder{layers: make([]layer, 0, 4)}
}

func (b *configBuilder) add(name string, cfg *StructuredConfig) {
	b.layers = append(b.layers, layer{name: name, cfg: cfg})
}

func (b *configBuilder) fail(name string, err error) {
	b.err = errors.Join(b.err, fmt.Errorf("%s: %w", name, err))
}

func (b *configBuilder) build() (*StructuredConfig, error) {
	if b.err != nil {
		return nil, fmt.Errorf("error occured during building config: %w", b.err)
	}

	merged := new(StructuredConfig)
	for _, l := range b.layers {
		if err := mergo.Merge(merged, l.cfg); err != nil {
			return nil, fmt.Errorf("error merging %s config: %w", l.name, err)
		}
	}
	return merged, nil
}

func (b *configBuilder) withEnv() *configBuilder {
	cfg := &StructuredConfig{}
	if err := parseEnv(cfg); err != nil {
		b.fail(layerEnv, err)
		return b
	}
	b.add(layerEnv, cfg)
	return b
}

// withFlags also keeps the positional arguments, which carry the client's
// command.
func (b *configBuilder) withFlags(args []string) *configBuilder {
	cfg, rest, err := ParseFlags(args)
	if err != nil {
		b.fail(layerFlags, err)
		return b
	}
	b.args = rest
	b.add(layerFlags, cfg)
	return b
}

// withJSON loads the file named by the last layer that set JSONFilePath.
func (b *configBuilder) withJSON() *configBuilder {
	path := b.jsonPath()
	if path == "" {
		return b
	}

	cfg, err := parseJSON(path)
	if err != nil {
		b.fail(layerJSON, err)
		return b
	}
	b.add(layerJSON, cfg)
	return b
}

func (b *configBuilder) jsonPath() string {
	var path string
	for _, l := range b.layers {
		if l.cfg.JSONFilePath != "" {
			path = l.cfg.JSONFilePath
		}
	}
	return path
}

func (b *configBuilder) withDefaults() *configBuilder {
	b.add(layerDefaults, defaultConfig())
	return b
}
