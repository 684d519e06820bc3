// Package config loads engine configuration from a YAML file using the same
// outer/inner unmarshal shape the teacher's reinforcement package uses:
// viper reads an untyped outer document, which is re-marshalled and
// unmarshalled into a concrete inner struct. This indirection lets the YAML
// file name its config "kind" without config.go needing to know every kind
// up front.
//
// Grounded on tabular/reinforcement/learning.go's OuterConfig/TrainingConfig/FromYaml.
package config

import (
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// OuterConfig is the untyped envelope every config file is wrapped in.
type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// Config holds the engine's tunable parameters: board size, which scorer and
// engine implementation to use, model file wiring, and the optional
// diagnostics server address. Mirrors the flags named in SPEC_FULL.md's
// Flags section. The yaml tags are lower-case because viper lower-cases every
// key it reads, so a file may spell them in any case (boardSize, boardsize).
type Config struct {
	BoardSize         int    `yaml:"boardsize"`
	Komi              float64 `yaml:"komi"`
	SimpleScorer      bool   `yaml:"simplescorer"`
	SimpleEngine      bool   `yaml:"simpleengine"`
	Model             string `yaml:"model"`
	InputLayerName    string `yaml:"inputlayername"`
	OutputLayerPrefix string `yaml:"outputlayerprefix"`
	BatchSize         int    `yaml:"batchsize"`
	MaxQueueDelayMS   int    `yaml:"maxqueuedelayms"`
	NumWorkers        int    `yaml:"numworkers"`
	DiagAddr          string `yaml:"diagaddr"`
}

// Default returns the configuration used when no file is present, matching
// the reference's DEFINE_* flag defaults.
func Default() *Config {
	return &Config{
		BoardSize:         9,
		Komi:              6.5,
		SimpleScorer:      true,
		SimpleEngine:      false,
		InputLayerName:    "go_input_input",
		OutputLayerPrefix: "go_output/0",
		BatchSize:         128,
		MaxQueueDelayMS:   10,
		NumWorkers:        3,
		DiagAddr:          "",
	}
}

// FromYAML loads a Config from a YAML file at path, via the outer/inner
// unmarshal indirection.
func FromYAML(path string) (*Config, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return nil, err
	}

	outer := &OuterConfig{}
	if err := vp.Unmarshal(outer); err != nil {
		return nil, err
	}

	spec, err := yaml.Marshal(outer.Def)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(spec, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
