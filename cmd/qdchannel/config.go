package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	qdchannel "github.com/signetlabdei/qd-channel"
	"github.com/signetlabdei/qd-channel/antenna"
	"github.com/signetlabdei/qd-channel/deployment"
)

// ArrayConfig describes the uniform planar array of one end of the link.
type ArrayConfig struct {
	Node        uint32  `yaml:"node"`
	Rows        int     `yaml:"rows" validate:"gt=0"`
	Columns     int     `yaml:"columns" validate:"gt=0"`
	SpacingH    float64 `yaml:"spacing_h" validate:"gte=0"`
	SpacingV    float64 `yaml:"spacing_v" validate:"gte=0"`
	BearingDeg  float64 `yaml:"bearing_deg"`
	DowntiltDeg float64 `yaml:"downtilt_deg"`
	Element     string  `yaml:"element" validate:"omitempty,oneof=isotropic 3gpp"`
}

// Array builds the antenna described by the configuration.
func (a ArrayConfig) Array() *antenna.UniformPlanarArray {
	upa := antenna.NewUPA(a.Rows, a.Columns)
	if a.SpacingH > 0 {
		upa.SpacingH = a.SpacingH
	}
	if a.SpacingV > 0 {
		upa.SpacingV = a.SpacingV
	}
	upa.Bearing = antenna.Radian(a.BearingDeg)
	upa.Downtilt = antenna.Radian(a.DowntiltDeg)
	if a.Element == "3gpp" {
		upa.Element = antenna.NewThreeGPP()
	}
	return upa
}

// Config is the run configuration read from YAML.
// All top-level sections must be listed to satisfy KnownFields(true).
type Config struct {
	Path           string                   `yaml:"path" validate:"required"`
	Scenario       string                   `yaml:"scenario" validate:"required"`
	WithoutPhase   bool                     `yaml:"without_phase"`
	TimeResolution time.Duration            `yaml:"time_resolution" validate:"gt=0"`
	Budget         qdchannel.LinkBudget     `yaml:"budget"`
	Tx             ArrayConfig              `yaml:"tx"`
	Rx             ArrayConfig              `yaml:"rx"`
	Nodes          []map[string]interface{} `yaml:"nodes" validate:"min=2"`
	Output         string                   `yaml:"output" validate:"required"`
	Matlab         string                   `yaml:"matlab"`
}

func defaultConfig() Config {
	return Config{
		TimeResolution: 5 * time.Millisecond,
		Budget:         qdchannel.LinkBudget{TxPowerDbm: 20, BandwidthHz: 18e6, NoiseFigureDb: 9},
		Tx:             ArrayConfig{Node: 0, Rows: 2, Columns: 2},
		Rx:             ArrayConfig{Node: 1, Rows: 2, Columns: 2},
		Output:         "snr-trace.txt",
	}
}

// readConfig parses the YAML file over the defaults with strict field
// checking, so typos are reported instead of ignored.
func readConfig(fname string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(fname)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", fname, err)
	}
	return cfg, nil
}

// applyFlags lets command line flags override the file.
func (c *Config) applyFlags(path, scenario string, withoutPhase bool) {
	if path != "" {
		c.Path = path
	}
	if scenario != "" {
		c.Scenario = scenario
	}
	if withoutPhase {
		c.WithoutPhase = true
	}
}

func (c Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Tx.Node == c.Rx.Node {
		return fmt.Errorf("invalid config: tx and rx are both node %d", c.Tx.Node)
	}
	return nil
}

func (c Config) nodeTable() (*deployment.Table, error) {
	return deployment.DecodeNodes(c.Nodes)
}
