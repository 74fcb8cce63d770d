// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// File is the YAML form of a workchain's parameters.
type File struct {
	Timing      Timing      `yaml:"timing"`
	Counts      Counts      `yaml:"counts"`
	StakeBounds StakeBounds `yaml:"stake_bounds"`
	Current     CurrentSet  `yaml:"current_set"`

	Window   string `yaml:"window"`    // offset | boundary
	ClipBase string `yaml:"clip_base"` // min_stake | min_elected

	SlashActivationDelay uint32 `yaml:"slash_activation_delay"`
	ComplaintPrice       uint64 `yaml:"complaint_price"`
	RefundFee            uint64 `yaml:"refund_fee"`
}

// ToFile converts c into its YAML form. Policies are named by their defaults.
func (c *Config) ToFile() File {
	return File{
		Timing:               c.Timing,
		Counts:               c.Counts,
		StakeBounds:          c.StakeBounds,
		Current:              c.Current,
		Window:               "offset",
		ClipBase:             "min_stake",
		SlashActivationDelay: c.SlashActivationDelay,
		ComplaintPrice:       c.ComplaintPrice,
		RefundFee:            c.RefundFee,
	}
}

// Config builds a validated Config.
func (f File) Config() (*Config, error) {
	cfg := &Config{
		Timing:               f.Timing,
		Counts:               f.Counts,
		StakeBounds:          f.StakeBounds,
		Current:              f.Current,
		SlashActivationDelay: f.SlashActivationDelay,
		ComplaintPrice:       f.ComplaintPrice,
		RefundFee:            f.RefundFee,
	}
	switch f.Window {
	case "", "offset":
		cfg.Window = OffsetWindow
	case "boundary":
		cfg.Window = BoundaryWindow
	default:
		return nil, errors.Errorf("unknown window policy %q", f.Window)
	}
	switch f.ClipBase {
	case "", "min_stake":
		cfg.ClipBase = ClipMinStake
	case "min_elected":
		cfg.ClipBase = ClipMinElected
	default:
		return nil, errors.Errorf("unknown clip base %q", f.ClipBase)
	}
	cfg.SetDefaultPolicies()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseYAML decodes a parameter file.
func ParseYAML(data []byte) (*Config, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "unmarshal params")
	}
	return f.Config()
}
