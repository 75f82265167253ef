package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"streetview-pano-service/internal/domain"

	"gopkg.in/yaml.v3"
)

// Get returns the environment value for key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// GetInt is Get for integer values; unparsable values fall back.
func GetInt(key string, fallback int) int {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Tuning of the panorama search. Radii are in meters.
type Finder struct {
	InitialRadius float64 `yaml:"initial_radius"`
	RadiusStep    float64 `yaml:"radius_step"`
	MaxRadius     float64 `yaml:"max_radius"`
	Source        string  `yaml:"source"`
	Preference    string  `yaml:"preference"`
}

// DefaultFinder searches 10m, 35m, 60m and 85m and gives up at 100m.
func DefaultFinder() Finder {
	return Finder{
		InitialRadius: 10,
		RadiusStep:    25,
		MaxRadius:     100,
		Source:        string(domain.SourceOutdoor),
		Preference:    string(domain.PreferenceNearest),
	}
}

func (f Finder) Validate() error {
	if f.InitialRadius <= 0 {
		return errors.New("initial_radius must be positive")
	}
	if f.RadiusStep <= 0 {
		return errors.New("radius_step must be positive")
	}
	if f.MaxRadius <= f.InitialRadius {
		return fmt.Errorf("max_radius (%v) must exceed initial_radius (%v)", f.MaxRadius, f.InitialRadius)
	}
	return nil
}

// LoadFinder reads finder tuning from a YAML file. Fields absent from the
// file keep their defaults. An empty path returns the defaults.
func LoadFinder(path string) (Finder, error) {
	cfg := DefaultFinder()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Finder{}, fmt.Errorf("finder config file not found: %s", path)
		}
		return Finder{}, fmt.Errorf("reading finder config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Finder{}, fmt.Errorf("parsing finder config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Finder{}, fmt.Errorf("finder config %s: %w", path, err)
	}

	return cfg, nil
}
