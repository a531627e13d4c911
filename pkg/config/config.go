// Package config loads nudger settings from defaults, an optional YAML file
// and VIEWNUDGE_ environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "VIEWNUDGE_"

// Config holds every nudger setting. Zero values are not defaults; start
// from Default.
type Config struct {
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFile  string `yaml:"log_file" env:"LOG_FILE"` // Empty logs to stderr

	// Step is the pixel offset of one arrow key press in interactive mode.
	Step float64 `yaml:"step" env:"STEP"`

	Viewport ViewportConfig `yaml:"viewport" envPrefix:"VIEWPORT_"`
	Camera   CameraConfig   `yaml:"camera" envPrefix:"CAMERA_"`
	Spring   SpringConfig   `yaml:"spring" envPrefix:"SPRING_"`

	Output string `yaml:"output" env:"OUTPUT"` // Scene file written on exit
}

// ViewportConfig sizes views created for loaded scenes.
type ViewportConfig struct {
	Width  int `yaml:"width" env:"WIDTH"`
	Height int `yaml:"height" env:"HEIGHT"`
}

// CameraConfig is the camera of the demo scene.
type CameraConfig struct {
	FOV  float64 `yaml:"fov" env:"FOV"` // Degrees
	Near float64 `yaml:"near" env:"NEAR"`
	Far  float64 `yaml:"far" env:"FAR"`
}

// SpringConfig eases queued offsets in interactive mode.
type SpringConfig struct {
	FPS       int     `yaml:"fps" env:"FPS"`
	Frequency float64 `yaml:"frequency" env:"FREQUENCY"`
	Damping   float64 `yaml:"damping" env:"DAMPING"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel: "warn",
		Step:     10,
		Viewport: ViewportConfig{Width: 1920, Height: 1080},
		Camera:   CameraConfig{FOV: 60, Near: 0.1, Far: 1000},
		Spring:   SpringConfig{FPS: 60, Frequency: 6, Damping: 1},
	}
}

// Load returns the defaults overlaid with the YAML file at path, if any, and
// then with the environment.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return c, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := c.decodeYAML(f); err != nil {
			return c, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := c.ParseEnv(); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// LoadYAML overlays the defaults with YAML read from r.
func LoadYAML(r io.Reader) (Config, error) {
	c := Default()
	if err := c.decodeYAML(r); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (c *Config) decodeYAML(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

// ParseEnv overrides fields from VIEWNUDGE_ environment variables. Unset
// variables leave fields alone.
func (c *Config) ParseEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the settings for values no component can use.
func (c Config) Validate() error {
	var errs []error
	if c.Step <= 0 || math.IsInf(c.Step, 0) || math.IsNaN(c.Step) {
		errs = append(errs, fmt.Errorf("step must be positive, got %v", c.Step))
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		errs = append(errs, fmt.Errorf("viewport size must be positive, got %dx%d", c.Viewport.Width, c.Viewport.Height))
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		errs = append(errs, fmt.Errorf("camera fov must be in (0, 180) degrees, got %v", c.Camera.FOV))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("camera clip range must satisfy 0 < near < far, got %v..%v", c.Camera.Near, c.Camera.Far))
	}
	if c.Spring.FPS <= 0 {
		errs = append(errs, fmt.Errorf("spring fps must be positive, got %d", c.Spring.FPS))
	}
	if c.Spring.Frequency <= 0 || c.Spring.Damping < 0 {
		errs = append(errs, errors.New("spring frequency must be positive and damping non-negative"))
	}
	return errors.Join(errs...)
}

// FOVRadians returns the camera field of view in radians.
func (c CameraConfig) FOVRadians() float64 {
	return c.FOV * math.Pi / 180
}
