// Package config loads the YAML settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/spatial/internal/core/component"
	"github.com/zeusync/spatial/internal/core/observability/log"
	"github.com/zeusync/spatial/internal/core/systems/collision"
	"github.com/zeusync/spatial/internal/core/systems/drag"
)

type Config struct {
	Logging   Logging   `yaml:"logging"`
	Collision Collision `yaml:"collision"`
	Drag      Drag      `yaml:"drag"`
	Notify    Notify    `yaml:"notify"`
	Inspector Inspector `yaml:"inspector"`
	Window    Window    `yaml:"window"`
	Scene     Scene     `yaml:"scene"`
}

type Logging struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

type Collision struct {
	Workers       int  `yaml:"workers"`
	TrackContacts bool `yaml:"track_contacts"`
}

// Tint is an RGBA multiplier written as a four-element list.
type Tint [4]float32

func (t Tint) Color() component.Color { return component.RGBA(t[0], t[1], t[2], t[3]) }

type Drag struct {
	ShadowZ     float64 `yaml:"shadow_z"`
	ShadowScale float64 `yaml:"shadow_scale"`
	HoverScale  float64 `yaml:"hover_scale"`
	LegalTint   Tint    `yaml:"legal_tint"`
	IllegalTint Tint    `yaml:"illegal_tint"`
	HoverTint   Tint    `yaml:"hover_tint"`
}

type Notify struct {
	RetainFrames int `yaml:"retain_frames"`
}

type Inspector struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type Window struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type Scene struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// Default returns the settings used when no file is given. Files only need
// to name the keys they change.
func Default() Config {
	return Config{
		Logging:   Logging{Level: "info", Encoding: "json"},
		Collision: Collision{Workers: 1, TrackContacts: true},
		Drag: Drag{
			ShadowZ:     5,
			ShadowScale: 1.3,
			HoverScale:  1.1,
			LegalTint:   Tint{1.5, 1.5, 1.5, 0.5},
			IllegalTint: Tint{1.5, 0.4, 0.4, 0.5},
			HoverTint:   Tint{1.2, 1.2, 1.2, 1},
		},
		Notify:    Notify{RetainFrames: 2},
		Inspector: Inspector{Enabled: false, Addr: "127.0.0.1:8089"},
		Window:    Window{Width: 1280, Height: 720, Title: "spatial playground"},
		Scene:     Scene{Path: "scene.yaml"},
	}
}

// Load reads and validates the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result. Unknown keys are
// rejected. An empty document yields the defaults.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if c.Logging.Encoding != "json" && c.Logging.Encoding != "console" {
		errs = append(errs, fmt.Errorf("logging.encoding: want json or console, got %q", c.Logging.Encoding))
	}
	if c.Collision.Workers < 1 {
		errs = append(errs, fmt.Errorf("collision.workers: must be at least 1, got %d", c.Collision.Workers))
	}
	if c.Drag.ShadowScale <= 0 {
		errs = append(errs, fmt.Errorf("drag.shadow_scale: must be positive, got %v", c.Drag.ShadowScale))
	}
	if c.Drag.HoverScale <= 0 {
		errs = append(errs, fmt.Errorf("drag.hover_scale: must be positive, got %v", c.Drag.HoverScale))
	}
	for name, tint := range map[string]Tint{
		"drag.legal_tint":   c.Drag.LegalTint,
		"drag.illegal_tint": c.Drag.IllegalTint,
		"drag.hover_tint":   c.Drag.HoverTint,
	} {
		for _, ch := range tint {
			if ch < 0 {
				errs = append(errs, fmt.Errorf("%s: channels must not be negative", name))
				break
			}
		}
	}
	if c.Notify.RetainFrames < 1 {
		errs = append(errs, fmt.Errorf("notify.retain_frames: must be at least 1, got %d", c.Notify.RetainFrames))
	}
	if c.Inspector.Enabled && c.Inspector.Addr == "" {
		errs = append(errs, errors.New("inspector.addr: required when the inspector is enabled"))
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window: size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Scene.Watch && c.Scene.Path == "" {
		errs = append(errs, errors.New("scene.path: required when watching"))
	}
	return errors.Join(errs...)
}

// LogOptions maps the logging section onto logger options.
func (c Config) LogOptions() log.Options {
	level, _ := log.ParseLevel(c.Logging.Level)
	return log.Options{Level: level, Encoding: c.Logging.Encoding, Sampling: true}
}

func (c Config) DragConfig() drag.Config {
	return drag.Config{
		ShadowZ:     c.Drag.ShadowZ,
		ShadowScale: c.Drag.ShadowScale,
		HoverScale:  c.Drag.HoverScale,
		LegalTint:   c.Drag.LegalTint.Color(),
		IllegalTint: c.Drag.IllegalTint.Color(),
		HoverTint:   c.Drag.HoverTint.Color(),
	}
}

func (c Config) CollisionConfig() collision.Config {
	return collision.Config{Workers: c.Collision.Workers, TrackContacts: c.Collision.TrackContacts}
}
