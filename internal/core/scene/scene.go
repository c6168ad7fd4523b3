// Package scene describes objects in YAML and spawns them into a simulation.
package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/spatial/internal/core/systems/layer"
	"github.com/zeusync/spatial/internal/core/systems/physics"
)

var ErrInvalidScene = errors.New("invalid scene")

type Scene struct {
	Objects []Object `yaml:"objects"`
}

type Object struct {
	Name string `yaml:"name"`
	// Position is [x, y] or [x, y, z].
	Position    []float64  `yaml:"position"`
	Hitbox      *Hitbox    `yaml:"hitbox,omitempty"`
	Layers      layer.Set  `yaml:"layers,omitempty"`
	Collisions  bool       `yaml:"collisions,omitempty"`
	BlocksDrops bool       `yaml:"blocks_drops,omitempty"`
	Draggable   *Draggable `yaml:"draggable,omitempty"`
	// Tint is an optional RGBA multiplier for renderers.
	Tint []float32 `yaml:"tint,omitempty"`
}

// Hitbox is either min/max corners or a size, anchored at the origin or
// centred on it.
type Hitbox struct {
	Min      []float64 `yaml:"min,omitempty"`
	Max      []float64 `yaml:"max,omitempty"`
	Size     []float64 `yaml:"size,omitempty"`
	Centered bool      `yaml:"centered,omitempty"`
}

type Draggable struct {
	MustContain   layer.Optional `yaml:"must_contain,omitempty"`
	MustIntersect layer.Optional `yaml:"must_intersect,omitempty"`
	// Allow names other objects of the same scene.
	Allow []string `yaml:"allow,omitempty"`
}

// Load reads and validates a scene file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	sc, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates a scene. Unknown keys are rejected.
func Parse(r io.Reader) (*Scene, error) {
	var sc Scene
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks every object and reports all problems at once.
func (s *Scene) Validate() error {
	var errs []error
	names := make(map[string]struct{}, len(s.Objects))
	for i, o := range s.Objects {
		label := fmt.Sprintf("objects[%d]", i)
		if o.Name == "" {
			errs = append(errs, fmt.Errorf("%w: %s: name is required", ErrInvalidScene, label))
		} else {
			label = fmt.Sprintf("%s (%s)", label, o.Name)
			if _, dup := names[o.Name]; dup {
				errs = append(errs, fmt.Errorf("%w: %s: duplicate name", ErrInvalidScene, label))
			}
			names[o.Name] = struct{}{}
		}
		if _, err := o.Transform(); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrInvalidScene, label, err))
		}
		if o.Hitbox != nil {
			if _, err := o.Hitbox.Build(); err != nil {
				errs = append(errs, fmt.Errorf("%w: %s: hitbox: %w", ErrInvalidScene, label, err))
			}
		}
		if o.Tint != nil && len(o.Tint) != 4 {
			errs = append(errs, fmt.Errorf("%w: %s: tint needs 4 channels", ErrInvalidScene, label))
		}
	}
	for i, o := range s.Objects {
		if o.Draggable == nil {
			continue
		}
		if o.Hitbox == nil {
			errs = append(errs, fmt.Errorf("%w: objects[%d] (%s): draggable objects need a hitbox", ErrInvalidScene, i, o.Name))
		}
		for _, ref := range o.Draggable.Allow {
			if _, ok := names[ref]; !ok {
				errs = append(errs, fmt.Errorf("%w: objects[%d] (%s): allow references unknown object %q", ErrInvalidScene, i, o.Name, ref))
			}
		}
	}
	return errors.Join(errs...)
}

// Transform returns the object's position as x, y, z.
func (o Object) Transform() ([3]float64, error) {
	var out [3]float64
	switch len(o.Position) {
	case 0:
	case 2, 3:
		copy(out[:], o.Position)
	default:
		return out, fmt.Errorf("position needs 2 or 3 values, got %d", len(o.Position))
	}
	return out, nil
}

// Build turns the description into a validated hitbox.
func (h Hitbox) Build() (physics.Hitbox, error) {
	pair := func(field string, v []float64) (physics.Vec2, error) {
		if len(v) != 2 {
			return physics.Vec2{}, fmt.Errorf("%s needs 2 values, got %d", field, len(v))
		}
		return physics.V(v[0], v[1]), nil
	}
	switch {
	case h.Size != nil && (h.Min != nil || h.Max != nil):
		return physics.Hitbox{}, errors.New("use either size or min/max")
	case h.Size != nil:
		size, err := pair("size", h.Size)
		if err != nil {
			return physics.Hitbox{}, err
		}
		if h.Centered {
			return physics.Centered(size)
		}
		return physics.Offsetless(size)
	default:
		minV, err := pair("min", h.Min)
		if err != nil {
			return physics.Hitbox{}, err
		}
		maxV, err := pair("max", h.Max)
		if err != nil {
			return physics.Hitbox{}, err
		}
		return physics.NewHitbox(physics.Rect{Min: minV, Max: maxV})
	}
}
