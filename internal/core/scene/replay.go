package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/spatial/internal/core/simulation"
	"github.com/zeusync/spatial/internal/core/systems/physics"
)

// Script is a recorded pointer session for headless runs.
type Script struct {
	Frames []ScriptFrame `yaml:"frames"`
}

// ScriptFrame holds the pointer state for Repeat consecutive frames. A
// missing cursor means the pointer is outside the window.
type ScriptFrame struct {
	Cursor  []float64 `yaml:"cursor,omitempty"`
	Pressed bool      `yaml:"pressed,omitempty"`
	Repeat  int       `yaml:"repeat,omitempty"`
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	s, err := ParseScript(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func ParseScript(r io.Reader) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	var errs []error
	for i, f := range s.Frames {
		if f.Cursor != nil && len(f.Cursor) != 2 {
			errs = append(errs, fmt.Errorf("frames[%d]: cursor needs 2 values, got %d", i, len(f.Cursor)))
		}
		if f.Repeat < 0 {
			errs = append(errs, fmt.Errorf("frames[%d]: repeat must not be negative", i))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &s, nil
}

// Inputs expands the script into one input per frame.
func (s *Script) Inputs() []simulation.FrameInput {
	var out []simulation.FrameInput
	for _, f := range s.Frames {
		in := simulation.FrameInput{PrimaryPressed: f.Pressed}
		if len(f.Cursor) == 2 {
			c := physics.V(f.Cursor[0], f.Cursor[1])
			in.Cursor = &c
		}
		for range max(f.Repeat, 1) {
			out = append(out, in)
		}
	}
	return out
}
