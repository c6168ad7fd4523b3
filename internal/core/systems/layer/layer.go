package layer

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"

	"gopkg.in/yaml.v3"
)

// Layer tags what kind of thing an object is.
type Layer uint8

const (
	Zone Layer = iota
	Caretaker
	Dependent
	Tool

	count
)

var names = [count]string{
	Zone:      "Zone",
	Caretaker: "Caretaker",
	Dependent: "Dependent",
	Tool:      "Tool",
}

// ErrUnknownLayer is returned when parsing a name outside the closed set.
var ErrUnknownLayer = errors.New("unknown layer")

func (l Layer) String() string {
	if l < count {
		return names[l]
	}
	return fmt.Sprintf("Layer(%d)", uint8(l))
}

// ParseLayer is case-insensitive.
func ParseLayer(s string) (Layer, error) {
	for i, n := range names {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return Layer(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLayer, s)
}

// Set is a bitset over Layer. The zero value is the empty set.
type Set uint8

const allMask = Set(1<<count - 1)

func Of(layers ...Layer) Set {
	var s Set
	for _, l := range layers {
		if l < count {
			s |= 1 << l
		}
	}
	return s
}

func Only(l Layer) Set { return Of(l) }
func Empty() Set       { return 0 }
func All() Set         { return allMask }

func (s Set) Contains(l Layer) bool { return l < count && s&(1<<l) != 0 }
func (s Set) Intersects(o Set) bool { return s&o != 0 }
func (s Set) Union(o Set) Set       { return s | o }
func (s Set) IsEmpty() bool         { return s == 0 }
func (s Set) Len() int              { return bits.OnesCount8(uint8(s)) }
func (s Set) With(l Layer) Set      { return s | Of(l) }

// Layers lists members in declaration order.
func (s Set) Layers() []Layer {
	out := make([]Layer, 0, s.Len())
	for l := Layer(0); l < count; l++ {
		if s.Contains(l) {
			out = append(out, l)
		}
	}
	return out
}

func (s Set) String() string {
	ls := s.Layers()
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = l.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// ParseSet accepts layer names; duplicates are ignored.
func ParseSet(layerNames ...string) (Set, error) {
	var s Set
	for _, n := range layerNames {
		l, err := ParseLayer(n)
		if err != nil {
			return 0, err
		}
		s = s.With(l)
	}
	return s, nil
}

// UnmarshalYAML accepts either a single name or a list of names.
func (s *Set) UnmarshalYAML(node *yaml.Node) error {
	var list []string
	switch node.Kind {
	case yaml.ScalarNode:
		list = []string{node.Value}
	case yaml.SequenceNode:
		if err := node.Decode(&list); err != nil {
			return err
		}
	default:
		return fmt.Errorf("layer set: line %d: expected name or list", node.Line)
	}
	parsed, err := ParseSet(list...)
	if err != nil {
		return fmt.Errorf("layer set: line %d: %w", node.Line, err)
	}
	*s = parsed
	return nil
}

func (s Set) MarshalYAML() (any, error) {
	ls := s.Layers()
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.String()
	}
	return out, nil
}

// Optional is a layer set that may be unset. An unset requirement is always
// satisfied, which differs from requiring the empty set.
type Optional struct {
	Layers Set
	Valid  bool
}

func Some(s Set) Optional { return Optional{Layers: s, Valid: true} }

// Unset is the zero Optional.
var Unset = Optional{}

func (o Optional) String() string {
	if !o.Valid {
		return "unset"
	}
	return o.Layers.String()
}

func (o *Optional) UnmarshalYAML(node *yaml.Node) error {
	var s Set
	if err := s.UnmarshalYAML(node); err != nil {
		return err
	}
	*o = Some(s)
	return nil
}
