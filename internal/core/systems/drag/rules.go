package drag

import (
	"fmt"
	"slices"

	"github.com/zeusync/spatial/internal/core/models"
	"github.com/zeusync/spatial/internal/core/systems/layer"
	"github.com/zeusync/spatial/internal/core/systems/physics"
)

// Candidate is an object the drag shadow overlaps at resolution time.
type Candidate struct {
	ID          models.EntityID
	Layers      layer.Set
	Rect        physics.Rect
	Position    physics.Vec2
	BlocksDrops bool
}

// Subject is the drag being judged: the shadow's geometry plus the original
// object's rules.
type Subject struct {
	Original      models.EntityID
	Layers        layer.Set
	Rect          physics.Rect
	Position      physics.Vec2
	MustContain   layer.Optional
	MustIntersect layer.Optional
	Allow         []models.EntityID
}

// Kind decides how a predicate's outcome combines with the others.
type Kind uint8

const (
	// Override makes the drop legal as soon as it matches.
	Override Kind = iota
	// Veto makes the drop illegal when it matches.
	Veto
	// Requirement must match (an unset requirement matches trivially).
	Requirement
)

func (k Kind) String() string {
	switch k {
	case Override:
		return "override"
	case Veto:
		return "veto"
	case Requirement:
		return "requirement"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Outcome is a predicate's answer. Target is None when the predicate matched
// without nominating anyone.
type Outcome struct {
	Matched bool
	Target  models.EntityID
}

type Predicate struct {
	Name string
	Kind Kind
	Eval func(s Subject, candidates []Candidate) Outcome
}

// Verdict is the result of Evaluate. Rule names the predicate that decided
// an override or a rejection and is empty when every requirement held.
type Verdict struct {
	Legal  bool
	Target models.EntityID
	Rule   string
}

// Evaluate combines predicates: the first matching Override wins outright,
// then any matching Veto rejects, then every Requirement must match. The
// target is the first one nominated by a requirement, in predicate order.
// candidates must be in a stable order; it decides ties.
func Evaluate(s Subject, candidates []Candidate, predicates []Predicate) Verdict {
	for _, p := range predicates {
		if p.Kind != Override {
			continue
		}
		if o := p.Eval(s, candidates); o.Matched {
			return Verdict{Legal: true, Target: o.Target, Rule: p.Name}
		}
	}
	for _, p := range predicates {
		if p.Kind != Veto {
			continue
		}
		if o := p.Eval(s, candidates); o.Matched {
			return Verdict{Legal: false, Rule: p.Name}
		}
	}
	v := Verdict{Legal: true}
	for _, p := range predicates {
		if p.Kind != Requirement {
			continue
		}
		o := p.Eval(s, candidates)
		if !o.Matched {
			return Verdict{Legal: false, Rule: p.Name}
		}
		if !v.Target.Valid() {
			v.Target = o.Target
		}
	}
	return v
}

// Rule names used by StandardRules.
const (
	RuleAllowList    = "allow_list"
	RuleBlocker      = "blocker"
	RuleContainment  = "containment"
	RuleIntersection = "intersection"
)

// StandardRules is the default drop policy.
func StandardRules() []Predicate {
	return []Predicate{AllowList(), Blockers(), Containment(), Intersection()}
}

// AllowList matches the first overlapping candidate the subject explicitly allows.
func AllowList() Predicate {
	return Predicate{
		Name: RuleAllowList,
		Kind: Override,
		Eval: func(s Subject, candidates []Candidate) Outcome {
			for _, c := range candidates {
				if slices.Contains(s.Allow, c.ID) {
					return Outcome{Matched: true, Target: c.ID}
				}
			}
			return Outcome{}
		},
	}
}

// Blockers matches when a blocking candidate shares a layer with the subject.
func Blockers() Predicate {
	return Predicate{
		Name: RuleBlocker,
		Kind: Veto,
		Eval: func(s Subject, candidates []Candidate) Outcome {
			for _, c := range candidates {
				if c.ID != s.Original && c.BlocksDrops && c.Layers.Intersects(s.Layers) {
					return Outcome{Matched: true, Target: c.ID}
				}
			}
			return Outcome{}
		},
	}
}

// Containment requires a candidate on one of the MustContain layers whose
// rectangle fully contains the subject's.
func Containment() Predicate {
	return Predicate{
		Name: RuleContainment,
		Kind: Requirement,
		Eval: func(s Subject, candidates []Candidate) Outcome {
			return nearestMatching(s, s.MustContain, candidates, func(c Candidate) bool {
				return c.Rect.ContainsRect(s.Rect)
			})
		},
	}
}

// Intersection requires a candidate on one of the MustIntersect layers whose
// rectangle overlaps the subject's.
func Intersection() Predicate {
	return Predicate{
		Name: RuleIntersection,
		Kind: Requirement,
		Eval: func(s Subject, candidates []Candidate) Outcome {
			return nearestMatching(s, s.MustIntersect, candidates, func(c Candidate) bool {
				return c.Rect.Overlaps(s.Rect)
			})
		},
	}
}

// nearestMatching returns the qualifying candidate closest to the subject.
// Equal distances keep the earlier candidate. An unset rule matches with no
// target.
func nearestMatching(s Subject, rule layer.Optional, candidates []Candidate, geometry func(Candidate) bool) Outcome {
	if !rule.Valid {
		return Outcome{Matched: true}
	}
	best := Outcome{}
	bestDist := 0.0
	for _, c := range candidates {
		if c.ID == s.Original || !c.Layers.Intersects(rule.Layers) || !geometry(c) {
			continue
		}
		d := c.Position.DistanceSq(s.Position)
		if !best.Matched || d < bestDist {
			best = Outcome{Matched: true, Target: c.ID}
			bestDist = d
		}
	}
	return best
}
