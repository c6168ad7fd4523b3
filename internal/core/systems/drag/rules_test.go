package drag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zeusync/spatial/internal/core/models"
	"github.com/zeusync/spatial/internal/core/systems/layer"
	"github.com/zeusync/spatial/internal/core/systems/physics"
)

func box(cx, cy, half float64) physics.Rect {
	return physics.Rect{Min: physics.V(cx-half, cy-half), Max: physics.V(cx+half, cy+half)}
}

func candidate(id models.EntityID, x, y, half float64, layers layer.Set) Candidate {
	return Candidate{ID: id, Layers: layers, Rect: box(x, y, half), Position: physics.V(x, y)}
}

func subjectAt(x, y float64) Subject {
	return Subject{
		Original: 1,
		Layers:   layer.Only(layer.Dependent),
		Rect:     box(x, y, 5),
		Position: physics.V(x, y),
	}
}

func TestEvaluate_NoRulesIsLegalWithoutTarget(t *testing.T) {
	v := Evaluate(subjectAt(0, 0), nil, StandardRules())
	assert.Equal(t, Verdict{Legal: true}, v)
}

func TestEvaluate_Containment(t *testing.T) {
	zone := candidate(2, 0, 0, 100, layer.Only(layer.Zone))

	s := subjectAt(10, 10)
	s.MustContain = layer.Some(layer.Only(layer.Zone))
	assert.Equal(t, Verdict{Legal: true, Target: 2}, Evaluate(s, []Candidate{zone}, StandardRules()))

	s = subjectAt(98, 0)
	s.MustContain = layer.Some(layer.Only(layer.Zone))
	assert.Equal(t, Verdict{Legal: false, Rule: RuleContainment}, Evaluate(s, []Candidate{zone}, StandardRules()),
		"overlapping is not enough")

	s = subjectAt(95, 0)
	s.MustContain = layer.Some(layer.Only(layer.Zone))
	assert.True(t, Evaluate(s, []Candidate{zone}, StandardRules()).Legal, "touching the boundary from inside counts")

	s = subjectAt(10, 10)
	s.MustContain = layer.Some(layer.Only(layer.Caretaker))
	assert.False(t, Evaluate(s, []Candidate{zone}, StandardRules()).Legal, "layer mismatch")
}

func TestEvaluate_Intersection(t *testing.T) {
	tool := candidate(3, 60, 0, 10, layer.Only(layer.Tool))

	s := subjectAt(52, 0)
	s.MustIntersect = layer.Some(layer.Only(layer.Tool))
	assert.Equal(t, Verdict{Legal: true, Target: 3}, Evaluate(s, []Candidate{tool}, StandardRules()))

	s = subjectAt(45, 0)
	s.MustIntersect = layer.Some(layer.Only(layer.Tool))
	assert.Equal(t, Verdict{Legal: false, Rule: RuleIntersection}, Evaluate(s, []Candidate{tool}, StandardRules()),
		"edge contact is not an intersection")
}

func TestEvaluate_BothRequirementsMustHold(t *testing.T) {
	zone := candidate(2, 0, 0, 100, layer.Only(layer.Zone))
	tool := candidate(3, 20, 0, 10, layer.Only(layer.Tool))

	s := subjectAt(12, 0)
	s.MustContain = layer.Some(layer.Only(layer.Zone))
	s.MustIntersect = layer.Some(layer.Only(layer.Tool))
	assert.Equal(t, Verdict{Legal: true, Target: 2}, Evaluate(s, []Candidate{zone, tool}, StandardRules()),
		"containment nominates the target")

	assert.Equal(t, Verdict{Legal: false, Rule: RuleIntersection}, Evaluate(s, []Candidate{zone}, StandardRules()))
}

func TestEvaluate_BlockerVetoes(t *testing.T) {
	zone := candidate(2, 0, 0, 100, layer.Only(layer.Zone))
	blocker := candidate(4, 40, 40, 10, layer.Of(layer.Dependent, layer.Caretaker))
	blocker.BlocksDrops = true

	s := subjectAt(40, 40)
	s.MustContain = layer.Some(layer.Only(layer.Zone))
	assert.Equal(t, Verdict{Legal: false, Rule: RuleBlocker}, Evaluate(s, []Candidate{zone, blocker}, StandardRules()))

	blocker.Layers = layer.Only(layer.Tool)
	assert.True(t, Evaluate(s, []Candidate{zone, blocker}, StandardRules()).Legal,
		"blockers only stop drags they share a layer with")
}

func TestEvaluate_AllowListOverridesEverything(t *testing.T) {
	blocker := candidate(4, 40, 40, 10, layer.Only(layer.Dependent))
	blocker.BlocksDrops = true
	other := candidate(5, 40, 40, 10, layer.Empty())

	s := subjectAt(40, 40)
	s.MustContain = layer.Some(layer.Only(layer.Zone))
	s.Allow = []models.EntityID{5, 4}

	assert.Equal(t, Verdict{Legal: true, Target: 4, Rule: RuleAllowList},
		Evaluate(s, []Candidate{blocker, other}, StandardRules()),
		"first allowed candidate in candidate order wins")
}

func TestEvaluate_NearestTargetWins(t *testing.T) {
	far := candidate(2, 0, 0, 100, layer.Only(layer.Zone))
	near := candidate(3, 30, 30, 100, layer.Only(layer.Zone))

	s := subjectAt(25, 25)
	s.MustContain = layer.Some(layer.Only(layer.Zone))
	assert.Equal(t, models.EntityID(3), Evaluate(s, []Candidate{far, near}, StandardRules()).Target)
}

func TestEvaluate_EqualDistanceFirstSeenWins(t *testing.T) {
	left := candidate(2, -10, 0, 100, layer.Only(layer.Zone))
	right := candidate(3, 10, 0, 100, layer.Only(layer.Zone))

	s := subjectAt(0, 0)
	s.MustContain = layer.Some(layer.Only(layer.Zone))
	assert.Equal(t, models.EntityID(2), Evaluate(s, []Candidate{left, right}, StandardRules()).Target)
	assert.Equal(t, models.EntityID(3), Evaluate(s, []Candidate{right, left}, StandardRules()).Target)
}

func TestEvaluate_OriginalIsNeverATarget(t *testing.T) {
	self := candidate(1, 0, 0, 100, layer.Only(layer.Zone))
	self.BlocksDrops = true

	s := subjectAt(0, 0)
	s.Layers = layer.Only(layer.Zone)
	s.MustContain = layer.Some(layer.Only(layer.Zone))
	assert.Equal(t, Verdict{Legal: false, Rule: RuleContainment}, Evaluate(s, []Candidate{self}, StandardRules()))
}

func TestEvaluate_CustomPolicy(t *testing.T) {
	never := Predicate{
		Name: "never",
		Kind: Requirement,
		Eval: func(Subject, []Candidate) Outcome { return Outcome{} },
	}
	v := Evaluate(subjectAt(0, 0), nil, append(StandardRules(), never))
	assert.Equal(t, Verdict{Legal: false, Rule: "never"}, v)
	assert.Equal(t, "veto", Veto.String())
}
