// Package system runs frame systems in a fixed phase order.
package system

import (
	"context"
	"fmt"
	"time"
)

// ExecutionPhase defines when a system runs within a frame.
type ExecutionPhase uint8

const (
	PhasePreUpdate ExecutionPhase = iota
	PhaseUpdate
	PhasePostUpdate
	PhaseLateUpdate

	phaseCount
)

var phaseNames = [phaseCount]string{"pre_update", "update", "post_update", "late_update"}

func (p ExecutionPhase) String() string {
	if p < phaseCount {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

func (p ExecutionPhase) Valid() bool { return p < phaseCount }

// Phases lists every phase in execution order.
func Phases() []ExecutionPhase {
	return []ExecutionPhase{PhasePreUpdate, PhaseUpdate, PhasePostUpdate, PhaseLateUpdate}
}

// Frame is handed to every system once per step.
type Frame struct {
	Ctx    context.Context
	Number uint64
	Start  time.Time

	faults *[]error
}

// Report records a non-fatal fault, such as a failing notification handler.
// The frame keeps running; Manager.Update returns every reported fault joined
// once all phases finished.
func (f Frame) Report(err error) {
	if err == nil || f.faults == nil {
		return
	}
	*f.faults = append(*f.faults, err)
}

// System is a frame processor. Update returns an error only for faults;
// expected outcomes such as a cancelled drop are not errors.
type System interface {
	Name() string
	ExecutionPhase() ExecutionPhase
	Update(frame Frame) error
}

type funcSystem struct {
	name  string
	phase ExecutionPhase
	fn    func(Frame) error
}

func (f funcSystem) Name() string                   { return f.name }
func (f funcSystem) ExecutionPhase() ExecutionPhase { return f.phase }
func (f funcSystem) Update(frame Frame) error       { return f.fn(frame) }

// Func wraps fn as a System.
func Func(name string, phase ExecutionPhase, fn func(Frame) error) System {
	return funcSystem{name: name, phase: phase, fn: fn}
}

// Metrics provides runtime metrics for a system.
type Metrics struct {
	ExecutionCount       uint64
	TotalExecutionTime   time.Duration
	AverageExecutionTime time.Duration
	MaxExecutionTime     time.Duration
	MinExecutionTime     time.Duration
	ErrorCount           uint64
	LastError            error
	LastExecutionTime    time.Time
}

func (m *Metrics) record(d time.Duration, err error, at time.Time) {
	m.ExecutionCount++
	m.TotalExecutionTime += d
	m.AverageExecutionTime = m.TotalExecutionTime / time.Duration(m.ExecutionCount)
	if d > m.MaxExecutionTime {
		m.MaxExecutionTime = d
	}
	if m.ExecutionCount == 1 || d < m.MinExecutionTime {
		m.MinExecutionTime = d
	}
	if err != nil {
		m.ErrorCount++
		m.LastError = err
	}
	m.LastExecutionTime = at
}

// ManagerMetrics provides scheduler statistics.
type ManagerMetrics struct {
	RegisteredSystems uint32
	EnabledSystems    uint32
	Frames            uint64
	TotalUpdateTime   time.Duration
	AverageUpdateTime time.Duration
	SystemErrorCount  map[string]uint64
	LastUpdateTime    time.Time
}
