package system

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zeusync/spatial/internal/core/observability/log"
)

var (
	ErrDuplicateSystem = errors.New("system already registered")
	ErrUnknownSystem   = errors.New("system not registered")
	ErrUnknownPhase    = errors.New("unknown execution phase")
)

type entry struct {
	sys     System
	enabled bool
	metrics Metrics
}

// Manager orchestrates systems: phase order first, then registration order
// within a phase.
type Manager struct {
	mu      sync.Mutex
	log     log.Log
	entries []*entry
	byName  map[string]*entry
	metrics ManagerMetrics
	onError []func(string, error)
}

func NewManager(logger log.Log) *Manager {
	if logger == nil {
		logger = log.Nop()
	}
	return &Manager{
		log:    logger.Named("system"),
		byName: make(map[string]*entry),
	}
}

func (m *Manager) RegisterSystem(s System) error {
	if !s.ExecutionPhase().Valid() {
		return fmt.Errorf("register %q: %w: %s", s.Name(), ErrUnknownPhase, s.ExecutionPhase())
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[s.Name()]; ok {
		return fmt.Errorf("register %q: %w", s.Name(), ErrDuplicateSystem)
	}
	e := &entry{sys: s, enabled: true}
	m.entries = append(m.entries, e)
	m.byName[s.Name()] = e
	m.log.Debug("system registered",
		log.String("name", s.Name()),
		log.Stringer("phase", s.ExecutionPhase()),
	)
	return nil
}

func (m *Manager) GetSystem(name string) (System, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byName[name]
	if !ok {
		return nil, false
	}
	return e.sys, true
}

func (m *Manager) HasSystem(name string) bool {
	_, ok := m.GetSystem(name)
	return ok
}

func (m *Manager) EnableSystem(name string) error  { return m.setEnabled(name, true) }
func (m *Manager) DisableSystem(name string) error { return m.setEnabled(name, false) }

func (m *Manager) setEnabled(name string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSystem, name)
	}
	e.enabled = enabled
	return nil
}

// OnSystemError registers a callback invoked whenever a system fails.
func (m *Manager) OnSystemError(fn func(name string, err error)) {
	m.mu.Lock()
	m.onError = append(m.onError, fn)
	m.mu.Unlock()
}

// GetExecutionOrder returns enabled system names in the order Update runs them.
func (m *Manager) GetExecutionOrder() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, phase := range Phases() {
		for _, e := range m.entries {
			if e.enabled && e.sys.ExecutionPhase() == phase {
				out = append(out, e.sys.Name())
			}
		}
	}
	return out
}

// Update runs one frame. The first failing system aborts the frame and its
// error is returned wrapped with the system name, joined with any faults
// reported through Frame.Report.
func (m *Manager) Update(frame Frame) error {
	if frame.Ctx == nil {
		frame.Ctx = context.Background()
	}
	var faults []error
	frame.faults = &faults
	m.mu.Lock()
	order := make([]*entry, 0, len(m.entries))
	for _, phase := range Phases() {
		for _, e := range m.entries {
			if e.enabled && e.sys.ExecutionPhase() == phase {
				order = append(order, e)
			}
		}
	}
	onError := m.onError
	m.mu.Unlock()

	start := time.Now()
	var runErr error
	for _, e := range order {
		if err := frame.Ctx.Err(); err != nil {
			runErr = err
			break
		}
		t0 := time.Now()
		err := e.sys.Update(frame)
		m.mu.Lock()
		e.metrics.record(time.Since(t0), err, t0)
		m.mu.Unlock()
		if err != nil {
			runErr = fmt.Errorf("%s/%s: %w", e.sys.ExecutionPhase(), e.sys.Name(), err)
			m.log.Error("system failed",
				log.String("name", e.sys.Name()),
				log.Uint64("frame", frame.Number),
				log.Error(err),
			)
			for _, fn := range onError {
				fn(e.sys.Name(), err)
			}
			break
		}
	}

	m.mu.Lock()
	m.metrics.Frames++
	m.metrics.TotalUpdateTime += time.Since(start)
	m.metrics.AverageUpdateTime = m.metrics.TotalUpdateTime / time.Duration(m.metrics.Frames)
	m.metrics.LastUpdateTime = start
	m.mu.Unlock()
	return errors.Join(append([]error{runErr}, faults...)...)
}

func (m *Manager) GetSystemMetrics(name string) (Metrics, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byName[name]
	if !ok {
		return Metrics{}, false
	}
	return e.metrics, true
}

func (m *Manager) GetMetrics() ManagerMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.metrics
	out.RegisteredSystems = uint32(len(m.entries))
	out.SystemErrorCount = make(map[string]uint64)
	for _, e := range m.entries {
		if e.enabled {
			out.EnabledSystems++
		}
		if e.metrics.ErrorCount > 0 {
			out.SystemErrorCount[e.sys.Name()] = e.metrics.ErrorCount
		}
	}
	return out
}
