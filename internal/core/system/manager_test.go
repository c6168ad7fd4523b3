package system

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recorder(trace *[]string, name string, phase ExecutionPhase) System {
	return Func(name, phase, func(Frame) error {
		*trace = append(*trace, name)
		return nil
	})
}

func TestManager_RunsPhasesInOrder(t *testing.T) {
	var trace []string
	m := NewManager(nil)
	require.NoError(t, m.RegisterSystem(recorder(&trace, "drop", PhaseLateUpdate)))
	require.NoError(t, m.RegisterSystem(recorder(&trace, "collision", PhasePostUpdate)))
	require.NoError(t, m.RegisterSystem(recorder(&trace, "reaper", PhaseUpdate)))
	require.NoError(t, m.RegisterSystem(recorder(&trace, "pickup", PhaseUpdate)))
	require.NoError(t, m.RegisterSystem(recorder(&trace, "pointer", PhasePreUpdate)))

	want := []string{"pointer", "reaper", "pickup", "collision", "drop"}
	assert.Equal(t, want, m.GetExecutionOrder())

	require.NoError(t, m.Update(Frame{Ctx: context.Background(), Number: 1}))
	assert.Equal(t, want, trace)
}

func TestManager_RejectsDuplicatesAndBadPhases(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.RegisterSystem(Func("a", PhaseUpdate, func(Frame) error { return nil })))

	err := m.RegisterSystem(Func("a", PhaseLateUpdate, func(Frame) error { return nil }))
	assert.ErrorIs(t, err, ErrDuplicateSystem)

	err = m.RegisterSystem(Func("b", ExecutionPhase(42), func(Frame) error { return nil }))
	assert.ErrorIs(t, err, ErrUnknownPhase)

	assert.ErrorIs(t, m.DisableSystem("missing"), ErrUnknownSystem)
}

func TestManager_DisabledSystemsAreSkipped(t *testing.T) {
	var trace []string
	m := NewManager(nil)
	require.NoError(t, m.RegisterSystem(recorder(&trace, "a", PhaseUpdate)))
	require.NoError(t, m.RegisterSystem(recorder(&trace, "b", PhaseUpdate)))
	require.NoError(t, m.DisableSystem("a"))

	require.NoError(t, m.Update(Frame{}))
	assert.Equal(t, []string{"b"}, trace)

	require.NoError(t, m.EnableSystem("a"))
	assert.Equal(t, []string{"a", "b"}, m.GetExecutionOrder())
	assert.Equal(t, uint32(2), m.GetMetrics().EnabledSystems)
}

func TestManager_FirstErrorAbortsFrame(t *testing.T) {
	var trace []string
	boom := errors.New("boom")
	m := NewManager(nil)
	require.NoError(t, m.RegisterSystem(Func("bad", PhaseUpdate, func(Frame) error { return boom })))
	require.NoError(t, m.RegisterSystem(recorder(&trace, "after", PhaseLateUpdate)))

	var failed string
	m.OnSystemError(func(name string, _ error) { failed = name })

	err := m.Update(Frame{Ctx: context.Background(), Number: 9})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "update/bad")
	assert.Empty(t, trace)
	assert.Equal(t, "bad", failed)

	metrics, ok := m.GetSystemMetrics("bad")
	require.True(t, ok)
	assert.Equal(t, uint64(1), metrics.ExecutionCount)
	assert.Equal(t, uint64(1), metrics.ErrorCount)
	assert.Equal(t, map[string]uint64{"bad": 1}, m.GetMetrics().SystemErrorCount)
}

func TestManager_CancelledContextStops(t *testing.T) {
	var trace []string
	m := NewManager(nil)
	require.NoError(t, m.RegisterSystem(recorder(&trace, "a", PhaseUpdate)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Update(Frame{Ctx: ctx}), context.Canceled)
	assert.Empty(t, trace)
}

func TestExecutionPhase_String(t *testing.T) {
	assert.Equal(t, "post_update", PhasePostUpdate.String())
	assert.Equal(t, "phase(9)", ExecutionPhase(9).String())
}

func TestManager_ReportedFaultsDoNotAbort(t *testing.T) {
	var trace []string
	handlerErr := errors.New("handler")
	m := NewManager(nil)
	require.NoError(t, m.RegisterSystem(Func("noisy", PhasePostUpdate, func(f Frame) error {
		f.Report(handlerErr)
		f.Report(nil)
		return nil
	})))
	require.NoError(t, m.RegisterSystem(recorder(&trace, "late", PhaseLateUpdate)))

	err := m.Update(Frame{Ctx: context.Background()})
	assert.ErrorIs(t, err, handlerErr)
	assert.Equal(t, []string{"late"}, trace)

	assert.NotPanics(t, func() { Frame{}.Report(handlerErr) })
}
