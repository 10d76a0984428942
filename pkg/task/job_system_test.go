package task

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingHooks struct {
	mu  sync.Mutex
	ran int
}

func (h *countingHooks) OnCanExec() bool { return true }
func (h *countingHooks) OnExec() {
	h.mu.Lock()
	h.ran++
	h.mu.Unlock()
}

func TestJobSystemExecAllJobsDrainsToZero(t *testing.T) {
	js := NewJobSystem()
	require.True(t, js.Init(4, nil, nil))
	defer js.Quit()

	hooks := &countingHooks{}
	var jobs []*Job
	for i := 0; i < 20; i++ {
		jobs = append(jobs, newJobWithHooks("worker-job", hooks))
	}
	for _, j := range jobs {
		require.True(t, js.AddJob(j))
	}

	js.ExecAllJobs()

	require.Equal(t, 0, js.pendingCount())
	hooks.mu.Lock()
	require.Equal(t, 20, hooks.ran)
	hooks.mu.Unlock()

	for _, j := range jobs {
		require.Equal(t, StateDone, j.State())
	}
}

func TestJobSystemRespectsPrerequisiteOrdering(t *testing.T) {
	js := NewJobSystem()
	require.True(t, js.Init(2, nil, nil))
	defer js.Quit()

	var mu sync.Mutex
	var order []string
	record := func(name string) func() {
		return func() {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	first := newJobWithHooks("first", recordingHooks{onExec: record("first")})
	second := newJobWithHooks("second", recordingHooks{onExec: record("second")})
	require.True(t, second.AddPrerequisite(first))

	require.True(t, js.AddJob(first))
	require.True(t, js.AddJob(second))
	js.ExecAllJobs()

	require.Equal(t, StateDone, first.State())
	require.Equal(t, StateDone, second.State())
	mu.Lock()
	require.Equal(t, []string{"first", "second"}, order)
	mu.Unlock()
}

type recordingHooks struct{ onExec func() }

func (recordingHooks) OnCanExec() bool { return true }
func (h recordingHooks) OnExec()       { h.onExec() }

type panicHooks struct{}

func (panicHooks) OnCanExec() bool { return true }
func (panicHooks) OnExec()         { panic("boom") }

type recordingPanicLogger struct {
	mu    sync.Mutex
	names []string
}

func (l *recordingPanicLogger) LogPanic(jobName string, _ any, _ []byte) {
	l.mu.Lock()
	l.names = append(l.names, jobName)
	l.mu.Unlock()
}

func TestJobSystemContainsPanicAndLeavesJobStuck(t *testing.T) {
	js := NewJobSystem()
	logger := &recordingPanicLogger{}
	require.True(t, js.Init(2, nil, logger))
	defer js.Quit()

	bad := newJobWithHooks("bad-job", panicHooks{})
	require.True(t, js.AddJob(bad))

	// A panicking job never reaches Done, so ExecAllJobs would spin forever
	// waiting for pending to hit zero; instead give the pool a moment to
	// observe the panic, then assert on state directly.
	js.KickJobs()
	time.Sleep(50 * time.Millisecond)

	logger.mu.Lock()
	require.Contains(t, logger.names, "bad-job")
	logger.mu.Unlock()

	require.NotEqual(t, StateDone, bad.State(), "a panicking job must never reach Done")
}

func TestJobSystemQuitIsIdempotent(t *testing.T) {
	js := NewJobSystem()
	require.True(t, js.Init(2, nil, nil))
	js.Quit()
	require.NotPanics(t, func() { js.Quit() })
}
