package task

// Profiler is the external observer collaborator described in spec.md §6.
// The scheduler core only calls these three hook points; a real timeline
// UI, a structured logger, or a no-op stub can all satisfy it. One is
// passed in at JobSystem.Init (rather than reached for as a process-global
// singleton, as the original C++ runtime's SDL-backed profiler did);
// TaskSystem takes no profiler of its own and reuses that instance via
// JobSystem.Profiler.
type Profiler interface {
	// Setup is called once per worker goroutine on startup, and once more
	// by the frame-loop goroutine, naming the caller for diagnostics.
	Setup(threadName string)
	// Swap is called at the top of each TaskSystem frame.
	Swap()
	// Scoped opens a named span around a Job's on_exec call and returns a
	// function that closes it.
	Scoped(tagName string) func()
}

// NoopProfiler implements Profiler with no observable effect; it is the
// default when no collaborator is supplied.
type NoopProfiler struct{}

func (NoopProfiler) Setup(string)         {}
func (NoopProfiler) Swap()                {}
func (NoopProfiler) Scoped(string) func() { return func() {} }
