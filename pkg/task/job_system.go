package task

import (
	"container/list"
	"fmt"
	"runtime"
	"sync"
)

// JobSystem is a fixed-size worker pool that executes a dynamic graph of
// Jobs. There is no lock-free structure: a single mutex protects the job
// queue, and a condition variable fans out wakeups, exactly mirroring the
// original runtime's SDL mutex/condvar pair
// (_examples/original_source/src/task/job_system.cpp).
type JobSystem struct {
	profiler Profiler
	logger   PanicLogger

	mu        sync.Mutex
	cond      *sync.Cond
	jobs      *list.List // doubly-ended list of *Job, front = priority
	isQuit    bool
	pending   int
	workersWG sync.WaitGroup
}

// PanicLogger receives panics recovered from a worker goroutine's Exec
// call, so a single misbehaving task cannot take down the whole pool. In
// the demo app it is satisfied by internal/broadcast.EventBroadcaster;
// tests pass nil (the no-op default) or a recording stub.
type PanicLogger interface {
	LogPanic(jobName string, recovered any, stack []byte)
}

type noopPanicLogger struct{}

func (noopPanicLogger) LogPanic(string, any, []byte) {}

// NewJobSystem constructs an uninitialized JobSystem. Call Init before use.
func NewJobSystem() *JobSystem {
	js := &JobSystem{profiler: NoopProfiler{}, logger: noopPanicLogger{}}
	js.cond = sync.NewCond(&js.mu)
	js.jobs = list.New()
	return js
}

// Init spawns thread_count worker goroutines. profiler and logger may be
// nil, in which case a no-op implementation is used for each. Init blocks
// until every worker has registered with the profiler, then returns true;
// unlike the original SDL-backed runtime, goroutine creation in Go cannot
// itself fail, so Init always succeeds once called — it is still
// boolean-returning to keep the same call-site shape as spec.md §6 and to
// leave room for a future failure mode (e.g. a profiler.Setup that can
// error) without an API break.
func (js *JobSystem) Init(threadCount int, profiler Profiler, logger PanicLogger) bool {
	if profiler != nil {
		js.profiler = profiler
	}
	if logger != nil {
		js.logger = logger
	}

	js.mu.Lock()
	js.isQuit = false
	js.mu.Unlock()

	var starting sync.WaitGroup
	starting.Add(threadCount)
	for i := 0; i < threadCount; i++ {
		js.workersWG.Add(1)
		name := fmt.Sprintf("JobThread %2d", i)
		go js.workerLoop(name, &starting)
	}
	starting.Wait()
	return true
}

// Quit stops the worker pool: every worker observes isQuit under the
// mutex, wakes on the broadcast, and exits its loop. Idempotent.
func (js *JobSystem) Quit() {
	js.mu.Lock()
	if js.isQuit {
		js.mu.Unlock()
		return
	}
	js.isQuit = true
	js.cond.Broadcast()
	js.mu.Unlock()

	js.workersWG.Wait()
}

// AddJob submits job and appends it to the back of the queue. Does not
// broadcast: callers that add many jobs in a batch (TaskSystem.Run does,
// once per frame) call KickJobs once afterward.
func (js *JobSystem) AddJob(job *Job) bool {
	return js.submit(job, false)
}

// InsertJob submits job and prepends it to the front of the queue, used
// for in-flight children so they are serviced ahead of older siblings.
func (js *JobSystem) InsertJob(job *Job) bool {
	return js.submit(job, true)
}

func (js *JobSystem) submit(job *Job, front bool) bool {
	if job == nil || !job.CanSubmit() {
		return false
	}

	js.mu.Lock()
	job.Submit()
	if front {
		js.jobs.PushFront(job)
	} else {
		js.jobs.PushBack(job)
	}
	js.pending++
	js.mu.Unlock()
	return true
}

// Swap forwards to the configured Profiler's Swap, called once per
// TaskSystem frame.
func (js *JobSystem) Swap() {
	js.profiler.Swap()
}

// Profiler returns the collaborator configured at Init, so TaskSystem can
// register its own frame-loop thread with the same Profiler instance the
// worker pool uses (spec.md §6: "perf_setup ... called once per worker on
// startup and once by the frame-loop thread").
func (js *JobSystem) Profiler() Profiler {
	return js.profiler
}

// KickJobs broadcasts the condition variable, waking every worker to
// re-scan the queue.
func (js *JobSystem) KickJobs() {
	js.mu.Lock()
	js.cond.Broadcast()
	js.mu.Unlock()
}

// ExecAllJobs kicks the workers, then makes the calling goroutine
// participate in the drain loop (effectively a pool_size+1'th worker)
// until the pending-job counter reaches zero.
func (js *JobSystem) ExecAllJobs() {
	js.KickJobs()
	for js.pendingCount() > 0 {
		js.execJobsOnce(false)
	}
}

func (js *JobSystem) pendingCount() int {
	js.mu.Lock()
	defer js.mu.Unlock()
	return js.pending
}

// workerLoop is the body run by each pool worker goroutine.
func (js *JobSystem) workerLoop(name string, starting *sync.WaitGroup) {
	defer js.workersWG.Done()
	js.profiler.Setup(name)
	starting.Done()

	for {
		js.mu.Lock()
		quit := js.isQuit
		js.mu.Unlock()
		if quit {
			return
		}
		js.execJobsOnce(true)
	}
}

// execJobsOnce is the scheduling step shared by workers and
// ExecAllJobs (spec.md §4.5): scan the queue under the mutex for the
// first job that can Exec or can Done; if none exists, wait on the
// condition variable (workers only — ExecAllJobs's caller just retries,
// since it must not block forever on a queue with no workers); if found,
// run it, then either finish it or re-queue it at the front to wait on its
// children.
func (js *JobSystem) execJobsOnce(blockingWait bool) {
	var selected *Job
	var elem *list.Element

	js.mu.Lock()
	for e := js.jobs.Front(); e != nil; e = e.Next() {
		j := e.Value.(*Job)
		if j.CanExec() || j.CanDone() {
			selected = j
			elem = e
			break
		}
	}
	if selected != nil {
		js.jobs.Remove(elem)
		js.mu.Unlock()
	} else {
		if blockingWait {
			if !js.isQuit {
				js.cond.Wait()
			}
		}
		js.mu.Unlock()
		return
	}

	if selected.CanExec() {
		js.execWithRecover(selected)
	}

	if selected.CanDone() {
		selected.Done()
		js.mu.Lock()
		js.pending--
		js.cond.Broadcast()
		js.mu.Unlock()
	} else {
		js.mu.Lock()
		js.jobs.PushFront(selected)
		js.mu.Unlock()
	}
}

// execWithRecover runs Job.Exec with a panic guard around the profiler
// span, so an on_exec that panics logs and leaves the worker alive rather
// than crashing the whole pool. Per spec.md §7, the scheduler still never
// retries or repairs task-level state on its own — a panicking job simply
// never reaches a clean WaitDone/Done through its own logic, and its
// parent/dependents will observe it as never completing, exactly as a job
// that hangs would.
func (js *JobSystem) execWithRecover(job *Job) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			js.logger.LogPanic(job.Name(), r, buf[:n])
		}
	}()

	done := js.profiler.Scoped(job.Name())
	defer done()
	job.Exec()
}
