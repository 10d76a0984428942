package task

import (
	"runtime"
	"strconv"
)

// TaskJob adapts a Task to run as a Job. It carries an owning handle to
// the Task, a non-owning pointer to the shared Context, and an optional
// thread (goroutine) pin used for tasks that must touch affinity-bound
// resources such as a window or GPU context.
//
// Go has no stable OS-thread identity for a goroutine by design (the
// runtime is free to migrate goroutines between OS threads between
// blocking points), so unlike the original SDL_threadID-based pin, this
// pin compares against a caller-supplied token obtained by
// PinToCallingGoroutine, which snapshots the current goroutine's stack
// trace header — the same technique internal/common's crash diagnostics
// already use to identify a goroutine for reporting purposes. This is a
// narrow, intentionally stdlib-only piece: no pack dependency exposes
// goroutine identity (see DESIGN.md).
type TaskJob struct {
	*Job
	task        Task
	ctx         *Context
	pinned      bool
	pinnedToken string
}

// NewTaskJob wraps task to run as a Job named name against ctx.
func NewTaskJob(name string, t Task, ctx *Context) *TaskJob {
	tj := &TaskJob{task: t, ctx: ctx}
	tj.Job = newJobWithHooks(name, tj)
	return tj
}

// Task returns the wrapped Task.
func (tj *TaskJob) Task() Task { return tj.task }

// PinToCallingGoroutine records the calling goroutine's identity so that
// OnCanExec only returns true when invoked from that same goroutine.
// Intended to be called from the goroutine that will drive
// TaskSystem.Run (typically "main") during registration, before the task
// is ever submitted.
func (tj *TaskJob) PinToCallingGoroutine() {
	tj.pinned = true
	tj.pinnedToken = goroutineToken()
}

// OnCanExec implements Hooks: a pinned TaskJob is invisible to any
// goroutine other than the one it was pinned to, so the scheduler's
// linear scan simply skips it until the right caller reaches
// ExecAllJobs/the worker loop.
func (tj *TaskJob) OnCanExec() bool {
	if !tj.pinned {
		return true
	}
	return goroutineToken() == tj.pinnedToken
}

// OnExec implements Hooks: runs the wrapped task against the shared
// Context.
func (tj *TaskJob) OnExec() {
	tj.task.Exec(tj.ctx)
}

// goroutineToken returns a string identifying the calling goroutine. The
// first field of runtime.Stack's output for the current goroutine is
// "goroutine N [running]:", so the numeric ID is stable for the lifetime
// of that goroutine and distinct across goroutines.
func goroutineToken() string {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	b := buf[:n]
	// Skip "goroutine "
	const prefix = "goroutine "
	if len(b) <= len(prefix) {
		return ""
	}
	b = b[len(prefix):]
	i := 0
	for i < len(b) && b[i] != ' ' {
		i++
	}
	id := b[:i]
	if _, err := strconv.Atoi(string(id)); err != nil {
		return ""
	}
	return string(id)
}
