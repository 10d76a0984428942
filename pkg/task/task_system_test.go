package task

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestTaskSystem(t *testing.T, workers int) (*TaskSystem, *JobSystem) {
	t.Helper()
	js := NewJobSystem()
	require.True(t, js.Init(workers, nil, nil))
	t.Cleanup(js.Quit)

	ctx := NewContext()
	return NewTaskSystem(js, ctx), js
}

type position struct{ value int }

func TestTaskSystemDerivesWriteConflictOrdering(t *testing.T) {
	ts, _ := newTestTaskSystem(t, 4)
	SetContext(ts.Context(), &position{})

	var mu sync.Mutex
	var order []string

	writer := NewPermission()
	AddWrite[position](writer)
	ts.AddTask("writer", writer, func(ctx *Context, w *Work) {
		mu.Lock()
		order = append(order, "writer")
		mu.Unlock()
		MustWrite[position](ctx).value = 1
	})

	reader := NewPermission()
	AddRead[position](reader)
	ts.AddTask("reader", reader, func(ctx *Context, w *Work) {
		mu.Lock()
		order = append(order, "reader")
		mu.Unlock()
		_ = MustRead[position](ctx).value
	})

	ts.RunOnce()

	require.Equal(t, []string{"writer", "reader"}, order)
}

// TestTaskSystemDiamondDependency builds four tasks where C and D both
// read what A writes, and E writes what both C and D read — the
// "diamond" shape (scenario S2): E must run strictly after both C and D.
func TestTaskSystemDiamondDependency(t *testing.T) {
	ts, _ := newTestTaskSystem(t, 4)
	SetContext(ts.Context(), &position{})

	var mu sync.Mutex
	var order []string
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	aPerm := NewPermission()
	AddWrite[position](aPerm)
	ts.AddTask("A", aPerm, func(ctx *Context, w *Work) { record("A") })

	cPerm := NewPermission()
	AddRead[position](cPerm)
	ts.AddTask("C", cPerm, func(ctx *Context, w *Work) { record("C") })

	dPerm := NewPermission()
	AddRead[position](dPerm)
	ts.AddTask("D", dPerm, func(ctx *Context, w *Work) { record("D") })

	ePerm := NewPermission()
	AddWrite[position](ePerm)
	ts.AddTask("E", ePerm, func(ctx *Context, w *Work) { record("E") })

	ts.RunOnce()

	require.Len(t, order, 4)
	indexOf := func(name string) int {
		for i, n := range order {
			if n == name {
				return i
			}
		}
		return -1
	}
	require.Less(t, indexOf("A"), indexOf("C"))
	require.Less(t, indexOf("A"), indexOf("D"))
	require.Less(t, indexOf("C"), indexOf("E"))
	require.Less(t, indexOf("D"), indexOf("E"))
}

func TestTaskSystemIndependentTasksBothRun(t *testing.T) {
	ts, _ := newTestTaskSystem(t, 4)

	var mu sync.Mutex
	ran := map[string]bool{}
	mark := func(name string) {
		mu.Lock()
		ran[name] = true
		mu.Unlock()
	}

	ts.AddTask("left", NewPermission(), func(ctx *Context, w *Work) { mark("left") })
	ts.AddTask("right", NewPermission(), func(ctx *Context, w *Work) { mark("right") })

	ts.RunOnce()

	require.True(t, ran["left"])
	require.True(t, ran["right"])
}

// TestTaskSystemRunExitsOnLoopFlag exercises scenario S6: a task can stop
// TaskSystem.Run by clearing TaskSystemData.IsLoop.
func TestTaskSystemRunExitsOnLoopFlag(t *testing.T) {
	ts, _ := newTestTaskSystem(t, 2)

	frames := 0
	ts.AddTask("ticker", NewPermission(), func(ctx *Context, w *Work) {
		frames++
		if frames >= 3 {
			MustWrite[TaskSystemData](ctx).IsLoop = false
		}
	})

	ts.Run()

	require.Equal(t, 3, frames)
}

// TestTaskSystemScratchPersistsAcrossFrames exercises scenario S5: a
// task's private Scratch state survives across TaskSystem frames.
func TestTaskSystemScratchPersistsAcrossFrames(t *testing.T) {
	ts, _ := newTestTaskSystem(t, 2)

	var observed []int
	ts.AddTask("counter", NewPermission(), func(ctx *Context, w *Work) {
		s := Scratch[position](w)
		s.value++
		observed = append(observed, s.value)
	})

	ts.RunOnce()
	ts.RunOnce()
	ts.RunOnce()

	require.Equal(t, []int{1, 2, 3}, observed)
}

// TestTaskSystemGoroutinePin exercises scenario S4: a task pinned to the
// registering goroutine only ever executes there, even when a frame
// (TaskSystem.RunOnce) is driven from that same goroutine alongside a
// worker pool.
func TestTaskSystemGoroutinePin(t *testing.T) {
	ts, _ := newTestTaskSystem(t, 4)

	mainToken := goroutineToken()
	var observedToken string

	tj := ts.AddTask("pinned", NewPermission(), func(ctx *Context, w *Work) {
		observedToken = goroutineToken()
	})
	tj.PinToCallingGoroutine()

	ts.RunOnce()

	require.Equal(t, mainToken, observedToken)
}
