package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobLifecycle(t *testing.T) {
	j := NewJob("lifecycle")
	require.Equal(t, StateNone, j.State())

	require.True(t, j.CanSubmit())
	j.Submit()
	require.Equal(t, StateWaitExec, j.State())

	require.True(t, j.CanExec())
	j.Exec()
	require.Equal(t, StateWaitDone, j.State())

	require.True(t, j.CanDone())
	j.Done()
	require.Equal(t, StateDone, j.State())

	j.Reset()
	require.Equal(t, StateNone, j.State())
}

func TestJobResetPanicsOutsideNoneOrDone(t *testing.T) {
	j := NewJob("mid-flight")
	j.Submit()
	assert.Panics(t, func() { j.Reset() })
}

func TestPrerequisiteGatesExec(t *testing.T) {
	upstream := NewJob("upstream")
	downstream := NewJob("downstream")

	require.True(t, downstream.AddPrerequisite(upstream))

	upstream.Submit()
	downstream.Submit()

	require.False(t, downstream.CanExec(), "downstream must wait on upstream")

	upstream.Exec()
	require.True(t, upstream.CanDone())
	upstream.Done()

	require.True(t, downstream.CanExec(), "upstream completing should release downstream")
}

func TestAddPrerequisiteRejectsCycle(t *testing.T) {
	a := NewJob("a")
	b := NewJob("b")
	c := NewJob("c")

	require.True(t, b.AddPrerequisite(a))
	require.True(t, c.AddPrerequisite(b))

	// a -> (depends on nothing); attempting a depends on c would close the
	// loop a -> c -> b -> a.
	require.False(t, a.AddPrerequisite(c), "transitive cycle must be rejected")
}

func TestAddPrerequisiteRejectsSelf(t *testing.T) {
	a := NewJob("self")
	require.False(t, a.AddPrerequisite(a))
}

func TestAddPrerequisiteRequiresNoneState(t *testing.T) {
	a := NewJob("a")
	b := NewJob("b")
	a.Submit()
	require.False(t, b.AddPrerequisite(a), "prerequisite must be in None")
}

func TestAddChildGatesDone(t *testing.T) {
	parent := NewJob("parent")
	parent.Submit()
	require.True(t, parent.CanExec())

	// Simulate the worker moving parent into Exec manually so AddChild's
	// precondition holds, without running a real OnExec hook.
	parent.mu.Lock()
	parent.state = StateExec
	parent.mu.Unlock()

	child := NewJob("child")
	require.True(t, parent.AddChild(child))

	parent.mu.Lock()
	parent.state = StateWaitDone
	parent.mu.Unlock()
	require.False(t, parent.CanDone(), "parent must wait on its child")

	child.Submit()
	require.True(t, child.CanExec())
	child.Exec()
	require.True(t, child.CanDone())
	child.Done()

	require.True(t, parent.CanDone(), "child completing should release parent")
}

func TestAddChildRequiresParentExecAndChildNone(t *testing.T) {
	parent := NewJob("parent")
	child := NewJob("child")
	require.False(t, parent.AddChild(child), "parent not yet in Exec")

	child.Submit()
	parent.mu.Lock()
	parent.state = StateExec
	parent.mu.Unlock()
	require.False(t, parent.AddChild(child), "child must be in None")
}
