package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct{ count int }
type gadget struct{ label string }

func TestContextSetGet(t *testing.T) {
	ctx := NewContext()
	require.Nil(t, GetContext[widget](ctx))

	w := &widget{count: 3}
	SetContext(ctx, w)

	got := GetContext[widget](ctx)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.count)
	assert.Same(t, w, got)
}

func TestContextDistinctTypesDoNotCollide(t *testing.T) {
	ctx := NewContext()
	SetContext(ctx, &widget{count: 1})
	SetContext(ctx, &gadget{label: "g"})

	assert.Equal(t, 1, GetContext[widget](ctx).count)
	assert.Equal(t, "g", GetContext[gadget](ctx).label)
}

func TestWorkEmplaceAndScratch(t *testing.T) {
	w := NewWork()
	require.False(t, ExistsWork[widget](w))

	ok := EmplaceWork(w, widget{count: 5})
	require.True(t, ok)
	require.True(t, ExistsWork[widget](w))

	got := GetWork[widget](w)
	require.NotNil(t, got)
	assert.Equal(t, 5, got.count)

	mut := GetWorkMut[widget](w)
	mut.count = 42
	assert.Equal(t, 42, GetWork[widget](w).count)
	assert.Same(t, mut, Scratch[widget](w), "Scratch must return the emplaced value, not a fresh one")
}

func TestWorkEmplaceTwiceFails(t *testing.T) {
	w := NewWork()
	require.True(t, EmplaceWork(w, widget{count: 1}))
	require.False(t, EmplaceWork(w, widget{count: 2}), "second Emplace for same type must fail")
	assert.Equal(t, 1, GetWork[widget](w).count)
}

func TestScratchLazyInitAndPersists(t *testing.T) {
	w := NewWork()
	s := Scratch[widget](w)
	s.count++
	s.count++

	again := Scratch[widget](w)
	assert.Equal(t, 2, again.count, "Scratch must return the same backing value across calls")
}
