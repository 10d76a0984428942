package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermissionWriteSubsumesRead(t *testing.T) {
	p := NewPermission()
	AddRead[widget](p)
	assert.Len(t, p.Reads(), 1)

	AddWrite[widget](p)
	assert.Empty(t, p.Reads(), "write must remove the prior read")
	assert.Len(t, p.Writes(), 1)
}

func TestPermissionAddReadAfterWriteIsNoop(t *testing.T) {
	p := NewPermission()
	AddWrite[widget](p)
	AddRead[widget](p)

	assert.Empty(t, p.Reads(), "a type already in writes stays out of reads")
	assert.Len(t, p.Writes(), 1)
}

func TestPermissionConflicts(t *testing.T) {
	p := NewPermission()
	AddRead[widget](p)
	AddWrite[gadget](p)

	wk := KeyOf[widget]()
	gk := KeyOf[gadget]()

	assert.True(t, p.ConflictsWrite(wk), "a write of something we read conflicts")
	assert.False(t, p.ConflictsRead(wk), "a read of something we only read does not conflict")

	assert.True(t, p.ConflictsWrite(gk))
	assert.True(t, p.ConflictsRead(gk), "a read of something we write conflicts")
}
