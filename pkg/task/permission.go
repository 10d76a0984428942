package task

// Permission is a pair of sets (reads, writes) over TypeKey, used to derive
// prerequisite edges between tasks registered in the same TaskSystem. A
// write subsumes a read: adding a write for a key removes any read of that
// same key, and reads ∩ writes = ∅ always holds.
//
// Reads/writes are small per-task sets, so a slice kept in insertion order
// is preferred over a map for deterministic iteration order, at the cost
// of O(n) membership checks — fine given n is the handful of resource
// types one task touches.
type Permission struct {
	reads  []TypeKey
	writes []TypeKey
}

// NewPermission returns an empty Permission.
func NewPermission() *Permission {
	return &Permission{}
}

// AddRead inserts T's key into reads unless it is already in writes.
func AddRead[T any](p *Permission) {
	key := KeyOf[T]()
	if containsKey(p.writes, key) {
		return
	}
	if !containsKey(p.reads, key) {
		p.reads = append(p.reads, key)
	}
}

// AddWrite inserts T's key into writes, removing it from reads if present.
func AddWrite[T any](p *Permission) {
	key := KeyOf[T]()
	p.reads = removeKey(p.reads, key)
	if !containsKey(p.writes, key) {
		p.writes = append(p.writes, key)
	}
}

// ConflictsWrite reports whether a write of k would conflict with this
// permission: true if k is read or written by it.
func (p *Permission) ConflictsWrite(k TypeKey) bool {
	return containsKey(p.reads, k) || containsKey(p.writes, k)
}

// ConflictsRead reports whether a read of k would conflict with this
// permission: true only if k is written by it (concurrent reads never
// conflict with each other).
func (p *Permission) ConflictsRead(k TypeKey) bool {
	return containsKey(p.writes, k)
}

// Reads returns the keys read by this permission, in registration order.
func (p *Permission) Reads() []TypeKey {
	return append([]TypeKey(nil), p.reads...)
}

// Writes returns the keys written by this permission, in registration order.
func (p *Permission) Writes() []TypeKey {
	return append([]TypeKey(nil), p.writes...)
}

func containsKey(keys []TypeKey, k TypeKey) bool {
	for _, existing := range keys {
		if existing == k {
			return true
		}
	}
	return false
}

func removeKey(keys []TypeKey, k TypeKey) []TypeKey {
	for i, existing := range keys {
		if existing == k {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}
