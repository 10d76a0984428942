package ids

import "github.com/google/uuid"

// Generator is per-task Scratch state (task.Scratch[Generator]) handing
// out fresh identifiers for records a task creates, without that task
// needing to import google/uuid at every call site. Zero value is ready
// to use.
type Generator struct{}

// Next returns a new random (v4) identifier.
func (Generator) Next() string {
	return uuid.New().String()
}
