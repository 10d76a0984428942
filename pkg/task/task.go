package task

// Task is a declarative unit of work: a fixed Permission computed once at
// construction, a private Work store, and an Exec entry point invoked
// against a shared Context every frame.
type Task interface {
	Permission() *Permission
	Exec(ctx *Context)
}

// funcTask is the common Task variant, built from a plain function that
// closes over typed context accessors. Go has no variadic-template
// parameter reflection (spec.md §9 "Callable dispatch"), so instead of
// deriving Permission from a callable's parameter list, FuncTask takes an
// explicit *Permission (built with the AddRead/AddWrite helpers) and a
// closure receiving (*Context, *Work), inside which Scratch resolves
// per-task state — the boxed-callable alternative the spec sanctions.
type funcTask struct {
	permission *Permission
	work       *Work
	fn         func(ctx *Context, work *Work)
}

// NewFuncTask builds a Task from permission and fn. permission should be
// populated by the caller via AddRead[T]/AddWrite[T] before the task ever
// runs; Scratch[T] parameters don't touch permission at all (§4.7).
func NewFuncTask(permission *Permission, fn func(ctx *Context, work *Work)) Task {
	return &funcTask{
		permission: permission,
		work:       NewWork(),
		fn:         fn,
	}
}

func (t *funcTask) Permission() *Permission { return t.permission }

func (t *funcTask) Exec(ctx *Context) {
	t.fn(ctx, t.work)
}

// Scratch resolves a mutable handle into this task's own Work for T,
// default-constructing one if absent. It is the mechanism by which a task
// retains private state across frames without contending on a shared
// Context entry (spec.md §4.7); call it from inside a funcTask's fn.
func Scratch[T any](work *Work) *T {
	if !ExistsWork[T](work) {
		var zero T
		EmplaceWork(work, zero)
	}
	return GetWorkMut[T](work)
}

// MustRead resolves a required read-only dependency from ctx. Per
// spec.md §4.6's error model, an unresolved required dependency (by-value
// or by-reference parameter forms) is a programmer error: it panics rather
// than silently returning a zero value. Pointer forms should call
// GetContext directly and handle nil themselves.
func MustRead[T any](ctx *Context) *T {
	p := GetContext[T](ctx)
	if p == nil {
		panic("task.MustRead: unresolved dependency for required parameter")
	}
	return p
}

// MustWrite is the write-permission counterpart of MustRead.
func MustWrite[T any](ctx *Context) *T {
	p := GetContext[T](ctx)
	if p == nil {
		panic("task.MustWrite: unresolved dependency for required parameter")
	}
	return p
}
