package async

import (
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Executor schedules a unit of work. Every node of a FunctionGraph runs its
// native function body as one task, so task granularity is one dataflow
// node (spec.md §4.4: "invoke the node's AnyFunction on the executor").
type Executor interface {
	Schedule(task func())
}

// ExecutorRef is a non-owning handle: holding one keeps the underlying
// Executor alive (via refcount) without granting ownership, mirroring
// spec.md §4.4's "ref counts on the underlying executor keep it alive".
type ExecutorRef struct {
	exec Executor
	refs *int32
	mu   *sync.Mutex
}

func NewExecutorRef(exec Executor) ExecutorRef {
	n := int32(1)
	return ExecutorRef{exec: exec, refs: &n, mu: &sync.Mutex{}}
}

func (r ExecutorRef) Clone() ExecutorRef {
	r.mu.Lock()
	*r.refs++
	r.mu.Unlock()
	return r
}

func (r ExecutorRef) Schedule(task func()) { r.exec.Schedule(task) }

// SeqExecutor runs every task synchronously on the calling goroutine: the
// "single-threaded sequential executor" spec.md §4.4 lists, useful for
// deterministic tests and for native functions that must not run
// concurrently with their caller (e.g. a REPL's own stdout).
type SeqExecutor struct{}

func (SeqExecutor) Schedule(task func()) { task() }

// TaskExecutor is a small hand-rolled worker pool: a fixed number of
// goroutines pull tasks from a channel buffered to 256 tasks (Schedule
// blocks while it is full). This is the "work-
// stealing task pool" alternative spec.md §4.4 asks for when no external
// pool library is wanted.
type TaskExecutor struct {
	tasks chan func()
	wg    sync.WaitGroup
}

func NewTaskExecutor(workers int) *TaskExecutor {
	e := &TaskExecutor{tasks: make(chan func(), 256)}
	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			for task := range e.tasks {
				task()
			}
		}()
	}
	return e
}

func (e *TaskExecutor) Schedule(task func()) { e.tasks <- task }

func (e *TaskExecutor) Close() {
	close(e.tasks)
	e.wg.Wait()
}

// PoolExecutor is the "work-stealing variant using an external library"
// spec.md §4.4 names: it submits every task to an ants.Pool, which handles
// goroutine reuse and backpressure itself.
type PoolExecutor struct {
	pool *ants.Pool
}

func NewPoolExecutor(size int) (*PoolExecutor, error) {
	p, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &PoolExecutor{pool: p}, nil
}

func (e *PoolExecutor) Schedule(task func()) {
	_ = e.pool.Submit(task)
}

func (e *PoolExecutor) Release() { e.pool.Release() }
