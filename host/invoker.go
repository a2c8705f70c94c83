package host

import "sync"

// QueueInvoker is a TaskInvoker that holds tasks until RunPending is called.
// Both phases of a task then run on the calling goroutine, which makes the
// dispatch point deterministic.
type QueueInvoker struct {
	mu     sync.Mutex
	tasks  []queuedTask
	closed bool
}

type queuedTask struct {
	work func()
	done func()
}

// InvokeAsync queues the task.
func (q *QueueInvoker) InvokeAsync(work func(), done func()) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.tasks = append(q.tasks, queuedTask{work: work, done: done})
	return nil
}

// Pending returns the number of tasks waiting to run.
func (q *QueueInvoker) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// RunPending runs every queued task, including tasks queued while running,
// and returns how many ran.
func (q *QueueInvoker) RunPending() int {
	n := 0
	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			q.mu.Unlock()
			return n
		}
		t := q.tasks[0]
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		if t.work != nil {
			t.work()
		}
		if t.done != nil {
			t.done()
		}
		n++
	}
}

// Close rejects further tasks and drops queued ones.
func (q *QueueInvoker) Close() {
	q.mu.Lock()
	q.closed = true
	q.tasks = nil
	q.mu.Unlock()
}
