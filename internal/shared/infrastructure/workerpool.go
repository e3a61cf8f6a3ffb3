package infrastructure

import (
	"context"
	"fmt"
	"sync"
)

// Task is a unit of work submitted to the pool.
type Task func() error

// WorkerPool runs tasks on a fixed set of goroutines. A single pool is
// shared by the services that fan the four trailing-window computations
// out in parallel; the record set they read is immutable, so tasks need
// no coordination beyond completion.
type WorkerPool struct {
	workerCount int
	tasks       chan Task
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewWorkerPool creates a pool with workerCount workers.
func NewWorkerPool(workerCount int) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		workerCount: workerCount,
		tasks:       make(chan Task, workerCount*2),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			return
		case task, ok := <-wp.tasks:
			if !ok {
				return
			}
			// Task errors are reported through RunBatch; a bare
			// Submit caller has opted out of error collection.
			_ = task()
		}
	}
}

// Start launches the workers.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// Submit queues a task. It fails once the pool is stopped.
func (wp *WorkerPool) Submit(task Task) error {
	select {
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is stopped")
	case wp.tasks <- task:
		return nil
	}
}

// RunBatch submits the tasks, waits for all of them, and returns the
// first error observed. The pool stays usable for further batches.
func (wp *WorkerPool) RunBatch(tasks []Task) error {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		first error
	)

	for _, task := range tasks {
		task := task
		wg.Add(1)
		err := wp.Submit(func() error {
			defer wg.Done()
			if err := task(); err != nil {
				mu.Lock()
				if first == nil {
					first = err
				}
				mu.Unlock()
				return err
			}
			return nil
		})
		if err != nil {
			wg.Done()
			return err
		}
	}

	wg.Wait()
	return first
}

// Stop cancels the workers and waits for them to exit.
func (wp *WorkerPool) Stop() {
	wp.cancel()
	wp.wg.Wait()
}
