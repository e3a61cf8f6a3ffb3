package infrastructure

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestRunBatchRunsEveryTask(t *testing.T) {
	wp := NewWorkerPool(4)
	wp.Start()
	defer wp.Stop()

	var counter int64
	tasks := make([]Task, 10)
	for i := range tasks {
		tasks[i] = func() error {
			atomic.AddInt64(&counter, 1)
			return nil
		}
	}

	if err := wp.RunBatch(tasks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counter != 10 {
		t.Fatalf("ran %d tasks, want 10", counter)
	}
}

func TestRunBatchReturnsFirstError(t *testing.T) {
	wp := NewWorkerPool(2)
	wp.Start()
	defer wp.Stop()

	boom := errors.New("boom")
	tasks := []Task{
		func() error { return nil },
		func() error { return boom },
		func() error { return nil },
	}

	if err := wp.RunBatch(tasks); !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
}

func TestRunBatchPoolStaysUsable(t *testing.T) {
	wp := NewWorkerPool(2)
	wp.Start()
	defer wp.Stop()

	var counter int64
	task := Task(func() error {
		atomic.AddInt64(&counter, 1)
		return nil
	})

	if err := wp.RunBatch([]Task{task, task}); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := wp.RunBatch([]Task{task, task}); err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if counter != 4 {
		t.Fatalf("ran %d tasks, want 4", counter)
	}
}

func TestSubmitAfterStopFails(t *testing.T) {
	wp := NewWorkerPool(2)
	wp.Start()
	wp.Stop()

	if err := wp.Submit(func() error { return nil }); err == nil {
		t.Fatal("expected error after Stop")
	}
}

func BenchmarkRunBatch4Tasks(b *testing.B) {
	wp := NewWorkerPool(4)
	wp.Start()
	defer wp.Stop()

	tasks := make([]Task, 4)
	for i := range tasks {
		tasks[i] = func() error {
			sum := 0
			for j := 0; j < 1000; j++ {
				sum += j
			}
			return nil
		}
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = wp.RunBatch(tasks)
	}
}
