package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/family-budget/internal/jobs"
	"github.com/dvloznov/family-budget/internal/parser"
)

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus) *jobs.ParseInputJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), jobID)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %q", jobID, want)
	return nil
}

func TestQueue_ProcessesJob(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, store)
	defer queue.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := func(ctx context.Context, job jobs.Job) error {
		parseJob := job.(*jobs.ParseInputJob)
		parseJob.Result = &parser.Result{
			Expense: &parser.ExpenseCommand{Amount: 50000, RawInput: parseJob.Text},
		}
		return nil
	}

	if err := queue.Start(ctx, handler); err != nil {
		t.Fatalf("Start: %v", err)
	}

	job := &jobs.ParseInputJob{Text: "coffee 50k"}
	if err := queue.PublishParseInput(ctx, job); err != nil {
		t.Fatalf("PublishParseInput: %v", err)
	}
	if job.JobID == "" {
		t.Fatal("publish did not assign a job ID")
	}

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if done.Result == nil || done.Result.Expense == nil || done.Result.Expense.Amount != 50000 {
		t.Errorf("completed job missing result: %+v", done.Result)
	}
	if done.StartedAt == nil || done.CompletedAt == nil {
		t.Error("completed job missing timestamps")
	}
}

func TestQueue_FailedJobIsNotRetried(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, store)
	defer queue.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	handler := func(ctx context.Context, job jobs.Job) error {
		calls.Add(1)
		return errors.New("handler fault")
	}

	if err := queue.Start(ctx, handler); err != nil {
		t.Fatalf("Start: %v", err)
	}

	job := &jobs.ParseInputJob{Text: "broken"}
	if err := queue.PublishParseInput(ctx, job); err != nil {
		t.Fatalf("PublishParseInput: %v", err)
	}

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	if failed.Error != "handler fault" {
		t.Errorf("Error = %q, want handler fault", failed.Error)
	}

	// Give any erroneous retry a chance to fire, then check the count.
	time.Sleep(100 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("handler called %d times, want exactly 1", n)
	}
}

func TestQueue_WorkerCountOption(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, store, WithWorkerCount(2))
	defer queue.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var running atomic.Int32
	release := make(chan struct{})
	handler := func(ctx context.Context, job jobs.Job) error {
		running.Add(1)
		<-release
		running.Add(-1)
		return nil
	}

	if err := queue.Start(ctx, handler); err != nil {
		t.Fatalf("Start: %v", err)
	}

	published := make([]*jobs.ParseInputJob, 3)
	for i := range published {
		published[i] = &jobs.ParseInputJob{Text: "job"}
		if err := queue.PublishParseInput(ctx, published[i]); err != nil {
			t.Fatalf("PublishParseInput: %v", err)
		}
	}

	// With two workers, the third job must stay queued.
	deadline := time.Now().Add(time.Second)
	for running.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	if n := running.Load(); n != 2 {
		t.Errorf("running = %d, want 2 in flight with worker count 2", n)
	}

	close(release)
	for _, job := range published {
		waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	}
}

func TestQueue_PublishAfterClose(t *testing.T) {
	store := NewStore()
	queue := NewQueue(1, store)

	if err := queue.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	err := queue.PublishParseInput(context.Background(), &jobs.ParseInputJob{Text: "x"})
	if err == nil {
		t.Error("expected error publishing to a closed queue")
	}
}

func TestQueue_StopWaitsForInFlight(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, store)

	ctx := context.Background()

	release := make(chan struct{})
	handler := func(ctx context.Context, job jobs.Job) error {
		<-release
		return nil
	}

	if err := queue.Start(ctx, handler); err != nil {
		t.Fatalf("Start: %v", err)
	}

	job := &jobs.ParseInputJob{Text: "slow"}
	if err := queue.PublishParseInput(ctx, job); err != nil {
		t.Fatalf("PublishParseInput: %v", err)
	}
	waitForStatus(t, store, job.JobID, jobs.JobStatusRunning)

	stopDone := make(chan error, 1)
	go func() {
		stopDone <- queue.Stop(context.Background())
	}()

	select {
	case <-stopDone:
		t.Fatal("Stop returned while a job was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	if err := <-stopDone; err != nil {
		t.Errorf("Stop: %v", err)
	}

	waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
}
