package inmemory

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/finla/internal/clock"
	"github.com/dvloznov/finla/internal/export"
	"github.com/dvloznov/finla/internal/jobs"
	"github.com/dvloznov/finla/internal/logger"
)

func newTestQueue(store *Store) *Queue {
	q := NewQueue(10, 2, store, clock.NewReal(), logger.NewWithWriter(io.Discard))
	q.backoff = func(int) time.Duration { return time.Millisecond }
	return q
}

func waitForStatus(t *testing.T, store *Store, id string, want jobs.JobStatus) *jobs.ExportJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), id)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	job, _ := store.GetJob(context.Background(), id)
	t.Fatalf("job %s status = %+v, want %s", id, job, want)
	return nil
}

func TestQueue_ProcessesJob(t *testing.T) {
	store := NewStore()
	q := newTestQueue(store)
	ctx := context.Background()

	handler := func(ctx context.Context, job *jobs.ExportJob) error {
		job.Result = &export.Result{Target: job.Target, Exported: 7}
		return nil
	}
	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer q.Close()

	job := &jobs.ExportJob{Target: export.TargetGCS}
	if err := q.PublishExport(ctx, job); err != nil {
		t.Fatalf("PublishExport() error = %v", err)
	}
	if job.JobID == "" || job.MaxRetries != jobs.DefaultMaxRetries || job.CreatedAt.IsZero() {
		t.Errorf("defaults not applied: %+v", job)
	}

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if done.Result == nil || done.Result.Exported != 7 || done.StartedAt == nil || done.CompletedAt == nil {
		t.Errorf("completed job = %+v", done)
	}
}

func TestQueue_RetriesThenSucceeds(t *testing.T) {
	store := NewStore()
	q := newTestQueue(store)
	ctx := context.Background()

	var calls atomic.Int32
	handler := func(ctx context.Context, job *jobs.ExportJob) error {
		if calls.Add(1) == 1 {
			return errors.New("transient")
		}
		return nil
	}
	q.Start(ctx, handler)
	defer q.Close()

	job := &jobs.ExportJob{Target: export.TargetNotion}
	q.PublishExport(ctx, job)

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if done.RetryCount != 1 || done.Error != "" {
		t.Errorf("job = %+v, want one retry and no error", done)
	}
}

func TestQueue_GivesUp(t *testing.T) {
	store := NewStore()
	q := newTestQueue(store)
	ctx := context.Background()

	handler := func(ctx context.Context, job *jobs.ExportJob) error {
		return errors.New("bucket missing")
	}
	q.Start(ctx, handler)
	defer q.Close()

	job := &jobs.ExportJob{Target: export.TargetGCS, MaxRetries: 2}
	q.PublishExport(ctx, job)

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	if failed.RetryCount != 2 || failed.Error != "bucket missing" {
		t.Errorf("job = %+v", failed)
	}
}

func TestQueue_Closed(t *testing.T) {
	q := newTestQueue(NewStore())
	if err := q.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := q.PublishExport(context.Background(), &jobs.ExportJob{}); !errors.Is(err, jobs.ErrQueueClosed) {
		t.Errorf("PublishExport() error = %v, want ErrQueueClosed", err)
	}
	if err := q.Start(context.Background(), nil); !errors.Is(err, jobs.ErrQueueClosed) {
		t.Errorf("Start() error = %v, want ErrQueueClosed", err)
	}
}
