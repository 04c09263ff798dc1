package pipeline

import (
	"testing"
	"time"
)

func TestRun_FinishCompleted(t *testing.T) {
	run := newRun(ChunkedRequest{QuestionsPerChunk: 3, ChunkSize: 1000})
	run.SetChunking(2, false)
	run.ChunkDone(3)
	run.ChunkDone(2)

	if got := run.Finish(); got != RunCompleted {
		t.Fatalf("expected %q, got %q", RunCompleted, got)
	}
	snap := run.Snapshot()
	if snap.Progress.ChunksProcessed != 2 || snap.Progress.PairsGenerated != 5 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
	if snap.Progress.Errors == nil || len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty non-nil errors, got %#v", snap.Progress.Errors)
	}
	if snap.Phase != "done" {
		t.Errorf("expected phase done, got %q", snap.Phase)
	}
}

func TestRun_FinishPartial(t *testing.T) {
	run := newRun(ChunkedRequest{})
	run.SetChunking(3, false)
	run.AddError(ChunkError{ChunkIndex: 1, Attempts: 3, Message: "boom"})

	if got := run.Finish(); got != RunPartial {
		t.Fatalf("expected %q, got %q", RunPartial, got)
	}
	errs := run.Snapshot().Progress.Errors
	if len(errs) != 1 || errs[0].ChunkIndex != 1 {
		t.Errorf("unexpected errors %+v", errs)
	}
}

func TestRun_FinishFailedWhenEveryChunkFails(t *testing.T) {
	run := newRun(ChunkedRequest{})
	run.SetChunking(1, false)
	run.AddError(ChunkError{ChunkIndex: 0, Attempts: 3, Message: "boom"})

	if got := run.Finish(); got != RunFailed {
		t.Fatalf("expected %q, got %q", RunFailed, got)
	}
}

func TestRun_SnapshotIsACopy(t *testing.T) {
	run := newRun(ChunkedRequest{})
	run.AddError(ChunkError{ChunkIndex: 0})
	snap := run.Snapshot()
	snap.Progress.Errors[0].Message = "changed"

	if run.Snapshot().Progress.Errors[0].Message != "" {
		t.Error("snapshot shares ledger storage with the run")
	}
}

func TestRun_SetStatusAdvancesUpdatedAt(t *testing.T) {
	run := newRun(ChunkedRequest{})
	before := run.UpdatedAt
	time.Sleep(time.Millisecond)
	run.SetStatus(RunFailed, "interrupted")

	if run.Status != RunFailed || run.Phase != "interrupted" {
		t.Errorf("unexpected state %q/%q", run.Status, run.Phase)
	}
	if !run.UpdatedAt.After(before) {
		t.Error("expected UpdatedAt to advance")
	}
}

func TestRunStore_PutGet(t *testing.T) {
	store := NewRunStore(time.Hour)
	run := newRun(ChunkedRequest{})
	store.Put(run)

	if store.Get(run.ID) != run {
		t.Fatal("expected stored run")
	}
	if store.Get("missing") != nil {
		t.Fatal("expected nil for unknown id")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 run, got %d", store.Len())
	}
}

func TestRunStore_CleanupEvictsFinishedExpiredRuns(t *testing.T) {
	store := NewRunStore(time.Minute)

	done := newRun(ChunkedRequest{})
	done.Finish()
	running := newRun(ChunkedRequest{})
	fresh := newRun(ChunkedRequest{})
	fresh.Finish()

	store.Put(done)
	store.Put(running)
	store.Put(fresh)

	// Only fresh was touched recently.
	old := time.Now().Add(-2 * time.Minute)
	done.UpdatedAt = old
	running.UpdatedAt = old

	if n := store.Cleanup(time.Now()); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if store.Get(done.ID) != nil {
		t.Error("expected expired finished run to be evicted")
	}
	if store.Get(running.ID) == nil {
		t.Error("expected running run to be kept")
	}
	if store.Get(fresh.ID) == nil {
		t.Error("expected recent run to be kept")
	}
}
