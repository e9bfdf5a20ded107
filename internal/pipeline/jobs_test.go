package pipeline

import (
	"testing"
	"time"

	"github.com/dgallion1/docmock/internal/store"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob("f1", "orders.md", []byte("x"))
	if job.Status != store.StatusPending {
		t.Fatalf("new job status = %q", job.Status)
	}

	transitions := []struct {
		status store.UploadStatus
		phase  string
	}{
		{store.StatusProcessing, "parsing"},
		{store.StatusProcessing, "extracting"},
		{store.StatusCompleted, "done"},
	}
	for _, tr := range transitions {
		before := job.UpdatedAt
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status || job.Phase != tr.phase {
			t.Errorf("got %q/%q, want %q/%q", job.Status, job.Phase, tr.status, tr.phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_ProgressCounters(t *testing.T) {
	job := NewJob("f2", "a.md", nil)
	job.SetTotalChunks(4)
	job.IncrChunksProcessed()
	job.IncrChunksProcessed()
	job.AddCandidates(5, 3)
	job.AddCandidates(1, 1)
	job.AddError("chunk 3 failed")

	snap := job.Snapshot()
	if snap.Progress.TotalChunks != 4 || snap.Progress.ChunksProcessed != 2 {
		t.Errorf("chunks = %+v", snap.Progress)
	}
	if snap.Progress.Candidates != 6 || snap.Progress.Saved != 4 {
		t.Errorf("candidates = %+v", snap.Progress)
	}
	if len(snap.Progress.Errors) != 1 || snap.Progress.Errors[0] != "chunk 3 failed" {
		t.Errorf("errors = %v", snap.Progress.Errors)
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	snap := NewJob("f3", "a.md", nil).Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
}

func TestJob_Record(t *testing.T) {
	job := NewJob("f4", "a.md", nil)
	job.SceneID = "s1"
	job.FullAI = true
	rec := job.Record()
	if rec.Status != store.StatusPending || rec.ProcessedAt != nil || !rec.FullAI || rec.SceneID != "s1" {
		t.Errorf("pending record = %+v", rec)
	}

	job.AddError("parse: boom")
	job.SetStatus(store.StatusFailed, "failed")
	rec = job.Record()
	if rec.ProcessedAt == nil || rec.ErrorMessage != "parse: boom" {
		t.Errorf("failed record = %+v", rec)
	}
}

func TestJob_FileData(t *testing.T) {
	job := NewJob("f5", "a.md", []byte("file content here"))
	if string(job.FileData()) != "file content here" {
		t.Errorf("got %q", job.FileData())
	}
	job.releaseData()
	if job.FileData() != nil {
		t.Error("expected data released")
	}
}

func TestJobStore_PutGet(t *testing.T) {
	js := NewJobStore(time.Hour)
	js.Put(NewJob("store-1", "a.md", nil))
	if got := js.Get("store-1"); got == nil || got.FileID != "store-1" {
		t.Fatalf("got %+v", got)
	}
	if js.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_CleanupKeepsRunningJobs(t *testing.T) {
	js := NewJobStore(50 * time.Millisecond)

	finished := NewJob("old", "a.md", nil)
	finished.SetStatus(store.StatusCompleted, "done")
	running := NewJob("running", "b.md", nil)
	running.SetStatus(store.StatusProcessing, "extracting")
	js.Put(finished)
	js.Put(running)

	time.Sleep(100 * time.Millisecond)
	js.Cleanup()

	if js.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if js.Get("running") == nil {
		t.Error("expected running job to survive cleanup")
	}
}
