package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/neuroscreen-ai/platform/pkg/common/models"
)

func testCase(id string) *models.CaseRecord {
	return &models.CaseRecord{
		ID:          id,
		SubmittedAt: time.Now().UTC(),
		Submission: models.CaseSubmission{
			Demographics: models.Demographics{Label: "case " + id, AgeMonths: 36, Sex: "female"},
			Assessments:  models.Assessments{IQDQ: 90, NeurologicalExam: "normal"},
			Behaviors:    models.Behaviors{LanguageLevel: "full_sentences"},
		},
		Inference: models.InferenceResult{Version: models.CurrentInferenceVersion, Status: models.InferencePending},
		JobID:     "job-" + id,
	}
}

func TestFileStoreCaseRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := store.Case(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	rec := testCase("c1")
	if err := store.PutCase(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, err := store.Case(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Submission.Demographics.Label != "case c1" || got.JobID != "job-c1" {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	all, err := store.AllCases(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one case, got %d", len(all))
	}
}

func TestFileStoreJobRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	job := &models.InferenceJob{
		ID:        "j1",
		CaseID:    "c1",
		Status:    models.JobQueued,
		CreatedAt: time.Now().UTC(),
		History:   []models.JobEvent{{Status: models.JobQueued, Timestamp: time.Now().UTC()}},
	}
	if err := store.PutJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	job.Status = models.JobSucceeded
	job.History = append(job.History, models.JobEvent{Status: models.JobSucceeded, Timestamp: time.Now().UTC()})
	if err := store.PutJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	got, err := store.Job(ctx, "j1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.JobSucceeded || len(got.History) != 2 {
		t.Fatalf("job update lost: %+v", got)
	}
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.PutCase(ctx, testCase("c1")); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reopened.Case(ctx, "c1"); err != nil {
		t.Fatalf("case lost after reopen: %v", err)
	}
}

func TestFileStoreHide(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := store.HideCase(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.PutCase(ctx, testCase("c1")); err != nil {
		t.Fatal(err)
	}
	if err := store.HideCase(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	// Hiding twice is a no-op, not a duplicate.
	if err := store.HideCase(ctx, "c1"); err != nil {
		t.Fatal(err)
	}

	hidden, err := store.HiddenCaseIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(hidden) != 1 || hidden[0] != "c1" {
		t.Fatalf("hidden ids %v", hidden)
	}

	// Soft delete: direct fetch still works.
	if _, err := store.Case(ctx, "c1"); err != nil {
		t.Fatalf("hidden case should still be fetchable: %v", err)
	}
}

func TestFileStorePayloadAndStatus(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := store.PutCase(ctx, testCase("c1")); err != nil {
		t.Fatal(err)
	}
	if err := store.SavePayload(ctx, "c1", []byte(`{"struct_data":{}}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "payloads", "c1.json")); err != nil {
		t.Fatalf("payload file missing: %v", err)
	}

	status, err := store.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if status.Mode != "local" {
		t.Errorf("mode %q", status.Mode)
	}
	if status.Cases != 1 || status.Jobs != 0 || status.Hidden != 0 {
		t.Errorf("unexpected counts: %+v", status)
	}
}
