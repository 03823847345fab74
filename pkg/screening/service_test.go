package screening

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/neuroscreen-ai/platform/pkg/common/logger"
	"github.com/neuroscreen-ai/platform/pkg/common/models"
	"github.com/neuroscreen-ai/platform/pkg/predictor"
	"github.com/neuroscreen-ai/platform/pkg/storage"
)

func init() {
	logger.Init("screening-test")
}

type failingPredictor struct {
	err error
}

func (f *failingPredictor) Predict(ctx context.Context, req models.PredictRequest) (*models.PredictResponse, error) {
	return nil, f.err
}

func newTestService(t *testing.T, pred predictor.Predictor) *Service {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if pred == nil {
		pred = predictor.NewMockPredictor()
	}
	return NewService(NewMapper(DefaultCatalog()), pred, store, nil, nil, nil)
}

func TestSubmitReachesTerminalState(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	record, err := svc.Submit(ctx, baseSubmission())
	if err != nil {
		t.Fatal(err)
	}
	if record.ID == "" || record.JobID == "" {
		t.Fatalf("missing ids: %+v", record)
	}
	if !strings.HasPrefix(record.ID, "NS-") {
		t.Errorf("case id %q not date derived", record.ID)
	}

	fetched, err := svc.Get(ctx, record.ID)
	if err != nil {
		t.Fatal(err)
	}
	job, err := svc.store.Job(ctx, fetched.JobID)
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != models.JobSucceeded && job.Status != models.JobFailed {
		t.Fatalf("job left in non-terminal state %q", job.Status)
	}
	if job.CaseID != record.ID {
		t.Errorf("job case back-reference %q, want %q", job.CaseID, record.ID)
	}
}

func TestSubmitSuccessMergesInference(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	record, err := svc.Submit(ctx, baseSubmission())
	if err != nil {
		t.Fatal(err)
	}

	inf := record.Inference
	if inf.Status != models.InferenceCompleted {
		t.Fatalf("inference status %q", inf.Status)
	}
	if inf.Version != models.CurrentInferenceVersion {
		t.Errorf("inference version %d", inf.Version)
	}
	if inf.Explanation == "" {
		t.Error("missing explanation")
	}
	if len(inf.Breakdown) != 2 {
		t.Fatalf("breakdown entries %d, want 2", len(inf.Breakdown))
	}
	sum := inf.Breakdown[0].Probability + inf.Breakdown[1].Probability
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("breakdown probabilities sum to %v", sum)
	}
}

func TestSubmitJobHistoryMonotonic(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	record, err := svc.Submit(ctx, baseSubmission())
	if err != nil {
		t.Fatal(err)
	}
	job, err := svc.store.Job(ctx, record.JobID)
	if err != nil {
		t.Fatal(err)
	}
	if len(job.History) < 3 {
		t.Fatalf("expected queued/running/terminal history, got %v", job.History)
	}
	if job.History[0].Status != models.JobQueued || job.History[1].Status != models.JobRunning {
		t.Fatalf("unexpected history order: %v", job.History)
	}
	for i := 1; i < len(job.History); i++ {
		if job.History[i].Timestamp.Before(job.History[i-1].Timestamp) {
			t.Fatalf("history timestamps not monotonic: %v", job.History)
		}
	}
}

func TestSubmitPredictionFailureStillRecordsCase(t *testing.T) {
	svc := newTestService(t, &failingPredictor{err: &predictor.NetworkError{Message: "prediction request timed out after 10s"}})
	ctx := context.Background()

	record, err := svc.Submit(ctx, baseSubmission())
	if err != nil {
		t.Fatalf("submission must succeed when prediction fails: %v", err)
	}
	if record.Inference.Status != models.InferencePending {
		t.Fatalf("inference should remain pending, got %q", record.Inference.Status)
	}

	job, err := svc.store.Job(ctx, record.JobID)
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != models.JobFailed {
		t.Fatalf("job status %q, want failed", job.Status)
	}
	if !strings.Contains(job.Error, "timed out") {
		t.Errorf("job error %q missing cause", job.Error)
	}
}

func TestSubmitInvalidPayloadFailsBeforePredict(t *testing.T) {
	pred := &failingPredictor{err: errors.New("predictor must not be called")}
	svc := newTestService(t, pred)
	ctx := context.Background()

	sub := baseSubmission()
	sub.Assessments.IQDQ = 500

	record, err := svc.Submit(ctx, sub)
	if err != nil {
		t.Fatal(err)
	}
	job, err := svc.store.Job(ctx, record.JobID)
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != models.JobFailed {
		t.Fatalf("job status %q", job.Status)
	}
	if !strings.Contains(job.Error, "validation") {
		t.Errorf("job error %q should mention validation", job.Error)
	}
	if strings.Contains(job.Error, "predictor must not be called") {
		t.Error("predictor was invoked despite validation failure")
	}
}

func TestRetryUnknownCase(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Retry(context.Background(), "NS-00000000-absent")
	if !errors.Is(err, ErrCaseNotFound) {
		t.Fatalf("expected ErrCaseNotFound, got %v", err)
	}
}

func TestRetryReusesJobID(t *testing.T) {
	failing := &failingPredictor{err: &predictor.NetworkError{Message: "service unreachable"}}
	svc := newTestService(t, failing)
	ctx := context.Background()

	record, err := svc.Submit(ctx, baseSubmission())
	if err != nil {
		t.Fatal(err)
	}

	// First retry also fails; stored inference stays pending.
	if _, err := svc.Retry(ctx, record.ID); err == nil {
		t.Fatal("expected retry failure")
	}
	stored, err := svc.Get(ctx, record.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Inference.Status != models.InferencePending {
		t.Fatalf("failed retry mutated inference: %q", stored.Inference.Status)
	}

	// Swap in a working predictor and retry again.
	svc.predictor = predictor.NewMockPredictor()
	retried, err := svc.Retry(ctx, record.ID)
	if err != nil {
		t.Fatal(err)
	}
	if retried.JobID != record.JobID {
		t.Fatalf("retry minted a new job id: %q vs %q", retried.JobID, record.JobID)
	}

	job, err := svc.store.Job(ctx, record.JobID)
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != models.JobSucceeded {
		t.Fatalf("job status %q", job.Status)
	}
	if job.Error != "" {
		t.Fatalf("prior error not cleared: %q", job.Error)
	}

	jobs, err := svc.store.AllJobs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 {
		t.Fatalf("retry created extra jobs: %d", len(jobs))
	}
}

func TestHideFiltersListNotGet(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	first, err := svc.Submit(ctx, baseSubmission())
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Submit(ctx, baseSubmission())
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Hide(ctx, first.ID, "admin"); err != nil {
		t.Fatal(err)
	}

	visible, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(visible) != 1 || visible[0].ID != second.ID {
		t.Fatalf("hidden case still listed: %+v", visible)
	}

	if _, err := svc.Get(ctx, first.ID); err != nil {
		t.Fatalf("hidden case must remain fetchable: %v", err)
	}
}
