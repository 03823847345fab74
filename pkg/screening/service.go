package screening

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neuroscreen-ai/platform/pkg/audit"
	"github.com/neuroscreen-ai/platform/pkg/common/kafka"
	"github.com/neuroscreen-ai/platform/pkg/common/logger"
	"github.com/neuroscreen-ai/platform/pkg/common/models"
	"github.com/neuroscreen-ai/platform/pkg/contentstore"
	"github.com/neuroscreen-ai/platform/pkg/predictor"
	"github.com/neuroscreen-ai/platform/pkg/storage"
	"gorm.io/datatypes"
)

const eventSource = "screening-service"

var (
	ErrCaseNotFound = errors.New("case not found")
	ErrNoJob        = errors.New("case has no inference job")
)

// Service runs the case pipeline: persist the submission, derive the
// prediction payload, obtain a classification, and track the attempt
// in an inference job. Prediction failures never fail the submission
// itself; the case is recorded either way.
type Service struct {
	mapper    *Mapper
	predictor predictor.Predictor
	store     storage.CaseStore
	uploader  *contentstore.Client
	producer  *kafka.Producer
	auditLog  *audit.Repository
}

func NewService(mapper *Mapper, pred predictor.Predictor, store storage.CaseStore, uploader *contentstore.Client, producer *kafka.Producer, auditLog *audit.Repository) *Service {
	return &Service{
		mapper:    mapper,
		predictor: pred,
		store:     store,
		uploader:  uploader,
		producer:  producer,
		auditLog:  auditLog,
	}
}

// Submit records a new case and runs one prediction attempt inside the
// request. The returned record always exists in storage; its job ends
// in succeeded or failed, never queued or running.
func (s *Service) Submit(ctx context.Context, sub models.CaseSubmission) (*models.CaseRecord, error) {
	now := time.Now().UTC()
	caseID := newCaseID(now)
	jobID := uuid.New().String()

	record := &models.CaseRecord{
		ID:          caseID,
		SubmittedAt: now,
		Submission:  sub,
		Inference: models.InferenceResult{
			Version: models.CurrentInferenceVersion,
			Status:  models.InferencePending,
		},
		JobID: jobID,
	}

	job := &models.InferenceJob{
		ID:        jobID,
		CaseID:    caseID,
		Status:    models.JobQueued,
		CreatedAt: now,
		History: []models.JobEvent{
			{Status: models.JobQueued, Timestamp: now, Message: "case submitted"},
		},
	}

	if err := s.store.PutCase(ctx, record); err != nil {
		return nil, fmt.Errorf("persisting case: %w", err)
	}
	if err := s.store.PutJob(ctx, job); err != nil {
		return nil, fmt.Errorf("persisting job: %w", err)
	}

	s.advanceToRunning(ctx, job)
	s.runAttempt(ctx, record, job)

	if err := s.store.PutCase(ctx, record); err != nil {
		return nil, fmt.Errorf("persisting case result: %w", err)
	}
	if err := s.store.PutJob(ctx, job); err != nil {
		return nil, fmt.Errorf("persisting job result: %w", err)
	}

	s.publish(ctx, "case.submitted", record, job)
	s.recordAudit(ctx, caseID, "case_submitted", map[string]interface{}{
		"job_id": jobID,
		"status": job.Status,
	})

	return record, nil
}

// Retry re-runs the prediction for an existing case against its
// original job id. It never mints new ids; a successful retry rewrites
// the job with fresh history and clears any prior error. On failure
// the stored inference is left untouched and the error is returned.
func (s *Service) Retry(ctx context.Context, caseID string) (*models.CaseRecord, error) {
	record, err := s.store.Case(ctx, caseID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
		}
		return nil, fmt.Errorf("loading case: %w", err)
	}

	if record.JobID == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoJob, caseID)
	}
	job, err := s.store.Job(ctx, record.JobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNoJob, caseID)
		}
		return nil, fmt.Errorf("loading job: %w", err)
	}

	s.advanceToRunning(ctx, job)
	s.runAttempt(ctx, record, job)

	if err := s.store.PutJob(ctx, job); err != nil {
		return nil, fmt.Errorf("persisting job result: %w", err)
	}

	if job.Status == models.JobFailed {
		s.recordAudit(ctx, caseID, "case_retry_failed", map[string]interface{}{
			"job_id": job.ID,
			"error":  job.Error,
		})
		return nil, errors.New(job.Error)
	}

	if err := s.store.PutCase(ctx, record); err != nil {
		return nil, fmt.Errorf("persisting case result: %w", err)
	}

	s.publish(ctx, "case.retried", record, job)
	s.recordAudit(ctx, caseID, "case_retried", map[string]interface{}{
		"job_id": job.ID,
		"status": job.Status,
	})

	return record, nil
}

func (s *Service) Get(ctx context.Context, caseID string) (*models.CaseRecord, error) {
	record, err := s.store.Case(ctx, caseID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
	}
	return record, err
}

// List returns visible cases, newest first. Hidden ids are filtered
// here; Get ignores the hidden set on purpose.
func (s *Service) List(ctx context.Context) ([]models.CaseRecord, error) {
	records, err := s.store.AllCases(ctx)
	if err != nil {
		return nil, err
	}
	hiddenIDs, err := s.store.HiddenCaseIDs(ctx)
	if err != nil {
		return nil, err
	}
	hidden := make(map[string]struct{}, len(hiddenIDs))
	for _, id := range hiddenIDs {
		hidden[id] = struct{}{}
	}

	visible := records[:0]
	for _, rec := range records {
		if _, ok := hidden[rec.ID]; !ok {
			visible = append(visible, rec)
		}
	}
	sort.Slice(visible, func(i, j int) bool {
		return visible[i].SubmittedAt.After(visible[j].SubmittedAt)
	})
	return visible, nil
}

// Hide soft-deletes a case from list views. The record itself stays.
func (s *Service) Hide(ctx context.Context, caseID, actor string) error {
	if err := s.store.HideCase(ctx, caseID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
		}
		return err
	}
	s.recordAudit(ctx, caseID, "case_hidden", map[string]interface{}{"actor": actor})
	return nil
}

func (s *Service) StorageStatus(ctx context.Context) (storage.Status, error) {
	return s.store.Status(ctx)
}

func (s *Service) advanceToRunning(ctx context.Context, job *models.InferenceJob) {
	now := time.Now().UTC()
	job.Status = models.JobRunning
	job.StartedAt = &now
	job.History = append(job.History, models.JobEvent{
		Status:    models.JobRunning,
		Timestamp: now,
		Message:   "prediction started",
	})
	if err := s.store.PutJob(ctx, job); err != nil {
		logger.Log.WithError(err).WithField("job_id", job.ID).Warn("failed to persist running state")
	}
}

// runAttempt maps, validates, predicts and folds the outcome into the
// record and job in memory. Callers persist afterwards.
func (s *Service) runAttempt(ctx context.Context, record *models.CaseRecord, job *models.InferenceJob) {
	req := s.mapper.MapToRequest(record.Submission)
	req.Metadata = &models.PredictMetadata{PatientID: record.ID}

	if violations := s.mapper.Validate(req); len(violations) > 0 {
		s.failJob(job, (&predictor.ValidationError{Violations: violations}).Error())
		return
	}

	s.attachPayload(ctx, record, job, req)

	resp, err := s.predictor.Predict(ctx, req)
	if err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"case_id": record.ID,
			"job_id":  job.ID,
		}).Warn("prediction attempt failed")
		s.failJob(job, err.Error())
		return
	}

	result := buildResult(resp)
	record.Inference = result

	now := time.Now().UTC()
	job.Status = models.JobSucceeded
	job.CompletedAt = &now
	job.Result = &result
	job.Error = ""
	job.History = append(job.History, models.JobEvent{
		Status:    models.JobSucceeded,
		Timestamp: now,
		Message:   fmt.Sprintf("classified %s (%s risk)", result.Prediction, result.RiskLevel),
	})
}

// attachPayload persists the derived payload locally and, when a
// content store is configured, uploads it for a content identifier.
// Both paths are best-effort.
func (s *Service) attachPayload(ctx context.Context, record *models.CaseRecord, job *models.InferenceJob, req models.PredictRequest) {
	payload, err := json.Marshal(req)
	if err != nil {
		logger.Log.WithError(err).WithField("case_id", record.ID).Warn("failed to encode payload")
		return
	}

	if err := s.store.SavePayload(ctx, record.ID, payload); err != nil {
		logger.Log.WithError(err).WithField("case_id", record.ID).Warn("failed to save payload")
	}

	if s.uploader == nil {
		return
	}
	result, err := s.uploader.Upload(ctx, record.ID+".json", payload)
	if err != nil {
		logger.Log.WithError(err).WithField("case_id", record.ID).Warn("content store upload failed")
		return
	}
	record.PayloadCID = result.CID
	job.PayloadCID = result.CID
	job.EdgeNode = result.Node
}

func (s *Service) failJob(job *models.InferenceJob, message string) {
	now := time.Now().UTC()
	job.Status = models.JobFailed
	job.CompletedAt = &now
	job.Error = message
	job.History = append(job.History, models.JobEvent{
		Status:    models.JobFailed,
		Timestamp: now,
		Message:   message,
	})
}

func (s *Service) publish(ctx context.Context, eventType string, record *models.CaseRecord, job *models.InferenceJob) {
	data := map[string]interface{}{
		"case_id":    record.ID,
		"job_id":     job.ID,
		"job_status": job.Status,
	}
	if job.Status == models.JobSucceeded {
		data["risk_level"] = record.Inference.RiskLevel
		data["prediction"] = record.Inference.Prediction
	}
	_ = s.producer.PublishEvent(ctx, eventType, eventSource, data)
}

func (s *Service) recordAudit(ctx context.Context, caseID, action string, payload map[string]interface{}) {
	err := s.auditLog.Record(ctx, audit.Entry{
		CaseID:  caseID,
		Actor:   eventSource,
		Action:  action,
		Payload: datatypes.JSONMap(payload),
	})
	if err != nil {
		logger.Log.WithError(err).WithField("case_id", caseID).Warn("failed to record audit entry")
	}
}

// buildResult converts the service response into the stored result,
// including a readable explanation and the two-entry breakdown: the
// winning label with its probability and the complement with the rest.
func buildResult(resp *models.PredictResponse) models.InferenceResult {
	now := time.Now().UTC()

	winning := resp.Prediction
	complement := predictor.LabelHealthy
	if winning == predictor.LabelHealthy {
		complement = predictor.LabelAtRisk
	}

	winningProb := resp.Probability
	if winning == predictor.LabelHealthy {
		// Probability is always the at-risk score; flip for display.
		winningProb = 1 - resp.Probability
	}

	explanation := fmt.Sprintf(
		"Model %s classified this case as %q with %.0f%% probability (%s risk).",
		nonEmpty(resp.ModelVersion, "unknown"), winning, winningProb*100, resp.RiskLevel,
	)

	return models.InferenceResult{
		Version:     models.CurrentInferenceVersion,
		Status:      models.InferenceCompleted,
		Prediction:  resp.Prediction,
		Probability: resp.Probability,
		RiskLevel:   resp.RiskLevel,
		Confidence:  resp.Confidence,
		RequestID:   resp.RequestID,
		Explanation: explanation,
		Breakdown: []models.CategoryScore{
			{Label: winning, Probability: winningProb},
			{Label: complement, Probability: 1 - winningProb},
		},
		ModelVersion: resp.ModelVersion,
		ScoredAt:     &now,
	}
}

func nonEmpty(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// newCaseID derives an id from the submission date plus a short
// uniqueness suffix, e.g. NS-20260824-3f9a1c.
func newCaseID(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
	return fmt.Sprintf("NS-%s-%s", t.Format("20060102"), suffix)
}
