package storage

import (
	"context"
	"errors"

	"github.com/neuroscreen-ai/platform/pkg/common/models"
)

var ErrNotFound = errors.New("record not found")

// Status reports backend health metadata. Mode distinguishes the
// file-backed store from the Redis-backed one; callers must not branch
// on it for anything beyond display.
type Status struct {
	Mode   string                 `json:"mode"`
	Cases  int                    `json:"cases"`
	Jobs   int                    `json:"jobs"`
	Hidden int                    `json:"hidden"`
	Detail map[string]interface{} `json:"detail,omitempty"`
}

// CaseStore is the persistence boundary for case and job records. Both
// implementations are interchangeable at the pipeline boundary; the
// backend is chosen once at startup from configuration.
type CaseStore interface {
	AllCases(ctx context.Context) ([]models.CaseRecord, error)
	Case(ctx context.Context, id string) (*models.CaseRecord, error)
	PutCase(ctx context.Context, rec *models.CaseRecord) error

	AllJobs(ctx context.Context) ([]models.InferenceJob, error)
	Job(ctx context.Context, id string) (*models.InferenceJob, error)
	PutJob(ctx context.Context, job *models.InferenceJob) error

	// HideCase soft-deletes: the id joins a hidden set consulted by
	// list rendering, while direct fetch by id keeps working.
	HideCase(ctx context.Context, id string) error
	HiddenCaseIDs(ctx context.Context) ([]string, error)

	// SavePayload persists the derived prediction payload for audit.
	SavePayload(ctx context.Context, caseID string, payload []byte) error

	Status(ctx context.Context) (Status, error)
}
