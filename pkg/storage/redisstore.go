package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/neuroscreen-ai/platform/pkg/common/models"
	"github.com/redis/go-redis/v9"
)

const (
	casesHash   = "neuroscreen:cases"
	jobsHash    = "neuroscreen:jobs"
	hiddenSet   = "neuroscreen:hidden"
	payloadHash = "neuroscreen:payloads"
)

// RedisStore keeps case and job records as fields of named hashes, one
// field per record id. Field-level HGET/HSET means no whole-document
// rewrite on update, unlike the file store.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) AllCases(ctx context.Context) ([]models.CaseRecord, error) {
	fields, err := s.client.HGetAll(ctx, casesHash).Result()
	if err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}
	out := make([]models.CaseRecord, 0, len(fields))
	for id, raw := range fields {
		var rec models.CaseRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decoding case %s: %w", id, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *RedisStore) Case(ctx context.Context, id string) (*models.CaseRecord, error) {
	raw, err := s.client.HGet(ctx, casesHash, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching case %s: %w", id, err)
	}
	var rec models.CaseRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decoding case %s: %w", id, err)
	}
	return &rec, nil
}

func (s *RedisStore) PutCase(ctx context.Context, rec *models.CaseRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding case %s: %w", rec.ID, err)
	}
	return s.client.HSet(ctx, casesHash, rec.ID, raw).Err()
}

func (s *RedisStore) AllJobs(ctx context.Context) ([]models.InferenceJob, error) {
	fields, err := s.client.HGetAll(ctx, jobsHash).Result()
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	out := make([]models.InferenceJob, 0, len(fields))
	for id, raw := range fields {
		var job models.InferenceJob
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			return nil, fmt.Errorf("decoding job %s: %w", id, err)
		}
		out = append(out, job)
	}
	return out, nil
}

func (s *RedisStore) Job(ctx context.Context, id string) (*models.InferenceJob, error) {
	raw, err := s.client.HGet(ctx, jobsHash, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching job %s: %w", id, err)
	}
	var job models.InferenceJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("decoding job %s: %w", id, err)
	}
	return &job, nil
}

func (s *RedisStore) PutJob(ctx context.Context, job *models.InferenceJob) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encoding job %s: %w", job.ID, err)
	}
	return s.client.HSet(ctx, jobsHash, job.ID, raw).Err()
}

func (s *RedisStore) HideCase(ctx context.Context, id string) error {
	exists, err := s.client.HExists(ctx, casesHash, id).Result()
	if err != nil {
		return fmt.Errorf("checking case %s: %w", id, err)
	}
	if !exists {
		return ErrNotFound
	}
	return s.client.SAdd(ctx, hiddenSet, id).Err()
}

func (s *RedisStore) HiddenCaseIDs(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, hiddenSet).Result()
	if err != nil {
		return nil, fmt.Errorf("listing hidden cases: %w", err)
	}
	return ids, nil
}

func (s *RedisStore) SavePayload(ctx context.Context, caseID string, payload []byte) error {
	return s.client.HSet(ctx, payloadHash, caseID, payload).Err()
}

func (s *RedisStore) Status(ctx context.Context) (Status, error) {
	cases, err := s.client.HLen(ctx, casesHash).Result()
	if err != nil {
		return Status{}, fmt.Errorf("counting cases: %w", err)
	}
	jobs, err := s.client.HLen(ctx, jobsHash).Result()
	if err != nil {
		return Status{}, fmt.Errorf("counting jobs: %w", err)
	}
	hidden, err := s.client.SCard(ctx, hiddenSet).Result()
	if err != nil {
		return Status{}, fmt.Errorf("counting hidden cases: %w", err)
	}

	return Status{
		Mode:   "redis",
		Cases:  int(cases),
		Jobs:   int(jobs),
		Hidden: int(hidden),
		Detail: map[string]interface{}{"addr": s.client.Options().Addr},
	}, nil
}
