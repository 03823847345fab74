package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/neuroscreen-ai/platform/pkg/common/models"
)

const (
	casesFile  = "cases.json"
	jobsFile   = "jobs.json"
	hiddenFile = "hidden.json"
	payloadDir = "payloads"
)

// FileStore keeps whole-document JSON maps on local disk. Each write is
// a read-modify-write of the full file, serialised in-process by a
// mutex; concurrent processes on the same directory are last-writer-wins.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, payloadDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) AllCases(ctx context.Context) ([]models.CaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cases, err := s.readCases()
	if err != nil {
		return nil, err
	}
	out := make([]models.CaseRecord, 0, len(cases))
	for _, rec := range cases {
		out = append(out, rec)
	}
	return out, nil
}

func (s *FileStore) Case(ctx context.Context, id string) (*models.CaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cases, err := s.readCases()
	if err != nil {
		return nil, err
	}
	rec, ok := cases[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *FileStore) PutCase(ctx context.Context, rec *models.CaseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cases, err := s.readCases()
	if err != nil {
		return err
	}
	cases[rec.ID] = *rec
	return s.writeDoc(casesFile, cases)
}

func (s *FileStore) AllJobs(ctx context.Context) ([]models.InferenceJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.readJobs()
	if err != nil {
		return nil, err
	}
	out := make([]models.InferenceJob, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, job)
	}
	return out, nil
}

func (s *FileStore) Job(ctx context.Context, id string) (*models.InferenceJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.readJobs()
	if err != nil {
		return nil, err
	}
	job, ok := jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &job, nil
}

func (s *FileStore) PutJob(ctx context.Context, job *models.InferenceJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.readJobs()
	if err != nil {
		return err
	}
	jobs[job.ID] = *job
	return s.writeDoc(jobsFile, jobs)
}

func (s *FileStore) HideCase(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cases, err := s.readCases()
	if err != nil {
		return err
	}
	if _, ok := cases[id]; !ok {
		return ErrNotFound
	}

	hidden, err := s.readHidden()
	if err != nil {
		return err
	}
	for _, h := range hidden {
		if h == id {
			return nil
		}
	}
	hidden = append(hidden, id)
	return s.writeDoc(hiddenFile, hidden)
}

func (s *FileStore) HiddenCaseIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readHidden()
}

func (s *FileStore) SavePayload(ctx context.Context, caseID string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, payloadDir, caseID+".json")
	return os.WriteFile(path, payload, 0o644)
}

func (s *FileStore) Status(ctx context.Context) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cases, err := s.readCases()
	if err != nil {
		return Status{}, err
	}
	jobs, err := s.readJobs()
	if err != nil {
		return Status{}, err
	}
	hidden, err := s.readHidden()
	if err != nil {
		return Status{}, err
	}

	return Status{
		Mode:   "local",
		Cases:  len(cases),
		Jobs:   len(jobs),
		Hidden: len(hidden),
		Detail: map[string]interface{}{"data_dir": s.dir},
	}, nil
}

func (s *FileStore) readCases() (map[string]models.CaseRecord, error) {
	cases := make(map[string]models.CaseRecord)
	if err := s.readDoc(casesFile, &cases); err != nil {
		return nil, err
	}
	return cases, nil
}

func (s *FileStore) readJobs() (map[string]models.InferenceJob, error) {
	jobs := make(map[string]models.InferenceJob)
	if err := s.readDoc(jobsFile, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (s *FileStore) readHidden() ([]string, error) {
	var hidden []string
	if err := s.readDoc(hiddenFile, &hidden); err != nil {
		return nil, err
	}
	return hidden, nil
}

func (s *FileStore) readDoc(name string, out interface{}) error {
	content, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if len(content) == 0 {
		return nil
	}
	if err := json.Unmarshal(content, out); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) writeDoc(name string, doc interface{}) error {
	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return os.Rename(tmp, path)
}
