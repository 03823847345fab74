package models

import "time"

// Case submission input models. Enumerated fields are validated against
// the screening catalog before the record enters the pipeline.

type Demographics struct {
	Label           string   `json:"label"`
	AgeMonths       int      `json:"age_months"`
	Sex             string   `json:"sex"`
	MaternalAge     int      `json:"maternal_age,omitempty"`
	PaternalAge     int      `json:"paternal_age,omitempty"`
	DiagnosticAge   int      `json:"diagnostic_age_months,omitempty"`
	PrenatalFactors []string `json:"prenatal_factors,omitempty"`
}

type Development struct {
	DelayTags              []string `json:"delay_tags,omitempty"`
	Dysmorphic             bool     `json:"dysmorphic"`
	IntellectualDisability string   `json:"intellectual_disability"`
	Comorbidities          []string `json:"comorbidities,omitempty"`
	Regression             bool     `json:"regression"`
}

type Assessments struct {
	IQDQ              float64 `json:"iq_dq"`
	EEGFindings       string  `json:"eeg_findings,omitempty"`
	MRIFindings       string  `json:"mri_findings,omitempty"`
	NeurologicalExam  string  `json:"neurological_exam"`
	HeadCircumference float64 `json:"head_circumference_cm,omitempty"`
}

type Behaviors struct {
	ConcernTags               []string `json:"concern_tags,omitempty"`
	LanguageLevel             string   `json:"language_level"`
	LanguageDisorderDiagnosed *bool    `json:"language_disorder_diagnosed,omitempty"`
	Description               string   `json:"description,omitempty"`
}

type CaseSubmission struct {
	Demographics Demographics `json:"demographics"`
	Development  Development  `json:"development"`
	Assessments  Assessments  `json:"assessments"`
	Behaviors    Behaviors    `json:"behaviors"`
	Notes        string       `json:"notes,omitempty"`
}

// Inference outcome models.

const (
	InferencePending   = "pending"
	InferenceCompleted = "completed"

	// CurrentInferenceVersion tags freshly written results. Untagged
	// shapes read back from storage are treated as legacy and upgraded
	// in InferenceResult.UnmarshalJSON.
	CurrentInferenceVersion = 2
)

type CategoryScore struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

type InferenceResult struct {
	Version      int             `json:"version"`
	Status       string          `json:"status"`
	Prediction   string          `json:"prediction,omitempty"`
	Probability  float64         `json:"probability,omitempty"`
	RiskLevel    string          `json:"risk_level,omitempty"`
	Confidence   float64         `json:"confidence,omitempty"`
	RequestID    string          `json:"request_id,omitempty"`
	Explanation  string          `json:"explanation,omitempty"`
	Breakdown    []CategoryScore `json:"breakdown,omitempty"`
	ModelVersion string          `json:"model_version,omitempty"`
	ScoredAt     *time.Time      `json:"scored_at,omitempty"`
}

type CaseRecord struct {
	ID          string          `json:"id"`
	SubmittedAt time.Time       `json:"submitted_at"`
	Submission  CaseSubmission  `json:"submission"`
	Inference   InferenceResult `json:"inference"`
	JobID       string          `json:"job_id,omitempty"`
	PayloadCID  string          `json:"payload_cid,omitempty"`
}

// Inference job lifecycle models.

const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

type JobEvent struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
}

type InferenceJob struct {
	ID          string           `json:"id"`
	CaseID      string           `json:"case_id"`
	Status      string           `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	EdgeNode    string           `json:"edge_node,omitempty"`
	PayloadCID  string           `json:"payload_cid,omitempty"`
	Result      *InferenceResult `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
	History     []JobEvent       `json:"history"`
}

// Prediction service wire models.

type StructData struct {
	DevelopmentalMilestones string  `json:"developmental_milestones"`
	IQDQ                    float64 `json:"iq_dq"`
	IntellectualDisability  string  `json:"intellectual_disability"`
	LanguageDisorder        string  `json:"language_disorder"`
	LanguageDevelopment     string  `json:"language_development"`
	Dysmorphism             string  `json:"dysmorphism"`
	BehaviourDisorder       string  `json:"behaviour_disorder"`
	NeurologicalExam        string  `json:"neurological_exam"`
}

type PredictMetadata struct {
	PatientID string `json:"patient_id"`
}

type PredictRequest struct {
	StructData StructData       `json:"struct_data"`
	Metadata   *PredictMetadata `json:"metadata,omitempty"`
}

type PredictResponse struct {
	Status       string  `json:"status"`
	RequestID    string  `json:"request_id"`
	Prediction   string  `json:"prediction"`
	Probability  float64 `json:"probability"`
	Confidence   float64 `json:"confidence"`
	RiskLevel    string  `json:"risk_level"`
	ModelVersion string  `json:"model_version,omitempty"`
}

// Event bus models.

type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // case.submitted, case.scored, case.retried
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}
