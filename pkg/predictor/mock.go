package predictor

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/neuroscreen-ai/platform/pkg/common/models"
)

const (
	LabelHealthy = "Healthy"
	LabelAtRisk  = "At Risk"

	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"

	// JitterBound is the maximum absolute noise added to a mock score.
	JitterBound = 0.03

	mockModelVersion = "mock-1"

	// fluentLanguageCode marks fully developed language in the payload;
	// anything else counts as abnormal development for scoring.
	fluentLanguageCode = "fluent"
)

// MockPredictor synthesizes a plausible risk classification without any
// network call. The score is a weighted sum over derived risk factors
// plus bounded jitter, so repeated runs on the same payload stay in a
// narrow band. Response shape is identical to the live client's.
type MockPredictor struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewMockPredictor() *MockPredictor {
	return &MockPredictor{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (m *MockPredictor) Predict(ctx context.Context, req models.PredictRequest) (*models.PredictResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, &NetworkError{Message: "prediction cancelled", Cause: err}
	}

	score := riskScore(req.StructData)

	m.mu.Lock()
	jitter := (m.rng.Float64()*2 - 1) * JitterBound
	m.mu.Unlock()

	probability := clamp(score+jitter, 0.05, 0.95)

	prediction := LabelHealthy
	if probability >= 0.5 {
		prediction = LabelAtRisk
	}

	return &models.PredictResponse{
		Status:       "ok",
		RequestID:    "mock-" + uuid.New().String(),
		Prediction:   prediction,
		Probability:  probability,
		Confidence:   0.5 + abs(probability-0.5),
		RiskLevel:    RiskBucket(probability),
		ModelVersion: mockModelVersion,
	}, nil
}

func riskScore(sd models.StructData) float64 {
	score := 0.0
	if sd.DevelopmentalMilestones != "none" {
		score += 0.15
	}
	if sd.IntellectualDisability != "" && sd.IntellectualDisability != "none" {
		score += 0.20
	}
	if sd.LanguageDisorder == "yes" {
		score += 0.15
	}
	if sd.LanguageDevelopment != fluentLanguageCode {
		score += 0.10
	}
	if sd.Dysmorphism == "yes" {
		score += 0.10
	}
	if sd.BehaviourDisorder == "yes" {
		score += 0.15
	}
	switch {
	case sd.IQDQ < 70:
		score += 0.15
	case sd.IQDQ < 85:
		score += 0.05
	}
	return score
}

// RiskBucket maps a continuous probability to the coarse risk level.
func RiskBucket(probability float64) string {
	switch {
	case probability >= 0.7:
		return RiskHigh
	case probability >= 0.4:
		return RiskMedium
	default:
		return RiskLow
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
