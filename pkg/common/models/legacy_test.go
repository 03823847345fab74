package models

import (
	"encoding/json"
	"testing"
)

func TestUnmarshalCurrentShape(t *testing.T) {
	data := []byte(`{
		"version": 2,
		"status": "completed",
		"prediction": "At Risk",
		"probability": 0.81,
		"risk_level": "high",
		"request_id": "req-1",
		"explanation": "Model v3 classified this case.",
		"breakdown": [
			{"label": "At Risk", "probability": 0.81},
			{"label": "Healthy", "probability": 0.19}
		]
	}`)

	var r InferenceResult
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatal(err)
	}
	if r.Version != 2 || r.Status != InferenceCompleted {
		t.Fatalf("current shape mangled: %+v", r)
	}
	if r.Prediction != "At Risk" || r.Probability != 0.81 {
		t.Fatalf("fields lost: %+v", r)
	}
	if len(r.Breakdown) != 2 {
		t.Fatalf("breakdown lost: %+v", r.Breakdown)
	}
}

func TestUnmarshalLegacyShape(t *testing.T) {
	data := []byte(`{
		"label": "Autism",
		"score": 0.76,
		"risk": "high",
		"message": "screening positive",
		"categories": {"Autism": 0.76, "Healthy": 0.24}
	}`)

	var r InferenceResult
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatal(err)
	}
	if r.Version != CurrentInferenceVersion {
		t.Fatalf("legacy record not upgraded: version %d", r.Version)
	}
	if r.Status != InferenceCompleted {
		t.Fatalf("status %q", r.Status)
	}
	if r.Prediction != "Autism" || r.Probability != 0.76 || r.RiskLevel != "high" {
		t.Fatalf("legacy fields misread: %+v", r)
	}
	if r.Explanation != "screening positive" {
		t.Fatalf("explanation %q", r.Explanation)
	}
	if len(r.Breakdown) != 2 || r.Breakdown[0].Label != "Autism" {
		t.Fatalf("breakdown not derived from categories, winner first: %+v", r.Breakdown)
	}
}

func TestUnmarshalUntaggedPendingPlaceholder(t *testing.T) {
	// Pre-versioning pending placeholders had only a status field.
	data := []byte(`{"status": "pending"}`)

	var r InferenceResult
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatal(err)
	}
	if r.Version != CurrentInferenceVersion || r.Status != InferencePending {
		t.Fatalf("placeholder not normalized: %+v", r)
	}
}

func TestMarshalRoundTripStaysCurrent(t *testing.T) {
	orig := InferenceResult{
		Version:     CurrentInferenceVersion,
		Status:      InferenceCompleted,
		Prediction:  "Healthy",
		Probability: 0.2,
		RiskLevel:   "low",
	}
	raw, err := json.Marshal(orig)
	if err != nil {
		t.Fatal(err)
	}
	var back InferenceResult
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if back.Version != orig.Version || back.Prediction != orig.Prediction {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}
