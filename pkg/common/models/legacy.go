package models

import (
	"encoding/json"
	"sort"
)

// Early deployments stored inference outcomes in a flat, untagged
// shape. Normalization happens once, at decode time, so every reader
// sees the current versioned shape and never probes fields ad hoc.

type legacyInference struct {
	Label      string             `json:"label"`
	Prediction string             `json:"prediction"`
	Score      *float64           `json:"score"`
	Risk       string             `json:"risk"`
	Message    string             `json:"message"`
	Categories map[string]float64 `json:"categories"`
}

// isLegacyInference detects the pre-versioning result shape: no
// version tag plus at least one of the old field names.
func isLegacyInference(data []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	if _, ok := probe["version"]; ok {
		return false
	}
	for _, key := range []string{"label", "score", "risk", "categories"} {
		if _, ok := probe[key]; ok {
			return true
		}
	}
	return false
}

func (r *InferenceResult) UnmarshalJSON(data []byte) error {
	type current InferenceResult
	var cur current
	if err := json.Unmarshal(data, &cur); err != nil {
		return err
	}

	if !isLegacyInference(data) {
		if cur.Version == 0 {
			cur.Version = CurrentInferenceVersion
		}
		if cur.Status == "" {
			cur.Status = InferencePending
		}
		*r = InferenceResult(cur)
		return nil
	}

	var leg legacyInference
	if err := json.Unmarshal(data, &leg); err != nil {
		return err
	}

	out := InferenceResult{
		Version:     CurrentInferenceVersion,
		Status:      InferenceCompleted,
		Prediction:  leg.Label,
		RiskLevel:   leg.Risk,
		Explanation: leg.Message,
	}
	if out.Prediction == "" {
		out.Prediction = leg.Prediction
	}
	if leg.Score != nil {
		out.Probability = *leg.Score
	}
	if out.Prediction == "" && leg.Score == nil {
		out.Status = InferencePending
	}
	if len(leg.Categories) > 0 {
		for label, p := range leg.Categories {
			out.Breakdown = append(out.Breakdown, CategoryScore{Label: label, Probability: p})
		}
		sort.Slice(out.Breakdown, func(i, j int) bool {
			if out.Breakdown[i].Probability != out.Breakdown[j].Probability {
				return out.Breakdown[i].Probability > out.Breakdown[j].Probability
			}
			return out.Breakdown[i].Label < out.Breakdown[j].Label
		})
	}

	*r = out
	return nil
}
