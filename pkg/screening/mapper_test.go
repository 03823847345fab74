package screening

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/neuroscreen-ai/platform/pkg/common/models"
)

func baseSubmission() models.CaseSubmission {
	return models.CaseSubmission{
		Demographics: models.Demographics{Label: "case A", AgeMonths: 48, Sex: "male"},
		Development: models.Development{
			DelayTags:              nil,
			IntellectualDisability: "none",
		},
		Assessments: models.Assessments{
			IQDQ:             95,
			NeurologicalExam: "unremarkable",
		},
		Behaviors: models.Behaviors{
			LanguageLevel: "full_sentences",
		},
	}
}

func TestMilestonePriorityOrder(t *testing.T) {
	mapper := NewMapper(DefaultCatalog())

	tests := []struct {
		name string
		tags []string
		want string
	}{
		{"no delays", nil, MilestoneNone},
		{"cognitive only", []string{"Cognitive"}, MilestoneCognitive},
		{"motor only", []string{"Motor"}, MilestoneMotor},
		{"global only", []string{"Global"}, MilestoneGlobal},
		{"motor beats cognitive", []string{"Cognitive", "Motor"}, MilestoneMotor},
		{"global beats motor", []string{"Motor", "Global"}, MilestoneGlobal},
		{"global beats all", []string{"Cognitive", "Motor", "Global"}, MilestoneGlobal},
		{"unknown tag ignored", []string{"Speech"}, MilestoneNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sub := baseSubmission()
			sub.Development.DelayTags = tc.tags
			req := mapper.MapToRequest(sub)
			if req.StructData.DevelopmentalMilestones != tc.want {
				t.Fatalf("tags %v: got %q, want %q", tc.tags, req.StructData.DevelopmentalMilestones, tc.want)
			}
		})
	}
}

func TestLanguageMapping(t *testing.T) {
	mapper := NewMapper(DefaultCatalog())

	tests := []struct {
		level        string
		wantCode     string
		wantDisorder string
	}{
		{"full_sentences", "fluent", FlagNo},
		{"simple_phrases", "phrases", FlagYes},
		{"single_words", "words", FlagYes},
		{"nonverbal", "none", FlagYes},
		{"gibberish-level", "none", FlagYes},
		{"", "none", FlagYes},
	}

	for _, tc := range tests {
		sub := baseSubmission()
		sub.Behaviors.LanguageLevel = tc.level
		req := mapper.MapToRequest(sub)
		if req.StructData.LanguageDevelopment != tc.wantCode {
			t.Errorf("level %q: code %q, want %q", tc.level, req.StructData.LanguageDevelopment, tc.wantCode)
		}
		if req.StructData.LanguageDisorder != tc.wantDisorder {
			t.Errorf("level %q: disorder %q, want %q", tc.level, req.StructData.LanguageDisorder, tc.wantDisorder)
		}
	}
}

func TestDerivedFlags(t *testing.T) {
	mapper := NewMapper(DefaultCatalog())

	sub := baseSubmission()
	sub.Development.Dysmorphic = true
	sub.Behaviors.ConcernTags = []string{"aggression"}
	req := mapper.MapToRequest(sub)

	if req.StructData.Dysmorphism != FlagYes {
		t.Errorf("dysmorphism: got %q", req.StructData.Dysmorphism)
	}
	if req.StructData.BehaviourDisorder != FlagYes {
		t.Errorf("behaviour_disorder: got %q", req.StructData.BehaviourDisorder)
	}

	sub = baseSubmission()
	req = mapper.MapToRequest(sub)
	if req.StructData.Dysmorphism != FlagNo || req.StructData.BehaviourDisorder != FlagNo {
		t.Errorf("expected both flags no, got %q/%q", req.StructData.Dysmorphism, req.StructData.BehaviourDisorder)
	}
}

func TestMapToRequestDeterministic(t *testing.T) {
	mapper := NewMapper(DefaultCatalog())
	sub := baseSubmission()
	sub.Development.DelayTags = []string{"Motor", "Global"}
	sub.Behaviors.ConcernTags = []string{"anxiety", "stereotypy"}

	first, err := json.Marshal(mapper.MapToRequest(sub))
	if err != nil {
		t.Fatal(err)
	}
	second, err := json.Marshal(mapper.MapToRequest(sub))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("mapper output not deterministic:\n%s\n%s", first, second)
	}
}

func TestValidateIQDQBounds(t *testing.T) {
	mapper := NewMapper(DefaultCatalog())

	for _, iq := range []float64{10, 200} {
		sub := baseSubmission()
		sub.Assessments.IQDQ = iq
		errs := mapper.Validate(mapper.MapToRequest(sub))
		if len(errs) == 0 {
			t.Fatalf("iq_dq=%v: expected violations", iq)
		}
		found := false
		for _, e := range errs {
			if strings.Contains(e, "iq_dq") {
				found = true
			}
		}
		if !found {
			t.Fatalf("iq_dq=%v: no iq_dq-specific message in %v", iq, errs)
		}
	}

	for _, iq := range []float64{20, 150} {
		sub := baseSubmission()
		sub.Assessments.IQDQ = iq
		if errs := mapper.Validate(mapper.MapToRequest(sub)); len(errs) != 0 {
			t.Fatalf("iq_dq=%v (boundary): unexpected violations %v", iq, errs)
		}
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	mapper := NewMapper(DefaultCatalog())

	sub := baseSubmission()
	sub.Assessments.IQDQ = 5
	sub.Assessments.NeurologicalExam = "  "
	sub.Development.IntellectualDisability = "catastrophic"

	errs := mapper.Validate(mapper.MapToRequest(sub))
	if len(errs) < 3 {
		t.Fatalf("expected at least three violations, got %v", errs)
	}
}
