package screening

import (
	"fmt"
	"strings"

	"github.com/neuroscreen-ai/platform/pkg/common/models"
)

// IQ/DQ scores outside this range are clinically implausible and
// rejected before any prediction call.
const (
	IQDQMin = 20
	IQDQMax = 150
)

// Mapper derives the compact prediction payload from a full case
// submission. Mapping is pure and total: every submission maps to a
// request, validity is checked separately by Validate.
type Mapper struct {
	catalog Catalog
}

func NewMapper(catalog Catalog) *Mapper {
	return &Mapper{catalog: catalog}
}

func (m *Mapper) MapToRequest(sub models.CaseSubmission) models.PredictRequest {
	return models.PredictRequest{
		StructData: models.StructData{
			DevelopmentalMilestones: m.milestoneCode(sub.Development.DelayTags),
			IQDQ:                    sub.Assessments.IQDQ,
			IntellectualDisability:  strings.TrimSpace(sub.Development.IntellectualDisability),
			LanguageDisorder:        m.languageDisorderFlag(sub.Behaviors.LanguageLevel),
			LanguageDevelopment:     m.languageCode(sub.Behaviors.LanguageLevel),
			Dysmorphism:             boolFlag(sub.Development.Dysmorphic),
			BehaviourDisorder:       boolFlag(len(sub.Behaviors.ConcernTags) > 0),
			NeurologicalExam:        strings.TrimSpace(sub.Assessments.NeurologicalExam),
		},
	}
}

// milestoneCode picks the single highest-priority delay tag. Catalog
// order is the priority order, so Global outranks Motor outranks
// Cognitive; anything else encodes as none.
func (m *Mapper) milestoneCode(delayTags []string) string {
	tags := make(map[string]struct{}, len(delayTags))
	for _, t := range delayTags {
		tags[strings.TrimSpace(t)] = struct{}{}
	}
	for _, mapping := range m.catalog.Milestones {
		if _, ok := tags[mapping.Tag]; ok {
			return mapping.Code
		}
	}
	return MilestoneNone
}

func (m *Mapper) languageCode(level string) string {
	trimmed := strings.TrimSpace(level)
	for _, l := range m.catalog.LanguageLevels {
		if l.Level == trimmed {
			return l.Code
		}
	}
	return "none"
}

// languageDisorderFlag is derived from the reported level alone: any
// level short of full functional speech counts as disordered. The
// explicit language_disorder_diagnosed submission field is ignored on
// purpose; the derived heuristic is authoritative.
func (m *Mapper) languageDisorderFlag(level string) string {
	if strings.TrimSpace(level) == m.catalog.FullSpeechLevel {
		return FlagNo
	}
	return FlagYes
}

func boolFlag(v bool) string {
	if v {
		return FlagYes
	}
	return FlagNo
}

// Validate checks every derived and passthrough field against its
// closed enumeration or numeric range, returning the complete list of
// violations rather than stopping at the first. An empty slice means
// the request may be sent to the prediction service.
func (m *Mapper) Validate(req models.PredictRequest) []string {
	var errs []string
	sd := req.StructData

	if _, ok := m.catalog.milestoneCodes()[sd.DevelopmentalMilestones]; !ok {
		errs = append(errs, fmt.Sprintf("developmental_milestones: unknown code '%s'", sd.DevelopmentalMilestones))
	}

	if sd.IQDQ < IQDQMin || sd.IQDQ > IQDQMax {
		errs = append(errs, fmt.Sprintf("iq_dq: %.1f outside range [%d, %d]", sd.IQDQ, IQDQMin, IQDQMax))
	}

	if !contains(m.catalog.DisabilityCodes, sd.IntellectualDisability) {
		errs = append(errs, fmt.Sprintf("intellectual_disability: unknown code '%s'", sd.IntellectualDisability))
	}

	if sd.LanguageDisorder != FlagYes && sd.LanguageDisorder != FlagNo {
		errs = append(errs, fmt.Sprintf("language_disorder: expected yes/no, got '%s'", sd.LanguageDisorder))
	}

	if _, ok := m.catalog.languageCodes()[sd.LanguageDevelopment]; !ok {
		errs = append(errs, fmt.Sprintf("language_development: unknown code '%s'", sd.LanguageDevelopment))
	}

	if sd.Dysmorphism != FlagYes && sd.Dysmorphism != FlagNo {
		errs = append(errs, fmt.Sprintf("dysmorphism: expected yes/no, got '%s'", sd.Dysmorphism))
	}

	if sd.BehaviourDisorder != FlagYes && sd.BehaviourDisorder != FlagNo {
		errs = append(errs, fmt.Sprintf("behaviour_disorder: expected yes/no, got '%s'", sd.BehaviourDisorder))
	}

	if strings.TrimSpace(sd.NeurologicalExam) == "" {
		errs = append(errs, "neurological_exam: must not be empty")
	}

	return errs
}

func contains(set []string, value string) bool {
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}
