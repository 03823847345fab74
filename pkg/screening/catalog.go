package screening

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Derived payload codes.
const (
	MilestoneGlobal    = "global"
	MilestoneMotor     = "motor"
	MilestoneCognitive = "cognitive"
	MilestoneNone      = "none"

	FlagYes = "yes"
	FlagNo  = "no"
)

// MilestoneMapping ties a submission delay tag to its payload code.
// Catalog order is priority order: the first matching tag wins.
type MilestoneMapping struct {
	Tag  string `yaml:"tag" json:"tag"`
	Code string `yaml:"code" json:"code"`
}

// LanguageLevel maps a reported language level to its development code.
type LanguageLevel struct {
	Level string `yaml:"level" json:"level"`
	Code  string `yaml:"code" json:"code"`
}

// Catalog holds the closed clinical vocabularies the mapper and
// validator work against. It ships with defaults and can be overridden
// from a YAML file per deployment.
type Catalog struct {
	Milestones      []MilestoneMapping `yaml:"milestones" json:"milestones"`
	LanguageLevels  []LanguageLevel    `yaml:"language_levels" json:"language_levels"`
	FullSpeechLevel string             `yaml:"full_speech_level" json:"full_speech_level"`
	DisabilityCodes []string           `yaml:"disability_codes" json:"disability_codes"`
	PrenatalFactors []string           `yaml:"prenatal_factors" json:"prenatal_factors"`
	ConcernTags     []string           `yaml:"concern_tags" json:"concern_tags"`
}

func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultCatalog(), err
	}

	var cat Catalog
	if err := yaml.Unmarshal(content, &cat); err != nil {
		return Catalog{}, err
	}

	if len(cat.Milestones) == 0 || len(cat.LanguageLevels) == 0 {
		return Catalog{}, errors.New("catalog missing milestone or language tables")
	}
	if cat.FullSpeechLevel == "" {
		return Catalog{}, errors.New("catalog missing full speech level")
	}

	return cat, nil
}

func DefaultCatalog() Catalog {
	return Catalog{
		Milestones: []MilestoneMapping{
			{Tag: "Global", Code: MilestoneGlobal},
			{Tag: "Motor", Code: MilestoneMotor},
			{Tag: "Cognitive", Code: MilestoneCognitive},
		},
		LanguageLevels: []LanguageLevel{
			{Level: "nonverbal", Code: "none"},
			{Level: "single_words", Code: "words"},
			{Level: "simple_phrases", Code: "phrases"},
			{Level: "full_sentences", Code: "fluent"},
		},
		FullSpeechLevel: "full_sentences",
		DisabilityCodes: []string{"none", "borderline", "mild", "moderate", "severe", "profound", "unknown"},
		PrenatalFactors: []string{"prematurity", "hypoxia", "infection", "toxin_exposure", "bleeding", "gestational_diabetes"},
		ConcernTags:     []string{"aggression", "self_injury", "stereotypy", "hyperactivity", "anxiety", "sleep_disturbance", "feeding_difficulty"},
	}
}

// milestoneCodes returns the closed set of valid milestone codes.
func (c Catalog) milestoneCodes() map[string]struct{} {
	codes := map[string]struct{}{MilestoneNone: {}}
	for _, m := range c.Milestones {
		codes[m.Code] = struct{}{}
	}
	return codes
}

// languageCodes returns the closed set of valid language development codes.
func (c Catalog) languageCodes() map[string]struct{} {
	codes := map[string]struct{}{"none": {}}
	for _, l := range c.LanguageLevels {
		codes[l.Code] = struct{}{}
	}
	return codes
}
