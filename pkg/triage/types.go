// Package triage produces a clinical triage assessment for structured
// patient symptom data. Reasoning is delegated to an external model
// chain; a deterministic rule table covers every failure mode, and hard
// safety thresholds are enforced on whatever comes back.
package triage

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Severity is the triage urgency tier, ordered LOW < MEDIUM < HIGH <
// CRITICAL.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity resolves the wire form of a severity tier.
func ParseSeverity(s string) (Severity, bool) {
	switch s {
	case "LOW":
		return SeverityLow, true
	case "MEDIUM":
		return SeverityMedium, true
	case "HIGH":
		return SeverityHigh, true
	case "CRITICAL":
		return SeverityCritical, true
	default:
		return 0, false
	}
}

// MarshalJSON encodes the severity as its tier name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a tier name, rejecting unknown values.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	sev, ok := ParseSeverity(str)
	if !ok {
		return fmt.Errorf("invalid severity %q", str)
	}
	*s = sev
	return nil
}

// PatientInput is one patient presentation. Construct it, call
// Validate, and treat it as immutable afterwards.
type PatientInput struct {
	// Temperature is in Fahrenheit.
	Temperature    float64  `json:"temperature"`
	DurationHours  int      `json:"duration_hours"`
	Symptoms       []string `json:"symptoms"`
	Age            int      `json:"age"`
	MedicalHistory string   `json:"medical_history,omitempty"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Validate rejects out-of-range values before they reach the core.
func (p PatientInput) Validate() error {
	var errs []error
	if p.Temperature < 95.0 || p.Temperature > 110.0 {
		errs = append(errs, fmt.Errorf("temperature must be between 95.0 and 110.0 Fahrenheit, got %.1f", p.Temperature))
	}
	if p.DurationHours < 1 || p.DurationHours > 720 {
		errs = append(errs, fmt.Errorf("duration_hours must be between 1 and 720, got %d", p.DurationHours))
	}
	if p.Age < 0 || p.Age > 120 {
		errs = append(errs, fmt.Errorf("age must be between 0 and 120, got %d", p.Age))
	}
	if len(p.Symptoms) == 0 {
		errs = append(errs, errors.New("at least one symptom is required"))
	}
	if (p.Latitude == nil) != (p.Longitude == nil) {
		errs = append(errs, errors.New("latitude and longitude must be provided together"))
	}
	return errors.Join(errs...)
}

// Assessment is the triage result. It is produced fresh per request,
// never persisted, and mutated only by the safety override stage.
type Assessment struct {
	Severity             Severity `json:"severity"`
	DiagnosisSuggestions []string `json:"diagnosis_suggestions"`
	RecommendedAction    string   `json:"recommended_action"`
	ClinicalExplanation  string   `json:"clinical_explanation"`
	RedFlags             []string `json:"red_flags"`
	ConfidenceScore      float64  `json:"confidence_score"`
}

// AppearanceAnalysis is the result of vision-based appearance analysis.
type AppearanceAnalysis struct {
	FatigueIndicators []string `json:"fatigue_indicators"`
	FeverIndicators   []string `json:"fever_indicators"`
	OverallAppearance string   `json:"overall_appearance"`
	ConfidenceScore   float64  `json:"confidence_score"`
	Recommendations   []string `json:"recommendations"`
}

// ChatReply is a best-effort conversational answer with canned
// follow-up suggestions.
type ChatReply struct {
	Response    string   `json:"response"`
	Suggestions []string `json:"suggestions"`
}
