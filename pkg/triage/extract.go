package triage

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrUnparsable means the provider text held no decodable JSON object.
// Field-level defects never cause this; they fall back to defaults.
var ErrUnparsable = errors.New("provider response is not valid JSON")

// Defaults substituted for absent or invalid assessment fields.
const (
	defaultAction      = "Consult healthcare provider"
	defaultExplanation = "Assessment completed"
	defaultDiagnosis   = "Unable to determine"
	defaultConfidence  = 0.7
)

// ExtractAssessment parses raw model output into an Assessment. Models
// routinely wrap their JSON in a fenced code block; a single leading
// fence is stripped before decoding.
func ExtractAssessment(raw string) (*Assessment, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	a := &Assessment{
		Severity:             severityField(obj, "severity"),
		DiagnosisSuggestions: stringListField(obj, "diagnosis_suggestions"),
		RecommendedAction:    stringField(obj, "recommended_action", defaultAction),
		ClinicalExplanation:  stringField(obj, "clinical_explanation", defaultExplanation),
		RedFlags:             []string{},
		ConfidenceScore:      confidenceField(obj, "confidence_score"),
	}
	if flags := stringListOrNil(obj, "red_flags"); flags != nil {
		a.RedFlags = flags
	}
	if len(a.DiagnosisSuggestions) == 0 {
		a.DiagnosisSuggestions = []string{defaultDiagnosis}
	}
	return a, nil
}

// ExtractAppearance parses raw model output into an AppearanceAnalysis.
func ExtractAppearance(raw string) (*AppearanceAnalysis, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	a := &AppearanceAnalysis{
		FatigueIndicators: []string{},
		FeverIndicators:   []string{},
		OverallAppearance: stringField(obj, "overall_appearance", "Appearance analysis completed"),
		ConfidenceScore:   confidenceField(obj, "confidence_score"),
		Recommendations:   []string{},
	}
	if v := stringListOrNil(obj, "fatigue_indicators"); v != nil {
		a.FatigueIndicators = v
	}
	if v := stringListOrNil(obj, "fever_indicators"); v != nil {
		a.FeverIndicators = v
	}
	if v := stringListOrNil(obj, "recommendations"); v != nil {
		a.Recommendations = v
	}
	return a, nil
}

func decodeObject(raw string) (map[string]any, error) {
	cleaned := stripFence(strings.TrimSpace(raw))

	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return nil, ErrUnparsable
	}
	return obj, nil
}

// stripFence removes one fenced code block wrapper, preferring a
// ```json tag. Only the first block is used; trailing prose after the
// closing fence is discarded.
func stripFence(s string) string {
	if idx := strings.Index(s, "```json"); idx >= 0 {
		rest := s[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(s, "```"); idx >= 0 {
		rest := s[idx+len("```"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	return s
}

func stringField(obj map[string]any, key, def string) string {
	if v, ok := obj[key].(string); ok && v != "" {
		return v
	}
	return def
}

func severityField(obj map[string]any, key string) Severity {
	if v, ok := obj[key].(string); ok {
		if sev, ok := ParseSeverity(strings.ToUpper(strings.TrimSpace(v))); ok {
			return sev
		}
	}
	return SeverityMedium
}

func stringListField(obj map[string]any, key string) []string {
	if v := stringListOrNil(obj, key); v != nil {
		return v
	}
	return nil
}

func stringListOrNil(obj map[string]any, key string) []string {
	raw, ok := obj[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// confidenceField coerces the model's confidence to a float in [0,1].
// Providers are not trusted to keep it in range.
func confidenceField(obj map[string]any, key string) float64 {
	v, ok := obj[key]
	if !ok {
		return defaultConfidence
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return defaultConfidence
		}
		f = parsed
	default:
		return defaultConfidence
	}
	return clampConfidence(f)
}

func clampConfidence(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
