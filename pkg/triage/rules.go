package triage

import (
	"fmt"
	"strings"
)

// criticalSymptoms force the top tier on their own.
var criticalSymptoms = []string{"confusion", "stiff neck", "difficulty breathing", "chest pain"}

// Classify is the deterministic rule-based baseline used when no model
// output is usable. Branches are evaluated top-down; the first match
// wins. Identical input always yields an identical assessment.
func Classify(p PatientInput) Assessment {
	explanation := fmt.Sprintf(
		"Rule-based assessment: Temperature %.1f°F, %d symptoms. This is a simplified assessment - please consult healthcare provider for proper evaluation.",
		p.Temperature, len(p.Symptoms))

	switch {
	case p.Temperature >= 104.0 || hasAnySymptom(p.Symptoms, criticalSymptoms):
		return Assessment{
			Severity:             SeverityCritical,
			DiagnosisSuggestions: []string{"Possible serious infection", "Requires immediate evaluation"},
			RecommendedAction:    "Seek immediate emergency care - call 911",
			ClinicalExplanation:  explanation,
			RedFlags:             []string{"High fever", "Concerning symptoms present"},
			ConfidenceScore:      ruleConfidence,
		}
	case p.Temperature >= 103.0 || p.Age > 65 || hasSymptom(p.Symptoms, "rapid heartbeat"):
		return Assessment{
			Severity:             SeverityHigh,
			DiagnosisSuggestions: []string{"Possible bacterial infection", "Flu", "Pneumonia"},
			RecommendedAction:    "See healthcare provider today",
			ClinicalExplanation:  explanation,
			RedFlags:             []string{"High fever", "Risk factors present"},
			ConfidenceScore:      ruleConfidence,
		}
	case p.Temperature >= 101.0 || len(p.Symptoms) > 3:
		return Assessment{
			Severity:             SeverityMedium,
			DiagnosisSuggestions: []string{"Viral infection", "Flu", "Upper respiratory infection"},
			RecommendedAction:    "See healthcare provider within 24-48 hours if no improvement",
			ClinicalExplanation:  explanation,
			RedFlags:             []string{},
			ConfidenceScore:      ruleConfidence,
		}
	default:
		return Assessment{
			Severity:             SeverityLow,
			DiagnosisSuggestions: []string{"Viral infection", "Common cold"},
			RecommendedAction:    "Monitor symptoms and rest at home",
			ClinicalExplanation:  explanation,
			RedFlags:             []string{},
			ConfidenceScore:      ruleConfidence,
		}
	}
}

// ruleConfidence is deliberately below any model-derived default so
// downstream consumers can tell that no model reasoning occurred.
const ruleConfidence = 0.6

// hasSymptom reports a case-insensitive exact match.
func hasSymptom(symptoms []string, want string) bool {
	for _, s := range symptoms {
		if strings.EqualFold(strings.TrimSpace(s), want) {
			return true
		}
	}
	return false
}

func hasAnySymptom(symptoms []string, wanted []string) bool {
	for _, w := range wanted {
		if hasSymptom(symptoms, w) {
			return true
		}
	}
	return false
}
