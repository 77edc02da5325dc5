package triage

// RedFlagHighFever is appended verbatim when the fever override fires.
const RedFlagHighFever = "Dangerously high fever (≥104°F)"

// escalationSymptoms raise a LOW assessment to MEDIUM on their own.
var escalationSymptoms = []string{"confusion", "stiff neck", "difficulty breathing", "chest pain", "rapid heartbeat"}

// ApplySafetyOverrides enforces hard clinical thresholds on an
// assessment regardless of its origin. The two rules are independent
// and order-insensitive; both may fire. Severity only ever goes up, and
// red flags are only ever appended.
func ApplySafetyOverrides(a *Assessment, p PatientInput) bool {
	escalated := false

	if p.Temperature >= 104.0 && a.Severity != SeverityHigh && a.Severity != SeverityCritical {
		a.Severity = SeverityCritical
		a.RedFlags = append(a.RedFlags, RedFlagHighFever)
		escalated = true
	}

	if hasAnySymptom(p.Symptoms, escalationSymptoms) && a.Severity == SeverityLow {
		a.Severity = SeverityMedium
		escalated = true
	}

	return escalated
}
