// Package refdata holds the static reference tables used to enrich a
// triage response: over-the-counter medication guidance, doctor
// directory entries, and emergency contact numbers. Pure lookups, no
// I/O.
package refdata

import (
	"strings"

	"github.com/zen-systems/triagegate/pkg/triage"
)

// Medication is one over-the-counter guidance entry.
type Medication struct {
	Name   string `json:"name"`
	Dosage string `json:"dosage"`
	Notes  string `json:"notes"`
}

// Doctor is one directory entry.
type Doctor struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Clinic    string `json:"clinic"`
	Phone     string `json:"phone"`
}

// EmergencyContact is one emergency service number.
type EmergencyContact struct {
	Service string `json:"service"`
	Number  string `json:"number"`
}

var feverMedications = []Medication{
	{Name: "Acetaminophen (Tylenol)", Dosage: "650mg every 6 hours as needed", Notes: "Do not exceed 3000mg in 24 hours"},
	{Name: "Ibuprofen (Advil)", Dosage: "400mg every 6-8 hours with food", Notes: "Avoid with kidney disease or stomach ulcers"},
}

var symptomMedications = map[string]Medication{
	"cough":       {Name: "Dextromethorphan (Robitussin DM)", Dosage: "As directed on label", Notes: "For dry cough"},
	"sore throat": {Name: "Throat lozenges", Dosage: "One lozenge every 2 hours as needed", Notes: "With warm salt water gargles"},
	"congestion":  {Name: "Pseudoephedrine (Sudafed)", Dosage: "As directed on label", Notes: "Avoid with high blood pressure"},
	"body aches":  {Name: "Ibuprofen (Advil)", Dosage: "400mg every 6-8 hours with food", Notes: "Take with food"},
	"headache":    {Name: "Acetaminophen (Tylenol)", Dosage: "650mg every 6 hours as needed", Notes: "Stay hydrated"},
}

// MedicationsFor returns over-the-counter guidance for a tier and
// symptom set. Critical cases get no self-care list; emergency
// evaluation comes first.
func MedicationsFor(severity triage.Severity, symptoms []string) []Medication {
	if severity == triage.SeverityCritical {
		return []Medication{}
	}

	meds := make([]Medication, 0, 4)
	meds = append(meds, feverMedications...)
	seen := map[string]bool{}
	for _, m := range meds {
		seen[m.Name] = true
	}
	for _, s := range symptoms {
		if m, ok := symptomMedications[strings.ToLower(strings.TrimSpace(s))]; ok && !seen[m.Name] {
			meds = append(meds, m)
			seen[m.Name] = true
		}
	}
	return meds
}

var doctorsByCity = map[string][]Doctor{
	"new york": {
		{Name: "Dr. Sarah Chen", Specialty: "Internal Medicine", Clinic: "Midtown Medical Group", Phone: "+1-212-555-0134"},
		{Name: "Dr. James Okafor", Specialty: "Family Medicine", Clinic: "Lenox Hill Primary Care", Phone: "+1-212-555-0188"},
	},
	"san francisco": {
		{Name: "Dr. Priya Raman", Specialty: "Internal Medicine", Clinic: "Mission Bay Health", Phone: "+1-415-555-0119"},
	},
	"london": {
		{Name: "Dr. Eleanor Hartley", Specialty: "General Practice", Clinic: "Bloomsbury Surgery", Phone: "+44-20-7946-0351"},
	},
	"mumbai": {
		{Name: "Dr. Arjun Mehta", Specialty: "General Medicine", Clinic: "Bandra Care Clinic", Phone: "+91-22-5550-2211"},
	},
}

// DoctorsNear returns directory entries for a city, or a generic
// referral entry when the city is unknown.
func DoctorsNear(city string) []Doctor {
	if docs, ok := doctorsByCity[strings.ToLower(strings.TrimSpace(city))]; ok {
		return docs
	}
	return []Doctor{
		{Name: "Local urgent care", Specialty: "General Medicine", Clinic: "Search for urgent care near you", Phone: ""},
	}
}

var emergencyByCountry = map[string][]EmergencyContact{
	"united states":  {{Service: "Emergency", Number: "911"}, {Service: "Poison Control", Number: "1-800-222-1222"}},
	"united kingdom": {{Service: "Emergency", Number: "999"}, {Service: "NHS non-emergency", Number: "111"}},
	"india":          {{Service: "Emergency", Number: "112"}, {Service: "Ambulance", Number: "102"}},
	"australia":      {{Service: "Emergency", Number: "000"}},
	"canada":         {{Service: "Emergency", Number: "911"}},
}

// EmergencyContacts returns emergency numbers for a country. The
// EU-wide 112 is the default for unknown countries.
func EmergencyContacts(country string) []EmergencyContact {
	if contacts, ok := emergencyByCountry[strings.ToLower(strings.TrimSpace(country))]; ok {
		return contacts
	}
	return []EmergencyContact{{Service: "Emergency", Number: "112"}}
}
