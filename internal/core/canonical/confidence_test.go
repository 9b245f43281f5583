package canonical

import (
	"testing"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

func TestScoreReportVitalSigns(t *testing.T) {
	empty := ScoreReport(domain.ClinicalReport{ReportType: "ECG"})
	if empty["vitalSigns"] != 0 {
		t.Fatalf("expected 0 for empty vital signs, got %v", empty["vitalSigns"])
	}

	withHeartRate := ScoreReport(domain.ClinicalReport{
		ReportType: "ECG",
		VitalSigns: domain.VitalSigns{HeartRate: "72"},
	})
	if withHeartRate["vitalSigns"] != 0.8 {
		t.Fatalf("expected 0.8 with heart rate only, got %v", withHeartRate["vitalSigns"])
	}
}

func TestScoreReportWeights(t *testing.T) {
	scores := ScoreReport(domain.ClinicalReport{
		ReportType:      "Blood Test",
		PatientName:     "Jane",
		LabResults:      []domain.LabResult{{TestName: "Hb", Value: "13"}},
		Findings:        []domain.Finding{{Category: "Blood"}},
		Diagnosis:       []string{"anemia"},
		Recommendations: []string{"iron"},
	})

	want := map[string]float64{
		"reportType":      1,
		"patientName":     1,
		"doctorName":      0,
		"hospitalName":    0,
		"date":            0,
		"summary":         0,
		"nextAppointment": 0,
		"vitalSigns":      0,
		"labResults":      0.9,
		"findings":        0.7,
		"diagnosis":       0.8,
		"recommendations": 0.6,
	}
	if len(scores) != len(want) {
		t.Fatalf("expected %d scores, got %d: %v", len(want), len(scores), scores)
	}
	for field, w := range want {
		if scores[field] != w {
			t.Fatalf("score[%s] = %v, want %v", field, scores[field], w)
		}
	}
}

func TestScoreReportFallbackTypeIsZero(t *testing.T) {
	scores := ScoreReport(domain.ClinicalReport{ReportType: domain.UnknownReportType})
	if scores["reportType"] != 0 {
		t.Fatalf("expected fallback report type to score 0, got %v", scores["reportType"])
	}
}

func TestScorePrescription(t *testing.T) {
	scores := ScorePrescription(domain.Prescription{
		DoctorName: "Dr. Rao",
		Medicines:  []domain.Medicine{{MedicationName: "Amoxicillin"}},
	})
	if scores["doctorName"] != 1 || scores["date"] != 0 || scores["notes"] != 0 || scores["medicines"] != 0.9 {
		t.Fatalf("unexpected scores: %v", scores)
	}
	if got := ScorePrescription(domain.Prescription{})["medicines"]; got != 0 {
		t.Fatalf("expected 0 for empty medicines, got %v", got)
	}
}
