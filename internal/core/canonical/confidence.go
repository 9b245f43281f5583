package canonical

import "github.com/kirillkom/health-record-extractor/internal/core/domain"

// Presence weights for non-empty groups and lists.
const (
	weightVitalSigns      = 0.8
	weightLabResults      = 0.9
	weightFindings        = 0.7
	weightDiagnosis       = 0.8
	weightRecommendations = 0.6
	weightMedicines       = 0.9
)

// ScoreReport assigns a presence based confidence to every top-level report
// field. The unknown report type fallback scores 0.
func ScoreReport(r domain.ClinicalReport) map[string]float64 {
	reportType := r.ReportType
	// The fallback and a provider that literally answered "Unknown Report"
	// are indistinguishable here; both mean no usable type, so both score 0.
	if reportType == domain.UnknownReportType {
		reportType = ""
	}
	return map[string]float64{
		"reportType":      presence(reportType),
		"patientName":     presence(r.PatientName),
		"doctorName":      presence(r.DoctorName),
		"hospitalName":    presence(r.HospitalName),
		"date":            presence(r.Date),
		"summary":         presence(r.Summary),
		"nextAppointment": presence(r.NextAppointment),
		"vitalSigns":      weighted(!r.VitalSigns.IsEmpty(), weightVitalSigns),
		"labResults":      weighted(len(r.LabResults) > 0, weightLabResults),
		"findings":        weighted(len(r.Findings) > 0, weightFindings),
		"diagnosis":       weighted(len(r.Diagnosis) > 0, weightDiagnosis),
		"recommendations": weighted(len(r.Recommendations) > 0, weightRecommendations),
	}
}

func ScorePrescription(p domain.Prescription) map[string]float64 {
	return map[string]float64{
		"doctorName": presence(p.DoctorName),
		"date":       presence(p.Date),
		"notes":      presence(p.Notes),
		"medicines":  weighted(len(p.Medicines) > 0, weightMedicines),
	}
}

func presence(s string) float64 {
	return weighted(s != "", 1)
}

func weighted(present bool, weight float64) float64 {
	if present {
		return weight
	}
	return 0
}
