package canonical

import (
	"encoding/json"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

func decodeObject(t *testing.T, raw string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return out
}

func roundTrip(t *testing.T, record any) map[string]any {
	t.Helper()
	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	return decodeObject(t, string(data))
}

func TestValidateReportDropsLabResultWithoutTestName(t *testing.T) {
	raw := decodeObject(t, `{
		"reportType": "CBC",
		"labResults": [
			{"testName": "Hemoglobin", "value": "13.5", "unit": "g/dL"},
			{"value": "7000"},
			{"testName": "Platelets", "value": "250000"}
		]
	}`)

	report, uncertain := ValidateReport(raw)
	if len(report.LabResults) != 2 {
		t.Fatalf("expected 2 lab results, got %d", len(report.LabResults))
	}
	if report.LabResults[0].TestName != "Hemoglobin" || report.LabResults[1].TestName != "Platelets" {
		t.Fatalf("unexpected lab results: %+v", report.LabResults)
	}
	if !slices.Contains(uncertain, "labResults[1]") {
		t.Fatalf("expected labResults[1] in uncertain fields, got %v", uncertain)
	}
}

func TestValidateReportCoercesScalars(t *testing.T) {
	raw := decodeObject(t, `{
		"reportType": "X-ray chest",
		"patientName": 42,
		"doctorName": {"first": "A"},
		"hospitalName": "   ",
		"date": null,
		"summary": "  stable  "
	}`)

	report, uncertain := ValidateReport(raw)
	if report.PatientName != "42" {
		t.Fatalf("expected stringified patient name, got %q", report.PatientName)
	}
	if report.DoctorName != "" || report.HospitalName != "" || report.Date != "" {
		t.Fatalf("expected absent doctor/hospital/date, got %+v", report)
	}
	if report.Summary != "stable" {
		t.Fatalf("expected trimmed summary, got %q", report.Summary)
	}
	want := []string{"patientName", "doctorName"}
	if !reflect.DeepEqual(uncertain, want) {
		t.Fatalf("uncertain = %v, want %v", uncertain, want)
	}
}

func TestValidateReportDefaultsReportType(t *testing.T) {
	cases := []struct {
		name      string
		raw       string
		want      string
		uncertain bool
	}{
		{name: "missing", raw: `{}`, want: domain.UnknownReportType, uncertain: true},
		{name: "non-string", raw: `{"reportType": 7}`, want: domain.UnknownReportType, uncertain: true},
		{name: "blank", raw: `{"reportType": " "}`, want: domain.UnknownReportType, uncertain: true},
		{name: "canonicalized", raw: `{"reportType": "Complete Blood Count panel"}`, want: "Blood Test"},
		{name: "passthrough", raw: `{"reportType": "unrecognized gizmo scan"}`, want: "unrecognized gizmo scan"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report, uncertain := ValidateReport(decodeObject(t, tc.raw))
			if report.ReportType != tc.want {
				t.Fatalf("reportType = %q, want %q", report.ReportType, tc.want)
			}
			if got := slices.Contains(uncertain, "reportType"); got != tc.uncertain {
				t.Fatalf("reportType uncertain = %v, want %v (%v)", got, tc.uncertain, uncertain)
			}
		})
	}
}

func TestValidateReportListsAreNeverNil(t *testing.T) {
	report, uncertain := ValidateReport(decodeObject(t, `{
		"reportType": "MRI brain",
		"diagnosis": "migraine",
		"findings": null
	}`))

	if report.LabResults == nil || report.Findings == nil || report.Diagnosis == nil || report.Recommendations == nil {
		t.Fatalf("expected non-nil lists, got %+v", report)
	}
	if len(report.Diagnosis) != 0 {
		t.Fatalf("expected non-array diagnosis to become empty, got %v", report.Diagnosis)
	}
	if !reflect.DeepEqual(uncertain, []string{"diagnosis"}) {
		t.Fatalf("uncertain = %v, want [diagnosis]", uncertain)
	}

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"labResults":[]`, `"findings":[]`, `"diagnosis":[]`, `"recommendations":[]`} {
		if !strings.Contains(string(data), key) {
			t.Fatalf("expected %s in %s", key, data)
		}
	}
}

func TestValidateReportMatchesEnumsCaseInsensitively(t *testing.T) {
	report, uncertain := ValidateReport(decodeObject(t, `{
		"reportType": "Blood test",
		"labResults": [
			{"testName": "Glucose", "value": "180", "status": "high"},
			{"testName": "Sodium", "value": "140", "status": "elevated"}
		],
		"findings": [
			{"category": "Liver", "finding": "fatty changes", "severity": "SEVERE"},
			{"category": "Kidney", "severity": 3}
		]
	}`))

	if report.LabResults[0].Status != domain.LabStatusHigh {
		t.Fatalf("expected High status, got %q", report.LabResults[0].Status)
	}
	if report.LabResults[1].Status != "" {
		t.Fatalf("expected unknown status to be absent, got %q", report.LabResults[1].Status)
	}
	if report.Findings[0].Severity != domain.SeveritySevere {
		t.Fatalf("expected Severe, got %q", report.Findings[0].Severity)
	}
	want := []string{"labResults[1].status", "findings[1].severity"}
	if !reflect.DeepEqual(uncertain, want) {
		t.Fatalf("uncertain = %v, want %v", uncertain, want)
	}
}

func TestValidateReportVitalSigns(t *testing.T) {
	report, uncertain := ValidateReport(decodeObject(t, `{
		"reportType": "ECG",
		"vitalSigns": {"heartRate": 72, "bloodPressure": "120/80", "mood": "calm", "weight": null}
	}`))
	if report.VitalSigns.HeartRate != "72" || report.VitalSigns.BloodPressure != "120/80" {
		t.Fatalf("unexpected vital signs: %+v", report.VitalSigns)
	}
	if !reflect.DeepEqual(uncertain, []string{"vitalSigns.heartRate"}) {
		t.Fatalf("uncertain = %v, want [vitalSigns.heartRate]", uncertain)
	}

	report, uncertain = ValidateReport(decodeObject(t, `{"reportType": "ECG", "vitalSigns": "normal"}`))
	if !report.VitalSigns.IsEmpty() {
		t.Fatalf("expected empty vital signs, got %+v", report.VitalSigns)
	}
	if !reflect.DeepEqual(uncertain, []string{"vitalSigns"}) {
		t.Fatalf("uncertain = %v, want [vitalSigns]", uncertain)
	}
}

func TestValidateReportAcceptsSynonymKeys(t *testing.T) {
	report, uncertain := ValidateReport(decodeObject(t, `{
		"reportType": "Blood Test",
		"patient": "Jane Roe",
		"labResults": [{"name": "TSH", "result": "2.1"}]
	}`))
	if report.PatientName != "Jane Roe" {
		t.Fatalf("expected patient alias to be used, got %q", report.PatientName)
	}
	if len(report.LabResults) != 1 || report.LabResults[0].TestName != "TSH" || report.LabResults[0].Value != "2.1" {
		t.Fatalf("unexpected lab results: %+v", report.LabResults)
	}
	want := []string{"patientName", "labResults[0].testName", "labResults[0].value"}
	if !reflect.DeepEqual(uncertain, want) {
		t.Fatalf("uncertain = %v, want %v", uncertain, want)
	}
}

func TestValidateReportIsIdempotent(t *testing.T) {
	raw := decodeObject(t, `{
		"reportType": "haematology",
		"patientName": 1001,
		"vitalSigns": {"temperature": 98.6, "spo2": "97%"},
		"labResults": [
			"not an object",
			{"testName": "Hb", "value": 12.1, "status": "LOW"},
			{"testName": "", "value": "1"}
		],
		"findings": [{"category": "Blood", "severity": "unknown"}],
		"diagnosis": ["anemia", 5, {"x": 1}, ""],
		"recommendations": "iron"
	}`)

	first, uncertain := ValidateReport(raw)
	if len(uncertain) == 0 {
		t.Fatalf("expected first pass to report uncertain fields")
	}

	second, again := ValidateReport(roundTrip(t, first))
	if len(again) != 0 {
		t.Fatalf("expected no uncertain fields on canonical input, got %v", again)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("validator is not idempotent:\nfirst  %+v\nsecond %+v", first, second)
	}
	if err := Conforms(domain.SchemaReport, second); err != nil {
		t.Fatalf("Conforms() error = %v", err)
	}
}
