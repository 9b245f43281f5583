package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

type SchemaKind string

const (
	SchemaReport       SchemaKind = "report"
	SchemaPrescription SchemaKind = "prescription"
)

func ParseSchemaKind(raw string) (SchemaKind, error) {
	switch SchemaKind(strings.ToLower(strings.TrimSpace(raw))) {
	case SchemaReport:
		return SchemaReport, nil
	case SchemaPrescription:
		return SchemaPrescription, nil
	default:
		return "", fmt.Errorf("%w: unknown schema kind %q", ErrInvalidInput, raw)
	}
}

type InputKind string

const (
	InputImage InputKind = "image"
	InputText  InputKind = "text"
)

// ExtractionInput is the raw caller payload before normalization.
type ExtractionInput struct {
	ImageData   string `json:"imageData,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
	TextContent string `json:"textContent,omitempty"`
}

// ExtractionRequest is a normalized input: either an image (canonical standard
// base64 plus MIME type) or non-empty text.
type ExtractionRequest struct {
	Input       InputKind
	ImageBase64 string
	ImageSize   int
	MimeType    string
	Text        string
}

type ProviderName string

const (
	ProviderGemini ProviderName = "gemini"
	ProviderOpenAI ProviderName = "openai"
	ProviderOllama ProviderName = "ollama"
)

// ProviderCredentials are handed to the pipeline by the caller on every call.
type ProviderCredentials struct {
	GeminiAPIKey string
	OpenAIAPIKey string
	OllamaURL    string
}

func (c ProviderCredentials) Empty() bool {
	return strings.TrimSpace(c.GeminiAPIKey) == "" &&
		strings.TrimSpace(c.OpenAIAPIKey) == "" &&
		strings.TrimSpace(c.OllamaURL) == ""
}

type LabStatus string

const (
	LabStatusNormal   LabStatus = "Normal"
	LabStatusHigh     LabStatus = "High"
	LabStatusLow      LabStatus = "Low"
	LabStatusCritical LabStatus = "Critical"
)

var LabStatuses = []LabStatus{LabStatusNormal, LabStatusHigh, LabStatusLow, LabStatusCritical}

type Severity string

const (
	SeverityMild     Severity = "Mild"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
)

var Severities = []Severity{SeverityMild, SeverityModerate, SeveritySevere}

const UnknownReportType = "Unknown Report"

type VitalSigns struct {
	BloodPressure    string `json:"bloodPressure,omitempty"`
	HeartRate        string `json:"heartRate,omitempty"`
	Temperature      string `json:"temperature,omitempty"`
	Weight           string `json:"weight,omitempty"`
	Height           string `json:"height,omitempty"`
	RespiratoryRate  string `json:"respiratoryRate,omitempty"`
	OxygenSaturation string `json:"oxygenSaturation,omitempty"`
}

func (v VitalSigns) IsEmpty() bool {
	return v == VitalSigns{}
}

type LabResult struct {
	TestName       string    `json:"testName"`
	Value          string    `json:"value"`
	Unit           string    `json:"unit,omitempty"`
	ReferenceRange string    `json:"referenceRange,omitempty"`
	Status         LabStatus `json:"status,omitempty"`
}

type Finding struct {
	Category string   `json:"category"`
	Finding  string   `json:"finding,omitempty"`
	Severity Severity `json:"severity,omitempty"`
}

type ClinicalReport struct {
	ReportType      string      `json:"reportType"`
	PatientName     string      `json:"patientName,omitempty"`
	DoctorName      string      `json:"doctorName,omitempty"`
	HospitalName    string      `json:"hospitalName,omitempty"`
	Date            string      `json:"date,omitempty"`
	VitalSigns      VitalSigns  `json:"vitalSigns"`
	LabResults      []LabResult `json:"labResults"`
	Findings        []Finding   `json:"findings"`
	Diagnosis       []string    `json:"diagnosis"`
	Recommendations []string    `json:"recommendations"`
	Summary         string      `json:"summary,omitempty"`
	NextAppointment string      `json:"nextAppointment,omitempty"`
}

// Dosage counts units per time of day. Values are never negative.
type Dosage struct {
	Morning   int `json:"morning"`
	Noon      int `json:"noon"`
	Afternoon int `json:"afternoon"`
	Night     int `json:"night"`
}

type Medicine struct {
	MedicationName string `json:"medicationName"`
	Dosage         Dosage `json:"dosage"`
	Instructions   string `json:"instructions,omitempty"`
	Frequency      string `json:"frequency,omitempty"`
	Duration       string `json:"duration,omitempty"`
}

type Prescription struct {
	DoctorName string     `json:"doctorName,omitempty"`
	Date       string     `json:"date,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	Medicines  []Medicine `json:"medicines"`
}

// ExtractionResult is the assembled pipeline output. Exactly one of Report and
// Prescription is set, matching Kind.
type ExtractionResult struct {
	Kind            SchemaKind
	Provider        ProviderName
	Report          *ClinicalReport
	Prescription    *Prescription
	Confidence      map[string]float64
	UncertainFields []string
}

func (r *ExtractionResult) Record() any {
	if r.Kind == SchemaPrescription {
		return r.Prescription
	}
	return r.Report
}

func (r ExtractionResult) hasRecord() bool {
	if r.Kind == SchemaPrescription {
		return r.Prescription != nil
	}
	return r.Report != nil
}

// MarshalJSON flattens the record fields next to confidence and uncertainFields.
func (r ExtractionResult) MarshalJSON() ([]byte, error) {
	if !r.hasRecord() {
		return nil, fmt.Errorf("marshal extraction result: no %q record", r.Kind)
	}
	recordJSON, err := json.Marshal(r.Record())
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(recordJSON, &fields); err != nil {
		return nil, fmt.Errorf("flatten record: %w", err)
	}

	confidence := r.Confidence
	if confidence == nil {
		confidence = map[string]float64{}
	}
	confidenceJSON, err := json.Marshal(confidence)
	if err != nil {
		return nil, fmt.Errorf("marshal confidence: %w", err)
	}
	fields["confidence"] = confidenceJSON

	if len(r.UncertainFields) > 0 {
		uncertainJSON, err := json.Marshal(r.UncertainFields)
		if err != nil {
			return nil, fmt.Errorf("marshal uncertain fields: %w", err)
		}
		fields["uncertainFields"] = uncertainJSON
	}
	return json.Marshal(fields)
}

// DecodeExtractionResult parses a flattened result produced by MarshalJSON.
func DecodeExtractionResult(kind SchemaKind, data []byte) (*ExtractionResult, error) {
	var meta struct {
		Confidence      map[string]float64 `json:"confidence"`
		UncertainFields []string           `json:"uncertainFields"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode result metadata: %w", err)
	}

	result := &ExtractionResult{
		Kind:            kind,
		Confidence:      meta.Confidence,
		UncertainFields: meta.UncertainFields,
	}
	switch kind {
	case SchemaReport:
		var report ClinicalReport
		if err := json.Unmarshal(data, &report); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		report.ensureLists()
		result.Report = &report
	case SchemaPrescription:
		var prescription Prescription
		if err := json.Unmarshal(data, &prescription); err != nil {
			return nil, fmt.Errorf("decode prescription: %w", err)
		}
		if prescription.Medicines == nil {
			prescription.Medicines = []Medicine{}
		}
		result.Prescription = &prescription
	default:
		return nil, fmt.Errorf("%w: unknown schema kind %q", ErrInvalidInput, kind)
	}
	return result, nil
}

func (r *ClinicalReport) ensureLists() {
	if r.LabResults == nil {
		r.LabResults = []LabResult{}
	}
	if r.Findings == nil {
		r.Findings = []Finding{}
	}
	if r.Diagnosis == nil {
		r.Diagnosis = []string{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []string{}
	}
}
