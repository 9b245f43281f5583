package provider

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/health-record-extractor/internal/core/canonical"
	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

const maxTextInputChars = 20000

var (
	reportInstruction       = buildReportInstruction()
	prescriptionInstruction = buildPrescriptionInstruction()
)

func buildReportInstruction() string {
	return `You extract structured data from a medical report.
Return a single JSON object and nothing else. No markdown, no commentary.
The object must follow this JSON Schema:
` + canonical.SchemaJSON(domain.SchemaReport) + `
Rules:
- reportType should be one of: ` + strings.Join(canonical.ReportTypes(), ", ") + `; otherwise use the title printed on the report.
- All scalar values are strings. Keep units inside the value text (for example "120/80 mmHg").
- labResults[].status is one of Normal, High, Low, Critical. findings[].severity is one of Mild, Moderate, Severe.
- Omit fields you cannot read. Use [] for lists with no entries. Never invent values.`
}

func buildPrescriptionInstruction() string {
	return `You extract structured data from a medical prescription.
Return a single JSON object and nothing else. No markdown, no commentary.
The object must follow this JSON Schema:
` + canonical.SchemaJSON(domain.SchemaPrescription) + `
Rules:
- dosage holds whole numbers of units for morning, noon, afternoon and night. A "1-0-1" schedule is morning 1, noon 0, night 1.
- Use 0 for times of day with no dose.
- Omit fields you cannot read. Use [] when no medicines are legible. Never invent values.`
}

// Instruction returns the fixed instruction text for kind. All providers share it.
func Instruction(kind domain.SchemaKind) string {
	if kind == domain.SchemaPrescription {
		return prescriptionInstruction
	}
	return reportInstruction
}

// userText is the user turn for text input. Image input sends the instruction alone.
func userText(req domain.ExtractionRequest) string {
	if req.Input != domain.InputText {
		return "Extract the data from the attached document image."
	}
	return "Document text:\n" + truncateText(req.Text)
}

// truncateText cuts text to maxTextInputChars bytes on a rune boundary. Only
// the lengths are logged.
func truncateText(text string) string {
	if len(text) <= maxTextInputChars {
		return text
	}
	cut := maxTextInputChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	slog.Warn("text_truncated", "original_len", len(text), "kept_len", cut)
	return text[:cut]
}
