package usecase

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

// NormalizeInput checks that exactly one of image or text is supplied and
// returns the canonical request. It performs no I/O.
func NormalizeInput(in domain.ExtractionInput) (domain.ExtractionRequest, error) {
	image := strings.TrimSpace(in.ImageData)
	text := strings.TrimSpace(in.TextContent)

	switch {
	case image != "" && text != "":
		return domain.ExtractionRequest{}, invalidInput("provide either imageData or textContent, not both")
	case image == "" && text == "":
		return domain.ExtractionRequest{}, invalidInput("imageData or textContent is required")
	case text != "":
		return domain.ExtractionRequest{Input: domain.InputText, Text: text}, nil
	}

	mimeType := strings.ToLower(strings.TrimSpace(in.MimeType))
	payload := image
	if strings.HasPrefix(payload, "data:") {
		header, data, ok := strings.Cut(payload, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return domain.ExtractionRequest{}, invalidInput("imageData data URL must be base64 encoded")
		}
		if mimeType == "" {
			mimeType = strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64"))
		}
		payload = data
	}
	if mimeType == "" {
		return domain.ExtractionRequest{}, invalidInput("mimeType is required for image input")
	}
	if !strings.HasPrefix(mimeType, "image/") && mimeType != "application/pdf" {
		return domain.ExtractionRequest{}, invalidInput("unsupported mimeType " + mimeType)
	}

	decoded, err := decodeBase64(payload)
	if err != nil {
		return domain.ExtractionRequest{}, invalidInput("imageData is not valid base64")
	}
	if len(decoded) == 0 {
		return domain.ExtractionRequest{}, invalidInput("imageData is empty")
	}

	return domain.ExtractionRequest{
		Input:       domain.InputImage,
		ImageBase64: base64.StdEncoding.EncodeToString(decoded),
		ImageSize:   len(decoded),
		MimeType:    mimeType,
	}, nil
}

func decodeBase64(payload string) ([]byte, error) {
	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		default:
			return r
		}
	}, payload)

	var lastErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		decoded, err := enc.DecodeString(compact)
		if err == nil {
			return decoded, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func invalidInput(reason string) error {
	return domain.WrapError(domain.ErrInvalidInput, "normalize input", errors.New(reason))
}
