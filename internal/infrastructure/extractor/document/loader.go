// Package document turns files on disk into extraction input.
package document

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

const MaxFileBytes = 20 << 20

var imageMIMETypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".heic": "image/heic",
}

// LoadFile reads path as text (.txt, .md), a PDF or an image. PDFs with a text
// layer are sent as text; scanned PDFs are sent as the document itself.
func LoadFile(path string) (domain.ExtractionInput, error) {
	raw, err := readLimited(path)
	if err != nil {
		return domain.ExtractionInput{}, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".txt" || ext == ".md":
		return textInput(path, raw)
	case ext == ".pdf":
		return pdfInput(path, raw)
	default:
		mimeType, ok := imageMIMETypes[ext]
		if !ok {
			return domain.ExtractionInput{}, invalidFile(path, fmt.Errorf("unsupported file type %q", ext))
		}
		return domain.ExtractionInput{
			ImageData: base64.StdEncoding.EncodeToString(raw),
			MimeType:  mimeType,
		}, nil
	}
}

func readLimited(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, invalidFile(path, err)
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, MaxFileBytes+1))
	if err != nil {
		return nil, invalidFile(path, err)
	}
	if len(raw) > MaxFileBytes {
		return nil, invalidFile(path, fmt.Errorf("file exceeds %d bytes", MaxFileBytes))
	}
	if len(raw) == 0 {
		return nil, invalidFile(path, errors.New("file is empty"))
	}
	return raw, nil
}

func textInput(path string, raw []byte) (domain.ExtractionInput, error) {
	if !utf8.Valid(raw) {
		return domain.ExtractionInput{}, invalidFile(path, errors.New("text file is not valid UTF-8"))
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return domain.ExtractionInput{}, invalidFile(path, errors.New("text file is blank"))
	}
	return domain.ExtractionInput{TextContent: text}, nil
}

func pdfInput(path string, raw []byte) (domain.ExtractionInput, error) {
	text, err := pdfText(raw)
	if err != nil {
		return domain.ExtractionInput{}, invalidFile(path, err)
	}
	if strings.TrimSpace(text) != "" {
		return domain.ExtractionInput{TextContent: strings.TrimSpace(text)}, nil
	}
	return domain.ExtractionInput{
		ImageData: base64.StdEncoding.EncodeToString(raw),
		MimeType:  "application/pdf",
	}, nil
}

// pdfText returns the text layer of a PDF. The parser panics on some damaged
// files, so panics are turned into errors.
func pdfText(raw []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

func invalidFile(path string, err error) error {
	return domain.WrapError(domain.ErrInvalidInput, "load "+filepath.Base(path), err)
}
