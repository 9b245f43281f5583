package usecase

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

const answerSnippetRunes = 48

// LocateJSONObject returns the span from the first '{' in answer to its
// matching top-level '}'. Braces inside JSON string literals are ignored.
func LocateJSONObject(answer string) (string, error) {
	start := strings.IndexByte(answer, '{')
	if start < 0 {
		return "", domain.WrapError(domain.ErrNoJSONFound, "locate json", answerError("no '{' in answer", answer))
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(answer); i++ {
		c := answer[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return answer[start : i+1], nil
			}
		}
	}
	return "", domain.WrapError(domain.ErrMalformedJSON, "locate json", answerError("unbalanced braces", answer))
}

// ExtractJSONObject parses the first balanced JSON object found in answer.
// Numbers are kept as json.Number so integral values stay distinguishable.
func ExtractJSONObject(answer string) (map[string]any, error) {
	span, err := LocateJSONObject(answer)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(strings.NewReader(span))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, domain.WrapError(domain.ErrMalformedJSON, "parse json", answerError("invalid json object", answer))
	}
	return obj, nil
}

func answerError(reason, answer string) *domain.AnswerFormatError {
	return &domain.AnswerFormatError{
		Reason:  reason,
		Length:  len(answer),
		Snippet: snippet(answer),
	}
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= answerSnippetRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:answerSnippetRunes]) + "..."
}
