package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
	"github.com/kirillkom/health-record-extractor/internal/core/ports"
)

func staticFactory(extractor ports.DocumentExtractor, released *bool) ExtractorFactory {
	return func(context.Context) (ports.DocumentExtractor, func(), error) {
		return extractor, func() { *released = true }, nil
	}
}

func TestReportCommandWritesLinesAndSummary(t *testing.T) {
	xlsxPath := filepath.Join(t.TempDir(), "summary.xlsx")
	released := false
	cmd := NewRootCommand(staticFactory(&extractorFake{}, &released), textLoader)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"report", "--xlsx", xlsxPath, "--parallel", "2", "a.txt", "b.txt"})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if n := strings.Count(stdout.String(), "\n"); n != 2 {
		t.Fatalf("expected 2 JSON lines, got %d: %s", n, stdout.String())
	}
	if _, err := os.Stat(xlsxPath); err != nil {
		t.Fatalf("expected summary file: %v", err)
	}
	if !released {
		t.Fatalf("expected extractor to be released")
	}
}

func TestCommandFailsWhenAnyFileFails(t *testing.T) {
	released := false
	cmd := NewRootCommand(staticFactory(&extractorFake{}, &released), textLoader)
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"prescription", "ok.txt", "broken.bad"})

	err := cmd.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Fatalf("expected partial failure error, got %v", err)
	}
	if !strings.Contains(stdout.String(), domain.KindInvalidInput) {
		t.Fatalf("expected failure line on stdout, got %s", stdout.String())
	}
	if !strings.Contains(stdout.String(), `"medicationName":"Paracetamol"`) {
		t.Fatalf("expected prescription record on stdout, got %s", stdout.String())
	}
}

func TestCommandRequiresFiles(t *testing.T) {
	released := false
	cmd := NewRootCommand(staticFactory(&extractorFake{}, &released), textLoader)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"report"})

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Fatalf("expected error without file arguments")
	}
}

func TestCommandFactoryError(t *testing.T) {
	factory := func(context.Context) (ports.DocumentExtractor, func(), error) {
		return nil, nil, domain.WrapError(domain.ErrNoProviderConfigured, "bootstrap", errors.New("no credentials"))
	}
	cmd := NewRootCommand(factory, textLoader)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"report", "a.txt"})

	err := cmd.ExecuteContext(context.Background())
	if !domain.IsKind(err, domain.ErrNoProviderConfigured) {
		t.Fatalf("expected NoProviderConfigured, got %v", err)
	}
}
