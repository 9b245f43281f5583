// Package cli runs extractions over local files.
package cli

import (
	"context"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
	"github.com/kirillkom/health-record-extractor/internal/core/ports"
)

type Loader func(path string) (domain.ExtractionInput, error)

type FileResult struct {
	Path   string
	Kind   domain.SchemaKind
	Result *domain.ExtractionResult
	Err    error
}

// RunBatch extracts every file with at most parallel extractions in flight.
// Results keep the order of paths; one failing file does not stop the others.
func RunBatch(
	ctx context.Context,
	extractor ports.DocumentExtractor,
	load Loader,
	kind domain.SchemaKind,
	paths []string,
	parallel int,
) []FileResult {
	if parallel <= 0 {
		parallel = 1
	}
	results := make([]FileResult, len(paths))

	var g errgroup.Group
	g.SetLimit(parallel)
	for i, path := range paths {
		g.Go(func() error {
			results[i] = extractFile(ctx, extractor, load, kind, path)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func extractFile(
	ctx context.Context,
	extractor ports.DocumentExtractor,
	load Loader,
	kind domain.SchemaKind,
	path string,
) FileResult {
	out := FileResult{Path: path, Kind: kind}
	if err := ctx.Err(); err != nil {
		out.Err = domain.WrapError(domain.ErrCancelled, "extract "+filepath.Base(path), err)
		return out
	}
	input, err := load(path)
	if err != nil {
		out.Err = err
		return out
	}
	out.Result, out.Err = extractor.Extract(ctx, kind, input)
	return out
}
