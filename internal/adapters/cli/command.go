package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
	"github.com/kirillkom/health-record-extractor/internal/core/ports"
	"github.com/kirillkom/health-record-extractor/internal/infrastructure/storage/localfs"
)

// ExtractorFactory builds the extractor for one command run. The returned
// func releases its resources.
type ExtractorFactory func(ctx context.Context) (ports.DocumentExtractor, func(), error)

func NewRootCommand(newExtractor ExtractorFactory, load Loader) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "extract",
		Short:         "Extract structured health records from local files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(kindCmd(domain.SchemaReport, "Extract clinical reports", newExtractor, load))
	rootCmd.AddCommand(kindCmd(domain.SchemaPrescription, "Extract prescriptions", newExtractor, load))
	return rootCmd
}

func kindCmd(kind domain.SchemaKind, short string, newExtractor ExtractorFactory, load Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(kind) + " <files...>",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			xlsxPath, _ := cmd.Flags().GetString("xlsx")
			parallel, _ := cmd.Flags().GetInt("parallel")

			extractor, release, err := newExtractor(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			results := RunBatch(cmd.Context(), extractor, load, kind, args, parallel)
			if err := WriteJSONLines(cmd.OutOrStdout(), results); err != nil {
				return err
			}
			if xlsxPath != "" {
				if err := writeSummary(cmd.Context(), xlsxPath, results); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Summary written to %s\n", xlsxPath)
			}

			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().String("xlsx", "", "Write an XLSX summary to this path")
	cmd.Flags().Int("parallel", 4, "Maximum concurrent extractions")
	return cmd
}

func writeSummary(ctx context.Context, path string, results []FileResult) error {
	data, err := BuildSummaryWorkbook(Summarize(results))
	if err != nil {
		return err
	}
	store, err := localfs.New(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if err := store.Save(ctx, filepath.Base(path), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// Execute runs the root command and reports the error on stderr.
func Execute(ctx context.Context, cmd *cobra.Command, stderr io.Writer) int {
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
