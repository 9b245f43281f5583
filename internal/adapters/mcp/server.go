// Package mcpadapter exposes extraction as MCP tools over stdio.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/health-record-extractor/internal/core/canonical"
	"github.com/kirillkom/health-record-extractor/internal/core/domain"
	"github.com/kirillkom/health-record-extractor/internal/core/ports"
)

const (
	serverName = "health-record-extractor"

	toolExtractReport       = "extract_report"
	toolExtractPrescription = "extract_prescription"
	toolListReportTypes     = "list_report_types"
)

type Handler struct {
	extractor ports.DocumentExtractor
	logger    *slog.Logger
}

func NewHandler(extractor ports.DocumentExtractor, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{extractor: extractor, logger: logger}
}

// NewServer registers the extraction tools on a fresh MCP server.
func NewServer(h *Handler, version string) *server.MCPServer {
	s := server.NewMCPServer(serverName, version, server.WithToolCapabilities(false))
	s.AddTool(extractTool(toolExtractReport, "Extract a structured clinical report from a medical document image or its text."), h.Extract(domain.SchemaReport))
	s.AddTool(extractTool(toolExtractPrescription, "Extract a structured prescription with per-medicine dosage counts."), h.Extract(domain.SchemaPrescription))
	s.AddTool(mcp.NewTool(toolListReportTypes,
		mcp.WithDescription("List the canonical report type names."),
	), h.ListReportTypes)
	return s
}

func extractTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("image_data",
			mcp.Description("Base64 image or PDF, or a base64 data URL. Supply exactly one of image_data and text_content."),
		),
		mcp.WithString("mime_type",
			mcp.Description("MIME type of image_data, e.g. image/png or application/pdf. Required unless image_data is a data URL."),
		),
		mcp.WithString("text_content",
			mcp.Description("Plain text of the document. Supply exactly one of image_data and text_content."),
		),
	)
}

func (h *Handler) Extract(kind domain.SchemaKind) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		started := time.Now()
		input := domain.ExtractionInput{
			ImageData:   strings.TrimSpace(req.GetString("image_data", "")),
			MimeType:    strings.TrimSpace(req.GetString("mime_type", "")),
			TextContent: req.GetString("text_content", ""),
		}

		result, err := h.extractor.Extract(ctx, kind, input)
		if err != nil {
			kindName := domain.KindOf(err)
			h.logger.Warn("mcp_extract_failed",
				"tool", req.Params.Name,
				"error_kind", kindName,
				"duration_ms", time.Since(started).Milliseconds(),
			)
			return mcp.NewToolResultError(kindName + ": " + domain.HumanMessage(kindName)), nil
		}

		data, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("mcp encode result: %w", err)
		}
		h.logger.Info("mcp_extract_completed",
			"tool", req.Params.Name,
			"provider", result.Provider,
			"uncertain_fields", len(result.UncertainFields),
			"duration_ms", time.Since(started).Milliseconds(),
		)
		return mcp.NewToolResultText(string(data)), nil
	}
}

func (h *Handler) ListReportTypes(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(strings.Join(canonical.ReportTypes(), "\n")), nil
}
