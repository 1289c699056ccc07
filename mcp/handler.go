package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/foomo/confluence-export/markup"
	"github.com/foomo/confluence-export/service"
	"github.com/foomo/confluence-export/service/vo"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const Version = "0.1.0"

// Defaults fill in export options a caller leaves out. OutputDir is also the
// root every caller supplied output directory is resolved under.
type Defaults struct {
	OutputDir   string
	Concurrency int
	FrontMatter bool
}

type ExportSpaceRequest struct {
	SpaceKey  string   `json:"spaceKey"`  // Key of the Confluence space
	OutputDir string   `json:"outputDir"` // Directory the Markdown files are written to
	Ignore    []string `json:"ignore"`    // parent:ID or title:REGEX filters
}

type ConvertStorageRequest struct {
	Storage string `json:"storage"` // Confluence storage-format XHTML
}

type ConvertStorageResponse struct {
	Markdown string `json:"markdown"`
}

type BreadcrumbPreviewRequest struct {
	SpaceKey string   `json:"spaceKey"`
	Ignore   []string `json:"ignore"`
}

// NewServer creates the MCP server with the export_space, convert_storage and
// breadcrumb_preview tools. hub may be nil.
func NewServer(l *zap.Logger, svc service.Service, transformer *markup.Transformer, defaults Defaults, hub *Hub) *server.MCPServer {
	if l == nil {
		l = zap.NewNop()
	}
	if transformer == nil {
		transformer = markup.New(markup.WithLogger(l))
	}

	s := server.NewMCPServer(
		"Confluence Export MCP",
		Version,
		server.WithToolCapabilities(false),
	)

	exportTool := mcp.NewTool("export_space",
		mcp.WithDescription("Export every page of a Confluence space to Markdown files and return the run summary"),
		mcp.WithString("spaceKey",
			mcp.Required(),
			mcp.Description("The key of the Confluence space, e.g. 'DOCS'"),
		),
		mcp.WithString("outputDir",
			mcp.Description("Output directory relative to the configured one, which is used when empty"),
		),
		mcp.WithArray("ignore",
			mcp.Description("Ignore filters, 'parent:PAGE_ID' skips a subtree, 'title:REGEX' skips matching pages"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
	s.AddTool(exportTool, mcp.NewTypedToolHandler(getExportSpaceHandler(l, svc, defaults, hub)))

	convertTool := mcp.NewTool("convert_storage",
		mcp.WithDescription("Convert a Confluence storage-format document to Markdown"),
		mcp.WithString("storage",
			mcp.Required(),
			mcp.Description("The storage-format XHTML of a page body"),
		),
	)
	s.AddTool(convertTool, mcp.NewTypedToolHandler(getConvertStorageHandler(transformer)))

	previewTool := mcp.NewTool("breadcrumb_preview",
		mcp.WithDescription("List the pages an export would write, with their breadcrumbs, and the pages the filters skip"),
		mcp.WithString("spaceKey",
			mcp.Required(),
			mcp.Description("The key of the Confluence space"),
		),
		mcp.WithArray("ignore",
			mcp.Description("Ignore filters, same syntax as export_space"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
	s.AddTool(previewTool, mcp.NewTypedToolHandler(getBreadcrumbPreviewHandler(svc)))

	return s
}

func getExportSpaceHandler(l *zap.Logger, svc service.Service, defaults Defaults, hub *Hub) func(ctx context.Context, request mcp.CallToolRequest, args ExportSpaceRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args ExportSpaceRequest) (*mcp.CallToolResult, error) {
		if args.SpaceKey == "" {
			return mcp.NewToolResultError("spaceKey is required"), nil
		}
		outputDir, err := resolveOutputDir(defaults.OutputDir, args.OutputDir)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		fields := []zap.Field{zap.String("spaceKey", args.SpaceKey), zap.String("outputDir", outputDir)}
		if r, ok := httpRequestFromContext(ctx); ok {
			fields = append(fields, zap.String("remoteAddr", r.RemoteAddr))
		}
		l.Info("export requested", fields...)

		opts := service.Options{
			SpaceKey:      args.SpaceKey,
			OutputDir:     outputDir,
			IgnoreFilters: args.Ignore,
			Concurrency:   defaults.Concurrency,
			FrontMatter:   defaults.FrontMatter,
		}
		if hub != nil {
			opts.Progress = func(e vo.ProgressEvent) {
				hub.Publish(newEvent(string(e.Kind), e))
			}
		}

		summary, err := svc.ExportSpace(ctx, opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to export space: %v", err)), nil
		}
		if hub != nil {
			hub.Publish(newEvent(EventExportResult, summary))
		}
		return jsonResult(summary)
	}
}

// resolveOutputDir places a caller supplied output directory under root.
// Absolute paths and paths leaving root are rejected.
func resolveOutputDir(root, requested string) (string, error) {
	if root == "" {
		return "", errors.New("outputDir is required")
	}
	if requested == "" {
		return root, nil
	}
	if filepath.IsAbs(requested) || filepath.VolumeName(requested) != "" {
		return "", fmt.Errorf("outputDir %q must be relative to %q", requested, root)
	}
	dir := filepath.Join(root, requested)
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("outputDir %q leaves %q", requested, root)
	}
	return dir, nil
}

func getConvertStorageHandler(transformer *markup.Transformer) func(ctx context.Context, request mcp.CallToolRequest, args ConvertStorageRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args ConvertStorageRequest) (*mcp.CallToolResult, error) {
		if args.Storage == "" {
			return mcp.NewToolResultError("storage is required"), nil
		}
		return jsonResult(ConvertStorageResponse{Markdown: transformer.Transform(args.Storage)})
	}
}

func getBreadcrumbPreviewHandler(svc service.Service) func(ctx context.Context, request mcp.CallToolRequest, args BreadcrumbPreviewRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args BreadcrumbPreviewRequest) (*mcp.CallToolResult, error) {
		if args.SpaceKey == "" {
			return mcp.NewToolResultError("spaceKey is required"), nil
		}
		plan, err := svc.Plan(ctx, service.Options{SpaceKey: args.SpaceKey, IgnoreFilters: args.Ignore})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to plan export: %v", err)), nil
		}
		return jsonResult(plan)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	responseBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseBytes)), nil
}
