package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/foomo/confluence-export/markup"
	"github.com/foomo/confluence-export/service/vo"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const FormatMarkdown = "markdown"

type ContentClient interface {
	GetSpaceDetails(ctx context.Context, spaceKey string) (*vo.Space, error)
	ListAllPagesInSpace(ctx context.Context, spaceID string) ([]vo.PageRecord, error)
	GetPageDetail(ctx context.Context, pageID string) (*vo.PageDetail, error)
}

type FileWriter interface {
	ClearDir(dir string) error
	EnsureDir(dir string) error
	WriteFile(path string, content []byte) error
}

type Options struct {
	SpaceKey      string
	OutputDir     string
	IgnoreFilters []string
	// Concurrency is the number of pages processed at once. Values below 1
	// mean 1.
	Concurrency int
	FrontMatter bool
	// Progress, when set, receives one event per page. Calls never overlap.
	Progress func(vo.ProgressEvent)
}

type Service interface {
	ExportSpace(ctx context.Context, opts Options) (*vo.ExportSummary, error)
	Plan(ctx context.Context, opts Options) (*vo.ExportPlan, error)
}

type service struct {
	l           *zap.Logger
	client      ContentClient
	writer      FileWriter
	transformer *markup.Transformer
}

func NewService(l *zap.Logger, client ContentClient, writer FileWriter, transformer *markup.Transformer) Service {
	if l == nil {
		l = zap.NewNop()
	}
	if transformer == nil {
		transformer = markup.New(markup.WithLogger(l))
	}
	return &service{
		l:           l,
		client:      client,
		writer:      writer,
		transformer: transformer,
	}
}

type spaceIndex struct {
	space   *vo.Space
	pages   []vo.PageRecord
	pageMap PageMap
	skip    SkipSet
}

func (s *service) index(ctx context.Context, opts Options) (*spaceIndex, error) {
	s.l.Info("getting space details", zap.String("spaceKey", opts.SpaceKey))
	space, err := s.client.GetSpaceDetails(ctx, opts.SpaceKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get space %s: %w", opts.SpaceKey, err)
	}

	s.l.Info("listing pages", zap.String("spaceKey", opts.SpaceKey), zap.String("spaceID", space.ID))
	pages, err := s.client.ListAllPagesInSpace(ctx, space.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages of space %s: %w", opts.SpaceKey, err)
	}
	s.l.Info("found pages", zap.String("spaceKey", opts.SpaceKey), zap.Int("count", len(pages)))

	pageMap := NewPageMap(pages)
	return &spaceIndex{
		space:   space,
		pages:   pages,
		pageMap: pageMap,
		skip:    computeSkipSet(s.l, pages, opts.IgnoreFilters, pageMap, space.Name),
	}, nil
}

type pageResult struct {
	skipped bool
	file    string
	err     string
}

func (s *service) ExportSpace(ctx context.Context, opts Options) (*vo.ExportSummary, error) {
	start := time.Now()
	if err := ValidateFilters(opts.IgnoreFilters); err != nil {
		return nil, err
	}
	if err := s.writer.ClearDir(opts.OutputDir); err != nil {
		return nil, fmt.Errorf("failed to clear output directory: %w", err)
	}
	if err := s.writer.EnsureDir(opts.OutputDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	idx, err := s.index(ctx, opts)
	if err != nil {
		return nil, err
	}

	var (
		results = make([]pageResult, len(idx.pages))
		mu      sync.Mutex
		g       errgroup.Group
	)
	progress := func(event vo.ProgressEvent) {
		if opts.Progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		opts.Progress(event)
	}

	g.SetLimit(max(opts.Concurrency, 1))
	for i, page := range idx.pages {
		g.Go(func() error {
			if idx.skip.Has(page.ID) {
				s.l.Debug("skipping page", zap.String("pageID", page.ID), zap.String("title", page.Title))
				results[i] = pageResult{skipped: true}
				progress(vo.ProgressEvent{Kind: vo.ProgressSkipped, PageID: page.ID, Title: page.Title})
				return nil
			}
			file, err := s.exportPage(ctx, page, idx, opts)
			if err != nil {
				msg := fmt.Sprintf("Error exporting page %s - \"%s\": %v", page.ID, page.Title, err)
				s.l.Error("failed to export page", zap.String("pageID", page.ID), zap.Error(err))
				results[i] = pageResult{err: msg}
				progress(vo.ProgressEvent{Kind: vo.ProgressError, PageID: page.ID, Title: page.Title, Error: msg})
				return nil
			}
			results[i] = pageResult{file: file}
			progress(vo.ProgressEvent{Kind: vo.ProgressExported, PageID: page.ID, Title: page.Title, File: file})
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("export of space %s was cancelled: %w", opts.SpaceKey, err)
	}

	summary := &vo.ExportSummary{
		RunID:      uuid.NewString(),
		SpaceKey:   opts.SpaceKey,
		SpaceName:  idx.space.Name,
		PagesFound: len(idx.pages),
		OutputDir:  opts.OutputDir,
		Format:     FormatMarkdown,
		Errors:     []string{},
	}
	if len(opts.IgnoreFilters) > 0 {
		summary.IgnoredFilters = opts.IgnoreFilters
	}
	for _, result := range results {
		switch {
		case result.skipped:
			summary.PagesSkipped++
		case result.err != "":
			summary.Errors = append(summary.Errors, result.err)
		default:
			summary.PagesExported++
		}
	}
	summary.FinishedAt = time.Now().UTC()
	summary.Duration = time.Since(start)

	s.l.Info("export finished",
		zap.String("runID", summary.RunID),
		zap.String("spaceKey", summary.SpaceKey),
		zap.Int("exported", summary.PagesExported),
		zap.Int("skipped", summary.PagesSkipped),
		zap.Int("errors", len(summary.Errors)),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

func (s *service) exportPage(ctx context.Context, page vo.PageRecord, idx *spaceIndex, opts Options) (string, error) {
	s.l.Debug("exporting page", zap.String("pageID", page.ID), zap.String("title", page.Title))
	detail, err := s.client.GetPageDetail(ctx, page.ID)
	if err != nil {
		return "", err
	}

	body, err := s.body(detail)
	if err != nil {
		return "", err
	}

	doc := document{
		page:       detail,
		spaceKey:   opts.SpaceKey,
		breadcrumb: idx.pageMap.Segments(page.ID, idx.space.Name),
		body:       body,
	}
	content, err := doc.render(opts.FrontMatter)
	if err != nil {
		return "", err
	}

	file := Filename(page.ID, detail.Title)
	if err := s.writer.WriteFile(filepath.Join(opts.OutputDir, file), []byte(content)); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", file, err)
	}
	return file, nil
}

// body converts the storage body, falling back to the rendered view.
func (s *service) body(detail *vo.PageDetail) (string, error) {
	switch {
	case detail.Body.Storage != nil && detail.Body.Storage.Value != "":
		return s.transformer.Transform(detail.Body.Storage.Value), nil
	case detail.Body.View != nil && detail.Body.View.Value != "":
		return markup.ConvertView(detail.Body.View.Value)
	default:
		s.l.Warn("page body content not found", zap.String("pageID", detail.ID))
		return "", nil
	}
}

// Plan resolves what ExportSpace would write without fetching page bodies or
// touching the output directory.
func (s *service) Plan(ctx context.Context, opts Options) (*vo.ExportPlan, error) {
	if err := ValidateFilters(opts.IgnoreFilters); err != nil {
		return nil, err
	}
	idx, err := s.index(ctx, opts)
	if err != nil {
		return nil, err
	}

	plan := &vo.ExportPlan{
		SpaceKey:  opts.SpaceKey,
		SpaceName: idx.space.Name,
		Pages:     []vo.PlannedPage{},
		Skipped:   []string{},
	}
	for _, page := range idx.pages {
		if idx.skip.Has(page.ID) {
			plan.Skipped = append(plan.Skipped, page.ID)
			continue
		}
		plan.Pages = append(plan.Pages, vo.PlannedPage{
			ID:         page.ID,
			Title:      page.Title,
			Breadcrumb: idx.pageMap.Breadcrumb(page.ID, idx.space.Name),
			File:       Filename(page.ID, page.Title),
		})
	}
	return plan, nil
}
