package vo

import (
	"strings"
	"time"
)

type Markdown string

type Space struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Status      string `json:"status,omitempty"`
	HomepageID  string `json:"homepageId,omitempty"`
	Description any    `json:"description,omitempty"`
}

type Version struct {
	Number    int       `json:"number"`
	Message   string    `json:"message,omitempty"`
	MinorEdit bool      `json:"minorEdit,omitempty"`
	AuthorID  string    `json:"authorId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// PageRecord is the listing-level metadata of one page.
type PageRecord struct {
	ID        string    `json:"id"`
	SpaceID   string    `json:"spaceId"`
	Status    string    `json:"status"`
	Title     string    `json:"title"`
	ParentID  string    `json:"parentId,omitempty"` // empty for top-level pages
	Position  int       `json:"position,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Version   *Version  `json:"version,omitempty"`
}

// CurrentVersion returns the page version, or the zero Version when the
// response carried none.
func (p PageRecord) CurrentVersion() Version {
	if p.Version == nil {
		return Version{}
	}
	return *p.Version
}

type BodyValue struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type Body struct {
	Storage *BodyValue `json:"storage,omitempty"`
	View    *BodyValue `json:"view,omitempty"`
}

type Ancestor struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// PageDetail is a page with its body, fetched once per exported page.
type PageDetail struct {
	PageRecord
	Body      Body       `json:"body"`
	Ancestors []Ancestor `json:"ancestors,omitempty"`
}

// PageRef is the part of a page the hierarchy needs.
type PageRef struct {
	Title    string
	ParentID string
}

type BreadcrumbSegment struct {
	Title string `json:"title"`
	ID    string `json:"id"`
}

func (s BreadcrumbSegment) String() string {
	return s.Title + " (id:" + s.ID + ")"
}

// Breadcrumb runs from the space root down to and including a page.
type Breadcrumb []BreadcrumbSegment

func (b Breadcrumb) String() string {
	parts := make([]string, len(b))
	for i, segment := range b {
		parts[i] = segment.String()
	}
	return strings.Join(parts, " > ")
}

type ProgressKind string

const (
	ProgressExported ProgressKind = "page_exported"
	ProgressSkipped  ProgressKind = "page_skipped"
	ProgressError    ProgressKind = "page_error"
)

type ProgressEvent struct {
	Kind   ProgressKind `json:"kind"`
	PageID string       `json:"pageId"`
	Title  string       `json:"title"`
	File   string       `json:"file,omitempty"`
	Error  string       `json:"error,omitempty"`
}

type ExportSummary struct {
	RunID          string        `json:"runId"`
	SpaceKey       string        `json:"spaceKey"`
	SpaceName      string        `json:"spaceName"`
	PagesFound     int           `json:"pagesFound"`
	PagesExported  int           `json:"pagesExported"`
	PagesSkipped   int           `json:"pagesSkipped"`
	OutputDir      string        `json:"outputDir"`
	Format         string        `json:"format"`
	IgnoredFilters []string      `json:"ignoredFilters,omitempty"`
	Errors         []string      `json:"errors"`
	Duration       time.Duration `json:"duration"`
	FinishedAt     time.Time     `json:"finishedAt"`
}

// PlannedPage is a page that an export would write, without its body.
type PlannedPage struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Breadcrumb string `json:"breadcrumb"`
	File       string `json:"file"`
}

type ExportPlan struct {
	SpaceKey  string        `json:"spaceKey"`
	SpaceName string        `json:"spaceName"`
	Pages     []PlannedPage `json:"pages"`
	Skipped   []string      `json:"skipped"`
}
