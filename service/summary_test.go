package service

import (
	"testing"
	"time"

	"github.com/foomo/confluence-export/service/vo"
	"github.com/stretchr/testify/assert"
)

func TestFormatSummary(t *testing.T) {
	out := FormatSummary(&vo.ExportSummary{
		SpaceKey:       "DOCS",
		SpaceName:      "Docs",
		PagesFound:     3,
		PagesExported:  1,
		PagesSkipped:   1,
		OutputDir:      "out",
		Format:         FormatMarkdown,
		IgnoredFilters: []string{"parent:2"},
		Errors:         []string{`Error exporting page 1 - "Root": boom`},
		Duration:       1500 * time.Millisecond,
		FinishedAt:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	})

	assert.Equal(t, "# Confluence Export Summary for Space: DOCS (Docs)\n"+
		"\n"+
		"- **Space Key**: DOCS\n"+
		"- **Space Name**: Docs\n"+
		"- **Pages Found**: 3\n"+
		"- **Pages Exported**: 1\n"+
		"- **Pages Skipped**: 1\n"+
		"- **Output Directory**: out\n"+
		"- **Export Format**: markdown\n"+
		"- **Total Time**: 1.50 seconds\n"+
		"\n"+
		"## Applied Filters:\n"+
		"- `parent:2`\n"+
		"\n"+
		"## Errors Encountered:\n"+
		"- Error exporting page 1 - \"Root\": boom\n"+
		"\n"+
		"\n"+
		"---\n"+
		"*Export process finished at: 2024-01-02 03:04:05 UTC*", out)
}

func TestFormatSummaryWithoutFiltersOrErrors(t *testing.T) {
	out := FormatSummary(&vo.ExportSummary{SpaceKey: "DOCS", Format: FormatMarkdown})
	assert.Contains(t, out, "(N/A)")
	assert.NotContains(t, out, "Applied Filters")
	assert.NotContains(t, out, "Errors Encountered")
}
