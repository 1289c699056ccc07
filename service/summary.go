package service

import (
	"fmt"
	"strings"

	"github.com/foomo/confluence-export/service/vo"
)

// FormatSummary renders an export summary as a Markdown report.
func FormatSummary(summary *vo.ExportSummary) string {
	spaceName := summary.SpaceName
	if spaceName == "" {
		spaceName = "N/A"
	}

	lines := []string{
		fmt.Sprintf("# Confluence Export Summary for Space: %s (%s)", summary.SpaceKey, spaceName),
		"",
		"- **Space Key**: " + summary.SpaceKey,
		"- **Space Name**: " + spaceName,
		fmt.Sprintf("- **Pages Found**: %d", summary.PagesFound),
		fmt.Sprintf("- **Pages Exported**: %d", summary.PagesExported),
		fmt.Sprintf("- **Pages Skipped**: %d", summary.PagesSkipped),
		"- **Output Directory**: " + summary.OutputDir,
		"- **Export Format**: " + summary.Format,
		fmt.Sprintf("- **Total Time**: %.2f seconds", summary.Duration.Seconds()),
		"",
	}

	if len(summary.IgnoredFilters) > 0 {
		lines = append(lines, "## Applied Filters:")
		for _, filter := range summary.IgnoredFilters {
			lines = append(lines, "- `"+filter+"`")
		}
		lines = append(lines, "")
	}

	if len(summary.Errors) > 0 {
		lines = append(lines, "## Errors Encountered:")
		for _, e := range summary.Errors {
			lines = append(lines, "- "+e)
		}
		lines = append(lines, "")
	}

	lines = append(lines, "", "---", "*Export process finished at: "+formatDate(summary.FinishedAt)+"*")
	return strings.Join(lines, "\n")
}
