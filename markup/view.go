package markup

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/microcosm-cc/bluemonday"
)

var viewPolicy = bluemonday.UGCPolicy()

// ConvertView converts a page's rendered view HTML to Markdown. It is used
// for pages that come without a storage body.
func ConvertView(viewHTML string) (string, error) {
	if strings.TrimSpace(viewHTML) == "" {
		return "", nil
	}
	markdown, err := htmltomarkdown.ConvertString(viewPolicy.Sanitize(viewHTML))
	if err != nil {
		return "", fmt.Errorf("failed to convert view HTML to markdown: %w", err)
	}
	return markdown, nil
}
