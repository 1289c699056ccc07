package service

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/foomo/confluence-export/service/vo"
	"github.com/goliatone/go-slug"
	"gopkg.in/yaml.v3"
)

const (
	dateLayout    = "2006-01-02 15:04:05 UTC"
	maxSlugLength = 75
)

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.UTC().Format(dateLayout)
}

// Slug turns a page title into a file name fragment.
func Slug(title string) string {
	normalized, err := slug.Normalize(strings.TrimSpace(title))
	if err != nil || normalized == "" {
		return "untitled"
	}
	if utf8.RuneCountInString(normalized) > maxSlugLength {
		normalized = string([]rune(normalized)[:maxSlugLength])
	}
	if normalized = strings.TrimRight(normalized, "-"); normalized == "" {
		return "untitled"
	}
	return normalized
}

func Filename(pageID, title string) string {
	return pageID + "-" + Slug(title) + ".md"
}

type frontMatter struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title"`
	Space     string   `yaml:"space"`
	Path      string   `yaml:"path"`
	Created   string   `yaml:"created"`
	Updated   string   `yaml:"updated"`
	Version   int      `yaml:"version"`
	Ancestors []string `yaml:"ancestors,omitempty"`
}

type document struct {
	page       *vo.PageDetail
	spaceKey   string
	breadcrumb vo.Breadcrumb
	body       string
}

func (d document) render(withFrontMatter bool) (string, error) {
	var sb strings.Builder
	if withFrontMatter {
		fm := frontMatter{
			ID:      d.page.ID,
			Title:   d.page.Title,
			Space:   d.spaceKey,
			Path:    d.breadcrumb.String(),
			Created: formatDate(d.page.CreatedAt),
			Updated: formatDate(d.page.CurrentVersion().CreatedAt),
			Version: d.page.CurrentVersion().Number,
		}
		for _, ancestor := range d.page.Ancestors {
			fm.Ancestors = append(fm.Ancestors, ancestor.ID)
		}
		out, err := yaml.Marshal(fm)
		if err != nil {
			return "", fmt.Errorf("failed to marshal front matter: %w", err)
		}
		sb.WriteString("---\n")
		sb.Write(out)
		sb.WriteString("---\n")
	}

	sb.WriteString("# " + d.page.Title + "\n\n")
	sb.WriteString("**Path:** " + d.breadcrumb.String() + "\n")
	sb.WriteString("**Created:** " + formatDate(d.page.CreatedAt) + "\n")
	sb.WriteString("**Updated:** " + formatDate(d.page.CurrentVersion().CreatedAt) + "\n")
	sb.WriteString("---\n")
	sb.WriteString(d.body)
	return sb.String(), nil
}
