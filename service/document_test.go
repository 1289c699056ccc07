package service

import (
	"strings"
	"testing"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/foomo/confluence-export/service/vo"
	"github.com/goliatone/go-slug"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "N/A", formatDate(time.Time{}))
	berlin := time.FixedZone("CEST", 2*60*60)
	assert.Equal(t, "2024-05-01 10:30:00 UTC", formatDate(time.Date(2024, 5, 1, 12, 30, 0, 0, berlin)))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "getting-started", Slug("Getting Started"))
	assert.Equal(t, "untitled", Slug(""))
	assert.Equal(t, "untitled", Slug("   "))

	long := Slug(strings.Repeat("word ", 40))
	assert.LessOrEqual(t, len([]rune(long)), maxSlugLength)
	assert.False(t, strings.HasSuffix(long, "-"))
	assert.True(t, slug.IsValid(long), long)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "42-getting-started.md", Filename("42", "Getting Started"))
}

func testDetail() *vo.PageDetail {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	updated := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	return &vo.PageDetail{
		PageRecord: vo.PageRecord{
			ID: "3", Title: "Grandchild", ParentID: "2", CreatedAt: created,
			Version: &vo.Version{Number: 7, CreatedAt: updated},
		},
		Ancestors: []vo.Ancestor{{ID: "1"}, {ID: "2"}},
	}
}

func TestDocumentRender(t *testing.T) {
	doc := document{
		page:       testDetail(),
		spaceKey:   "DOCS",
		breadcrumb: NewPageMap(testPages()).Segments("3", "Docs"),
		body:       "Hello",
	}

	out, err := doc.render(false)
	require.NoError(t, err)
	assert.Equal(t, "# Grandchild\n\n"+
		"**Path:** Docs (id:3) > Root (id:1) > Child (id:2) > Grandchild (id:3)\n"+
		"**Created:** 2024-01-02 03:04:05 UTC\n"+
		"**Updated:** 2024-02-03 04:05:06 UTC\n"+
		"---\n"+
		"Hello", out)
}

func TestDocumentRenderMissingDates(t *testing.T) {
	doc := document{
		page:       &vo.PageDetail{PageRecord: vo.PageRecord{ID: "1", Title: "Root"}},
		breadcrumb: NewPageMap(testPages()).Segments("1", "Docs"),
	}
	out, err := doc.render(false)
	require.NoError(t, err)
	assert.Contains(t, out, "**Created:** N/A\n**Updated:** N/A\n---\n")
	assert.True(t, strings.HasSuffix(out, "---\n"))
}

func TestDocumentRenderFrontMatter(t *testing.T) {
	doc := document{
		page:       testDetail(),
		spaceKey:   "DOCS",
		breadcrumb: NewPageMap(testPages()).Segments("3", "Docs"),
		body:       "Hello",
	}
	out, err := doc.render(true)
	require.NoError(t, err)

	var meta frontMatter
	rest, err := frontmatter.Parse(strings.NewReader(out), &meta)
	require.NoError(t, err)

	assert.Equal(t, frontMatter{
		ID:        "3",
		Title:     "Grandchild",
		Space:     "DOCS",
		Path:      "Docs (id:3) > Root (id:1) > Child (id:2) > Grandchild (id:3)",
		Created:   "2024-01-02 03:04:05 UTC",
		Updated:   "2024-02-03 04:05:06 UTC",
		Version:   7,
		Ancestors: []string{"1", "2"},
	}, meta)
	body := strings.TrimLeft(string(rest), "\n")
	assert.True(t, strings.HasPrefix(body, "# Grandchild\n\n"), body)
	assert.True(t, strings.HasSuffix(body, "Hello"))
}
