package vo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreadcrumbString(t *testing.T) {
	b := Breadcrumb{
		{Title: "Engineering", ID: "1"},
		{Title: "Runbooks", ID: "2"},
		{Title: "Deploy", ID: "3"},
	}
	assert.Equal(t, "Engineering (id:1) > Runbooks (id:2) > Deploy (id:3)", b.String())
	assert.Equal(t, "", Breadcrumb{}.String())
}

func TestPageDetailDecode(t *testing.T) {
	raw := `{
		"id": "42",
		"spaceId": "7",
		"status": "current",
		"title": "Deploy",
		"parentId": "2",
		"createdAt": "2024-03-01T10:00:00.000Z",
		"version": {"number": 3, "createdAt": "2024-04-02T08:30:00.000Z"},
		"body": {"storage": {"value": "<p>hi</p>", "representation": "storage"}},
		"ancestors": [{"id": "1"}, {"id": "2"}]
	}`

	var page PageDetail
	require.NoError(t, json.Unmarshal([]byte(raw), &page))
	assert.Equal(t, "42", page.ID)
	assert.Equal(t, "2", page.ParentID)
	require.NotNil(t, page.PageRecord.Version)
	assert.Equal(t, 3, page.PageRecord.Version.Number)
	assert.Equal(t, 2024, page.CurrentVersion().CreatedAt.Year())
	require.NotNil(t, page.Body.Storage)
	assert.Equal(t, "<p>hi</p>", page.Body.Storage.Value)
	assert.Len(t, page.Ancestors, 2)
}

func TestPageRecordCurrentVersion(t *testing.T) {
	assert.Equal(t, Version{}, PageRecord{}.CurrentVersion())
	assert.Equal(t, 4, PageRecord{Version: &Version{Number: 4}}.CurrentVersion().Number)
}
