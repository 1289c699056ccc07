package service

import (
	"strings"

	"github.com/foomo/confluence-export/service/vo"
)

// MaxBreadcrumbDepth bounds the ancestor walk so a cyclic parent chain
// terminates.
const MaxBreadcrumbDepth = 20

// PageMap indexes a space's pages by id for hierarchy lookups.
type PageMap map[string]vo.PageRef

func NewPageMap(pages []vo.PageRecord) PageMap {
	m := make(PageMap, len(pages))
	for _, page := range pages {
		m[page.ID] = vo.PageRef{Title: page.Title, ParentID: page.ParentID}
	}
	return m
}

// Segments returns the breadcrumb of pageID from the space root down to the
// page itself. Parents missing from the map end the walk.
//
// When the walk yields nothing or its first segment does not mention the
// space, a segment named after the space is put in front. It carries the id
// of pageID, not of the space.
func (m PageMap) Segments(pageID, spaceName string) vo.Breadcrumb {
	var reversed vo.Breadcrumb
	currentID := pageID

	if ref, ok := m[currentID]; ok {
		reversed = append(reversed, vo.BreadcrumbSegment{Title: ref.Title, ID: currentID})
		currentID = ref.ParentID
	}

	for depth := 0; depth < MaxBreadcrumbDepth && currentID != ""; depth++ {
		ref, ok := m[currentID]
		if !ok {
			break
		}
		reversed = append(reversed, vo.BreadcrumbSegment{Title: ref.Title, ID: currentID})
		currentID = ref.ParentID
	}

	breadcrumb := make(vo.Breadcrumb, 0, len(reversed)+1)
	for i := len(reversed) - 1; i >= 0; i-- {
		breadcrumb = append(breadcrumb, reversed[i])
	}

	if len(breadcrumb) == 0 || !strings.Contains(breadcrumb[0].String(), spaceName) {
		breadcrumb = append(vo.Breadcrumb{{Title: spaceName, ID: pageID}}, breadcrumb...)
	}
	return breadcrumb
}

// Breadcrumb renders Segments as "Title (id:ID) > Title (id:ID)".
func (m PageMap) Breadcrumb(pageID, spaceName string) string {
	return m.Segments(pageID, spaceName).String()
}
