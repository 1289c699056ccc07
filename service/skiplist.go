package service

import (
	"sort"
	"strings"

	"github.com/foomo/confluence-export/service/vo"
	"go.uber.org/zap"
)

// SkipSet holds the ids of pages excluded from an export. It only grows.
type SkipSet map[string]struct{}

func (s SkipSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s SkipSet) Add(id string) {
	s[id] = struct{}{}
}

func (s SkipSet) Len() int {
	return len(s)
}

// IDs returns the members in sorted order.
func (s SkipSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ComputeSkipSet applies filters in order and returns every page id they
// exclude. Filters that cannot be used are skipped silently.
func ComputeSkipSet(pages []vo.PageRecord, filters []string, pageMap PageMap, spaceName string) SkipSet {
	return computeSkipSet(zap.NewNop(), pages, filters, pageMap, spaceName)
}

func computeSkipSet(l *zap.Logger, pages []vo.PageRecord, filters []string, pageMap PageMap, spaceName string) SkipSet {
	skip := SkipSet{}
	for _, raw := range filters {
		filter, ok, err := ParseFilter(raw)
		if err != nil {
			l.Warn("invalid title pattern, skipping filter", zap.String("filter", raw), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}

		switch filter.Kind {
		case FilterParent:
			skip.Add(filter.PageID)
			marker := "(id:" + filter.PageID + ")"
			for _, page := range pages {
				if skip.Has(page.ID) {
					continue
				}
				if strings.Contains(pageMap.Breadcrumb(page.ID, spaceName), marker) {
					skip.Add(page.ID)
					l.Debug("skipping page below ignored parent",
						zap.String("pageID", page.ID),
						zap.String("title", page.Title),
						zap.String("parentID", filter.PageID),
					)
				}
			}
		case FilterTitle:
			for _, page := range pages {
				if filter.MatchTitle(page.Title) {
					skip.Add(page.ID)
					l.Debug("skipping page with matching title",
						zap.String("pageID", page.ID),
						zap.String("title", page.Title),
						zap.String("filter", raw),
					)
				}
			}
		}
	}
	l.Info("built skip list", zap.Int("skipped", skip.Len()))
	return skip
}
