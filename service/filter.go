package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/foomo/confluence-export/errdefs"
)

type FilterKind string

const (
	FilterParent FilterKind = "parent"
	FilterTitle  FilterKind = "title"
)

var filterSyntax = regexp.MustCompile(`^(parent|title):.+$`)

// IgnoreFilter excludes either a page subtree (parent) or single pages by
// title (title).
type IgnoreFilter struct {
	Kind    FilterKind
	PageID  string
	Pattern *regexp2.Regexp
	Raw     string
}

// ValidateFilters rejects filters that are not "parent:ID" or "title:REGEX".
// A title filter with a broken pattern is syntactically valid; it is dropped
// later with a warning.
func ValidateFilters(filters []string) error {
	for _, filter := range filters {
		if !filterSyntax.MatchString(filter) {
			return errdefs.NewInvalidFilter(filter)
		}
	}
	return nil
}

// ParseFilter splits raw at its first colon. ok is false for unknown kinds
// and for input without a colon. A title pattern that does not compile
// returns an error.
func ParseFilter(raw string) (filter IgnoreFilter, ok bool, err error) {
	kind, value, found := strings.Cut(raw, ":")
	if !found || value == "" {
		return IgnoreFilter{}, false, nil
	}
	switch FilterKind(kind) {
	case FilterParent:
		return IgnoreFilter{Kind: FilterParent, PageID: value, Raw: raw}, true, nil
	case FilterTitle:
		pattern, err := regexp2.Compile(value, regexp2.ECMAScript)
		if err != nil {
			return IgnoreFilter{}, false, fmt.Errorf("failed to compile title pattern %q: %w", value, err)
		}
		return IgnoreFilter{Kind: FilterTitle, Pattern: pattern, Raw: raw}, true, nil
	default:
		return IgnoreFilter{}, false, nil
	}
}

// MatchTitle reports whether a title filter's pattern matches title.
func (f IgnoreFilter) MatchTitle(title string) bool {
	if f.Kind != FilterTitle || f.Pattern == nil {
		return false
	}
	matched, err := f.Pattern.MatchString(title)
	return err == nil && matched
}
