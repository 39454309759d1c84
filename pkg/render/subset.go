package render

import (
	"strings"

	"github.com/goliatone/go-packgen/pkg/packschema"
	"github.com/goliatone/go-packgen/pkg/typegen"
)

// SectionSubset narrows rendering to sections whose key or category is
// listed. An empty subset keeps every section.
type SectionSubset struct {
	Keys       []string
	Categories []string
}

// Empty reports whether the subset applies no filtering.
func (s SectionSubset) Empty() bool {
	return newSubsetMatcher(s).empty()
}

// ParseSubset splits comma separated key and category lists, the form used by
// CLI flags and config files.
func ParseSubset(keys, categories string) SectionSubset {
	return SectionSubset{
		Keys:       parseTokenList(keys),
		Categories: parseTokenList(categories),
	}
}

// ApplySubset returns a copy of input with sections outside the subset removed
// from both the schema and the declaration units. Settings are kept.
func ApplySubset(input Input, subset SectionSubset) Input {
	matcher := newSubsetMatcher(subset)
	if matcher.empty() {
		return input
	}

	kept := make(map[string]struct{}, len(input.Schema.Sections))
	sections := make([]packschema.SectionSchema, 0, len(input.Schema.Sections))
	for _, section := range input.Schema.Sections {
		if matcher.matches(section) {
			sections = append(sections, section)
			kept[section.Key] = struct{}{}
		}
	}
	units := make([]typegen.Unit, 0, len(kept))
	for _, unit := range input.Types.Sections {
		if _, ok := kept[unit.Key]; ok {
			units = append(units, unit)
		}
	}

	out := input
	out.Schema.Sections = sections
	out.Types.Sections = units
	return out
}

type subsetMatcher struct {
	keys       map[string]struct{}
	categories map[string]struct{}
}

func newSubsetMatcher(subset SectionSubset) subsetMatcher {
	return subsetMatcher{
		keys:       normaliseTokens(subset.Keys),
		categories: normaliseTokens(subset.Categories),
	}
}

func (m subsetMatcher) empty() bool {
	return len(m.keys) == 0 && len(m.categories) == 0
}

func (m subsetMatcher) matches(section packschema.SectionSchema) bool {
	if len(m.keys) > 0 {
		if _, ok := m.keys[normaliseToken(section.Key)]; ok {
			return true
		}
	}
	if len(m.categories) > 0 {
		if category := normaliseToken(section.Category); category != "" {
			if _, ok := m.categories[category]; ok {
				return true
			}
		}
	}
	return false
}

func normaliseTokens(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	result := make(map[string]struct{}, len(values))
	for _, value := range values {
		token := normaliseToken(value)
		if token == "" {
			continue
		}
		result[token] = struct{}{}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func normaliseToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func parseTokenList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if token := strings.TrimSpace(part); token != "" {
			out = append(out, token)
		}
	}
	return out
}
