package application

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeTag trims a tag, collapses inner whitespace and composes it to NFC
// so that "Laboratório" typed with a combining accent equals the precomposed form.
func NormalizeTag(tag string) string {
	composed := norm.NFC.String(tag)
	return strings.Join(strings.Fields(composed), " ")
}

// tagKey is the comparison key of a tag: normalized and case folded.
func tagKey(tag string) string {
	return cases.Fold().String(NormalizeTag(tag))
}

// NormalizeTags normalizes every tag and removes empty entries and
// case-insensitive duplicates, keeping the first spelling and the input order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		normalized := NormalizeTag(tag)
		if normalized == "" {
			continue
		}
		key := tagKey(normalized)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, normalized)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// matchVocabulary maps tags onto the spelling used in vocabulary. Tags with
// no match are returned in unknown.
func matchVocabulary(tags, vocabulary []string) (matched, unknown []string) {
	canonical := make(map[string]string, len(vocabulary))
	for _, entry := range vocabulary {
		canonical[tagKey(entry)] = NormalizeTag(entry)
	}
	for _, tag := range NormalizeTags(tags) {
		if spelling, ok := canonical[tagKey(tag)]; ok {
			matched = append(matched, spelling)
			continue
		}
		unknown = append(unknown, tag)
	}
	return matched, unknown
}
