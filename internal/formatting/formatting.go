// Package formatting shields layout markup from translation providers. Newlines,
// <br> tags and HTML entities are swapped for sentinel tokens before a text is
// sent out and swapped back once the translation returns.
package formatting

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	newlineSentinel = "___NEWLINE_PLACEHOLDER___"
	breakSentinel   = "___BR_PLACEHOLDER___"
	entityPrefix    = "___ENTITY_"
	entitySuffix    = "___"
)

var (
	breakTagRe = regexp.MustCompile(`(?i)<br\s*/?>`)
	entityRe   = regexp.MustCompile(`&[a-zA-Z0-9#]+;`)

	// Sentinels are inserted with one space of padding on each side. Restore
	// takes that padding back when it is still there.
	newlineRestoreRe = regexp.MustCompile(`[ \t]?` + newlineSentinel + `[ \t]?`)
	breakRestoreRe   = regexp.MustCompile(`[ \t]?` + breakSentinel + `[ \t]?`)
)

// RestoreMap records what Preserve replaced.
type RestoreMap struct {
	Newlines  int
	BreakTags []string
	Entities  []Entity
}

// Entity maps an indexed sentinel back to the entity it stands for.
type Entity struct {
	Sentinel string
	Original string
}

// IsEmpty reports whether nothing was replaced.
func (m RestoreMap) IsEmpty() bool {
	return m.Newlines == 0 && len(m.BreakTags) == 0 && len(m.Entities) == 0
}

// Preserve replaces newlines, <br> variants and HTML entities in text with
// sentinel tokens. Each distinct entity gets its own indexed sentinel, numbered
// in order of first occurrence.
func Preserve(text string) (string, RestoreMap) {
	var m RestoreMap
	if text == "" {
		return text, m
	}

	out := text
	if n := strings.Count(out, "\n"); n > 0 {
		m.Newlines = n
		out = strings.ReplaceAll(out, "\n", " "+newlineSentinel+" ")
	}

	if tags := breakTagRe.FindAllString(out, -1); len(tags) > 0 {
		m.BreakTags = tags
		out = breakTagRe.ReplaceAllLiteralString(out, " "+breakSentinel+" ")
	}

	seen := make(map[string]bool)
	for _, entity := range entityRe.FindAllString(out, -1) {
		if seen[entity] {
			continue
		}
		seen[entity] = true
		m.Entities = append(m.Entities, Entity{
			Sentinel: entityPrefix + strconv.Itoa(len(m.Entities)) + entitySuffix,
			Original: entity,
		})
	}
	for _, e := range m.Entities {
		out = strings.ReplaceAll(out, e.Original, e.Sentinel)
	}

	return out, m
}

// Restore reverses Preserve on a translated text: entities first, then <br>
// tags, then newlines. With an empty map the text is returned unchanged.
func Restore(text string, m RestoreMap) string {
	if text == "" || m.IsEmpty() {
		return text
	}

	out := text
	for _, e := range m.Entities {
		out = strings.ReplaceAll(out, e.Sentinel, e.Original)
	}

	if len(m.BreakTags) > 0 {
		i := 0
		out = breakRestoreRe.ReplaceAllStringFunc(out, func(string) string {
			tag := "<br>"
			if i < len(m.BreakTags) {
				tag = m.BreakTags[i]
			}
			i++
			return tag
		})
	}

	if m.Newlines > 0 {
		out = newlineRestoreRe.ReplaceAllLiteralString(out, "\n")
	}

	return out
}
