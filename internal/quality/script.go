package quality

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// scriptTables maps ISO 15924 script codes to the character ranges counted as
// "target script" characters. Scripts missing here are not checked.
var scriptTables = map[string][]*unicode.RangeTable{
	"Arab": {unicode.Arabic},
	"Cyrl": {unicode.Cyrillic},
	"Grek": {unicode.Greek},
	"Hebr": {unicode.Hebrew},
	"Armn": {unicode.Armenian},
	"Geor": {unicode.Georgian},
	"Deva": {unicode.Devanagari},
	"Beng": {unicode.Bengali},
	"Thai": {unicode.Thai},
	"Ethi": {unicode.Ethiopic},
	"Hans": {unicode.Han},
	"Hant": {unicode.Han},
	"Jpan": {unicode.Han, unicode.Hiragana, unicode.Katakana},
	"Kore": {unicode.Hangul, unicode.Han},
}

// targetScript describes the writing system expected in a translation.
type targetScript struct {
	language string
	tables   []*unicode.RangeTable
}

// scriptFor resolves the expected script of a language code such as "FA" or
// "ru". It reports false for Latin-script languages, unknown codes and scripts
// without a table.
func scriptFor(code string) (targetScript, bool) {
	tag, err := language.Parse(strings.ToLower(strings.TrimSpace(code)))
	if err != nil {
		return targetScript{}, false
	}
	script, conf := tag.Script()
	if conf == language.No {
		return targetScript{}, false
	}
	tables, ok := scriptTables[script.String()]
	if !ok {
		return targetScript{}, false
	}

	name := display.Languages(language.English).Name(tag)
	if name == "" {
		name = strings.ToUpper(code)
	}
	return targetScript{language: name, tables: tables}, true
}

func (s targetScript) count(text string) int {
	n := 0
	for _, r := range text {
		if unicode.In(r, s.tables...) {
			n++
		}
	}
	return n
}

func countASCIILetters(text string) int {
	n := 0
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			n++
		}
	}
	return n
}
