package translation

import (
	"regexp"
	"strings"
)

// mojibakeFixes repairs UTF-8 text that was decoded as Latin-1 somewhere upstream.
var mojibakeFixes = strings.NewReplacer(
	"Ã¼", "ü",
	"Ã¤", "ä",
	"Ã¶", "ö",
	"ÃŸ", "ß",
	"â€™", "'",
	"â€œ", `"`,
	"â€“", "–",
	"â€”", "—",
	"â€", `"`,
)

var artifactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\[/?translation\]`),
	regexp.MustCompile(`\*\*`),
	regexp.MustCompile(`###`),
	regexp.MustCompile(`(?i)^Translation:\s*`),
	regexp.MustCompile(`(?i)^Übersetzung:\s*`),
	regexp.MustCompile(`(?i)^Translated:\s*`),
	regexp.MustCompile(`(?i)^Result:\s*`),
}

var (
	blankRun      = regexp.MustCompile(`[ \t]+`)
	blankAroundNL = regexp.MustCompile(`[ \t]*\n[ \t]*`)
)

// Cleanup normalises provider output before it is validated and cached.
// HTML entities are left alone; the formatting preserver owns them.
func Cleanup(text string) string {
	if text == "" {
		return text
	}
	text = strings.TrimSpace(text)
	text = mojibakeFixes.Replace(text)
	for _, re := range artifactPatterns {
		text = re.ReplaceAllString(text, "")
	}
	text = blankRun.ReplaceAllString(text, " ")
	text = blankAroundNL.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}
