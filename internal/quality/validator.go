// Package quality gates machine translations with a cheap heuristic score. It
// catches obviously broken output (empty, untranslated, wrong script, leaked
// markup); it does not judge fluency.
package quality

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Issue messages reported by Validate.
const (
	IssueEmpty       = "Empty translation"
	IssueIdentical   = "Translation identical to original"
	IssueTooShort    = "Translation too short"
	IssueTooLong     = "Translation too long"
	IssueNumbers     = "Number count mismatch"
	IssueHTMLEntity  = "HTML entities detected"
	IssueEncoding    = "Encoding error detected"
	IssueArtifact    = "Translation service artifact detected"
	issuePunctuation = "Punctuation mismatch: "
)

// rulesVersion is part of the fingerprint. Bump it when a rule changes.
const rulesVersion = 1

var (
	numberRe     = regexp.MustCompile(`\p{Nd}+`)
	htmlEntityRe = regexp.MustCompile(`&[a-zA-Z]+;`)

	punctuation = []string{"(", ")", "[", "]", "–", "-", ":", ";", "!", "?"}
	mojibake    = []string{"Ã¼", "Ã¤", "Ã¶", "ÃŸ", "â€™", "â€œ", "â€"}
	artifacts   = []string{"[translation]", "[/translation]", "**", "###", "Translation:", "Übersetzung:"}
)

// Weights are the score penalties of the individual rules.
type Weights struct {
	TooShort       int
	TooLong        int
	MissingScript  int
	LatinHeavy     int
	NumberMismatch int
	Punctuation    int
	HTMLEntity     int
	Encoding       int
	Artifact       int
}

// Config tunes a Validator.
type Config struct {
	Threshold      int
	MinLengthRatio float64
	MaxLengthRatio float64
	Weights        Weights
}

// DefaultConfig returns the stock thresholds and penalties.
func DefaultConfig() Config {
	return Config{
		Threshold:      70,
		MinLengthRatio: 0.3,
		MaxLengthRatio: 3.0,
		Weights: Weights{
			TooShort:       30,
			TooLong:        20,
			MissingScript:  30,
			LatinHeavy:     10,
			NumberMismatch: 10,
			Punctuation:    5,
			HTMLEntity:     10,
			Encoding:       20,
			Artifact:       15,
		},
	}
}

// Result is the outcome of validating one translation.
type Result struct {
	Valid  bool     `json:"valid"`
	Score  int      `json:"score"`
	Issues []string `json:"issues"`
}

// Validator scores translations. It is stateless and safe for concurrent use.
type Validator struct {
	cfg         Config
	fingerprint string
}

// New returns a Validator for cfg.
func New(cfg Config) *Validator {
	sum := sha256.Sum256([]byte(fmt.Sprintf("rules=%d %+v", rulesVersion, cfg)))
	return &Validator{cfg: cfg, fingerprint: hex.EncodeToString(sum[:16])}
}

// Fingerprint identifies the rule set and configuration. Results computed under
// a different fingerprint may no longer hold.
func (v *Validator) Fingerprint() string { return v.fingerprint }

// Validate scores translated against original. The score starts at 100, loses
// the configured weight for every rule that fires and never drops below 0. A
// translation is valid when the score reaches the threshold and no critical
// issue (empty, identical, missing target script) was found.
func (v *Validator) Validate(original, translated, sourceLang, targetLang string) Result {
	if strings.TrimSpace(translated) == "" {
		return Result{Issues: []string{IssueEmpty}}
	}
	if translated == original {
		return Result{Issues: []string{IssueIdentical}}
	}

	w := v.cfg.Weights
	issues := []string{}
	score := 100
	critical := false
	penalize := func(issue string, weight int) {
		issues = append(issues, issue)
		score -= weight
	}

	translatedLen := utf8.RuneCountInString(translated)
	ratio := float64(translatedLen) / float64(max(utf8.RuneCountInString(original), 1))
	switch {
	case ratio < v.cfg.MinLengthRatio:
		penalize(IssueTooShort, w.TooShort)
	case ratio > v.cfg.MaxLengthRatio:
		penalize(IssueTooLong, w.TooLong)
	}

	if script, ok := scriptFor(targetLang); ok {
		native := script.count(translated)
		latin := countASCIILetters(translated)
		if native == 0 {
			penalize(fmt.Sprintf("No %s characters found", script.language), w.MissingScript)
			critical = true
		}
		maxLatin := 0.3
		if translatedLen < 20 {
			maxLatin = 0.5
		}
		if float64(latin) > float64(native)*maxLatin {
			penalize(fmt.Sprintf("Too many Latin characters in %s translation", script.language), w.LatinHeavy)
		}
	}

	if len(numberRe.FindAllString(original, -1)) != len(numberRe.FindAllString(translated, -1)) {
		penalize(IssueNumbers, w.NumberMismatch)
	}

	for _, p := range punctuation {
		if strings.Count(original, p) != strings.Count(translated, p) {
			penalize(issuePunctuation+p, w.Punctuation)
		}
	}

	if htmlEntityRe.MatchString(translated) {
		penalize(IssueHTMLEntity, w.HTMLEntity)
	}

	for _, m := range mojibake {
		if strings.Contains(translated, m) {
			penalize(IssueEncoding, w.Encoding)
			break
		}
	}

	lower := strings.ToLower(translated)
	for _, a := range artifacts {
		if strings.Contains(lower, strings.ToLower(a)) {
			penalize(IssueArtifact, w.Artifact)
		}
	}

	score = max(score, 0)
	return Result{
		Valid:  score >= v.cfg.Threshold && !critical,
		Score:  score,
		Issues: issues,
	}
}

// IsCritical reports whether issue alone makes a translation invalid.
func IsCritical(issue string) bool {
	return issue == IssueEmpty || issue == IssueIdentical ||
		(strings.HasPrefix(issue, "No ") && strings.HasSuffix(issue, " characters found"))
}
