package model

import "time"

// Exam is a TELC B2 exam. The JSON encoding of an Exam is the document the
// translation layer addresses with field paths, so the json tags and the field
// order here are part of the cache key format.
type Exam struct {
	ID        int64     `json:"id" yaml:"-"`
	Title     string    `json:"title" yaml:"title"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`

	LeseverstehenTeil1    LeseverstehenTeil1    `json:"leseverstehen_teil1" yaml:"leseverstehen_teil1"`
	LeseverstehenTeil2    LeseverstehenTeil2    `json:"leseverstehen_teil2" yaml:"leseverstehen_teil2"`
	LeseverstehenTeil3    LeseverstehenTeil3    `json:"leseverstehen_teil3" yaml:"leseverstehen_teil3"`
	SprachbausteineTeil1  SprachbausteineTeil1  `json:"sprachbausteine_teil1" yaml:"sprachbausteine_teil1"`
	SprachbausteineTeil2  SprachbausteineTeil2  `json:"sprachbausteine_teil2" yaml:"sprachbausteine_teil2"`
	Hoerverstehen         Hoerverstehen         `json:"hoerverstehen" yaml:"hoerverstehen"`
	SchriftlicherAusdruck SchriftlicherAusdruck `json:"schriftlicher_ausdruck" yaml:"schriftlicher_ausdruck"`
}

// LeseverstehenTeil1 matches headlines (titles a-j) to texts 1-5.
type LeseverstehenTeil1 struct {
	Titles  []string `json:"titles" yaml:"titles"`
	Texts   []string `json:"texts" yaml:"texts"`
	Answers []string `json:"answers" yaml:"answers"`
}

// LeseverstehenTeil2 is detailed comprehension, questions 6-10.
type LeseverstehenTeil2 struct {
	Texts     []string   `json:"texts" yaml:"texts"`
	Questions []Question `json:"questions" yaml:"questions"`
	Answers   []string   `json:"answers" yaml:"answers"`
}

// Question is a multiple choice question.
type Question struct {
	Question string   `json:"question" yaml:"question"`
	Options  []string `json:"options" yaml:"options"`
}

// LeseverstehenTeil3 matches situations 11-20 to ads a-l.
type LeseverstehenTeil3 struct {
	Situations []string `json:"situations" yaml:"situations"`
	Ads        []string `json:"ads" yaml:"ads"`
	Answers    []string `json:"answers" yaml:"answers"`
}

// SprachbausteineTeil1 is the grammar gap text.
type SprachbausteineTeil1 struct {
	Text    string     `json:"text" yaml:"text"`
	Options [][]string `json:"options" yaml:"options"`
	Answers []string   `json:"answers" yaml:"answers"`
}

// SprachbausteineTeil2 is the vocabulary gap text with a word list a-o.
type SprachbausteineTeil2 struct {
	Text    string   `json:"text" yaml:"text"`
	Words   []string `json:"words" yaml:"words"`
	Answers []string `json:"answers" yaml:"answers"`
}

// Hoerverstehen holds the three listening parts.
type Hoerverstehen struct {
	Teil1 HoerverstehenTeil `json:"teil1" yaml:"teil1"`
	Teil2 HoerverstehenTeil `json:"teil2" yaml:"teil2"`
	Teil3 HoerverstehenTeil `json:"teil3" yaml:"teil3"`
}

// HoerverstehenTeil is one listening part: an audio file and true/false statements.
type HoerverstehenTeil struct {
	AudioURL   string   `json:"audio_url" yaml:"audio_url"`
	Statements []string `json:"statements" yaml:"statements"`
	Answers    []string `json:"answers" yaml:"answers"`
}

// SchriftlicherAusdruck holds the two writing tasks.
type SchriftlicherAusdruck struct {
	TaskA string `json:"task_a" yaml:"task_a"`
	TaskB string `json:"task_b" yaml:"task_b"`
}

// ExamSummary is the list view of an exam.
type ExamSummary struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}
