// Package grading scores a student's answers against the answer key of an exam.
package grading

import (
	"fmt"

	"telc-go/internal/model"
)

// MaxScore is the number of scored items in a TELC B2 written exam.
const MaxScore = 60

// Section names and the points each section is worth. Hoerverstehen is
// reported as one section across its three parts.
const (
	SectionLeseverstehen1   = "leseverstehen_teil1"
	SectionLeseverstehen2   = "leseverstehen_teil2"
	SectionLeseverstehen3   = "leseverstehen_teil3"
	SectionSprachbausteine1 = "sprachbausteine_teil1"
	SectionSprachbausteine2 = "sprachbausteine_teil2"
	SectionHoerverstehen    = "hoerverstehen"
)

var sectionPoints = map[string]int{
	SectionLeseverstehen1:   5,
	SectionLeseverstehen2:   5,
	SectionLeseverstehen3:   10,
	SectionSprachbausteine1: 10,
	SectionSprachbausteine2: 10,
	SectionHoerverstehen:    20,
}

// Report is the outcome of grading one submission.
type Report struct {
	TotalScore      int
	MaxScore        int
	ScorePercentage float64
	// Correct counts the correct answers per section.
	Correct map[string]int
}

// Detailed renders each section as "correct/points", e.g. "4/5".
func (r Report) Detailed() map[string]string {
	out := make(map[string]string, len(r.Correct))
	for section, n := range r.Correct {
		out[section] = fmt.Sprintf("%d/%d", n, sectionPoints[section])
	}
	return out
}

// Grade compares answers with the exam's answer key position by position.
// Missing answers count as wrong; extra answers are ignored.
func Grade(exam *model.Exam, answers model.ExamAnswers) Report {
	hv := exam.Hoerverstehen
	correct := map[string]int{
		SectionLeseverstehen1:   countCorrect(exam.LeseverstehenTeil1.Answers, answers.LeseverstehenTeil1),
		SectionLeseverstehen2:   countCorrect(exam.LeseverstehenTeil2.Answers, answers.LeseverstehenTeil2),
		SectionLeseverstehen3:   countCorrect(exam.LeseverstehenTeil3.Answers, answers.LeseverstehenTeil3),
		SectionSprachbausteine1: countCorrect(exam.SprachbausteineTeil1.Answers, answers.SprachbausteineTeil1),
		SectionSprachbausteine2: countCorrect(exam.SprachbausteineTeil2.Answers, answers.SprachbausteineTeil2),
		SectionHoerverstehen: countCorrect(hv.Teil1.Answers, answers.Hoerverstehen.Teil1) +
			countCorrect(hv.Teil2.Answers, answers.Hoerverstehen.Teil2) +
			countCorrect(hv.Teil3.Answers, answers.Hoerverstehen.Teil3),
	}

	total := 0
	for _, n := range correct {
		total += n
	}
	return Report{
		TotalScore:      total,
		MaxScore:        MaxScore,
		ScorePercentage: float64(total) / MaxScore * 100,
		Correct:         correct,
	}
}

func countCorrect(key, given []string) int {
	n := 0
	for i, want := range key {
		if i < len(given) && given[i] == want {
			n++
		}
	}
	return n
}
