package model

import "time"

// ExamAnswers are a student's answers, shaped like the answers of an Exam.
type ExamAnswers struct {
	LeseverstehenTeil1   []string             `json:"leseverstehen_teil1,omitempty"`
	LeseverstehenTeil2   []string             `json:"leseverstehen_teil2,omitempty"`
	LeseverstehenTeil3   []string             `json:"leseverstehen_teil3,omitempty"`
	SprachbausteineTeil1 []string             `json:"sprachbausteine_teil1,omitempty"`
	SprachbausteineTeil2 []string             `json:"sprachbausteine_teil2,omitempty"`
	Hoerverstehen        HoerverstehenAnswers `json:"hoerverstehen"`
}

// HoerverstehenAnswers are the answers to the three listening parts.
type HoerverstehenAnswers struct {
	Teil1 []string `json:"teil1,omitempty"`
	Teil2 []string `json:"teil2,omitempty"`
	Teil3 []string `json:"teil3,omitempty"`
}

// ExamResult is a graded submission. Score is the percentage of points reached.
type ExamResult struct {
	ID          int64       `json:"id"`
	ExamID      int64       `json:"exam_id"`
	StudentName string      `json:"student_name"`
	Answers     ExamAnswers `json:"answers"`
	Score       float64     `json:"score"`
	CompletedAt time.Time   `json:"completed_at"`
}
