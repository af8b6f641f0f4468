package testutil

import (
	"context"
	"testing"

	"telc-go/internal/model"
)

// SampleExam returns a small exam with content in every translatable section.
func SampleExam() *model.Exam {
	return &model.Exam{
		Title: "Modelltest 1",
		LeseverstehenTeil1: model.LeseverstehenTeil1{
			Titles:  []string{"Urlaub am Meer", "Neue Arbeitsplätze"},
			Texts:   []string{"Viele Familien fahren im Sommer an die Ostsee."},
			Answers: []string{"a"},
		},
		LeseverstehenTeil2: model.LeseverstehenTeil2{
			Texts: []string{"Die Stadt baut eine neue Bibliothek."},
			Questions: []model.Question{
				{Question: "Was baut die Stadt?", Options: []string{"Eine Schule", "Eine Bibliothek"}},
			},
			Answers: []string{"b"},
		},
		LeseverstehenTeil3: model.LeseverstehenTeil3{
			Situations: []string{"Sie suchen einen Sprachkurs."},
			Ads:        []string{"Deutschkurse am Abend"},
			Answers:    []string{"a"},
		},
		SprachbausteineTeil1: model.SprachbausteineTeil1{
			Text:    "Liebe Anna,\nvielen Dank für deinen Brief.",
			Options: [][]string{{"für", "von", "mit"}},
			Answers: []string{"a"},
		},
		Hoerverstehen: model.Hoerverstehen{
			Teil1: model.HoerverstehenTeil{
				AudioURL:   "/audio/hv1.mp3",
				Statements: []string{"Der Zug hat Verspätung."},
				Answers:    []string{"+"},
			},
		},
		SchriftlicherAusdruck: model.SchriftlicherAusdruck{
			TaskA: "Schreiben Sie eine Beschwerde.",
		},
	}
}

// ExamCreator is implemented by stores that can persist exams.
type ExamCreator interface {
	CreateExam(ctx context.Context, exam *model.Exam) error
}

// NewTestExam stores SampleExam in db and returns it with its ID set.
func NewTestExam(t *testing.T, db ExamCreator) *model.Exam {
	t.Helper()

	exam := SampleExam()
	if err := db.CreateExam(context.Background(), exam); err != nil {
		t.Fatalf("CreateExam() error = %v", err)
	}
	return exam
}
