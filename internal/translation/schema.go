package translation

import "telc-go/internal/fieldpath"

// ExamSchema lists the translatable fields of an exam in traversal order.
// Answers, audio URLs and the gap options of Sprachbausteine are not translated.
var ExamSchema = fieldpath.Schema{
	{Name: "leseverstehen_teil1", Fields: []fieldpath.Field{
		{Key: "titles"},
		{Key: "texts"},
	}},
	{Name: "leseverstehen_teil2", Fields: []fieldpath.Field{
		{Key: "texts"},
		{Key: "questions", Fields: []fieldpath.Field{
			{Key: "question"},
			{Key: "options"},
		}},
	}},
	{Name: "leseverstehen_teil3", Fields: []fieldpath.Field{
		{Key: "situations"},
		{Key: "ads"},
	}},
	{Name: "sprachbausteine_teil1", Fields: []fieldpath.Field{{Key: "text"}}},
	{Name: "sprachbausteine_teil2", Fields: []fieldpath.Field{{Key: "text"}}},
	{Name: "hoerverstehen.teil1", Fields: []fieldpath.Field{{Key: "statements"}}},
	{Name: "hoerverstehen.teil2", Fields: []fieldpath.Field{{Key: "statements"}}},
	{Name: "hoerverstehen.teil3", Fields: []fieldpath.Field{{Key: "statements"}}},
	{Name: "schriftlicher_ausdruck", Fields: []fieldpath.Field{
		{Key: "task_a"},
		{Key: "task_b"},
	}},
}
