package authoring

import (
	"errors"
	"testing"
)

func TestValidateStory(t *testing.T) {
	d := NewStoryDraft(nil)

	err := ValidateStory(d)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "title" {
		t.Fatalf("expected title validation error, got %v", err)
	}

	d.SetTitle("The Lost Kite")
	err = ValidateStory(d)
	if !errors.As(err, &ve) || ve.Field != "text" || ve.Number != 1 {
		t.Fatalf("expected page 1 text error, got %v", err)
	}

	first := d.Pages.Items()[0].ID
	_ = d.Pages.Update(first, func(p *Page) { p.Text = "A kite flew away." })
	if err := ValidateStory(d); err != nil {
		t.Fatalf("expected valid story, got %v", err)
	}
}

func TestValidateQuiz(t *testing.T) {
	d := NewQuizDraft(nil)
	d.SetTitle("Kite Quiz")
	qid := d.Questions.Items()[0].ID

	err := ValidateQuiz(d)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "text" {
		t.Fatalf("expected text error, got %v", err)
	}

	_ = d.Questions.Update(qid, func(q *Question) { q.Text = "What color was the kite?" })
	if err := ValidateQuiz(d); !errors.As(err, &ve) || ve.Field != "type" {
		t.Fatalf("expected type error, got %v", err)
	}

	_ = d.Questions.Update(qid, func(q *Question) {
		q.Type = MultipleChoice
		q.CorrectAnswer = "A"
	})
	if err := ValidateQuiz(d); !errors.As(err, &ve) || ve.Field != "options" {
		t.Fatalf("expected options error, got %v", err)
	}

	_ = d.Questions.Update(qid, func(q *Question) {
		q.Options = map[string]string{"A": "Red", "B": "Blue"}
	})
	if err := ValidateQuiz(d); err != nil {
		t.Fatalf("expected valid quiz, got %v", err)
	}

	// Correct answer outside the options set is rejected.
	_ = d.Questions.Update(qid, func(q *Question) { q.CorrectAnswer = "D" })
	if err := ValidateQuiz(d); !errors.As(err, &ve) || ve.Field != "correct_answer" {
		t.Fatalf("expected correct_answer error, got %v", err)
	}
}

func TestDraftDirtyTracking(t *testing.T) {
	marks := 0
	d := NewStoryDraft(func() { marks++ })
	if d.Dirty() {
		t.Fatalf("fresh draft should start clean")
	}
	d.SetTitle("x")
	if !d.Dirty() || marks != 1 {
		t.Fatalf("field edit should mark dirty (dirty=%v marks=%d)", d.Dirty(), marks)
	}
	d.ClearDirty()
	d.Pages.Add("")
	if !d.Dirty() {
		t.Fatalf("structural edit should mark dirty")
	}
}
