package authoring

import "strings"

// ValidateStory checks the rules that block saving a story: a title,
// at least one page, and text on every page. The first failure wins.
func ValidateStory(d *StoryDraft) error {
	if strings.TrimSpace(d.Title) == "" {
		return validationf("title", 0, "please enter a story title")
	}
	pages := d.Pages.Items()
	if len(pages) == 0 {
		return validationf("pages", 0, "please add at least one page")
	}
	for _, p := range pages {
		if strings.TrimSpace(p.Payload.Text) == "" {
			return validationf("text", p.Position, "page %d has no text content", p.Position)
		}
	}
	return nil
}

// ValidateQuiz checks the rules that block saving a quiz. Every
// question needs text, a type and a correct answer; multiple-choice
// questions need at least two options and the correct answer must be
// one of them.
func ValidateQuiz(d *QuizDraft) error {
	if strings.TrimSpace(d.Title) == "" {
		return validationf("title", 0, "please enter a quiz title")
	}
	questions := d.Questions.Items()
	if len(questions) == 0 {
		return validationf("questions", 0, "please add at least one question")
	}
	for _, it := range questions {
		q := it.Payload
		n := it.Position
		if strings.TrimSpace(q.Text) == "" {
			return validationf("text", n, "question %d has no text", n)
		}
		if q.Type == "" {
			return validationf("type", n, "question %d has no type selected", n)
		}
		if q.CorrectAnswer == "" {
			return validationf("correct_answer", n, "question %d has no correct answer", n)
		}
		if q.Type == MultipleChoice {
			if len(q.Options) < 2 {
				return validationf("options", n, "question %d needs at least 2 options", n)
			}
			if _, ok := q.Options[q.CorrectAnswer]; !ok {
				return validationf("correct_answer", n, "question %d: correct answer %q is not one of the options", n, q.CorrectAnswer)
			}
		}
	}
	return nil
}
