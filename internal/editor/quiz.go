package editor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brightleaf/storyline/internal/api"
	"github.com/brightleaf/storyline/internal/authoring"
	"github.com/brightleaf/storyline/internal/autosave"
	"github.com/brightleaf/storyline/internal/notify"
)

// QuizEditor drives one quiz draft, with the same locking discipline
// as StoryEditor.
type QuizEditor struct {
	Runner *autosave.Runner

	mu      sync.Mutex
	draft   *authoring.QuizDraft
	client  *api.Client
	notices notify.Notifier
	confirm ConfirmFunc
}

func NewQuizEditor(client *api.Client, notices notify.Notifier, interval time.Duration, confirm ConfirmFunc) *QuizEditor {
	e := &QuizEditor{
		client:  client,
		notices: notices,
		confirm: confirmOrDefault(confirm),
	}
	e.Runner = autosave.New(e.saveDraft, interval, notices)
	e.draft = authoring.NewQuizDraft(e.Runner.MarkDirty)
	return e
}

// Edit runs fn against the draft under the editor lock.
func (e *QuizEditor) Edit(fn func(*authoring.QuizDraft)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.draft)
}

func (e *QuizEditor) ID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.ID
}

// Dirty reports whether edits are waiting on a save, autosave
// included.
func (e *QuizEditor) Dirty() bool { return e.Runner.Unsaved() }

func (e *QuizEditor) saveDraft(ctx context.Context) error {
	e.mu.Lock()
	doc := e.collectLocked()
	e.mu.Unlock()

	id, err := e.client.SaveQuizDraft(ctx, doc)
	if err != nil {
		return err
	}
	e.mu.Lock()
	if e.draft.ID == "" {
		e.draft.ID = id
	}
	e.mu.Unlock()
	return nil
}

func (e *QuizEditor) LoadDraft(ctx context.Context) (bool, error) {
	doc, err := e.client.LoadQuizDraft(ctx)
	if err != nil {
		return false, err
	}
	if doc == nil {
		return false, nil
	}
	e.apply(*doc)
	return true, nil
}

func (e *QuizEditor) collectLocked() api.QuizDoc {
	doc := api.QuizDoc{
		ID:           e.draft.ID,
		Title:        e.draft.Title,
		Description:  e.draft.Description,
		TimeLimit:    e.draft.TimeLimitSec,
		PassingScore: e.draft.PassingScore,
	}
	for _, it := range e.draft.Questions.Items() {
		q := it.Payload
		doc.Questions = append(doc.Questions, api.QuestionDoc{
			ID:            string(it.ID),
			Number:        it.Position,
			Text:          q.Text,
			Type:          string(q.Type),
			Points:        q.Points,
			Options:       q.Clone().Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		})
	}
	return doc
}

func (e *QuizEditor) apply(doc api.QuizDoc) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := authoring.NewQuizDraft(e.Runner.MarkDirty)
	d.ID = doc.ID
	d.Title = doc.Title
	d.Description = doc.Description
	if doc.TimeLimit > 0 {
		d.TimeLimitSec = doc.TimeLimit
	}
	if doc.PassingScore > 0 {
		d.PassingScore = doc.PassingScore
	}

	first := true
	for _, q := range doc.Questions {
		var id authoring.ItemID
		if first {
			id = d.Questions.Items()[0].ID
			first = false
		} else {
			id = d.Questions.Add("")
		}
		qd := q
		_ = d.Questions.Update(id, func(dst *authoring.Question) {
			dst.Text = qd.Text
			dst.Type = authoring.QuestionType(qd.Type)
			dst.Points = authoring.ClampPoints(qd.Points)
			dst.CorrectAnswer = qd.CorrectAnswer
			dst.Explanation = qd.Explanation
			if len(qd.Options) > 0 {
				dst.Options = make(map[string]string, len(qd.Options))
				for k, v := range qd.Options {
					dst.Options[k] = v
				}
			}
		})
	}
	d.ClearDirty()
	e.Runner.MarkSaved()
	e.draft = d
}

// Save validates and persists the quiz as permanent content.
func (e *QuizEditor) Save(ctx context.Context) error {
	e.mu.Lock()
	if err := authoring.ValidateQuiz(e.draft); err != nil {
		e.mu.Unlock()
		e.notices.Show(err.Error(), notify.KindError)
		return err
	}
	doc := e.collectLocked()
	e.mu.Unlock()

	id, err := e.client.SaveQuiz(ctx, doc)
	if err != nil {
		e.notices.Show("Failed to save quiz", notify.KindError)
		return err
	}

	e.mu.Lock()
	e.draft.ID = id
	e.draft.ClearDirty()
	e.mu.Unlock()
	e.Runner.MarkSaved()
	e.notices.Show("Quiz saved successfully", notify.KindSuccess)
	return nil
}

func (e *QuizEditor) Publish(ctx context.Context) error {
	if err := e.Save(ctx); err != nil {
		return err
	}
	if err := e.client.PublishQuiz(ctx, e.ID()); err != nil {
		e.notices.Show("Failed to publish quiz", notify.KindError)
		return err
	}
	e.notices.Show("Quiz published", notify.KindSuccess)
	return nil
}

// SetPointsAll applies one point value, clamped, to the selected
// questions.
func (e *QuizEditor) SetPointsAll(ids []authoring.ItemID, points int) int {
	points = authoring.ClampPoints(points)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.Questions.BulkApply(ids, func(q *authoring.Question) { q.Points = points })
}

// DeleteQuestions removes the selection after one confirmation.
func (e *QuizEditor) DeleteQuestions(ids []authoring.ItemID) int {
	if len(ids) == 0 {
		return 0
	}
	if !e.confirm(fmt.Sprintf("Delete %d selected question(s)?", len(ids))) {
		return 0
	}
	e.mu.Lock()
	removed, blocked := e.draft.Questions.BulkDelete(ids)
	e.mu.Unlock()
	if blocked > 0 {
		e.notices.Show("A quiz must keep at least one question", notify.KindWarning)
	}
	return removed
}

// RandomizeOrder shuffles question order after confirmation, since it
// discards the hand-arranged sequence.
func (e *QuizEditor) RandomizeOrder() bool {
	if !e.confirm("Randomize question order?") {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.Questions.Shuffle()
}
