package student

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/brightleaf/storyline/internal/api"
	"github.com/brightleaf/storyline/internal/autosave"
	"github.com/brightleaf/storyline/internal/localstore"
	"github.com/brightleaf/storyline/internal/notify"
	"github.com/brightleaf/storyline/internal/session"
	"github.com/brightleaf/storyline/internal/viewer"
)

// ErrSubmitCancelled means the student declined the unanswered-question
// prompt; the attempt stays open.
var ErrSubmitCancelled = errors.New("submission cancelled")

func answersKey(quizID string) string { return "quiz_answers_" + quizID }

// savedAttempt is the cached in-flight attempt state.
type savedAttempt struct {
	Answers  map[string]string `json:"answers"`
	TimeLeft int               `json:"time_left"`
	SavedAt  int64             `json:"saved_at"`
}

// ConfirmFunc asks the student to confirm; nil confirms everything.
type ConfirmFunc func(prompt string) bool

// Attempt is one student pass through a quiz: a question viewer, an
// answer sheet, the countdown, and periodic local snapshots so a
// reload does not lose work. Submission is idempotent; expiry forces
// one.
type Attempt struct {
	Quiz    api.QuizDoc
	Viewer  *viewer.Viewer
	Session *session.Session
	Runner  *autosave.Runner

	client  *api.Client
	cache   localstore.Store
	notices notify.Notifier
	confirm ConfirmFunc

	onQuestion func(api.QuestionDoc)

	// submitMu serializes Submit end to end, so an expiry-forced
	// submission racing a manual one yields exactly one request.
	submitMu sync.Mutex

	mu        sync.Mutex
	answers   map[string]string
	submitted bool
	result    api.QuizResult
}

type AttemptOption func(*Attempt)

// OnQuestion is invoked with the question content at every arrival, so
// the host can render one question at a time.
func OnQuestion(fn func(api.QuestionDoc)) AttemptOption {
	return func(a *Attempt) { a.onQuestion = fn }
}

func NewAttempt(quiz api.QuizDoc, client *api.Client, cache localstore.Store, notices notify.Notifier, confirm ConfirmFunc, opts ...AttemptOption) *Attempt {
	if confirm == nil {
		confirm = func(string) bool { return true }
	}
	a := &Attempt{
		Quiz:    quiz,
		client:  client,
		cache:   cache,
		notices: notices,
		confirm: confirm,
		answers: map[string]string{},
	}
	limit := quiz.TimeLimit
	if limit <= 0 {
		limit = 600
	}
	a.Session = session.New(limit,
		session.OnWarning(a.warn),
		session.OnExpire(a.expire),
	)
	a.Runner = autosave.New(a.snapshot, 30*time.Second, nil)
	for _, o := range opts {
		o(a)
	}
	if n := len(quiz.Questions); n > 0 {
		a.Viewer, _ = viewer.New(quiz.ID, n, 1, viewer.WithLoad(a.loadQuestion))
	}
	return a
}

func (a *Attempt) loadQuestion(index int) {
	if a.onQuestion != nil {
		a.onQuestion(a.Quiz.Questions[index-1])
	}
}

// Restore loads a cached attempt: answers and the remaining clock.
// Reports whether anything was restored.
func (a *Attempt) Restore(ctx context.Context) (bool, error) {
	var saved savedAttempt
	ok, err := localstore.GetJSON(ctx, a.cache, answersKey(a.Quiz.ID), &saved)
	if err != nil || !ok {
		return false, err
	}
	a.mu.Lock()
	for k, v := range saved.Answers {
		a.answers[k] = v
	}
	a.mu.Unlock()
	a.Session.Resume(saved.TimeLeft)
	return true, nil
}

// Begin starts the countdown and the snapshot loop.
func (a *Attempt) Begin(ctx context.Context) {
	a.Session.Start()
	a.Runner.Start(ctx)
}

// Answer records the student's answer to one question.
func (a *Attempt) Answer(questionID, value string) {
	a.mu.Lock()
	a.answers[questionID] = value
	a.mu.Unlock()
	a.Runner.MarkDirty()
}

func (a *Attempt) Answers() map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]string, len(a.answers))
	for k, v := range a.answers {
		out[k] = v
	}
	return out
}

// Unanswered lists the numbers of questions with no recorded answer,
// in question order.
func (a *Attempt) Unanswered() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	var nums []int
	for _, q := range a.Quiz.Questions {
		if a.answers[q.ID] == "" {
			nums = append(nums, q.Number)
		}
	}
	return nums
}

// snapshot writes the current answers and clock to the local cache.
func (a *Attempt) snapshot(ctx context.Context) error {
	return localstore.PutJSON(ctx, a.cache, answersKey(a.Quiz.ID), savedAttempt{
		Answers:  a.Answers(),
		TimeLeft: a.Session.Remaining(),
		SavedAt:  time.Now().Unix(),
	})
}

func (a *Attempt) warn(secondsLeft int) {
	var msg string
	switch {
	case secondsLeft >= 60:
		msg = fmt.Sprintf("%d minute(s) remaining", secondsLeft/60)
	default:
		msg = fmt.Sprintf("%d seconds remaining", secondsLeft)
	}
	a.notices.Show(msg, notify.KindWarning)
}

// expire is the countdown's terminal action: stop snapshotting and
// submit whatever is on the sheet.
func (a *Attempt) expire() {
	a.notices.Show("Time is up, submitting your answers", notify.KindWarning)
	if _, err := a.Submit(context.Background(), true); err != nil {
		log.Printf("forced submit for %s: %v", a.Quiz.ID, err)
	}
}

// Submit grades the attempt. Without force, unanswered questions
// prompt for confirmation first. A second call, concurrent or later,
// returns the stored result without another request.
func (a *Attempt) Submit(ctx context.Context, force bool) (api.QuizResult, error) {
	a.submitMu.Lock()
	defer a.submitMu.Unlock()

	a.mu.Lock()
	if a.submitted {
		res := a.result
		a.mu.Unlock()
		return res, nil
	}
	a.mu.Unlock()

	if !force {
		if missing := a.Unanswered(); len(missing) > 0 {
			if !a.confirm(fmt.Sprintf("%d question(s) unanswered. Submit anyway?", len(missing))) {
				return api.QuizResult{}, ErrSubmitCancelled
			}
		}
	}

	a.Session.Stop()
	a.Runner.Stop()

	res, err := a.client.SubmitQuiz(ctx, api.QuizSubmission{
		QuizID:    a.Quiz.ID,
		Answers:   a.Answers(),
		TimeTaken: a.Session.Elapsed(),
	})
	if err != nil {
		a.notices.Show("Failed to submit quiz", notify.KindError)
		return api.QuizResult{}, err
	}

	a.mu.Lock()
	a.submitted = true
	a.result = res
	a.mu.Unlock()

	if err := a.cache.Delete(ctx, answersKey(a.Quiz.ID)); err != nil {
		log.Printf("clear cached attempt for %s: %v", a.Quiz.ID, err)
	}

	if res.Passed {
		a.notices.Show(fmt.Sprintf("You passed! Score: %.0f/%.0f", res.Score, res.MaxScore), notify.KindSuccess)
	} else {
		a.notices.Show(fmt.Sprintf("Score: %.0f/%.0f", res.Score, res.MaxScore), notify.KindInfo)
	}
	return res, nil
}
