package editor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brightleaf/storyline/internal/api"
	"github.com/brightleaf/storyline/internal/apitest"
	"github.com/brightleaf/storyline/internal/authoring"
	"github.com/brightleaf/storyline/internal/notify"
)

type staticToken string

func (s staticToken) Token() (string, bool) { return string(s), true }

type noticeLog struct {
	mu       sync.Mutex
	messages []string
	kinds    []notify.Kind
}

func (n *noticeLog) Show(message string, kind notify.Kind) {
	n.mu.Lock()
	n.messages = append(n.messages, message)
	n.kinds = append(n.kinds, kind)
	n.mu.Unlock()
}

func (n *noticeLog) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.messages) == 0 {
		return ""
	}
	return n.messages[len(n.messages)-1]
}

func (n *noticeLog) firstKind() notify.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.kinds) == 0 {
		return ""
	}
	return n.kinds[0]
}

func teacherClient(srv *apitest.Server) *api.Client {
	return api.New(api.Config{
		BaseURL: srv.URL,
		Tokens:  staticToken(apitest.Token("teacher1", "teacher")),
	})
}

func newStoryEditor(t *testing.T, confirm ConfirmFunc) (*StoryEditor, *apitest.Server, *noticeLog) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	notices := &noticeLog{}
	return NewStoryEditor(teacherClient(srv), notices, time.Minute, confirm), srv, notices
}

func firstPageID(e *StoryEditor) authoring.ItemID {
	var id authoring.ItemID
	e.Edit(func(d *authoring.StoryDraft) { id = d.Pages.Items()[0].ID })
	return id
}

func TestStorySaveValidatesFirst(t *testing.T) {
	e, srv, notices := newStoryEditor(t, nil)
	ctx := context.Background()

	if err := e.Save(ctx); err == nil {
		t.Fatalf("expected validation error for empty title")
	}
	if notices.firstKind() != notify.KindError {
		t.Fatalf("expected error notice, got %v", notices.firstKind())
	}
	if srv.StoryCount() != 0 {
		t.Fatalf("no request should reach the backend")
	}

	e.Edit(func(d *authoring.StoryDraft) {
		d.SetTitle("The Lighthouse")
		_ = d.Pages.Update(d.Pages.Items()[0].ID, func(p *authoring.Page) { p.Text = "Once upon a time." })
	})
	if err := e.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	if e.ID() == "" {
		t.Fatalf("saved story should adopt the server id")
	}
	if e.Dirty() {
		t.Fatalf("saved draft should be clean")
	}
	if srv.StoryCount() != 1 {
		t.Fatalf("stored stories = %d", srv.StoryCount())
	}
	if notices.last() != "Story saved successfully" {
		t.Fatalf("unexpected notice %q", notices.last())
	}
}

func TestStoryPublish(t *testing.T) {
	e, srv, _ := newStoryEditor(t, nil)
	ctx := context.Background()

	e.Edit(func(d *authoring.StoryDraft) {
		d.SetTitle("Tides")
		_ = d.Pages.Update(d.Pages.Items()[0].ID, func(p *authoring.Page) { p.Text = "High water." })
	})

	if err := e.Publish(ctx); err != nil {
		t.Fatalf("publish: %v", err)
	}
	var published bool
	e.Edit(func(d *authoring.StoryDraft) { published = d.Published })
	if !published {
		t.Fatalf("draft should record published state")
	}
	if !srv.Published(e.ID()) {
		t.Fatalf("server should record publish for %s", e.ID())
	}
}

func TestStoryAutosaveRoundTrip(t *testing.T) {
	e, srv, _ := newStoryEditor(t, nil)
	ctx := context.Background()

	e.Edit(func(d *authoring.StoryDraft) {
		d.SetTitle("Draft In Flight")
		_ = d.Pages.Update(d.Pages.Items()[0].ID, func(p *authoring.Page) {
			p.Text = "page one"
			p.DurationSec = 25
		})
		d.Pages.Add("")
	})

	e.Runner.Tick(ctx)
	if e.Runner.Unsaved() {
		t.Fatalf("tick on dirty draft should save and clear")
	}
	if srv.StoryDraft() == nil || srv.StoryDraft().Title != "Draft In Flight" {
		t.Fatalf("draft did not reach the server: %+v", srv.StoryDraft())
	}

	// A second editor against the same server restores the state.
	e2 := NewStoryEditor(teacherClient(srv), &noticeLog{}, time.Minute, nil)
	found, err := e2.LoadDraft(ctx)
	if err != nil || !found {
		t.Fatalf("load draft: found=%v err=%v", found, err)
	}
	e2.Edit(func(d *authoring.StoryDraft) {
		if d.Title != "Draft In Flight" {
			t.Fatalf("title = %q", d.Title)
		}
		got := d.Pages.Items()
		if len(got) != 2 {
			t.Fatalf("expected 2 pages, got %d", len(got))
		}
		if got[0].Payload.Text != "page one" || got[0].Payload.DurationSec != 25 {
			t.Fatalf("page payload lost: %+v", got[0].Payload)
		}
	})
	if e2.Dirty() {
		t.Fatalf("loading a draft is not an edit")
	}
}

func TestAutosaveConcurrentWithEdits(t *testing.T) {
	e, srv, _ := newStoryEditor(t, nil)
	ctx := context.Background()

	e.Edit(func(d *authoring.StoryDraft) {
		d.SetTitle("racing")
		_ = d.Pages.Update(d.Pages.Items()[0].ID, func(p *authoring.Page) { p.Text = "text" })
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			e.Runner.Tick(ctx)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			e.Edit(func(d *authoring.StoryDraft) {
				d.SetTitle(fmt.Sprintf("racing %d", i))
				d.Pages.Add("")
			})
		}
	}()
	wg.Wait()

	if srv.StoryDraft() == nil {
		t.Fatalf("autosave never reached the server")
	}
	var pages int
	e.Edit(func(d *authoring.StoryDraft) { pages = d.Pages.Len() })
	if pages != 51 {
		t.Fatalf("pages = %d, want 51", pages)
	}
}

func TestDeletePagesConfirmAndGuard(t *testing.T) {
	declined := false
	e, _, notices := newStoryEditor(t, func(string) bool { return !declined })

	ids := []authoring.ItemID{firstPageID(e)}
	e.Edit(func(d *authoring.StoryDraft) {
		ids = append(ids, d.Pages.Add(""), d.Pages.Add(""))
	})

	declined = true
	if n := e.DeletePages(ids); n != 0 {
		t.Fatalf("declined confirm must delete nothing, removed %d", n)
	}

	declined = false
	if n := e.DeletePages(ids); n != 2 {
		t.Fatalf("expected 2 removed with last page blocked, got %d", n)
	}
	var left int
	e.Edit(func(d *authoring.StoryDraft) { left = d.Pages.Len() })
	if left != 1 {
		t.Fatalf("one page must survive, have %d", left)
	}
	if !strings.Contains(notices.last(), "at least one page") {
		t.Fatalf("expected minimum-page warning, got %q", notices.last())
	}
}

func TestSetDurationAllClamps(t *testing.T) {
	e, _, _ := newStoryEditor(t, nil)
	ids := []authoring.ItemID{firstPageID(e)}
	e.Edit(func(d *authoring.StoryDraft) { ids = append(ids, d.Pages.Add("")) })

	if n := e.SetDurationAll(ids, 500); n != 2 {
		t.Fatalf("applied = %d", n)
	}
	e.Edit(func(d *authoring.StoryDraft) {
		for _, it := range d.Pages.Items() {
			if it.Payload.DurationSec != authoring.MaxPageDuration {
				t.Fatalf("duration not clamped: %d", it.Payload.DurationSec)
			}
		}
	})
}

func TestClearTextsAndImages(t *testing.T) {
	e, _, _ := newStoryEditor(t, nil)
	first := firstPageID(e)
	e.Edit(func(d *authoring.StoryDraft) {
		_ = d.Pages.Update(first, func(p *authoring.Page) {
			p.Text = "keep or clear"
			p.ImageRef = "/static/uploads/image/1-fig.png"
		})
	})

	if n := e.ClearImages([]authoring.ItemID{first}); n != 1 {
		t.Fatalf("cleared %d images", n)
	}
	if n := e.ClearTexts([]authoring.ItemID{first}); n != 1 {
		t.Fatalf("cleared %d texts", n)
	}
	e.Edit(func(d *authoring.StoryDraft) {
		got, _ := d.Pages.Get(first)
		if got.Payload.Text != "" || got.Payload.ImageRef != "" {
			t.Fatalf("page not cleared: %+v", got.Payload)
		}
	})
}

func TestUploadCoverSetsURL(t *testing.T) {
	e, _, _ := newStoryEditor(t, nil)
	err := e.UploadCover(context.Background(), "cover.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	var cover string
	e.Edit(func(d *authoring.StoryDraft) { cover = d.CoverImage })
	if !strings.Contains(cover, "cover.png") {
		t.Fatalf("cover url = %q", cover)
	}
	if !e.Dirty() {
		t.Fatalf("setting the cover is an edit")
	}
}

func newQuizEditor(t *testing.T, confirm ConfirmFunc) (*QuizEditor, *apitest.Server, *noticeLog) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	notices := &noticeLog{}
	return NewQuizEditor(teacherClient(srv), notices, time.Minute, confirm), srv, notices
}

func fillFirstQuestion(e *QuizEditor) {
	e.Edit(func(d *authoring.QuizDraft) {
		_ = d.Questions.Update(d.Questions.Items()[0].ID, func(q *authoring.Question) {
			q.Text = "2 + 2 = ?"
			q.Type = authoring.MultipleChoice
			q.Options = map[string]string{"A": "3", "B": "4"}
			q.CorrectAnswer = "B"
		})
	})
}

func TestQuizSaveAndServerState(t *testing.T) {
	e, srv, _ := newQuizEditor(t, nil)
	ctx := context.Background()

	e.Edit(func(d *authoring.QuizDraft) { d.SetTitle("Arithmetic Check") })
	fillFirstQuestion(e)

	if err := e.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	stored, ok := srv.Quiz(e.ID())
	if !ok {
		t.Fatalf("quiz not stored under %s", e.ID())
	}
	if stored.TimeLimit != 600 || stored.PassingScore != 60 {
		t.Fatalf("defaults lost: %+v", stored)
	}
	if len(stored.Questions) != 1 || stored.Questions[0].CorrectAnswer != "B" {
		t.Fatalf("question payload lost: %+v", stored.Questions)
	}
}

func TestQuizValidationRejectsBadCorrectAnswer(t *testing.T) {
	e, _, notices := newQuizEditor(t, nil)

	e.Edit(func(d *authoring.QuizDraft) {
		d.SetTitle("Broken")
		_ = d.Questions.Update(d.Questions.Items()[0].ID, func(q *authoring.Question) {
			q.Text = "Pick one"
			q.Type = authoring.MultipleChoice
			q.Options = map[string]string{"A": "yes", "B": "no"}
			q.CorrectAnswer = "C"
		})
	})
	if err := e.Save(context.Background()); err == nil {
		t.Fatalf("correct answer outside options must fail validation")
	}
	if notices.firstKind() != notify.KindError {
		t.Fatalf("expected error notice")
	}
}

func TestRandomizeOrderNeedsConfirm(t *testing.T) {
	e, _, _ := newQuizEditor(t, func(string) bool { return false })
	fillFirstQuestion(e)
	e.Edit(func(d *authoring.QuizDraft) { d.Questions.Add("") })
	if e.RandomizeOrder() {
		t.Fatalf("declined confirm must not shuffle")
	}
}
