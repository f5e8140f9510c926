// Package student implements the learner-facing flows: reading a
// published story page by page, and taking a timed quiz attempt.
package student

import (
	"context"
	"log"
	"time"

	"github.com/brightleaf/storyline/internal/api"
	"github.com/brightleaf/storyline/internal/localstore"
	"github.com/brightleaf/storyline/internal/notify"
	"github.com/brightleaf/storyline/internal/viewer"
)

func progressKey(storyID string) string { return "story_progress_" + storyID }

// savedProgress is the cached reading position, the offline twin of
// api.ProgressUpdate.
type savedProgress struct {
	CurrentPage int   `json:"current_page"`
	Completed   bool  `json:"is_completed"`
	SavedAt     int64 `json:"saved_at"`
}

// StoryReader walks a student through a story. Every page turn is
// cached locally and reported to the backend; a backend failure never
// blocks the page turn.
type StoryReader struct {
	Story  api.StoryDoc
	Viewer *viewer.Viewer

	client  *api.Client
	cache   localstore.Store
	notices notify.Notifier

	onPage     func(api.PageDoc)
	onFinished func()
	offline    bool
}

type ReaderOption func(*StoryReader)

// OnPage is invoked with the page content at every arrival, so the
// host can swap text, image and narration.
func OnPage(fn func(api.PageDoc)) ReaderOption {
	return func(r *StoryReader) { r.onPage = fn }
}

// OnFinished runs once when the student turns past the last page. The
// host uses it to hand off to an attached quiz.
func OnFinished(fn func()) ReaderOption {
	return func(r *StoryReader) { r.onFinished = fn }
}

// NewStoryReader builds a reader resumed at the locally cached page,
// or page one when no cache entry exists.
func NewStoryReader(ctx context.Context, story api.StoryDoc, client *api.Client, cache localstore.Store, notices notify.Notifier, opts ...ReaderOption) (*StoryReader, error) {
	r := &StoryReader{
		Story:   story,
		client:  client,
		cache:   cache,
		notices: notices,
	}
	for _, o := range opts {
		o(r)
	}

	startAt := 1
	var saved savedProgress
	if ok, err := localstore.GetJSON(ctx, cache, progressKey(story.ID), &saved); err == nil && ok {
		startAt = saved.CurrentPage
	}

	v, err := viewer.New(story.ID, len(story.Pages), startAt,
		viewer.WithLoad(r.loadPage),
		viewer.WithProgress(viewer.SinkFunc(r.report)),
		viewer.OnComplete(r.finished),
	)
	if err != nil {
		return nil, err
	}
	r.Viewer = v
	return r, nil
}

// Open shows the starting page and reports initial progress.
func (r *StoryReader) Open(ctx context.Context) { r.Viewer.Open(ctx) }

func (r *StoryReader) loadPage(index int) {
	if r.onPage != nil {
		r.onPage(r.Story.Pages[index-1])
	}
}

// report caches the position locally first, then tells the backend.
// The local write makes the position survive a reload even when the
// network call fails.
func (r *StoryReader) report(ctx context.Context, p viewer.Progress) {
	saved := savedProgress{
		CurrentPage: p.Position,
		Completed:   p.Completed,
		SavedAt:     time.Now().Unix(),
	}
	if err := localstore.PutJSON(ctx, r.cache, progressKey(r.Story.ID), saved); err != nil {
		log.Printf("cache progress for %s: %v", r.Story.ID, err)
	}

	err := r.client.UpdateProgress(ctx, api.ProgressUpdate{
		StoryID:     r.Story.ID,
		CurrentPage: p.Position,
		IsCompleted: p.Completed,
	})
	switch {
	case err != nil && !r.offline:
		r.offline = true
		log.Printf("progress sync for %s: %v", r.Story.ID, err)
		r.notices.Show("Progress saved offline", notify.KindWarning)
	case err == nil && r.offline:
		r.offline = false
	}
}

func (r *StoryReader) finished() {
	r.notices.Show("Story completed!", notify.KindSuccess)
	if r.onFinished != nil {
		r.onFinished()
	}
}
