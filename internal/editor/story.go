// Package editor is the teacher-facing authoring surface: it binds a
// draft model to the backend client, the autosave runner and the
// notification channel, and exposes the operations the authoring UI
// calls.
package editor

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/brightleaf/storyline/internal/api"
	"github.com/brightleaf/storyline/internal/authoring"
	"github.com/brightleaf/storyline/internal/autosave"
	"github.com/brightleaf/storyline/internal/notify"
)

// ConfirmFunc asks the author to confirm a destructive action. The
// host UI supplies it; a nil func confirms everything.
type ConfirmFunc func(prompt string) bool

func confirmOrDefault(fn ConfirmFunc) ConfirmFunc {
	if fn == nil {
		return func(string) bool { return true }
	}
	return fn
}

// StoryEditor drives one story draft. The draft is reachable only
// through Edit and the editor methods, all of which hold the editor
// lock; the autosave goroutine snapshots under the same lock, so edits
// and saves never observe each other mid-mutation.
type StoryEditor struct {
	Runner *autosave.Runner

	mu      sync.Mutex
	draft   *authoring.StoryDraft
	client  *api.Client
	notices notify.Notifier
	confirm ConfirmFunc
}

// NewStoryEditor builds an editor around a fresh single-page draft.
// Every edit marks the runner dirty; the runner's save callback ships
// the collected draft to the backend.
func NewStoryEditor(client *api.Client, notices notify.Notifier, interval time.Duration, confirm ConfirmFunc) *StoryEditor {
	e := &StoryEditor{
		client:  client,
		notices: notices,
		confirm: confirmOrDefault(confirm),
	}
	e.Runner = autosave.New(e.saveDraft, interval, notices)
	e.draft = authoring.NewStoryDraft(e.Runner.MarkDirty)
	return e
}

// Edit runs fn against the draft under the editor lock. All host
// reads and mutations go through here.
func (e *StoryEditor) Edit(fn func(*authoring.StoryDraft)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.draft)
}

func (e *StoryEditor) ID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.ID
}

// Dirty reports whether edits are waiting on a save, autosave
// included.
func (e *StoryEditor) Dirty() bool { return e.Runner.Unsaved() }

func (e *StoryEditor) saveDraft(ctx context.Context) error {
	e.mu.Lock()
	doc := e.collectLocked()
	e.mu.Unlock()

	id, err := e.client.SaveStoryDraft(ctx, doc)
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

// LoadDraft restores the author's last autosaved draft, if any.
// Reports whether one was found.
func (e *StoryEditor) LoadDraft(ctx context.Context) (bool, error) {
	doc, err := e.client.LoadStoryDraft(ctx)
	if err != nil {
		return false, err
	}
	if doc == nil {
		return false, nil
	}
	e.apply(*doc)
	return true, nil
}

// collectLocked flattens the draft into its wire shape, positions
// included. Caller holds e.mu.
func (e *StoryEditor) collectLocked() api.StoryDoc {
	doc := api.StoryDoc{
		ID:              e.draft.ID,
		Title:           e.draft.Title,
		Description:     e.draft.Description,
		CoverImage:      e.draft.CoverImage,
		IsPublished:     e.draft.Published,
		AssignedClasses: append([]string(nil), e.draft.AssignedClasses...),
	}
	for _, it := range e.draft.Pages.Items() {
		doc.Pages = append(doc.Pages, api.PageDoc{
			ID:           string(it.ID),
			Number:       it.Position,
			Text:         it.Payload.Text,
			Notes:        it.Payload.Notes,
			Duration:     it.Payload.DurationSec,
			ImageURL:     it.Payload.ImageRef,
			NarrationURL: it.Payload.NarrationRef,
		})
	}
	return doc
}

// apply replaces the draft with a loaded document. The model ends
// clean; loading is not an edit.
func (e *StoryEditor) apply(doc api.StoryDoc) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := authoring.NewStoryDraft(e.Runner.MarkDirty)
	d.ID = doc.ID
	d.Title = doc.Title
	d.Description = doc.Description
	d.CoverImage = doc.CoverImage
	d.Published = doc.IsPublished
	d.AssignedClasses = append([]string(nil), doc.AssignedClasses...)

	first := true
	for _, p := range doc.Pages {
		var id authoring.ItemID
		if first {
			id = d.Pages.Items()[0].ID
			first = false
		} else {
			id = d.Pages.Add("")
		}
		page := p
		_ = d.Pages.Update(id, func(pg *authoring.Page) {
			pg.Text = page.Text
			pg.Notes = page.Notes
			pg.DurationSec = authoring.ClampDuration(page.Duration)
			pg.ImageRef = page.ImageURL
			pg.NarrationRef = page.NarrationURL
		})
	}
	d.ClearDirty()
	e.Runner.MarkSaved()
	e.draft = d
}

// Save validates and persists the story as permanent content. A
// validation failure surfaces as an error notice and no request is
// made.
func (e *StoryEditor) Save(ctx context.Context) error {
	e.mu.Lock()
	if err := authoring.ValidateStory(e.draft); err != nil {
		e.mu.Unlock()
		e.notices.Show(err.Error(), notify.KindError)
		return err
	}
	doc := e.collectLocked()
	e.mu.Unlock()

	id, err := e.client.SaveStory(ctx, doc)
	if err != nil {
		e.notices.Show("Failed to save story", notify.KindError)
		return err
	}

	e.mu.Lock()
	e.draft.ID = id
	e.draft.ClearDirty()
	e.mu.Unlock()
	e.Runner.MarkSaved()
	e.notices.Show("Story saved successfully", notify.KindSuccess)
	return nil
}

// Publish saves and then flips the story visible to students.
func (e *StoryEditor) Publish(ctx context.Context) error {
	if err := e.Save(ctx); err != nil {
		return err
	}
	if err := e.client.PublishStory(ctx, e.ID()); err != nil {
		e.notices.Show("Failed to publish story", notify.KindError)
		return err
	}
	e.Edit(func(d *authoring.StoryDraft) { d.SetPublished(true) })
	e.notices.Show("Story published", notify.KindSuccess)
	return nil
}

// UploadCover stores an image asset and records its URL on the draft.
func (e *StoryEditor) UploadCover(ctx context.Context, filename string, r io.Reader) error {
	url, err := e.client.UploadAsset(ctx, "cover", filename, r)
	if err != nil {
		e.notices.Show("Cover upload failed", notify.KindError)
		return err
	}
	e.Edit(func(d *authoring.StoryDraft) { d.SetCoverImage(url) })
	return nil
}

// UploadPageImage attaches an uploaded image to one page.
func (e *StoryEditor) UploadPageImage(ctx context.Context, id authoring.ItemID, filename string, r io.Reader) error {
	url, err := e.client.UploadAsset(ctx, "image", filename, r)
	if err != nil {
		e.notices.Show("Image upload failed", notify.KindError)
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.Pages.Update(id, func(p *authoring.Page) { p.ImageRef = url })
}

// UploadNarration attaches an uploaded audio clip to one page.
func (e *StoryEditor) UploadNarration(ctx context.Context, id authoring.ItemID, filename string, r io.Reader) error {
	url, err := e.client.UploadAsset(ctx, "audio", filename, r)
	if err != nil {
		e.notices.Show("Audio upload failed", notify.KindError)
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.Pages.Update(id, func(p *authoring.Page) { p.NarrationRef = url })
}

// SetDurationAll applies one reading duration, clamped, to the
// selected pages and reports how many changed.
func (e *StoryEditor) SetDurationAll(ids []authoring.ItemID, sec int) int {
	sec = authoring.ClampDuration(sec)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.Pages.BulkApply(ids, func(p *authoring.Page) { p.DurationSec = sec })
}

// ClearTexts blanks the text of the selected pages after one
// confirmation.
func (e *StoryEditor) ClearTexts(ids []authoring.ItemID) int {
	if len(ids) == 0 || !e.confirm("Clear text on selected page(s)?") {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.Pages.BulkApply(ids, func(p *authoring.Page) { p.Text = "" })
}

// ClearImages detaches the image from the selected pages. The uploaded
// assets themselves stay on the backend.
func (e *StoryEditor) ClearImages(ids []authoring.ItemID) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.Pages.BulkApply(ids, func(p *authoring.Page) { p.ImageRef = "" })
}

// DeletePages removes the selection after one confirmation. Pages
// blocked by the minimum-page rule are reported as a warning.
func (e *StoryEditor) DeletePages(ids []authoring.ItemID) int {
	if len(ids) == 0 {
		return 0
	}
	if !e.confirm(fmt.Sprintf("Delete %d selected page(s)?", len(ids))) {
		return 0
	}
	e.mu.Lock()
	removed, blocked := e.draft.Pages.BulkDelete(ids)
	e.mu.Unlock()
	if blocked > 0 {
		e.notices.Show("A story must keep at least one page", notify.KindWarning)
	}
	return removed
}
