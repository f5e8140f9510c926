package authoring

// dirtyFlag is shared by the draft and its item list so any edit,
// field or structural, marks the draft unsaved.
type dirtyFlag struct {
	dirty    bool
	onChange func()
}

func (d *dirtyFlag) mark() {
	d.dirty = true
	if d.onChange != nil {
		d.onChange()
	}
}

// StoryDraft is the in-progress authoring state for a story. It is the
// single source of truth; rendering is a projection of this model.
type StoryDraft struct {
	ID              string
	Title           string
	Description     string
	CoverImage      string
	Published       bool
	AssignedClasses []string

	Pages *List[Page]

	flag dirtyFlag
}

// NewStoryDraft returns an empty draft holding one default page.
// onDirty, if non-nil, is invoked on every edit (the autosave runner's
// MarkDirty, typically).
func NewStoryDraft(onDirty func()) *StoryDraft {
	d := &StoryDraft{}
	d.Pages = NewList(NewPage, d.flag.mark)
	d.Pages.Add("")
	d.flag.dirty = false
	d.flag.onChange = onDirty
	return d
}

func (d *StoryDraft) Dirty() bool { return d.flag.dirty }
func (d *StoryDraft) MarkDirty()  { d.flag.mark() }
func (d *StoryDraft) ClearDirty() { d.flag.dirty = false }

func (d *StoryDraft) SetTitle(v string)       { d.Title = v; d.flag.mark() }
func (d *StoryDraft) SetDescription(v string) { d.Description = v; d.flag.mark() }
func (d *StoryDraft) SetCoverImage(v string)  { d.CoverImage = v; d.flag.mark() }
func (d *StoryDraft) SetPublished(v bool)     { d.Published = v; d.flag.mark() }

func (d *StoryDraft) SetAssignedClasses(classes []string) {
	d.AssignedClasses = append([]string(nil), classes...)
	d.flag.mark()
}

// QuizDraft is the in-progress authoring state for a quiz.
type QuizDraft struct {
	ID           string
	Title        string
	Description  string
	TimeLimitSec int
	PassingScore int

	Questions *List[Question]

	flag dirtyFlag
}

func NewQuizDraft(onDirty func()) *QuizDraft {
	d := &QuizDraft{
		TimeLimitSec: 600,
		PassingScore: 60,
	}
	d.Questions = NewList(NewQuestion, d.flag.mark)
	d.Questions.Add("")
	d.flag.dirty = false
	d.flag.onChange = onDirty
	return d
}

func (d *QuizDraft) Dirty() bool { return d.flag.dirty }
func (d *QuizDraft) MarkDirty()  { d.flag.mark() }
func (d *QuizDraft) ClearDirty() { d.flag.dirty = false }

func (d *QuizDraft) SetTitle(v string)       { d.Title = v; d.flag.mark() }
func (d *QuizDraft) SetDescription(v string) { d.Description = v; d.flag.mark() }
func (d *QuizDraft) SetTimeLimit(sec int)    { d.TimeLimitSec = sec; d.flag.mark() }
func (d *QuizDraft) SetPassingScore(p int)   { d.PassingScore = p; d.flag.mark() }
