package authoring

import "github.com/google/uuid"

// ItemID is an opaque token assigned at creation and stable for the
// item's lifetime. Positions move; IDs never do.
type ItemID string

func newItemID() ItemID { return ItemID(uuid.NewString()) }

// Payload is the variant part of an item. Clone must deep-copy any
// reference fields (option maps); media refs are value handles and are
// copied as-is, both items may point at the same uploaded asset.
type Payload[P any] interface {
	Clone() P
}

// Item is one page or question inside a draft. Position is the 1-based
// index in the current order, recomputed after every structural change.
type Item[P Payload[P]] struct {
	ID       ItemID
	Position int
	Payload  P
}

const (
	MinPageDuration = 5
	MaxPageDuration = 60
	DefaultDuration = 10

	MinPoints     = 1
	MaxPoints     = 10
	DefaultPoints = 1
)

type Page struct {
	Text         string
	Notes        string
	DurationSec  int
	ImageRef     string
	NarrationRef string
}

func NewPage() Page { return Page{DurationSec: DefaultDuration} }

func (p Page) Clone() Page { return p }

// ClampDuration bounds a per-page reading duration to the allowed range.
func ClampDuration(sec int) int {
	if sec < MinPageDuration {
		return MinPageDuration
	}
	if sec > MaxPageDuration {
		return MaxPageDuration
	}
	return sec
}

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
)

// OptionLetters is the full set of allowed multiple-choice option keys.
var OptionLetters = []string{"A", "B", "C", "D"}

type Question struct {
	Text          string
	Type          QuestionType
	Points        int
	Options       map[string]string // letter -> text, multiple_choice only
	CorrectAnswer string
	Explanation   string
}

func NewQuestion() Question { return Question{Points: DefaultPoints} }

func (q Question) Clone() Question {
	out := q
	if q.Options != nil {
		out.Options = make(map[string]string, len(q.Options))
		for k, v := range q.Options {
			out.Options[k] = v
		}
	}
	return out
}

func ClampPoints(p int) int {
	if p < MinPoints {
		return MinPoints
	}
	if p > MaxPoints {
		return MaxPoints
	}
	return p
}
