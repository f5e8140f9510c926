package authoring

import (
	"errors"
	"fmt"
)

// ErrMinimumItems rejects a removal that would leave the collection
// empty. A story or quiz always has at least one item.
var ErrMinimumItems = errors.New("at least one item is required")

var ErrItemNotFound = errors.New("item not found")

// ValidationError blocks save and publish. It names the first failing
// item so the message can be surfaced to the author verbatim.
type ValidationError struct {
	Field  string // "title", "text", "type", "correct_answer", "options"
	Number int    // 1-based item position, 0 for draft-level fields
	Msg    string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(field string, number int, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Number: number, Msg: fmt.Sprintf(format, args...)}
}
