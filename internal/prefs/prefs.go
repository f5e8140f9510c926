// Package prefs persists per-user UI preferences in the local cache:
// theme, text size and reading goal. Missing keys fall back to
// defaults; there is no migration path.
package prefs

import (
	"context"
	"strconv"

	"github.com/brightleaf/storyline/internal/localstore"
)

const (
	keyTheme       = "pref_theme"
	keyTextSize    = "pref_text_size"
	keyReadingGoal = "pref_reading_goal"
)

const (
	DefaultTheme       = "light"
	DefaultReadingGoal = 3 // stories per week

	MinTextStep = -2
	MaxTextStep = 4
)

type Prefs struct {
	store localstore.Store
}

func New(store localstore.Store) *Prefs { return &Prefs{store: store} }

func (p *Prefs) Theme(ctx context.Context) string {
	v, ok, err := p.store.Get(ctx, keyTheme)
	if err != nil || !ok || v == "" {
		return DefaultTheme
	}
	return v
}

func (p *Prefs) SetTheme(ctx context.Context, theme string) error {
	return p.store.Put(ctx, keyTheme, theme)
}

// TextStep is the reader text-size adjustment, 0 by default and
// bounded to MinTextStep..MaxTextStep.
func (p *Prefs) TextStep(ctx context.Context) int {
	v, ok, err := p.store.Get(ctx, keyTextSize)
	if err != nil || !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return clampStep(n)
}

func (p *Prefs) AdjustTextStep(ctx context.Context, delta int) (int, error) {
	n := clampStep(p.TextStep(ctx) + delta)
	return n, p.store.Put(ctx, keyTextSize, strconv.Itoa(n))
}

func (p *Prefs) ResetTextStep(ctx context.Context) error {
	return p.store.Delete(ctx, keyTextSize)
}

func (p *Prefs) ReadingGoal(ctx context.Context) int {
	v, ok, err := p.store.Get(ctx, keyReadingGoal)
	if err != nil || !ok {
		return DefaultReadingGoal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return DefaultReadingGoal
	}
	return n
}

func (p *Prefs) SetReadingGoal(ctx context.Context, storiesPerWeek int) error {
	return p.store.Put(ctx, keyReadingGoal, strconv.Itoa(storiesPerWeek))
}

func clampStep(n int) int {
	if n < MinTextStep {
		return MinTextStep
	}
	if n > MaxTextStep {
		return MaxTextStep
	}
	return n
}
