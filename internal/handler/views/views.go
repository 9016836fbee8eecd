// Package views renders the quiz pages as templ components.
package views

//go:generate templ generate

import (
	"context"

	"github.com/a-h/templ"

	"github.com/pavelanni/historia/internal/content"
	appI18n "github.com/pavelanni/historia/internal/i18n"
	"github.com/pavelanni/historia/internal/model"
	"github.com/pavelanni/historia/internal/quiz"
)

// Feedback is the outcome of the last answer, shown until the next advance.
type Feedback struct {
	Correct        bool
	Text           string
	LivesRemaining int
}

// Message localizes the feedback line, with the lives left after a wrong answer.
func (f Feedback) Message(ctx context.Context) string {
	if f.Correct {
		return appI18n.Td(ctx, "AnswerCorrect", map[string]any{"Feedback": f.Text})
	}
	return appI18n.Tpd(ctx, "AnswerWrong", f.LivesRemaining, map[string]any{"Feedback": f.Text})
}

// IndexView is everything the game page shows.
type IndexView struct {
	Periods  []content.PeriodSummary
	Status   quiz.Status
	Question *content.Question
	Feedback *Feedback
	Notice   string
	// AdvanceDelayMs is the pause before the page submits the advance form.
	AdvanceDelayMs int64
}

func pathURL(ctx context.Context, path string) templ.SafeURL {
	return templ.SafeURL(model.BasePathFromContext(ctx) + path)
}
