// Package console plays the quiz in a terminal with numbered menus.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	appI18n "github.com/pavelanni/historia/internal/i18n"
	"github.com/pavelanni/historia/internal/quiz"
)

// Player runs the menu loop against one session.
type Player struct {
	session *quiz.Session
	in      *bufio.Scanner
	out     io.Writer
	delay   time.Duration
}

// New creates a Player reading choices from in and writing to out. delay is the pause
// between an answer's feedback and the next question.
func New(s *quiz.Session, in io.Reader, out io.Writer, delay time.Duration) *Player {
	return &Player{session: s, in: bufio.NewScanner(in), out: out, delay: delay}
}

// Run shows the main menu until the player quits, input ends or ctx is cancelled.
func (p *Player) Run(ctx context.Context) error {
	for {
		p.println("")
		p.println(appI18n.T(ctx, "MenuTitle"))
		choice, err := p.choose(ctx, "", []string{
			appI18n.T(ctx, "MenuNew"),
			appI18n.T(ctx, "MenuResume"),
			appI18n.T(ctx, "MenuScores"),
			appI18n.T(ctx, "MenuQuit"),
		})
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch choice {
		case 0:
			err = p.newGame(ctx)
		case 1:
			err = p.resume(ctx)
		case 2:
			p.println(appI18n.Td(ctx, "CurrentScore", map[string]any{"Score": p.session.Score()}))
		case 3:
			p.println(appI18n.T(ctx, "Goodbye"))
			return nil
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (p *Player) newGame(ctx context.Context) error {
	periods := p.session.Catalog().Periods()
	names := make([]string, len(periods))
	for i, per := range periods {
		names[i] = per.Name + " - " + per.Description
	}
	idx, err := p.choose(ctx, appI18n.T(ctx, "ChoosePeriod"), names)
	if err != nil {
		return err
	}
	if err := p.session.SelectPeriod(idx); err != nil {
		return err
	}
	p.println(appI18n.T(ctx, "NewGameStarted"))
	return p.playLevel(ctx)
}

func (p *Player) resume(ctx context.Context) error {
	ok, err := p.session.Resume()
	if errors.Is(err, quiz.ErrDeserialization) {
		slog.Warn("saved game unreadable", "error", err)
		p.println(appI18n.T(ctx, "SavedGameBroken"))
		return nil
	}
	if err != nil {
		return err
	}
	if !ok {
		p.println(appI18n.T(ctx, "NoSavedGame"))
		return nil
	}
	p.println(appI18n.T(ctx, "GameLoaded"))
	return p.playLevel(ctx)
}

func (p *Player) playLevel(ctx context.Context) error {
	st := p.session.Status()
	p.printf("%s: %s | %s: %s\n", appI18n.T(ctx, "PeriodLabel"), st.PeriodName, appI18n.T(ctx, "LevelLabel"), st.LevelName)

	for {
		if p.session.IsGameOver() {
			p.println(appI18n.T(ctx, "GameOver"))
			p.println(appI18n.T(ctx, "GameOverDetail"))
			break
		}
		q, err := p.session.CurrentQuestion()
		if err != nil {
			return err
		}
		if q == nil {
			p.println(appI18n.T(ctx, "LevelComplete"))
			p.println(appI18n.T(ctx, "LevelCompleteDetail"))
			break
		}

		st := p.session.Status()
		p.printf("\n%s: %d | %s: %d\n", appI18n.T(ctx, "LivesLabel"), st.Lives, appI18n.T(ctx, "ScoreLabel"), st.Score)
		idx, err := p.choose(ctx, q.Prompt, q.Options)
		if err != nil {
			return err
		}
		res, err := p.session.SubmitAnswer(q.Options[idx])
		if err != nil {
			return err
		}
		if res.Correct {
			p.println(appI18n.Td(ctx, "AnswerCorrect", map[string]any{"Feedback": res.Feedback}))
		} else {
			p.println(appI18n.Tpd(ctx, "AnswerWrong", res.LivesRemaining, map[string]any{"Feedback": res.Feedback}))
		}
		if res.Saved {
			p.println(appI18n.T(ctx, "GameSaved"))
		}
		if p.session.IsGameOver() {
			continue
		}

		if err := wait(ctx, p.delay); err != nil {
			return err
		}
		if err := p.session.Advance(); err != nil {
			return err
		}
		if p.session.IsPeriodComplete() {
			p.println(appI18n.T(ctx, "GameSaved"))
		}
	}

	p.println(appI18n.Td(ctx, "ScoreObtained", map[string]any{"Score": p.session.Score()}))
	return nil
}

// choose prints a numbered list and reads until a valid 1-based choice arrives.
// It returns the 0-based index, or io.EOF when input ends.
func (p *Player) choose(ctx context.Context, title string, options []string) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if title != "" {
			p.println("")
			p.println(title)
		}
		for i, o := range options {
			p.printf("  %d. %s\n", i+1, o)
		}
		p.printf("%s", appI18n.T(ctx, "ChooseOption"))

		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return 0, fmt.Errorf("read input: %w", err)
			}
			return 0, io.EOF
		}
		n, err := strconv.Atoi(strings.TrimSpace(p.in.Text()))
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		p.println(appI18n.T(ctx, "InvalidOption"))
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p *Player) println(s string) {
	fmt.Fprintln(p.out, s)
}

func (p *Player) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}
