// Package quiz implements the quiz progression state machine: period selection,
// answer evaluation, lives and score bookkeeping, and the save slot round-trip.
package quiz

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pavelanni/historia/internal/content"
)

const (
	// SaveKey is the store key of the single save slot.
	SaveKey = "historia-save"
	// InitialLives is the number of lives at the start of an attempt.
	InitialLives = 3
	// Reward is the score added for each correct answer.
	Reward = 10
)

var (
	// ErrIndex reports an out-of-range period or question index.
	ErrIndex = content.ErrIndex
	// ErrInvalidPeriod reports a period selection outside the catalog.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrInvalidState reports an operation that the current phase does not allow.
	ErrInvalidState = errors.New("invalid state")
	// ErrDeserialization reports a saved payload that is not a valid record.
	ErrDeserialization = errors.New("malformed saved game")
)

// Store is the key-value capability used for the save slot.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Phase is the position of an attempt in the state machine.
type Phase string

const (
	PhasePlaying        Phase = "playing"
	PhasePeriodComplete Phase = "period_complete"
	PhaseGameOver       Phase = "game_over"
)

// AnswerResult is returned by SubmitAnswer for feedback rendering.
type AnswerResult struct {
	Correct        bool
	Feedback       string
	LivesRemaining int
	Score          int
	// Saved is true when the answer ended the game and the state was persisted.
	Saved bool
}

// Status is what a status display shows.
type Status struct {
	PeriodIndex int
	PeriodName  string
	LevelName   string
	Lives       int
	Score       int
	Phase       Phase
}

// Session holds the state of one player's attempt. It is not safe for concurrent use.
type Session struct {
	catalog *content.Catalog
	store   Store
	state   State
}

// NewSession creates a session on the first period with a fresh state.
func NewSession(catalog *content.Catalog, store Store) *Session {
	return &Session{
		catalog: catalog,
		store:   store,
		state:   freshState(0),
	}
}

func freshState(period int) State {
	return State{PeriodIndex: period, QuestionIndex: 0, Lives: InitialLives, Score: 0}
}

// Catalog returns the catalog the session plays.
func (s *Session) Catalog() *content.Catalog {
	return s.catalog
}

// SelectPeriod starts a new attempt on the period at index.
func (s *Session) SelectPeriod(index int) error {
	if index < 0 || index >= s.catalog.Len() {
		return fmt.Errorf("%w: %d (catalog has %d periods)", ErrInvalidPeriod, index, s.catalog.Len())
	}
	s.state = freshState(index)
	return nil
}

// NewGame restarts the current period.
func (s *Session) NewGame() error {
	return s.SelectPeriod(s.state.PeriodIndex)
}

// CurrentQuestion returns the question to answer, or nil once the period is exhausted.
func (s *Session) CurrentQuestion() (*content.Question, error) {
	if s.IsPeriodComplete() {
		return nil, nil
	}
	return s.catalog.Question(s.state.PeriodIndex, s.state.QuestionIndex)
}

// SubmitAnswer evaluates option against the current question. It never advances.
func (s *Session) SubmitAnswer(option string) (AnswerResult, error) {
	if s.IsGameOver() {
		return AnswerResult{}, fmt.Errorf("%w: game over", ErrInvalidState)
	}
	q, err := s.CurrentQuestion()
	if err != nil {
		return AnswerResult{}, err
	}
	if q == nil {
		return AnswerResult{}, fmt.Errorf("%w: period complete", ErrInvalidState)
	}

	res := AnswerResult{Feedback: q.Feedback}
	if option == q.Answer {
		s.state.Score += Reward
		res.Correct = true
	} else {
		s.state.Lives--
	}
	res.LivesRemaining = s.state.Lives
	res.Score = s.state.Score

	if s.state.Lives == 0 {
		if err := s.Save(); err != nil {
			return res, fmt.Errorf("save after game over: %w", err)
		}
		res.Saved = true
	}
	return res, nil
}

// Advance moves to the next question and saves when that completes the period.
// It fails with ErrInvalidState after game over or once the period is complete.
func (s *Session) Advance() error {
	if s.IsGameOver() {
		return fmt.Errorf("%w: cannot advance after game over", ErrInvalidState)
	}
	if s.IsPeriodComplete() {
		return fmt.Errorf("%w: period already complete", ErrInvalidState)
	}
	s.state.QuestionIndex++
	if s.IsPeriodComplete() {
		if err := s.Save(); err != nil {
			return fmt.Errorf("save after period complete: %w", err)
		}
	}
	return nil
}

// IsGameOver reports whether lives are exhausted.
func (s *Session) IsGameOver() bool {
	return s.state.Lives == 0
}

// IsPeriodComplete reports whether every question of the period has been passed.
// A restored question index beyond the end also counts as complete.
func (s *Session) IsPeriodComplete() bool {
	p, err := s.catalog.Period(s.state.PeriodIndex)
	if err != nil {
		return false
	}
	return s.state.QuestionIndex >= len(p.Level.Questions)
}

// Phase returns the state machine phase. Game over takes precedence.
func (s *Session) Phase() Phase {
	switch {
	case s.IsGameOver():
		return PhaseGameOver
	case s.IsPeriodComplete():
		return PhasePeriodComplete
	default:
		return PhasePlaying
	}
}

// Score returns the current score.
func (s *Session) Score() int {
	return s.state.Score
}

// State returns a snapshot of the session state.
func (s *Session) State() State {
	return s.state
}

// Status summarises the session for a status display.
func (s *Session) Status() Status {
	st := Status{
		PeriodIndex: s.state.PeriodIndex,
		Lives:       s.state.Lives,
		Score:       s.state.Score,
		Phase:       s.Phase(),
	}
	if p, err := s.catalog.Period(s.state.PeriodIndex); err == nil {
		st.PeriodName = p.Name
		st.LevelName = p.Level.Name
	}
	return st
}

// Save writes the whole state to the save slot.
func (s *Session) Save() error {
	data, err := Encode(s.state)
	if err != nil {
		return err
	}
	if err := s.store.Set(SaveKey, string(data)); err != nil {
		return fmt.Errorf("write save slot: %w", err)
	}
	slog.Debug("game saved", "period", s.state.PeriodIndex, "question", s.state.QuestionIndex,
		"lives", s.state.Lives, "score", s.state.Score)
	return nil
}

// Resume replaces the in-memory state with the saved one. It returns false and no
// error when there is no saved game.
func (s *Session) Resume() (bool, error) {
	raw, ok, err := s.store.Get(SaveKey)
	if err != nil {
		return false, fmt.Errorf("read save slot: %w", err)
	}
	if !ok || raw == "" {
		return false, nil
	}
	st, err := Decode([]byte(raw))
	if err != nil {
		return false, err
	}
	if st.PeriodIndex >= s.catalog.Len() {
		return false, fmt.Errorf("%w: period %d not in catalog", ErrDeserialization, st.PeriodIndex)
	}
	s.state = st
	slog.Debug("game resumed", "period", st.PeriodIndex, "question", st.QuestionIndex)
	return true, nil
}
