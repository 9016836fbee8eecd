package quiz

import (
	"errors"
	"testing"

	"github.com/pavelanni/historia/internal/content"
)

type memStore struct {
	data   map[string]string
	sets   int
	setErr error
	getErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}}
}

func (m *memStore) Get(key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.sets++
	m.data[key] = value
	return nil
}

func newTestSession(t *testing.T) (*Session, *memStore) {
	t.Helper()
	st := newMemStore()
	return NewSession(content.Default(), st), st
}

func currentPrompt(t *testing.T, s *Session) string {
	t.Helper()
	q, err := s.CurrentQuestion()
	if err != nil {
		t.Fatalf("CurrentQuestion: %v", err)
	}
	if q == nil {
		return ""
	}
	return q.Prompt
}

func wrongOption(t *testing.T, s *Session) string {
	t.Helper()
	q, err := s.CurrentQuestion()
	if err != nil || q == nil {
		t.Fatalf("CurrentQuestion: %v %v", q, err)
	}
	for _, o := range q.Options {
		if o != q.Answer {
			return o
		}
	}
	t.Fatal("question has no wrong option")
	return ""
}

func rightOption(t *testing.T, s *Session) string {
	t.Helper()
	q, err := s.CurrentQuestion()
	if err != nil || q == nil {
		t.Fatalf("CurrentQuestion: %v %v", q, err)
	}
	return q.Answer
}

func TestNewSessionIsFresh(t *testing.T) {
	s, _ := newTestSession(t)
	want := State{PeriodIndex: 0, QuestionIndex: 0, Lives: 3, Score: 0}
	if got := s.State(); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if s.Phase() != PhasePlaying {
		t.Errorf("expected playing, got %s", s.Phase())
	}
}

func TestCorrectAnswerDoesNotAdvance(t *testing.T) {
	s, st := newTestSession(t)

	before := currentPrompt(t, s)
	res, err := s.SubmitAnswer("Egipto")
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if !res.Correct {
		t.Error("expected correct answer")
	}
	if res.Score != 10 || res.LivesRemaining != 3 {
		t.Errorf("expected score 10 lives 3, got %d/%d", res.Score, res.LivesRemaining)
	}
	if res.Feedback != "Egipto se consolidó gracias a las crecidas del Nilo." {
		t.Errorf("unexpected feedback %q", res.Feedback)
	}
	if res.Saved || st.sets != 0 {
		t.Error("a correct mid-period answer must not save")
	}
	if after := currentPrompt(t, s); after != before {
		t.Fatalf("question changed before Advance: %q -> %q", before, after)
	}

	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got := currentPrompt(t, s); got != "¿Qué invento permitió registrar leyes y comercio?" {
		t.Errorf("expected second question, got %q", got)
	}
}

func TestAnswerMatchingIsExact(t *testing.T) {
	for _, option := range []string{"egipto", " Egipto", "Egipto ", "EGIPTO"} {
		t.Run(option, func(t *testing.T) {
			s, _ := newTestSession(t)
			res, err := s.SubmitAnswer(option)
			if err != nil {
				t.Fatalf("SubmitAnswer: %v", err)
			}
			if res.Correct {
				t.Errorf("%q should not match", option)
			}
			if res.LivesRemaining != 2 || res.Score != 0 {
				t.Errorf("expected lives 2 score 0, got %d/%d", res.LivesRemaining, res.Score)
			}
		})
	}
}

func TestGameOverAfterThreeWrongAnswers(t *testing.T) {
	for period := 0; period < 2; period++ {
		s, st := newTestSession(t)
		if err := s.SelectPeriod(period); err != nil {
			t.Fatalf("SelectPeriod: %v", err)
		}

		var res AnswerResult
		for i := 0; i < 3; i++ {
			var err error
			res, err = s.SubmitAnswer(wrongOption(t, s))
			if err != nil {
				t.Fatalf("SubmitAnswer %d: %v", i, err)
			}
			if res.LivesRemaining != 2-i {
				t.Errorf("after %d wrong answers expected %d lives, got %d", i+1, 2-i, res.LivesRemaining)
			}
			if i < 2 {
				if res.Saved {
					t.Errorf("answer %d saved before game over", i)
				}
			}
		}

		if !s.IsGameOver() || s.Phase() != PhaseGameOver {
			t.Fatal("expected game over")
		}
		if s.State().Lives != 0 {
			t.Errorf("expected 0 lives, got %d", s.State().Lives)
		}
		if !res.Saved || st.sets != 1 {
			t.Fatalf("expected exactly one save, got saved=%v sets=%d", res.Saved, st.sets)
		}
		saved, err := Decode([]byte(st.data[SaveKey]))
		if err != nil {
			t.Fatalf("Decode saved: %v", err)
		}
		if saved != s.State() {
			t.Errorf("saved %+v, state %+v", saved, s.State())
		}

		if _, err := s.SubmitAnswer(rightOption(t, s)); !errors.Is(err, ErrInvalidState) {
			t.Errorf("expected ErrInvalidState on answer after game over, got %v", err)
		}
		if err := s.Advance(); !errors.Is(err, ErrInvalidState) {
			t.Errorf("expected ErrInvalidState on advance after game over, got %v", err)
		}
		if s.State().Lives != 0 {
			t.Errorf("lives went negative: %d", s.State().Lives)
		}
	}
}

func TestCompletePeriod(t *testing.T) {
	s, st := newTestSession(t)
	if err := s.SelectPeriod(1); err != nil {
		t.Fatalf("SelectPeriod: %v", err)
	}
	if got := s.Status().PeriodName; got != "Independencia y Venezuela" {
		t.Fatalf("expected Independencia y Venezuela, got %q", got)
	}

	for i := 0; i < 3; i++ {
		res, err := s.SubmitAnswer(rightOption(t, s))
		if err != nil {
			t.Fatalf("SubmitAnswer %d: %v", i, err)
		}
		if !res.Correct {
			t.Fatalf("answer %d not correct", i)
		}
		if st.sets != 0 {
			t.Fatalf("saved before the period was complete (answer %d)", i)
		}
		if err := s.Advance(); err != nil {
			t.Fatalf("Advance %d: %v", i, err)
		}
	}

	if s.Score() != 30 {
		t.Errorf("expected score 30, got %d", s.Score())
	}
	if !s.IsPeriodComplete() || s.Phase() != PhasePeriodComplete {
		t.Fatal("expected period complete")
	}
	if st.sets != 1 {
		t.Fatalf("expected one save, got %d", st.sets)
	}
	q, err := s.CurrentQuestion()
	if err != nil || q != nil {
		t.Fatalf("expected no current question, got %v %v", q, err)
	}
	if _, err := s.SubmitAnswer("Carabobo"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState after completion, got %v", err)
	}
	if err := s.Advance(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState on advance past the end, got %v", err)
	}
}

func TestSelectPeriodResets(t *testing.T) {
	s, _ := newTestSession(t)
	fresh := func(p int) State { return State{PeriodIndex: p, QuestionIndex: 0, Lives: 3, Score: 0} }

	if err := s.SelectPeriod(1); err != nil {
		t.Fatalf("SelectPeriod: %v", err)
	}
	if s.State() != fresh(1) {
		t.Fatalf("expected fresh state, got %+v", s.State())
	}

	if _, err := s.SubmitAnswer(rightOption(t, s)); err != nil {
		t.Fatal(err)
	}
	if err := s.Advance(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SubmitAnswer(wrongOption(t, s)); err != nil {
		t.Fatal(err)
	}

	if err := s.SelectPeriod(1); err != nil {
		t.Fatalf("SelectPeriod again: %v", err)
	}
	if s.State() != fresh(1) {
		t.Fatalf("expected reset on re-select, got %+v", s.State())
	}

	for _, idx := range []int{2, -1} {
		if err := s.SelectPeriod(idx); !errors.Is(err, ErrInvalidPeriod) {
			t.Errorf("SelectPeriod(%d): expected ErrInvalidPeriod, got %v", idx, err)
		}
	}
	if s.State() != fresh(1) {
		t.Errorf("failed selection changed state: %+v", s.State())
	}
}

func TestSelectPeriodRestartsAfterTerminal(t *testing.T) {
	s, _ := newTestSession(t)
	for i := 0; i < 3; i++ {
		if _, err := s.SubmitAnswer(wrongOption(t, s)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SelectPeriod(0); err != nil {
		t.Fatal(err)
	}
	if s.Phase() != PhasePlaying {
		t.Fatalf("expected playing after re-select, got %s", s.Phase())
	}
}

func TestNewGameKeepsPeriod(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.SelectPeriod(1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SubmitAnswer(wrongOption(t, s)); err != nil {
		t.Fatal(err)
	}
	if err := s.NewGame(); err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	want := State{PeriodIndex: 1, QuestionIndex: 0, Lives: 3, Score: 0}
	if s.State() != want {
		t.Errorf("expected %+v, got %+v", want, s.State())
	}
}

func TestScoreAndLivesMonotonic(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.SelectPeriod(0); err != nil {
		t.Fatal(err)
	}
	answers := []bool{true, false, true}
	prev := s.State()
	for i, correct := range answers {
		opt := wrongOption(t, s)
		if correct {
			opt = rightOption(t, s)
		}
		if _, err := s.SubmitAnswer(opt); err != nil {
			t.Fatal(err)
		}
		cur := s.State()
		if correct {
			if cur.Score-prev.Score != Reward || cur.Lives != prev.Lives {
				t.Errorf("answer %d: expected +%d score and same lives, got %+v -> %+v", i, Reward, prev, cur)
			}
		} else {
			if prev.Lives-cur.Lives != 1 || cur.Score != prev.Score {
				t.Errorf("answer %d: expected -1 life and same score, got %+v -> %+v", i, prev, cur)
			}
		}
		if cur.Lives > InitialLives || cur.Lives < 0 || cur.Score < 0 {
			t.Errorf("answer %d: out of range %+v", i, cur)
		}
		if err := s.Advance(); err != nil {
			t.Fatal(err)
		}
		prev = s.State()
	}
}

func TestSaveErrorSurfaces(t *testing.T) {
	s, st := newTestSession(t)
	st.setErr = errors.New("disk full")
	for i := 0; i < 2; i++ {
		if _, err := s.SubmitAnswer(wrongOption(t, s)); err != nil {
			t.Fatal(err)
		}
	}
	res, err := s.SubmitAnswer(wrongOption(t, s))
	if err == nil || !errors.Is(err, st.setErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if res.Saved {
		t.Error("Saved must be false when the store failed")
	}
	if !s.IsGameOver() {
		t.Error("state should still reach game over")
	}
}

func TestResume(t *testing.T) {
	s, st := newTestSession(t)

	ok, err := s.Resume()
	if err != nil || ok {
		t.Fatalf("expected no saved game, got ok=%v err=%v", ok, err)
	}

	st.data[SaveKey] = `{"currentPeriodIndex":1,"currentQuestionIndex":2,"lives":1,"score":20}`
	ok, err = s.Resume()
	if err != nil || !ok {
		t.Fatalf("Resume: ok=%v err=%v", ok, err)
	}
	want := State{PeriodIndex: 1, QuestionIndex: 2, Lives: 1, Score: 20}
	if s.State() != want {
		t.Fatalf("expected %+v, got %+v", want, s.State())
	}
	if got := currentPrompt(t, s); got != "¿Qué figura es conocida como la Libertadora del Libertador?" {
		t.Errorf("unexpected question after resume: %q", got)
	}
}

func TestResumeBeyondLastQuestion(t *testing.T) {
	s, st := newTestSession(t)
	st.data[SaveKey] = `{"currentPeriodIndex":0,"currentQuestionIndex":9}`
	if ok, err := s.Resume(); err != nil || !ok {
		t.Fatalf("Resume: ok=%v err=%v", ok, err)
	}
	if !s.IsPeriodComplete() {
		t.Error("index beyond the end should read as complete")
	}
	q, err := s.CurrentQuestion()
	if err != nil || q != nil {
		t.Errorf("expected nil question, got %v %v", q, err)
	}
}

func TestResumeErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		getErr  error
		want    error
	}{
		{"not an object", `[1,2]`, nil, ErrDeserialization},
		{"garbage", `{{`, nil, ErrDeserialization},
		{"unknown period", `{"currentPeriodIndex":5}`, nil, ErrDeserialization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, st := newTestSession(t)
			st.data[SaveKey] = tt.payload
			if err := s.SelectPeriod(1); err != nil {
				t.Fatal(err)
			}
			before := s.State()
			ok, err := s.Resume()
			if ok || !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got ok=%v err=%v", tt.want, ok, err)
			}
			if s.State() != before {
				t.Errorf("failed resume changed state: %+v", s.State())
			}
		})
	}

	s, st := newTestSession(t)
	st.getErr = errors.New("locked")
	if _, err := s.Resume(); !errors.Is(err, st.getErr) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}

func TestSaveAndResumeRoundTrip(t *testing.T) {
	s, st := newTestSession(t)
	if err := s.SelectPeriod(1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SubmitAnswer(rightOption(t, s)); err != nil {
		t.Fatal(err)
	}
	if err := s.Advance(); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	saved := s.State()

	other := NewSession(content.Default(), st)
	if ok, err := other.Resume(); err != nil || !ok {
		t.Fatalf("Resume: ok=%v err=%v", ok, err)
	}
	if other.State() != saved {
		t.Errorf("expected %+v, got %+v", saved, other.State())
	}
}

func TestStatus(t *testing.T) {
	s, _ := newTestSession(t)
	st := s.Status()
	if st.PeriodName != "Antigüedad" || st.LevelName != "Civilizaciones Iniciales" {
		t.Errorf("unexpected names %q / %q", st.PeriodName, st.LevelName)
	}
	if st.Lives != 3 || st.Score != 0 || st.Phase != PhasePlaying {
		t.Errorf("unexpected status %+v", st)
	}
}
