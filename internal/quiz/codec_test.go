package quiz

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeDefaults(t *testing.T) {
	got, err := Decode([]byte(`{}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := State{PeriodIndex: 0, QuestionIndex: 0, Lives: 3, Score: 0}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestDecodeFieldDefaults(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want State
	}{
		{"all present", `{"currentPeriodIndex":1,"currentQuestionIndex":2,"lives":1,"score":40}`,
			State{1, 2, 1, 40}},
		{"only score", `{"score":20}`, State{0, 0, 3, 20}},
		{"null lives", `{"lives":null,"score":10}`, State{0, 0, 3, 10}},
		{"zero lives kept", `{"lives":0}`, State{0, 0, 0, 0}},
		{"string field", `{"currentPeriodIndex":"1","lives":2}`, State{0, 0, 2, 0}},
		{"fractional field", `{"currentQuestionIndex":1.5}`, State{0, 0, 3, 0}},
		{"negative field", `{"score":-10,"lives":-1}`, State{0, 0, 3, 0}},
		{"extra keys ignored", `{"lives":2,"player":"ana"}`, State{0, 0, 2, 0}},
		{"index beyond period kept", `{"currentQuestionIndex":99}`, State{0, 99, 3, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, raw := range []string{``, `null`, `[]`, `42`, `"x"`, `{"lives":`} {
		t.Run(raw, func(t *testing.T) {
			if _, err := Decode([]byte(raw)); !errors.Is(err, ErrDeserialization) {
				t.Errorf("expected ErrDeserialization, got %v", err)
			}
		})
	}
}

func TestEncodeLayout(t *testing.T) {
	data, err := Encode(State{PeriodIndex: 1, QuestionIndex: 3, Lives: 2, Score: 30})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := map[string]int{"currentPeriodIndex": 1, "currentQuestionIndex": 3, "lives": 2, "score": 30}
	if len(m) != len(want) {
		t.Fatalf("expected %d keys, got %v", len(want), m)
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s: expected %d, got %d", k, v, m[k])
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for p := 0; p < 2; p++ {
		for q := 0; q <= 3; q++ {
			for lives := 0; lives <= InitialLives; lives++ {
				for _, score := range []int{0, 10, 30} {
					s := State{PeriodIndex: p, QuestionIndex: q, Lives: lives, Score: score}
					data, err := Encode(s)
					if err != nil {
						t.Fatalf("Encode(%+v): %v", s, err)
					}
					got, err := Decode(data)
					if err != nil {
						t.Fatalf("Decode(%s): %v", data, err)
					}
					if got != s {
						t.Fatalf("round trip: expected %+v, got %+v", s, got)
					}
				}
			}
		}
	}
}

func TestSerializeMatchesState(t *testing.T) {
	s, _ := newTestSession(t)
	if _, err := s.SubmitAnswer("Egipto"); err != nil {
		t.Fatal(err)
	}
	if s.Serialize() != s.State() {
		t.Errorf("Serialize %+v differs from State %+v", s.Serialize(), s.State())
	}
}
