package quiz

import (
	"encoding/json"
	"fmt"
)

// State is the whole persisted session: the unit of save and load.
type State struct {
	PeriodIndex   int `json:"currentPeriodIndex"`
	QuestionIndex int `json:"currentQuestionIndex"`
	Lives         int `json:"lives"`
	Score         int `json:"score"`
}

// Serialize returns a snapshot of the session state for persistence.
func (s *Session) Serialize() State {
	return s.state
}

// Encode renders a state as the save slot record.
func Encode(st State) ([]byte, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

// Decode parses a save slot record. Every field falls back to its fresh value when
// absent or not a non-negative integer; only a payload that is not a JSON object fails.
// Fields are not checked against each other or against a catalog.
func Decode(raw []byte) (State, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrDeserialization, err)
	}
	if fields == nil {
		return State{}, fmt.Errorf("%w: null record", ErrDeserialization)
	}
	return State{
		PeriodIndex:   intField(fields, "currentPeriodIndex", 0),
		QuestionIndex: intField(fields, "currentQuestionIndex", 0),
		Lives:         intField(fields, "lives", InitialLives),
		Score:         intField(fields, "score", 0),
	}, nil
}

func intField(fields map[string]json.RawMessage, key string, def int) int {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return def
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil || n < 0 {
		return def
	}
	return n
}
