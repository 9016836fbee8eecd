package model

import "time"

// SaveExport is the JSON structure printed by the export command.
type SaveExport struct {
	Key                  string    `json:"key"`
	SavedAt              time.Time `json:"saved_at"`
	Catalog              string    `json:"catalog"`
	CurrentPeriodIndex   int       `json:"current_period_index"`
	CurrentQuestionIndex int       `json:"current_question_index"`
	Lives                int       `json:"lives"`
	Score                int       `json:"score"`
	PeriodName           string    `json:"period_name,omitempty"`
	LevelName            string    `json:"level_name,omitempty"`
	QuestionsInLevel     int       `json:"questions_in_level,omitempty"`
	Phase                string    `json:"phase"`
}

// CatalogInfo identifies the catalog a save slot belongs to.
type CatalogInfo struct {
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint"`
}
