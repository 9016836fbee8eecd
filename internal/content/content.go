// Package content holds the read-only quiz catalog: periods, their level and questions.
package content

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed catalogs/*.json
var catalogFS embed.FS

// DefaultCatalog is the name of the embedded catalog used when none is configured.
const DefaultCatalog = "historia"

var (
	// ErrIndex reports a period or question index outside the catalog.
	ErrIndex = errors.New("index out of range")
	// ErrInvalidCatalog reports catalog data that breaks the content rules.
	ErrInvalidCatalog = errors.New("invalid catalog")
)

// Question is a single multiple-choice question.
type Question struct {
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
	Feedback string   `json:"feedback"`
}

// Level is the question set attached to a period.
type Level struct {
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// Period is a historical era with its level.
type Period struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Level       Level  `json:"level"`
}

// PeriodSummary is what a selection view needs to list a period.
type PeriodSummary struct {
	Index       int
	Name        string
	Description string
}

// Catalog is an immutable ordered list of periods. It is safe for concurrent use.
type Catalog struct {
	periods []Period
}

// New validates periods and wraps them in a Catalog. The slice is copied.
func New(periods []Period) (*Catalog, error) {
	if err := Validate(periods); err != nil {
		return nil, err
	}
	cp := make([]Period, len(periods))
	for i, p := range periods {
		qs := make([]Question, len(p.Level.Questions))
		for j, q := range p.Level.Questions {
			q.Options = append([]string(nil), q.Options...)
			qs[j] = q
		}
		p.Level.Questions = qs
		cp[i] = p
	}
	return &Catalog{periods: cp}, nil
}

// Load decodes a JSON catalog (an array of periods) and validates it.
func Load(r io.Reader) (*Catalog, error) {
	var periods []Period
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&periods); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidCatalog, err)
	}
	return New(periods)
}

// Open resolves a catalog by embedded name (e.g. "historia", "extendida") or file path.
func Open(nameOrPath string) (*Catalog, error) {
	if nameOrPath == "" {
		nameOrPath = DefaultCatalog
	}
	if !strings.ContainsAny(nameOrPath, `/\.`) {
		data, err := catalogFS.ReadFile("catalogs/" + nameOrPath + ".json")
		if err != nil {
			return nil, fmt.Errorf("unknown catalog %q: %w", nameOrPath, err)
		}
		return Load(bytes.NewReader(data))
	}
	f, err := os.Open(nameOrPath)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the embedded default catalog. It panics if the embedded data is broken.
func Default() *Catalog {
	c, err := Open(DefaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("content: embedded catalog: %v", err))
	}
	return c
}

// Len returns the number of periods.
func (c *Catalog) Len() int {
	return len(c.periods)
}

// Period returns the period at index.
func (c *Catalog) Period(index int) (Period, error) {
	if index < 0 || index >= len(c.periods) {
		return Period{}, fmt.Errorf("%w: period %d of %d", ErrIndex, index, len(c.periods))
	}
	return c.periods[index], nil
}

// Question returns the question at (periodIndex, questionIndex). A nil question with a
// nil error means questionIndex equals the number of questions: the period is complete.
func (c *Catalog) Question(periodIndex, questionIndex int) (*Question, error) {
	p, err := c.Period(periodIndex)
	if err != nil {
		return nil, err
	}
	qs := p.Level.Questions
	if questionIndex < 0 || questionIndex > len(qs) {
		return nil, fmt.Errorf("%w: question %d of %d in period %d", ErrIndex, questionIndex, len(qs), periodIndex)
	}
	if questionIndex == len(qs) {
		return nil, nil
	}
	q := qs[questionIndex]
	q.Options = append([]string(nil), q.Options...)
	return &q, nil
}

// Periods lists name and description of every period in order.
func (c *Catalog) Periods() []PeriodSummary {
	out := make([]PeriodSummary, len(c.periods))
	for i, p := range c.periods {
		out[i] = PeriodSummary{Index: i, Name: p.Name, Description: p.Description}
	}
	return out
}

// Fingerprint returns a SHA-256 hex digest of the catalog content. Two catalogs with the
// same periods, levels and questions in the same order share a fingerprint.
func (c *Catalog) Fingerprint() string {
	data, err := json.Marshal(c.periods)
	if err != nil {
		panic(fmt.Sprintf("content: marshal catalog: %v", err))
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Validate checks the content rules for a list of periods.
func Validate(periods []Period) error {
	if len(periods) == 0 {
		return fmt.Errorf("%w: no periods", ErrInvalidCatalog)
	}
	for i, p := range periods {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: period %d has no name", ErrInvalidCatalog, i)
		}
		if len(p.Level.Questions) == 0 {
			return fmt.Errorf("%w: period %q has no questions", ErrInvalidCatalog, p.Name)
		}
		for j, q := range p.Level.Questions {
			if err := validateQuestion(q); err != nil {
				return fmt.Errorf("%w: period %q question %d: %v", ErrInvalidCatalog, p.Name, j, err)
			}
		}
	}
	return nil
}

// ValidateQuestion checks a single question against the content rules.
func ValidateQuestion(q Question) error {
	if err := validateQuestion(q); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return nil
}

func validateQuestion(q Question) error {
	if strings.TrimSpace(q.Prompt) == "" {
		return errors.New("empty prompt")
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%d options, need at least 2", len(q.Options))
	}
	seen := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		if seen[o] {
			return fmt.Errorf("duplicate option %q", o)
		}
		seen[o] = true
	}
	if !seen[q.Answer] {
		return fmt.Errorf("answer %q is not one of the options", q.Answer)
	}
	return nil
}
