package judge

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/seo-optimizer/geo/content"
)

// Category is one of the five fixed scoring dimensions.
type Category string

const (
	Citation  Category = "citation"
	Semantic  Category = "semantic"
	Structure Category = "structure"
	Technical Category = "technical"
	RAG       Category = "rag"
)

// Categories lists every category in display order.
var Categories = []Category{Citation, Semantic, Structure, Technical, RAG}

// ParseCategory maps a config key to a Category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Score is an optional 0-100 score. The zero value is absent, which is
// different from a score of 0.
type Score struct {
	Value int
	Valid bool
}

// Some returns a present score.
func Some(v int) Score { return Score{Value: v, Valid: true} }

// Get returns the value and whether it is present.
func (s Score) Get() (int, bool) { return s.Value, s.Valid }

func (s Score) String() string {
	if !s.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%d/100", s.Value)
}

// MarshalJSON encodes an absent score as null.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// UnmarshalJSON accepts an integer or null.
func (s *Score) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = Score{}
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = Some(v)
	return nil
}

// Label is the qualitative band of an overall score.
type Label string

const (
	LabelUnset     Label = ""
	LabelExcellent Label = "excellent"
	LabelGood      Label = "good"
	LabelAverage   Label = "average"
	LabelLow       Label = "low"
)

// LabelFor bands a score: >=81 excellent, >=61 good, >=31 average, else low.
func LabelFor(score float64) Label {
	switch {
	case score >= 81:
		return LabelExcellent
	case score >= 61:
		return LabelGood
	case score >= 31:
		return LabelAverage
	default:
		return LabelLow
	}
}

// Describe returns a human readable sentence for the label.
func (l Label) Describe() string {
	switch l {
	case LabelExcellent:
		return "Excellent optimization for generative search"
	case LabelGood:
		return "Good optimization with room for improvement"
	case LabelAverage:
		return "Average level, needs significant improvement"
	case LabelLow:
		return "Critically low optimization"
	}
	return ""
}

// ErrorKind classifies a judge invocation that produced no text.
type ErrorKind string

const (
	KindTimeout       ErrorKind = "timeout"
	KindTransport     ErrorKind = "transport"
	KindBackend       ErrorKind = "backend"
	KindEmptyResponse ErrorKind = "empty_response"
)

// Failure describes why a judge returned nothing usable.
type Failure struct {
	Kind       ErrorKind `json:"kind"`
	StatusCode int       `json:"statusCode,omitempty"`
	Message    string    `json:"message"`
}

func (f Failure) Error() string {
	if f.Kind == KindBackend {
		return fmt.Sprintf("%s (%d): %s", f.Kind, f.StatusCode, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// RawResponse is the outcome of one backend call: text or a failure.
type RawResponse struct {
	JudgeID string        `json:"judgeId"`
	Text    string        `json:"text,omitempty"`
	Failure *Failure      `json:"failure,omitempty"`
	Latency time.Duration `json:"latency"`
}

// Verdict is the structured opinion of one judge.
type Verdict struct {
	JudgeID         string           `json:"judgeId"`
	Overall         Score            `json:"overall"`
	Categories      map[Category]int `json:"categories"`
	Recommendations []string         `json:"recommendations"`
	Narrative       string           `json:"narrative"`
	Label           Label            `json:"label,omitempty"`
	Failure         *Failure         `json:"failure,omitempty"`
}

// Failed reports whether the judge produced no text.
func (v Verdict) Failed() bool { return v.Failure != nil }

// Category returns a category score and whether it was found.
func (v Verdict) Category(c Category) (int, bool) {
	s, ok := v.Categories[c]
	return s, ok
}

// JudgeFailure pairs a judge with its failure.
type JudgeFailure struct {
	JudgeID string  `json:"judgeId"`
	Failure Failure `json:"failure"`
}

// PanelResult holds one verdict per configured persona, in persona order.
type PanelResult struct {
	Descriptor content.Descriptor `json:"descriptor"`
	Verdicts   []Verdict          `json:"verdicts"`
	Failures   []JudgeFailure     `json:"failures"`
	StartedAt  time.Time          `json:"startedAt"`
	Duration   time.Duration      `json:"duration"`
}
