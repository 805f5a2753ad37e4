package grading

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrNoSubmissions indicates a grading request without any student submission.
var ErrNoSubmissions = errors.New("at least one submission is required")

// Artifact is a raw document supplied with a grading request.
type Artifact struct {
	Name      string
	MediaType string
	Data      []byte
}

// BaseName returns the artifact file name without directory or extension.
func (a Artifact) BaseName() string {
	name := filepath.Base(strings.ReplaceAll(a.Name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Request groups the artifacts of one grading batch.
type Request struct {
	ExamTemplate        *Artifact
	SolvedExams         []Artifact
	RubricText          string
	SpecialInstructions string
	Submissions         []Artifact
}

// Validate checks the request-level invariants.
func (r Request) Validate() error {
	if len(r.Submissions) == 0 {
		return ErrNoSubmissions
	}
	return nil
}

// HasSolvedExams reports whether any answer-key artifact was supplied.
func (r Request) HasSolvedExams() bool {
	return len(r.SolvedExams) > 0
}

// PromptSource tags where a grading prompt came from.
type PromptSource string

const (
	PromptSynthesized PromptSource = "synthesized"
	PromptFallback    PromptSource = "fallback"
)

// Prompt is the grading instruction shared by every submission of a request.
type Prompt struct {
	Source PromptSource
	Text   string
}

// QuestionScore is the grade of a single question.
type QuestionScore struct {
	QuestionID string  `json:"questionId"`
	Score      float64 `json:"score"`
	MaxScore   float64 `json:"maxScore"`
	Confidence int     `json:"confidence"`
	Comment    string  `json:"comment"`
}

// GradeResult is the graded outcome of one submission.
type GradeResult struct {
	StudentName   string          `json:"studentName"`
	Questions     []QuestionScore `json:"questions"`
	TotalScore    float64         `json:"totalScore"`
	TotalMaxScore float64         `json:"totalMaxScore"`
	Error         string          `json:"error,omitempty"`
	Warnings      []string        `json:"warnings,omitempty"`
}

// Failed reports whether the result is a failure placeholder.
func (r GradeResult) Failed() bool {
	return r.Error != ""
}

// Batch is the ordered list of results, index-aligned with the request submissions.
type Batch []GradeResult

// Summary is the history digest of a batch.
type Summary struct {
	StudentCount int `json:"studentCount"`
	AverageScore int `json:"averageScore"`
}
