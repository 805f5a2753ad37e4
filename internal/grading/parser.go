package grading

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/gema-grader/internal/observability"
)

var (
	// ErrEmptyOutput indicates the model answered with nothing but whitespace or fences.
	ErrEmptyOutput = errors.New("grading output is empty")
	// ErrMalformedOutput indicates the model output is not a valid grading document.
	ErrMalformedOutput = errors.New("grading output is not a valid result document")
)

var codeFence = regexp.MustCompile("(?i)```(?:json)?")

const gradeResultSchemaURL = "https://schemas.gema-grader.dev/grade-result.json"

// Parser turns free-text model output into a GradeResult.
type Parser struct {
	schema *jsonschema.Schema
	logger zerolog.Logger
}

// NewParser constructs a parser with the compiled grade result schema.
func NewParser(logger zerolog.Logger) *Parser {
	return &Parser{
		schema: jsonschema.MustCompileString(gradeResultSchemaURL, gradeResultSchema),
		logger: logger.With().Str("component", "response_parser").Logger(),
	}
}

// looseNumber accepts a JSON number or a string holding one.
type looseNumber float64

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		trimmed = []byte(strings.TrimSpace(text))
	}
	value, err := strconv.ParseFloat(string(trimmed), 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", data)
	}
	*n = looseNumber(value)
	return nil
}

type rawQuestion struct {
	QuestionID json.RawMessage `json:"questionId"`
	Score      looseNumber     `json:"score"`
	MaxScore   looseNumber     `json:"maxScore"`
	Confidence looseNumber     `json:"confidence"`
	Comment    *string         `json:"comment"`
}

type rawResult struct {
	StudentName   *string       `json:"studentName"`
	Questions     []rawQuestion `json:"questions"`
	TotalScore    looseNumber   `json:"totalScore"`
	TotalMaxScore looseNumber   `json:"totalMaxScore"`
}

// Parse strips code fences and surrounding prose, then decodes and validates the grading document.
func (p *Parser) Parse(text string) (GradeResult, error) {
	cleaned := StripCodeFences(text)
	if cleaned == "" {
		return GradeResult{}, ErrEmptyOutput
	}

	result, err := p.decode(cleaned)
	if err == nil {
		return result, nil
	}

	if inner, ok := outermostObject(cleaned); ok && inner != cleaned {
		if result, innerErr := p.decode(inner); innerErr == nil {
			return result, nil
		}
	}

	return GradeResult{}, err
}

// ParseOrPlaceholder never fails: undecodable output yields the parse-failure placeholder.
func (p *Parser) ParseOrPlaceholder(text string) GradeResult {
	result, err := p.Parse(text)
	if err != nil {
		p.logger.Warn().Err(err).Str("failure", string(FailureParse)).Msg("grading response rejected")
		return Placeholder(FailureParse)
	}
	return result
}

// StripCodeFences removes every Markdown code-fence marker and trims the remainder.
func StripCodeFences(text string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(text, ""))
}

func outermostObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func (p *Parser) decode(text string) (GradeResult, error) {
	decoder := json.NewDecoder(strings.NewReader(text))
	decoder.UseNumber()

	var document interface{}
	if err := decoder.Decode(&document); err != nil {
		return GradeResult{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if decoder.More() {
		return GradeResult{}, fmt.Errorf("%w: trailing content", ErrMalformedOutput)
	}
	if err := p.schema.Validate(document); err != nil {
		return GradeResult{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	var raw rawResult
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return GradeResult{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	result := GradeResult{
		Questions:     make([]QuestionScore, 0, len(raw.Questions)),
		TotalScore:    float64(raw.TotalScore),
		TotalMaxScore: float64(raw.TotalMaxScore),
	}
	if raw.StudentName != nil {
		result.StudentName = strings.TrimSpace(*raw.StudentName)
	}
	for _, q := range raw.Questions {
		question := QuestionScore{
			QuestionID: questionID(q.QuestionID),
			Score:      float64(q.Score),
			MaxScore:   float64(q.MaxScore),
			Confidence: int(math.Round(float64(q.Confidence))),
		}
		if q.Comment != nil {
			question.Comment = *q.Comment
		}
		result.Questions = append(result.Questions, question)
	}

	result.Warnings = detectAnomalies(result)
	return result, nil
}

func questionID(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var id string
		if err := json.Unmarshal(trimmed, &id); err == nil {
			return strings.TrimSpace(id)
		}
	}
	return string(trimmed)
}

// detectAnomalies flags out-of-range values without correcting them.
func detectAnomalies(result GradeResult) []string {
	var warnings []string
	flag := func(kind, message string) {
		observability.ScoreAnomalies().WithLabelValues(kind).Inc()
		warnings = append(warnings, message)
	}

	for _, q := range result.Questions {
		if q.Score > q.MaxScore {
			flag("score_exceeds_max", fmt.Sprintf("question %s: score %g exceeds max %g", q.QuestionID, q.Score, q.MaxScore))
		}
		if q.Score < 0 {
			flag("negative_score", fmt.Sprintf("question %s: negative score %g", q.QuestionID, q.Score))
		}
		if q.Confidence < 0 || q.Confidence > 100 {
			flag("confidence_out_of_range", fmt.Sprintf("question %s: confidence %d outside 0-100", q.QuestionID, q.Confidence))
		}
	}
	if result.TotalScore > result.TotalMaxScore {
		flag("total_exceeds_max", fmt.Sprintf("total score %g exceeds max %g", result.TotalScore, result.TotalMaxScore))
	}

	return warnings
}
