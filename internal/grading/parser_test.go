package grading

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const sampleResult = `{
  "studentName": "Dana Cohen",
  "questions": [
    { "questionId": "1", "score": 4, "maxScore": 5, "confidence": 97, "comment": "Minor slip." },
    { "questionId": "2", "score": 5, "maxScore": 5, "confidence": 90, "comment": "Correct." }
  ],
  "totalScore": 9,
  "totalMaxScore": 10
}`

func TestParserFencedMatchesBare(t *testing.T) {
	parser := NewParser(zerolog.Nop())

	bare, err := parser.Parse(sampleResult)
	require.NoError(t, err)

	fenced, err := parser.Parse("```json\n" + sampleResult + "\n```")
	require.NoError(t, err)
	require.Equal(t, bare, fenced)

	require.Equal(t, "Dana Cohen", bare.StudentName)
	require.Len(t, bare.Questions, 2)
	require.Equal(t, "1", bare.Questions[0].QuestionID)
	require.InDelta(t, 9.0, bare.TotalScore, 1e-9)
	require.InDelta(t, 10.0, bare.TotalMaxScore, 1e-9)
	require.Empty(t, bare.Warnings)
	require.Empty(t, bare.Error)
}

func TestParserStripsUnusualFences(t *testing.T) {
	parser := NewParser(zerolog.Nop())

	cases := map[string]string{
		"reversed":  "```\n" + sampleResult + "\n```json",
		"multiple":  "```json\n```json\n" + sampleResult + "\n```\n```",
		"uppercase": "```JSON\n" + sampleResult + "```",
		"prose":     "Here is the grading result:\n```json\n" + sampleResult + "\n```\nLet me know if you need anything else.",
		"no fences": "Sure! " + sampleResult + " Hope this helps.",
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			result, err := parser.Parse(input)
			require.NoError(t, err)
			require.Equal(t, "Dana Cohen", result.StudentName)
			require.Len(t, result.Questions, 2)
		})
	}
}

func TestParserRejectsInvalidDocuments(t *testing.T) {
	parser := NewParser(zerolog.Nop())

	cases := map[string]string{
		"malformed":      `{"studentName": "A", "questions": [`,
		"missing total":  `{"studentName": "A", "questions": [], "totalMaxScore": 10}`,
		"wrong type":     `{"studentName": 7, "questions": [], "totalScore": 1, "totalMaxScore": 10}`,
		"question shape": `{"studentName": "A", "questions": [{"questionId": "1", "score": "high", "maxScore": 5}], "totalScore": 1, "totalMaxScore": 10}`,
		"not an object":  `["studentName"]`,
		"plain sentence": `I could not read this submission.`,
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parser.Parse(input)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrMalformedOutput))
		})
	}
}

func TestParserEmptyOutput(t *testing.T) {
	parser := NewParser(zerolog.Nop())

	_, err := parser.Parse("  ```json\n```  ")
	require.ErrorIs(t, err, ErrEmptyOutput)
}

func TestParserNormalisesLooseValues(t *testing.T) {
	parser := NewParser(zerolog.Nop())

	result, err := parser.Parse(`{"studentName": null, "questions": [{"questionId": 3, "score": 2, "maxScore": 4, "confidence": 87.6}], "totalScore": 2, "totalMaxScore": 4}`)
	require.NoError(t, err)
	require.Equal(t, "", result.StudentName)
	require.Equal(t, "3", result.Questions[0].QuestionID)
	require.Equal(t, 88, result.Questions[0].Confidence)
	require.Equal(t, "", result.Questions[0].Comment)
}

func TestParserAcceptsQuotedNumbers(t *testing.T) {
	parser := NewParser(zerolog.Nop())

	result, err := parser.Parse(`{"studentName": "Noa", "questions": [{"questionId": "1", "score": "8", "maxScore": " 10 ", "confidence": "92.5"}], "totalScore": "8", "totalMaxScore": 10}`)
	require.NoError(t, err)
	require.InDelta(t, 8.0, result.Questions[0].Score, 1e-9)
	require.InDelta(t, 10.0, result.Questions[0].MaxScore, 1e-9)
	require.Equal(t, 93, result.Questions[0].Confidence)
	require.InDelta(t, 8.0, result.TotalScore, 1e-9)
	require.Empty(t, result.Warnings)
}

func TestParserFlagsAnomaliesWithoutCorrecting(t *testing.T) {
	parser := NewParser(zerolog.Nop())

	result, err := parser.Parse(`{"studentName": "Noa", "questions": [{"questionId": "1", "score": 12, "maxScore": 10, "confidence": 140, "comment": ""}], "totalScore": 12, "totalMaxScore": 10}`)
	require.NoError(t, err)
	require.InDelta(t, 12.0, result.Questions[0].Score, 1e-9)
	require.Equal(t, 140, result.Questions[0].Confidence)
	require.Len(t, result.Warnings, 3)
}

func TestParseOrPlaceholder(t *testing.T) {
	parser := NewParser(zerolog.Nop())

	result := parser.ParseOrPlaceholder("definitely not json")
	require.Equal(t, Placeholder(FailureParse), result)
	require.Equal(t, PlaceholderName, result.StudentName)
	require.Empty(t, result.Questions)
	require.NotEmpty(t, result.Error)
	require.NotEqual(t, FailureTransport.Message(), result.Error)
}
