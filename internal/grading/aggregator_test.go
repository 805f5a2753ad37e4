package grading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFinalizeNameFallback(t *testing.T) {
	cases := []struct {
		name     string
		parsed   string
		file     string
		expected string
	}{
		{name: "empty", parsed: "", file: "dana_cohen.pdf", expected: "dana_cohen"},
		{name: "unknown", parsed: "Unknown", file: "dana_cohen.pdf", expected: "dana_cohen"},
		{name: "error", parsed: "Error", file: "scans/yoni.levi.jpg", expected: "yoni.levi"},
		{name: "whitespace", parsed: "  ", file: "noa", expected: "noa"},
		{name: "real name kept", parsed: "Maya Katz", file: "scan01.png", expected: "Maya Katz"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			batch := Batch{{StudentName: tc.parsed}}
			finalized := Finalize(batch, []Artifact{{Name: tc.file}})
			require.Equal(t, tc.expected, finalized[0].StudentName)
			require.Equal(t, tc.parsed, batch[0].StudentName)

			again := Finalize(finalized, []Artifact{{Name: tc.file}})
			require.Equal(t, finalized, again)
		})
	}
}

func TestFinalizeLabelsPlaceholders(t *testing.T) {
	batch := Batch{Placeholder(FailureTransport), {StudentName: "Maya", TotalScore: 8, TotalMaxScore: 10}}
	finalized := Finalize(batch, []Artifact{{Name: "dana_cohen.pdf"}, {Name: "maya.pdf"}})

	require.Equal(t, "dana_cohen", finalized[0].StudentName)
	require.Equal(t, FailureTransport.Message(), finalized[0].Error)
	require.Equal(t, "Maya", finalized[1].StudentName)
}

func TestSummarize(t *testing.T) {
	summary := Summarize(Batch{{TotalScore: 8, TotalMaxScore: 10}, {TotalScore: 10, TotalMaxScore: 10}})
	require.Equal(t, Summary{StudentCount: 2, AverageScore: 9}, summary)

	summary = Summarize(Batch{{TotalScore: 7}, {TotalScore: 8}})
	require.Equal(t, 8, summary.AverageScore)

	require.Equal(t, Summary{}, Summarize(nil))
}
