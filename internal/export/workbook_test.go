package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/gema-grader/internal/grading"
)

func TestExportWritesOneRowPerResult(t *testing.T) {
	batch := grading.Batch{
		{
			StudentName: "Dana Cohen",
			Questions: []grading.QuestionScore{
				{QuestionID: "1", Score: 4, MaxScore: 5, Comment: "Missing units"},
				{QuestionID: "2", Score: 4, MaxScore: 5, Comment: "Good"},
			},
			TotalScore:    8,
			TotalMaxScore: 10,
		},
		{StudentName: "yoni", Questions: []grading.QuestionScore{}, Error: "Failed to grade submission"},
	}

	data, err := NewWorkbookExporter().Export(batch)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	file, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer file.Close()

	rows, err := file.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, []string{"Student Name", "Score", "Max Score", "Percentage", "Comments"}, rows[0])
	require.Equal(t, []string{"Dana Cohen", "8", "10", "80%", "Missing units; Good"}, rows[1])
	require.Equal(t, "yoni", rows[2][0])
	require.Equal(t, "0%", rows[2][3])
}

func TestPercentage(t *testing.T) {
	require.Equal(t, "67%", Percentage(2, 3))
	require.Equal(t, "100%", Percentage(10, 10))
	require.Equal(t, "0%", Percentage(5, 0))
	require.Equal(t, "120%", Percentage(12, 10))
}

func TestComments(t *testing.T) {
	require.Equal(t, "", Comments(grading.GradeResult{}))
	require.Equal(t, "a; ; b", Comments(grading.GradeResult{Questions: []grading.QuestionScore{{Comment: "a"}, {}, {Comment: "b"}}}))
}
