package dto

import (
	"mime/multipart"

	"github.com/noah-isme/gema-grader/internal/grading"
)

// GradeUploadRequest captures the multipart fields of a grading request.
type GradeUploadRequest struct {
	Exam                *multipart.FileHeader
	SolvedExams         []*multipart.FileHeader `validate:"max=10"`
	RubricText          string                  `validate:"max=20000"`
	SpecialInstructions string                  `validate:"max=5000"`
	Submissions         []*multipart.FileHeader `validate:"required,min=1"`
}

// GradeResponse is returned by a successful grading request.
type GradeResponse struct {
	Results   grading.Batch `json:"results"`
	ExcelFile string        `json:"excelFile"`
}
