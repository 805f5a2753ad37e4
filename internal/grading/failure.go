package grading

// PlaceholderName is the student name carried by failure placeholders before finalization.
const PlaceholderName = "Error"

// FailureKind classifies why a submission could not be graded.
type FailureKind string

const (
	FailureTransport FailureKind = "transport"
	FailureTimeout   FailureKind = "timeout"
	FailureParse     FailureKind = "parse"
	FailureCancelled FailureKind = "cancelled"
)

// Message is the user-facing error text for the failure kind.
func (k FailureKind) Message() string {
	switch k {
	case FailureTimeout:
		return "Grading timed out"
	case FailureParse:
		return "Failed to parse grading response"
	case FailureCancelled:
		return "Grading cancelled"
	default:
		return "Failed to grade submission"
	}
}

// Placeholder builds the error-shaped result substituted for a submission that could not be graded.
func Placeholder(kind FailureKind) GradeResult {
	return GradeResult{
		StudentName:   PlaceholderName,
		Questions:     []QuestionScore{},
		TotalScore:    0,
		TotalMaxScore: 0,
		Error:         kind.Message(),
	}
}
