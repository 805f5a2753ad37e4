package grading

import (
	"strings"
)

// BuildFallback renders the deterministic grading prompt used when synthesis is unavailable.
func BuildFallback(rubricText, specialInstructions string, hasSolvedExam bool) string {
	rubricText = strings.TrimSpace(rubricText)
	specialInstructions = strings.TrimSpace(specialInstructions)

	var b strings.Builder
	b.WriteString("You are an expert academic grader with advanced handwriting recognition capabilities.\n")
	b.WriteString("Your goal is to grade a student's handwritten exam submission with extreme precision.\n\n")

	if hasSolvedExam {
		b.WriteString("IMPORTANT: SOLVED EXAM(S) provided. Use them as your primary reference for correct answers.\n")
	} else {
		b.WriteString("IMPORTANT: NO SOLVED EXAM PROVIDED. You must determine the correct answers yourself based on the content.\n")
	}

	if specialInstructions != "" {
		b.WriteString("\nUSER SPECIAL INSTRUCTIONS (OVERRIDE DEFAULT RULES):\n")
		b.WriteString(specialInstructions)
		b.WriteString("\n")
	}

	b.WriteString("\nGRADING RUBRIC & INSTRUCTIONS:\n")
	if rubricText != "" {
		b.WriteString(rubricText)
	} else {
		b.WriteString("No specific rubric provided. Use your best judgment for standard academic grading.")
	}
	b.WriteString("\n\n")

	b.WriteString("STEP-BY-STEP REASONING (Internal Monologue):\n")
	b.WriteString("1. **Scan & Transcribe**: First, carefully read the handwritten student submission. If a word is ambiguous, look at the context.\n")
	b.WriteString("2. **Locate Student Name**: Find the student's name at the top of the document. If no name is written, use \"Unknown\".\n")
	if hasSolvedExam {
		b.WriteString("3. **Determine Correct Answers**: Compare every answer against the solved exam(s).\n")
	} else {
		b.WriteString("3. **Determine Correct Answers**: Strictly derive the correct answer to every question yourself.\n")
	}
	b.WriteString("4. **Evaluate per Question**: Match each student answer to the corresponding rubric item.\n")
	b.WriteString("5. **Score & Verify**: Assign points. If you deduct points, explain why based on the rubric or solved exam.\n")
	b.WriteString("6. **Assess Confidence**:\n")
	b.WriteString("   - High Confidence (95-100): Handwriting is legible, answer is clear.\n")
	b.WriteString("   - Low Confidence (<95): Handwriting is illegible, the meaning is ambiguous, or the page is blurry.\n")
	if specialInstructions != "" {
		b.WriteString("7. **Check Special Instructions**: Ensure you followed every constraint set by the user.\n")
	}

	b.WriteString("\nOUTPUT FORMAT:\nReturn pure JSON.\n")
	b.WriteString(outputSchemaExample)
	b.WriteString("\n")

	return b.String()
}
