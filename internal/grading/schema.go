package grading

// outputSchemaExample is appended to every grading prompt so each grading call is self-describing.
const outputSchemaExample = `{
    "studentName": "Extracted Name",
    "questions": [
        { "questionId": "1", "score": 10, "maxScore": 10, "confidence": 100, "comment": "Perfect answer." }
    ],
    "totalScore": 10,
    "totalMaxScore": 10
}`

const gradeResultSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["studentName", "questions", "totalScore", "totalMaxScore"],
  "definitions": {
    "numeric": {
      "anyOf": [
        { "type": "number" },
        { "type": "string", "pattern": "^\\s*[-+]?([0-9]+(\\.[0-9]*)?|\\.[0-9]+)\\s*$" }
      ]
    }
  },
  "properties": {
    "studentName": { "type": ["string", "null"] },
    "questions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["questionId", "score", "maxScore"],
        "properties": {
          "questionId": { "type": ["string", "number"] },
          "score": { "$ref": "#/definitions/numeric" },
          "maxScore": { "$ref": "#/definitions/numeric" },
          "confidence": { "$ref": "#/definitions/numeric" },
          "comment": { "type": ["string", "null"] }
        }
      }
    },
    "totalScore": { "$ref": "#/definitions/numeric" },
    "totalMaxScore": { "$ref": "#/definitions/numeric" }
  }
}`
