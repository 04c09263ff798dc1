package extract

import (
	"fmt"
	"strings"
)

const qaInstructions = `Analyze the following document and generate %d question and answer pairs.

The questions must be relevant and cover the key concepts of the document.
The answers must be accurate and based exclusively on the content of the document.

Format the output as:

Q1: [question]
A1: [answer]

Q2: [question]
A2: [answer]

Write each question and each answer on a single line.`

// BuildQAPrompt creates the prompt asking for numQuestions pairs about text.
// Only the first maxChars characters of text are included.
func BuildQAPrompt(text string, numQuestions, maxChars int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(qaInstructions, numQuestions))
	sb.WriteString("\n\nDocument:\n")
	sb.WriteString(TruncateChars(text, maxChars))
	return sb.String()
}

// TruncateChars returns the first n characters (runes) of s. n <= 0 means no limit.
func TruncateChars(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
