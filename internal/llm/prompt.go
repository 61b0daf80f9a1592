package llm

import (
	"fmt"
	"strings"
)

// TutorSystemPrompt frames the assistant as an analyst of student errors
const TutorSystemPrompt = "You are an educational assistant who diagnoses student learning patterns, misconceptions and performance gaps. " +
	"You work from graded responses, error summaries and error categories.\n\n" +
	"When answering:\n" +
	"1. Explain the errors and misconceptions you find in the data.\n" +
	"2. Suggest targeted resources or remedial strategies.\n" +
	"3. Keep explanations clear and grounded in the records provided.\n" +
	"4. Take each student's question, grade and history into account.\n\n" +
	"Be supportive and constructive. The user wants actionable insights to help students improve."

// Exchange is one prior question and answer
type Exchange struct {
	Question string
	Answer   string
}

// FormatHistory renders prior exchanges as "User:"/"Bot:" lines
func FormatHistory(history []Exchange) string {
	lines := make([]string, len(history))
	for i, h := range history {
		lines[i] = fmt.Sprintf("User: %s\nBot: %s", h.Question, h.Answer)
	}
	return strings.Join(lines, "\n")
}

// BuildQuestionPrompt combines the dataset context, chat history and question into one user message
func BuildQuestionPrompt(context, history, question string) string {
	return fmt.Sprintf("Context:\n%s\n\nChat History:\n%s\n\nQuestion: %s", context, history, question)
}
