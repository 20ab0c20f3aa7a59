// Package prompt turns syllabus context, questions and answers into chat
// messages plus a static fallback. Builders are pure: no I/O and the same
// input always gives the same output.
package prompt

import (
	"fmt"
	"strings"

	"github.com/prayash-yosa/Mindforge-new/internal/ai"
	"github.com/prayash-yosa/Mindforge-new/internal/domain"
)

const preamble = "You are a helpful educational tutor for Indian school students. " +
	"Keep responses clear, concise, age-appropriate, and encouraging. " +
	"Use simple language. Never reveal test answers directly unless asked for the Solution level."

// GradingPendingMessage is shown when an open-ended answer could not be
// graded by a model.
const GradingPendingMessage = "Grading pending — your answer has been recorded and will be evaluated."

// General fills any syllabus field that is unknown.
const General = "General"

// MaxDoubtHistory bounds how many earlier doubt messages go into a prompt.
const MaxDoubtHistory = 10

// Prompt is a ready-to-send conversation and the text to use when the
// model cannot answer.
type Prompt struct {
	Messages []ai.Message
	Fallback string
}

// Context is the curriculum position a prompt is scoped to. It never
// carries learner identity.
type Context struct {
	Class   string
	Subject string
	Chapter string
	Topic   string
}

// ContextFrom picks each field from the first syllabus that has it set,
// then falls back to General.
func ContextFrom(sources ...*domain.Syllabus) Context {
	c := Context{}
	for _, s := range sources {
		if s == nil {
			continue
		}
		c.Class = first(c.Class, s.Class)
		c.Subject = first(c.Subject, s.Subject)
		c.Chapter = first(c.Chapter, s.Chapter)
		c.Topic = first(c.Topic, s.Topic)
	}
	c.Class = first(c.Class, General)
	c.Subject = first(c.Subject, General)
	c.Chapter = first(c.Chapter, General)
	c.Topic = first(c.Topic, General)
	return c
}

func first(cur, next string) string {
	if cur != "" {
		return cur
	}
	return strings.TrimSpace(next)
}

func (c Context) path() string {
	return fmt.Sprintf("%s > %s > %s", c.Subject, c.Chapter, c.Topic)
}

// GradingInput describes an open-ended answer to grade.
type GradingInput struct {
	Context       Context
	QuestionType  domain.QuestionType
	Question      string
	Rubric        string
	StudentAnswer string
}

// Grading asks the model for a JSON verdict.
func Grading(in GradingInput) Prompt {
	var sys strings.Builder
	sys.WriteString(preamble)
	sys.WriteString("\n\n")
	fmt.Fprintf(&sys, "You are grading a %s question.\n", in.QuestionType)
	fmt.Fprintf(&sys, "Subject: %s\n", in.Context.path())
	if in.Rubric != "" {
		fmt.Fprintf(&sys, "Rubric: %s\n", in.Rubric)
	}
	sys.WriteString("\nRespond ONLY with valid JSON:\n")
	sys.WriteString(`{"isCorrect": true/false/null, "score": 0-100, "feedback": "brief explanation"}`)

	user := fmt.Sprintf("Question: %s\nStudent Answer: %s", in.Question, in.StudentAnswer)

	return Prompt{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: sys.String()},
			{Role: ai.RoleUser, Content: user},
		},
		Fallback: GradingPendingMessage,
	}
}

// FeedbackInput describes one rung of progressive guidance.
type FeedbackInput struct {
	Context          Context
	Question         string
	StudentAnswer    string
	IsCorrect        *bool
	Level            domain.FeedbackLevel
	PreviousFeedback string
}

// Feedback builds guidance for exactly one disclosure level.
func Feedback(in FeedbackInput) Prompt {
	var sys strings.Builder
	sys.WriteString(preamble)
	sys.WriteString("\n\n")
	fmt.Fprintf(&sys, "Subject: %s\n", in.Context.path())
	fmt.Fprintf(&sys, "Guidance level: %s\n", strings.ToUpper(string(in.Level)))
	fmt.Fprintf(&sys, "Instructions: %s\n", LevelInstructions(in.Level))
	fmt.Fprintf(&sys, "\nProvide guidance at the %s level ONLY. Do not exceed this level.", in.Level)

	var user strings.Builder
	fmt.Fprintf(&user, "Question: %s\n", in.Question)
	fmt.Fprintf(&user, "Student's answer: %s\n", in.StudentAnswer)
	fmt.Fprintf(&user, "Result: %s\n", verdict(in.IsCorrect))
	if in.PreviousFeedback != "" {
		fmt.Fprintf(&user, "Previous feedback: %s\n", in.PreviousFeedback)
	}

	return Prompt{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: sys.String()},
			{Role: ai.RoleUser, Content: user.String()},
		},
		Fallback: StaticFallback(in.Level, in.Context.Subject, in.Context.Topic),
	}
}

func verdict(isCorrect *bool) string {
	switch {
	case isCorrect == nil:
		return "Pending"
	case *isCorrect:
		return "Correct"
	}
	return "Incorrect"
}

// LevelInstructions tells the model how much a level may reveal.
func LevelInstructions(level domain.FeedbackLevel) string {
	switch level {
	case domain.LevelHint:
		return "Give a short, subtle hint pointing in the right direction. Do NOT reveal the answer or method."
	case domain.LevelApproach:
		return "Describe the general approach or method to solve this problem. Do NOT solve it."
	case domain.LevelConcept:
		return "Explain the underlying concept with an example. Help the student understand WHY, not just HOW."
	case domain.LevelSolution:
		return "Provide the full step-by-step solution with explanation. This is the final level of help."
	}
	return "Provide a brief helpful comment."
}

// StaticFallback is the authored text for a level when no model answers.
func StaticFallback(level domain.FeedbackLevel, subject, topic string) string {
	switch level {
	case domain.LevelHint:
		return fmt.Sprintf("Think about the key concepts in %s. Review the definitions and try again.", topic)
	case domain.LevelApproach:
		return fmt.Sprintf("For %s problems in %s, start by identifying the given information, then apply the relevant formula or method step by step.", topic, subject)
	case domain.LevelConcept:
		return fmt.Sprintf("The concept behind this %s question relates to fundamental principles in %s. Review your textbook chapter for detailed explanations and examples.", topic, subject)
	case domain.LevelSolution:
		return "A detailed solution is not available right now. Please ask your teacher for a worked-out solution to this problem."
	}
	return fmt.Sprintf("Review the topic %q in your %s textbook for more guidance.", topic, subject)
}

// DoubtInput is a student's question in a doubt thread with the thread's
// earlier messages in order.
type DoubtInput struct {
	Context Context
	History []domain.DoubtMessage
	Message string
}

// Doubt builds a conversational prompt from the most recent history.
func Doubt(in DoubtInput) Prompt {
	var sys strings.Builder
	sys.WriteString(preamble)
	sys.WriteString("\n\n")
	fmt.Fprintf(&sys, "Class: %s\n", in.Context.Class)
	fmt.Fprintf(&sys, "Subject: %s\n", in.Context.path())
	sys.WriteString("\nHelp the student understand concepts. Be patient and use examples.")

	history := in.History
	if len(history) > MaxDoubtHistory {
		history = history[len(history)-MaxDoubtHistory:]
	}

	msgs := make([]ai.Message, 0, len(history)+2)
	msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Content: sys.String()})
	for _, m := range history {
		role := ai.RoleAssistant
		if m.Role == domain.RoleStudent {
			role = ai.RoleUser
		}
		msgs = append(msgs, ai.Message{Role: role, Content: m.Content})
	}
	msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: in.Message})

	return Prompt{
		Messages: msgs,
		Fallback: DoubtFallback(in.Context),
	}
}

// DoubtFallback points the student at their textbook.
func DoubtFallback(c Context) string {
	return fmt.Sprintf("Good question about %s! I'm unable to provide an AI response right now. "+
		"Please refer to your %s textbook, Chapter: %s, or ask your teacher for help.",
		c.Topic, c.Subject, c.Chapter)
}
