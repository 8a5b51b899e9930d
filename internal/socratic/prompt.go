package socratic

import (
	"fmt"
	"strings"
)

// ChatMessage is one message in the prompt sent to the completion API.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Prompt is the fully assembled input for one completion call: the system
// instruction plus recent history ending in the current student message.
type Prompt struct {
	System   string
	Messages []ChatMessage
}

// Text flattens the prompt into a single string. Used for logging and tests;
// the API adapters consume the structured form.
func (p Prompt) Text() string {
	var b strings.Builder
	b.WriteString(p.System)
	for _, m := range p.Messages {
		b.WriteString("\n")
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}

const systemPreamble = `You are a Socratic AI tutor for landscape ecology. Your role is to guide students through critical analysis of research articles using the Socratic method.

CORE PRINCIPLES:
1. NEVER provide direct answers to questions
2. Always respond with questions that lead students to discover insights themselves
3. Guide students through progressive levels of understanding
4. Challenge assumptions and encourage critical thinking
5. Connect findings to broader landscape ecology concepts`

const socraticGuidelines = `SOCRATIC GUIDELINES:
- If the student asks for an answer, redirect with "What do you think?" type questions
- Build on their responses to deepen understanding
- Use phrases like "What evidence supports that?" or "How might that connect to...?"
- Encourage them to explain their reasoning
- Point out contradictions gently through questions`

const (
	maxSummaryRunes = 500
	maxSnippetRunes = 300
)

// buildPrompt assembles the system instruction and message window for the
// decided level. Snippets may be empty; the prompt then carries template-only
// context.
func (e *Engine) buildPrompt(d Decision, in Input) Prompt {
	lt := e.templates[d.Level]

	var sys strings.Builder
	sys.WriteString(systemPreamble)
	fmt.Fprintf(&sys, "\n\nCURRENT CONVERSATION LEVEL: %s\n", d.Level)

	sys.WriteString("\nARTICLE BEING DISCUSSED: ")
	sys.WriteString(in.Article.Title)
	if summary := truncateRunes(in.Article.Summary, maxSummaryRunes); summary != "" {
		sys.WriteString("\n")
		sys.WriteString(summary)
	}
	writeList(&sys, "LEARNING OBJECTIVES", in.Article.LearningObjectives)
	writeList(&sys, "KEY CONCEPTS", in.Article.KeyConcepts)
	writeList(&sys, "COMMON MISCONCEPTIONS TO STEER AWAY FROM", in.Article.Misconceptions)

	if len(in.Snippets) > 0 {
		limit := e.params.SnippetsPerPrompt
		if limit > len(in.Snippets) {
			limit = len(in.Snippets)
		}
		sys.WriteString("\n\nRELEVANT COURSE KNOWLEDGE:")
		for _, s := range in.Snippets[:limit] {
			sys.WriteString("\n- ")
			sys.WriteString(truncateRunes(s, maxSnippetRunes))
		}
	}

	fmt.Fprintf(&sys, "\n\nLEVEL-SPECIFIC FOCUS (%s):\n%s", d.Level, lt.Guidance)
	sys.WriteString("\n\n")
	sys.WriteString(socraticGuidelines)

	if d.Redirected {
		fmt.Fprintf(&sys, "\n\nThe student just asked for the answer outright. Redirect them along these lines: %s", d.Template)
	} else {
		fmt.Fprintf(&sys, "\n\nIf the student needs a new direction, build on this question: %s", d.Template)
	}
	sys.WriteString("\n\nRespond with 1-3 questions that guide the student deeper into the topic. Keep responses conversational and encouraging.")

	return Prompt{
		System:   sys.String(),
		Messages: append(recentMessages(in.History, e.params.RecentTurns), ChatMessage{Role: "user", Content: in.Message}),
	}
}

// recentMessages maps the last max history turns onto completion API roles.
func recentMessages(history []HistoryTurn, max int) []ChatMessage {
	if len(history) > max {
		history = history[len(history)-max:]
	}
	msgs := make([]ChatMessage, 0, len(history)+1)
	for _, t := range history {
		role := "assistant"
		if t.Speaker == SpeakerStudent {
			role = "user"
		}
		msgs = append(msgs, ChatMessage{Role: role, Content: t.Text})
	}
	return msgs
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n\n")
	b.WriteString(heading)
	b.WriteString(":")
	for _, item := range items {
		b.WriteString("\n- ")
		b.WriteString(item)
	}
}

func truncateRunes(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
