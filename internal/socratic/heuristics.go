package socratic

import (
	"strings"
)

// answerSeekingPhrases flag students who want the answer handed over rather
// than reasoned out.
var answerSeekingPhrases = []string{
	"what is the answer",
	"tell me the answer",
	"what should i write",
	"give me the answer",
	"what is the correct",
	"can you tell me",
}

// nonAnswers are bare replies that carry no reasoning. They never count
// toward level advancement no matter the configured length threshold.
var nonAnswers = map[string]bool{
	"idk":          true,
	"i don't know": true,
	"i dont know":  true,
	"dunno":        true,
	"yes":          true,
	"no":           true,
	"ok":           true,
	"okay":         true,
	"k":            true,
	"sure":         true,
	"maybe":        true,
	"not sure":     true,
	"huh":          true,
	"what":         true,
	"fine":         true,
}

// SeeksAnswer reports whether the student message is a direct answer request.
func SeeksAnswer(msg string) bool {
	lower := strings.ToLower(msg)
	for _, phrase := range answerSeekingPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// normalizeReply lowercases and strips surrounding punctuation so bare
// non-answers like "No." or " idk " are recognized.
func normalizeReply(msg string) string {
	s := strings.ToLower(strings.TrimSpace(msg))
	return strings.Trim(s, ".,;:!?\"'")
}

// isNonAnswer reports whether the message is one of the bare non-answers.
func isNonAnswer(msg string) bool {
	return nonAnswers[normalizeReply(msg)]
}

// containsBanned reports whether text contains any of the banned phrases,
// case-insensitively. Empty phrases are ignored.
func containsBanned(text string, banned []string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range banned {
		p := strings.ToLower(strings.TrimSpace(phrase))
		if p == "" {
			continue
		}
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
