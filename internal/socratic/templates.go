package socratic

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrTemplateConfig indicates the static template data is unusable (missing
// level, no questions, no redirect). Professor-facing setup error, never
// silently defaulted.
var ErrTemplateConfig = errors.New("template configuration invalid")

// LevelTemplates holds the question pool and supporting texts for one level.
type LevelTemplates struct {
	Questions []string `json:"questions"`
	Redirect  string   `json:"redirect"`
	Fallback  string   `json:"fallback"`
	Guidance  string   `json:"guidance"`
}

// TemplateSet maps each cognitive level to its templates. Loaded once at
// startup from static data and treated as read-only afterwards.
type TemplateSet map[Level]LevelTemplates

// LoadTemplates reads a template set from a JSON file keyed by level name.
func LoadTemplates(path string) (TemplateSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates: %w", err)
	}
	var byName map[string]LevelTemplates
	if err := json.Unmarshal(raw, &byName); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	ts := make(TemplateSet, len(byName))
	for name, lt := range byName {
		level, err := ParseLevel(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTemplateConfig, err)
		}
		ts[level] = lt
	}
	if err := ts.Validate(); err != nil {
		return nil, err
	}
	return ts, nil
}

// Validate checks that every level has at least one question, a redirect and
// a fallback reply.
func (ts TemplateSet) Validate() error {
	for _, level := range Levels() {
		lt, ok := ts[level]
		if !ok {
			return fmt.Errorf("%w: no templates for level %s", ErrTemplateConfig, level)
		}
		if len(lt.Questions) == 0 {
			return fmt.Errorf("%w: level %s has no questions", ErrTemplateConfig, level)
		}
		if lt.Redirect == "" {
			return fmt.Errorf("%w: level %s has no redirect", ErrTemplateConfig, level)
		}
		if lt.Fallback == "" {
			return fmt.Errorf("%w: level %s has no fallback reply", ErrTemplateConfig, level)
		}
	}
	return nil
}

// Fallback returns the deterministic no-LLM reply for a level. Used when the
// completion API stays unavailable after the retry.
func (ts TemplateSet) Fallback(level Level) string {
	return ts[level].Fallback
}

// DefaultTemplates returns the built-in template set. It mirrors the question
// pools the course shipped with and is used when no templates file is
// configured.
func DefaultTemplates() TemplateSet {
	return TemplateSet{
		LevelComprehension: {
			Questions: []string{
				"What is the main research question addressed in this article?",
				"Can you identify the study system or location described?",
				"What methods did the researchers use to collect their data?",
			},
			Redirect: "I notice you're looking for a direct answer. Instead, let me ask you: what do you think based on what you've read?",
			Fallback: "What was the main question the researchers were trying to answer in this study?",
			Guidance: "Focus on basic understanding: help them identify main ideas and key concepts, ask about what they observed or read, guide them to articulate the research question, and make sure they understand the study design.",
		},
		LevelAnalysis: {
			Questions: []string{
				"Why do you think the researchers chose this particular approach?",
				"What patterns do you notice in the results they present?",
				"How do the findings relate to the hypothesis they proposed?",
			},
			Redirect: "Rather than me telling you, what evidence from the article supports your thinking?",
			Fallback: "What relationships do you see between the variables they studied? What patterns emerge from their data?",
			Guidance: "Deepen their examination: ask why certain patterns exist, guide them to examine cause-and-effect relationships, help them analyze the methodology choices, and encourage interpretation of results.",
		},
		LevelSynthesis: {
			Questions: []string{
				"How does this study connect to landscape ecology principles we've discussed?",
				"What relationship do you see between this work and previous research?",
				"How might these findings apply to other landscape types?",
			},
			Redirect: "Instead of giving you the answer, let's work through this together. What patterns do you notice?",
			Fallback: "How does this finding connect to the broader principles of landscape ecology we've discussed? Can you think of similar patterns in other systems?",
			Guidance: "Connect to broader concepts: link findings to landscape ecology theory, connect to previous course material, ask about applications to other systems, and explore relationships between concepts.",
		},
		LevelEvaluation: {
			Questions: []string{
				"What assumptions are the authors making that might not be stated?",
				"How could the methodology be improved or extended?",
				"What alternative explanations might exist for these results?",
			},
			Redirect: "I'm here to guide your thinking, not provide answers. What connections are you making?",
			Fallback: "What assumptions might the researchers be making that aren't explicitly stated? How could this study be improved or extended?",
			Guidance: "Encourage critical assessment: question assumptions and limitations, explore alternative interpretations, assess the strength of evidence, and consider broader implications and future research.",
		},
	}
}
