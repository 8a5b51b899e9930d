package socratic

import (
	"fmt"
)

// Level represents one of the four ordered cognitive stages a conversation
// moves through. Higher levels demand deeper engagement with the article.
type Level int

const (
	LevelComprehension Level = iota + 1 // basic understanding
	LevelAnalysis                       // deeper examination
	LevelSynthesis                      // integration with other concepts
	LevelEvaluation                     // critical assessment
)

var levelNames = map[Level]string{
	LevelComprehension: "comprehension",
	LevelAnalysis:      "analysis",
	LevelSynthesis:     "synthesis",
	LevelEvaluation:    "evaluation",
}

// Levels returns all levels in ascending order.
func Levels() []Level {
	return []Level{LevelComprehension, LevelAnalysis, LevelSynthesis, LevelEvaluation}
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Valid reports whether l is one of the four defined levels.
func (l Level) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// Next returns the following level, clamped at evaluation.
func (l Level) Next() Level {
	if l >= LevelEvaluation {
		return LevelEvaluation
	}
	return l + 1
}

// ParseLevel converts a level name back into a Level.
func ParseLevel(s string) (Level, error) {
	for l, name := range levelNames {
		if name == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown level %q", s)
}
