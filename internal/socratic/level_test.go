package socratic

import (
	"testing"
)

func TestLevelOrdering(t *testing.T) {
	levels := Levels()
	if len(levels) != 4 {
		t.Fatalf("expected 4 levels, got %d", len(levels))
	}
	for i := 1; i < len(levels); i++ {
		if levels[i-1] >= levels[i] {
			t.Errorf("levels out of order: %s >= %s", levels[i-1], levels[i])
		}
	}
	if LevelComprehension >= LevelEvaluation {
		t.Errorf("comprehension should order below evaluation")
	}
}

func TestLevelNextClampsAtEvaluation(t *testing.T) {
	if next := LevelComprehension.Next(); next != LevelAnalysis {
		t.Errorf("expected analysis, got %s", next)
	}
	if next := LevelEvaluation.Next(); next != LevelEvaluation {
		t.Errorf("evaluation must not advance, got %s", next)
	}
}

func TestParseLevelRoundTrip(t *testing.T) {
	for _, l := range Levels() {
		parsed, err := ParseLevel(l.String())
		if err != nil {
			t.Fatalf("ParseLevel(%q) failed: %v", l.String(), err)
		}
		if parsed != l {
			t.Errorf("round trip mismatch: %s != %s", parsed, l)
		}
	}
	if _, err := ParseLevel("transcendence"); err == nil {
		t.Errorf("expected error for unknown level name")
	}
}

func TestLevelValid(t *testing.T) {
	if Level(0).Valid() {
		t.Errorf("zero level should be invalid")
	}
	if Level(5).Valid() {
		t.Errorf("level 5 should be invalid")
	}
	if !LevelSynthesis.Valid() {
		t.Errorf("synthesis should be valid")
	}
}
