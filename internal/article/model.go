package article

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"ecocritique/internal/socratic"
)

// ErrMetadataMissing flags professor setup errors. The tutor refuses to run
// against an article without the metadata the engine needs.
var ErrMetadataMissing = errors.New("article metadata missing")

// Article is one course reading. Immutable after activation except for the
// Active flag; deactivation hides it from students without breaking stored
// conversations.
type Article struct {
	ID                 uint                        `gorm:"primaryKey" json:"id"`
	Title              string                      `gorm:"size:255;not null" json:"title"`
	Author             string                      `gorm:"size:255" json:"author"`
	WeekNumber         int                         `json:"weekNumber"`
	Summary            string                      `gorm:"type:text" json:"summary"`
	Content            string                      `gorm:"type:text" json:"-"` // extracted PDF text
	SourceFile         string                      `gorm:"size:255" json:"sourceFile"`
	LearningObjectives datatypes.JSONSlice[string] `json:"learningObjectives"`
	KeyConcepts        datatypes.JSONSlice[string] `json:"keyConcepts"`
	Misconceptions     datatypes.JSONSlice[string] `json:"misconceptions"`
	DoNotReveal        datatypes.JSONSlice[string] `json:"doNotReveal,omitempty"`
	Active             bool                        `gorm:"default:true" json:"active"`
	CreatedAt          time.Time                   `json:"createdAt"`
	UpdatedAt          time.Time                   `json:"updatedAt"`
	DeletedAt          gorm.DeletedAt              `json:"-" gorm:"index"`
}

// Validate checks the fields the progression engine depends on.
func (a *Article) Validate() error {
	switch {
	case strings.TrimSpace(a.Title) == "":
		return fmt.Errorf("%w: title", ErrMetadataMissing)
	case len(a.LearningObjectives) == 0:
		return fmt.Errorf("%w: learning objectives", ErrMetadataMissing)
	case len(a.KeyConcepts) == 0:
		return fmt.Errorf("%w: key concepts", ErrMetadataMissing)
	case len(a.DoNotReveal) == 0:
		return fmt.Errorf("%w: do-not-reveal phrases", ErrMetadataMissing)
	}
	return nil
}

// Context maps the article onto the engine's view of it.
func (a *Article) Context() socratic.ArticleContext {
	return socratic.ArticleContext{
		Title:              a.Title,
		Summary:            a.Summary,
		LearningObjectives: a.LearningObjectives,
		KeyConcepts:        a.KeyConcepts,
		Misconceptions:     a.Misconceptions,
		DoNotReveal:        a.DoNotReveal,
	}
}

// Sanitized returns a copy safe to show students: the do-not-reveal phrases
// stay with the professor.
func (a Article) Sanitized() Article {
	a.DoNotReveal = nil
	return a
}
