package socratic

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrArticleConfig indicates the article is missing metadata the engine
	// needs (professor setup error, fatal to the request).
	ErrArticleConfig = errors.New("article metadata incomplete")

	// ErrContentConfig indicates every usable template for a level leaks a
	// phrase from the article's do-not-reveal list, including the redirect.
	ErrContentConfig = errors.New("all templates for level leak banned phrases")
)

// Params are the tunable knobs of the progression engine. The qualifying
// thresholds are placeholder policy, not contract; adjust per course.
type Params struct {
	AdvanceThreshold    int // qualifying exchanges per level before advancing
	SnippetsPerPrompt   int // max retrieved snippets included in a prompt
	RecentTurns         int // max history turns included in a prompt
	MinQualifyingLength int // minimum runes for a reply to qualify
	MinQualifyingWords  int // minimum words for a reply to qualify
}

// DefaultParams mirror the thresholds the course ran with.
func DefaultParams() Params {
	return Params{
		AdvanceThreshold:    3,
		SnippetsPerPrompt:   3,
		RecentTurns:         12,
		MinQualifyingLength: 40,
		MinQualifyingWords:  8,
	}
}

// ArticleContext is the engine's view of the article under discussion.
type ArticleContext struct {
	Title              string
	Summary            string
	LearningObjectives []string
	KeyConcepts        []string
	Misconceptions     []string
	DoNotReveal        []string
}

// validate checks the fields the never-give-answers rule and prompt assembly
// depend on. Missing metadata is a configuration error, never defaulted.
func (a ArticleContext) validate() error {
	switch {
	case strings.TrimSpace(a.Title) == "":
		return fmt.Errorf("%w: title", ErrArticleConfig)
	case len(a.LearningObjectives) == 0:
		return fmt.Errorf("%w: learning objectives", ErrArticleConfig)
	case len(a.KeyConcepts) == 0:
		return fmt.Errorf("%w: key concepts", ErrArticleConfig)
	case len(a.DoNotReveal) == 0:
		return fmt.Errorf("%w: do-not-reveal phrases", ErrArticleConfig)
	}
	return nil
}

// Speakers recorded on turns.
const (
	SpeakerStudent = "student"
	SpeakerTutor   = "tutor"
)

// HistoryTurn is one prior exchange as the engine sees it.
type HistoryTurn struct {
	Speaker string // SpeakerStudent or SpeakerTutor
	Text    string
}

// Input carries everything the engine needs for one decision. The engine
// itself is stateless; level and exchange counter live on the conversation.
type Input struct {
	Level         Level
	ExchangeCount int // qualifying exchanges recorded at the current level
	Article       ArticleContext
	History       []HistoryTurn
	Message       string
	Snippets      []string
}

// Decision is the engine's output for one student message. The caller owns
// persisting the counter bump or level advance it describes.
type Decision struct {
	Level      Level  // target level for the tutor reply
	Advanced   bool   // level moved up exactly one step
	Qualifying bool   // message counts toward the next advancement
	Redirected bool   // student sought the answer outright; Template is the redirect
	Template   string // selected question or redirect template
	Prompt     Prompt // fully assembled prompt for the completion API
}

// Engine decides level progression and assembles prompts. Pure computation,
// no I/O and no persistence side effects.
type Engine struct {
	templates TemplateSet
	params    Params
}

// NewEngine validates the template set and returns an engine. Zero-valued
// params fall back to the defaults.
func NewEngine(templates TemplateSet, params Params) (*Engine, error) {
	if err := templates.Validate(); err != nil {
		return nil, err
	}
	def := DefaultParams()
	if params.AdvanceThreshold < 1 {
		params.AdvanceThreshold = def.AdvanceThreshold
	}
	if params.SnippetsPerPrompt < 1 {
		params.SnippetsPerPrompt = def.SnippetsPerPrompt
	}
	if params.RecentTurns < 1 {
		params.RecentTurns = def.RecentTurns
	}
	if params.MinQualifyingLength < 1 {
		params.MinQualifyingLength = def.MinQualifyingLength
	}
	if params.MinQualifyingWords < 1 {
		params.MinQualifyingWords = def.MinQualifyingWords
	}
	return &Engine{templates: templates, params: params}, nil
}

// Params returns the engine's effective parameters.
func (e *Engine) Params() Params {
	return e.params
}

// Templates returns the engine's template set.
func (e *Engine) Templates() TemplateSet {
	return e.templates
}

// Qualifies reports whether a student message counts toward advancement:
// long enough, enough words, and not a bare non-answer.
func (e *Engine) Qualifies(msg string) bool {
	trimmed := strings.TrimSpace(msg)
	if utf8.RuneCountInString(trimmed) < e.params.MinQualifyingLength {
		return false
	}
	if len(strings.Fields(trimmed)) < e.params.MinQualifyingWords {
		return false
	}
	return !isNonAnswer(trimmed)
}

// Decide processes one student message: advancement, template selection with
// leak checking, and prompt assembly.
func (e *Engine) Decide(in Input) (Decision, error) {
	if err := in.Article.validate(); err != nil {
		return Decision{}, err
	}
	level := in.Level
	if !level.Valid() {
		level = LevelComprehension
	}

	d := Decision{Level: level}
	d.Redirected = SeeksAnswer(in.Message)
	if !d.Redirected {
		d.Qualifying = e.Qualifies(in.Message)
	}

	// Advance exactly one level when enough qualifying exchanges have
	// accumulated. The counter is per level; the caller resets it on advance.
	if d.Qualifying && level < LevelEvaluation && in.ExchangeCount+1 >= e.params.AdvanceThreshold {
		d.Level = level.Next()
		d.Advanced = true
	}

	tmpl, err := e.selectTemplate(d, in)
	if err != nil {
		return Decision{}, err
	}
	d.Template = tmpl
	d.Prompt = e.buildPrompt(d, in)
	return d, nil
}

// selectTemplate picks the template for the target level, honoring the
// never-give-answers rule. Order: preferred question (rotating through the
// pool), any non-leaking question, the level redirect, then error.
func (e *Engine) selectTemplate(d Decision, in Input) (string, error) {
	lt := e.templates[d.Level]
	banned := in.Article.DoNotReveal

	if !d.Redirected {
		idx := in.ExchangeCount
		if d.Advanced {
			idx = 0
		}
		preferred := lt.Questions[idx%len(lt.Questions)]
		if !containsBanned(preferred, banned) {
			return preferred, nil
		}
		for _, q := range lt.Questions {
			if !containsBanned(q, banned) {
				return q, nil
			}
		}
	}
	if !containsBanned(lt.Redirect, banned) {
		return lt.Redirect, nil
	}
	return "", fmt.Errorf("%w: %s", ErrContentConfig, d.Level)
}
