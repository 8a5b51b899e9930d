package tutor

import (
	"context"
	"errors"
	"log"
	"strings"

	"gorm.io/gorm"

	"ecocritique/internal/article"
	"ecocritique/internal/auth"
	"ecocritique/internal/conversation"
	"ecocritique/internal/knowledge"
	"ecocritique/internal/llm"
	"ecocritique/internal/socratic"
)

var (
	ErrEmptyMessage       = errors.New("message is empty")
	ErrArticleUnavailable = errors.New("article is not available for discussion")
)

// Service runs the Socratic tutoring loop: it loads the student's
// conversation, asks the engine what to do with the message, generates the
// reply, and persists both turns.
type Service struct {
	db        *gorm.DB
	engine    *socratic.Engine
	retriever knowledge.Retriever
	generator llm.Generator
}

// NewService wires the tutor. The generator is expected to carry its own
// retry policy; retriever may be nil when no knowledge pool is configured.
func NewService(db *gorm.DB, engine *socratic.Engine, retriever knowledge.Retriever, generator llm.Generator) *Service {
	return &Service{
		db:        db,
		engine:    engine,
		retriever: retriever,
		generator: generator,
	}
}

// Reply is what the student gets back for one message.
type Reply struct {
	Text           string         `json:"reply"`
	Level          socratic.Level `json:"level"`
	LevelName      string         `json:"levelName"`
	Advanced       bool           `json:"advanced"`
	Redirected     bool           `json:"redirected"`
	FallbackUsed   bool           `json:"fallbackUsed"`
	ConversationID uint           `json:"conversationId"`
}

// Respond handles one student message about one article.
func (s *Service) Respond(ctx context.Context, ident auth.Identity, articleID uint, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	art, err := article.Get(s.db, articleID)
	if err != nil {
		return nil, err
	}
	if !art.Active {
		return nil, ErrArticleUnavailable
	}

	conv, err := conversation.GetOrCreate(s.db, ident.UserID, articleID)
	if err != nil {
		return nil, err
	}

	turns, err := conversation.RecentHistory(s.db, conv.ID, s.engine.Params().RecentTurns)
	if err != nil {
		return nil, err
	}

	// Retrieval failures degrade to an un-grounded prompt instead of
	// blocking the reply.
	var snippets []string
	if s.retriever != nil {
		found, err := s.retriever.Retrieve(ctx, message, articleID, s.engine.Params().SnippetsPerPrompt)
		if err != nil {
			log.Printf("[Tutor] Retrieval degraded for article %d: %v", articleID, err)
		} else {
			for _, snip := range found {
				snippets = append(snippets, snip.Text)
			}
		}
	}

	decision, err := s.engine.Decide(socratic.Input{
		Level:         conv.Level,
		ExchangeCount: conv.ExchangeCount,
		Article:       art.Context(),
		History:       conversation.AsHistory(turns),
		Message:       message,
		Snippets:      snippets,
	})
	if err != nil {
		return nil, err
	}

	// The student's turn is recorded at the level it was spoken, before any
	// advancement takes effect.
	if _, err := conversation.AppendTurn(s.db, conv, socratic.SpeakerStudent, message, conv.Level); err != nil {
		return nil, err
	}

	if decision.Advanced {
		if err := conversation.Advance(s.db, conv, decision.Level); err != nil {
			return nil, err
		}
		log.Printf("[Tutor] User %d advanced to %s on article %d", ident.UserID, decision.Level, articleID)
	} else if decision.Qualifying {
		if err := conversation.BumpExchange(s.db, conv); err != nil {
			return nil, err
		}
	}

	reply := &Reply{
		Level:          decision.Level,
		LevelName:      decision.Level.String(),
		Advanced:       decision.Advanced,
		Redirected:     decision.Redirected,
		ConversationID: conv.ID,
	}

	if decision.Redirected {
		// A redirect is the whole reply; the model never sees
		// answer-seeking messages.
		reply.Text = decision.Template
	} else {
		text, err := s.generator.Generate(ctx, decision.Prompt)
		if err != nil {
			if llm.IsConfig(err) {
				return nil, err
			}
			reply.Text = s.engine.Templates().Fallback(decision.Level)
			reply.FallbackUsed = true
			log.Printf("[Tutor] Using fallback question after LLM failure: %v", err)
		} else {
			reply.Text = text
		}
	}

	if _, err := conversation.AppendTurn(s.db, conv, socratic.SpeakerTutor, reply.Text, decision.Level); err != nil {
		return nil, err
	}

	return reply, nil
}

// Reset retires the student's conversation for an article so the next
// message starts a fresh one at the comprehension level.
func (s *Service) Reset(ident auth.Identity, articleID uint) error {
	return conversation.Reset(s.db, ident.UserID, articleID)
}

// History returns the student's active conversation and its turns.
func (s *Service) History(ident auth.Identity, articleID uint) (*conversation.Conversation, []conversation.Turn, error) {
	conv, err := conversation.Find(s.db, ident.UserID, articleID)
	if err != nil {
		return nil, nil, err
	}
	turns, err := conversation.History(s.db, conv.ID)
	if err != nil {
		return nil, nil, err
	}
	return conv, turns, nil
}
