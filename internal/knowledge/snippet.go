package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Snippet is one retrievable unit of course knowledge. ArticleID scopes a
// snippet to a single article; zero marks it as part of the course-wide pool
// shared by every article.
type Snippet struct {
	ID        uint                         `gorm:"primarykey" json:"id"`
	ArticleID uint                         `gorm:"index;default:0" json:"articleId"`
	Text      string                       `gorm:"type:text;not null" json:"text"`
	Source    string                       `gorm:"size:512" json:"source,omitempty"`
	Position  int                          `json:"position"`
	Embedding datatypes.JSONSlice[float64] `json:"-"`
	CreatedAt time.Time                    `json:"createdAt"`
}

var ErrEmptySnippet = errors.New("snippet text is empty")

// EmbedFunc converts text into a vector embedding.
type EmbedFunc func(ctx context.Context, text string) ([]float64, error)

// Retriever returns the snippets most relevant to a query, scoped to one
// article plus the course-wide pool.
type Retriever interface {
	Retrieve(ctx context.Context, query string, articleID uint, k int) ([]Snippet, error)
}

// Store persists snippets in the relational database and, when a vector
// store is configured, mirrors their embeddings into it.
type Store struct {
	db     *gorm.DB
	embed  EmbedFunc
	vector *VectorStore
}

// NewStore creates a snippet store. vector may be nil, in which case
// retrieval scans the relational pool directly.
func NewStore(db *gorm.DB, embed EmbedFunc, vector *VectorStore) *Store {
	return &Store{db: db, embed: embed, vector: vector}
}

// Add embeds and saves a snippet. Snippets that already carry an embedding
// are stored as-is.
func (s *Store) Add(ctx context.Context, snip *Snippet) error {
	snip.Text = strings.TrimSpace(snip.Text)
	if snip.Text == "" {
		return ErrEmptySnippet
	}

	if len(snip.Embedding) == 0 && s.embed != nil {
		vec, err := s.embed(ctx, snip.Text)
		if err != nil {
			return fmt.Errorf("failed to embed snippet: %w", err)
		}
		snip.Embedding = vec
	}

	if err := s.db.Create(snip).Error; err != nil {
		return fmt.Errorf("failed to store snippet: %w", err)
	}

	// The vector index is derived data; a failed mirror must not lose the
	// snippet itself.
	if s.vector != nil {
		if err := s.vector.Upsert(ctx, snip); err != nil {
			log.Printf("[Knowledge] Vector upsert failed for snippet %d: %v", snip.ID, err)
		}
	}

	return nil
}

// List returns the snippets attached to an article in insertion order.
// A zero articleID lists the whole pool, course-wide entries included.
func (s *Store) List(articleID uint) ([]Snippet, error) {
	q := s.db.Order("id ASC")
	if articleID != 0 {
		q = q.Where("article_id = ?", articleID)
	}

	var snippets []Snippet
	if err := q.Find(&snippets).Error; err != nil {
		return nil, fmt.Errorf("failed to list snippets: %w", err)
	}
	return snippets, nil
}

// pool loads the snippets eligible for retrieval against one article: its
// own snippets plus the course-wide ones.
func (s *Store) pool(articleID uint) ([]Snippet, error) {
	var snippets []Snippet
	err := s.db.Where("article_id IN ?", []uint{articleID, 0}).
		Order("id ASC").
		Find(&snippets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load snippet pool: %w", err)
	}
	return snippets, nil
}
