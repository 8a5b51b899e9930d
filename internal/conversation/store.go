package conversation

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"ecocritique/internal/socratic"
)

var (
	ErrNotFound        = errors.New("conversation not found")
	ErrLevelRegression = errors.New("conversation level cannot decrease")
)

// GetOrCreate returns the student's active conversation for an article,
// creating one at the comprehension level when none exists.
func GetOrCreate(db *gorm.DB, userID, articleID uint) (*Conversation, error) {
	var conv Conversation
	err := db.Where("user_id = ? AND article_id = ?", userID, articleID).First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	now := time.Now()
	conv = Conversation{
		UserID:        userID,
		ArticleID:     articleID,
		Level:         socratic.LevelComprehension,
		StartedAt:     now,
		LastMessageAt: now,
	}
	if err := db.Create(&conv).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &conv, nil
}

// Find returns the student's active conversation for an article without
// creating one.
func Find(db *gorm.DB, userID, articleID uint) (*Conversation, error) {
	var conv Conversation
	err := db.Where("user_id = ? AND article_id = ?", userID, articleID).First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return &conv, nil
}

// Get loads one conversation by ID.
func Get(db *gorm.DB, id uint) (*Conversation, error) {
	var conv Conversation
	if err := db.First(&conv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return &conv, nil
}

// AppendTurn records one utterance and bumps the conversation's
// last-activity time in the same transaction.
func AppendTurn(db *gorm.DB, conv *Conversation, speaker, text string, level socratic.Level) (*Turn, error) {
	turn := &Turn{
		ConversationID: conv.ID,
		Speaker:        speaker,
		Text:           text,
		Level:          level,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(turn).Error; err != nil {
			return err
		}
		now := time.Now()
		if err := tx.Model(conv).Update("last_message_at", now).Error; err != nil {
			return err
		}
		conv.LastMessageAt = now
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to append turn: %w", err)
	}
	return turn, nil
}

// History returns a conversation's turns oldest first.
func History(db *gorm.DB, conversationID uint) ([]Turn, error) {
	var turns []Turn
	err := db.Where("conversation_id = ?", conversationID).Order("id ASC").Find(&turns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return turns, nil
}

// RecentHistory returns at most max of the newest turns, oldest first.
func RecentHistory(db *gorm.DB, conversationID uint, max int) ([]Turn, error) {
	if max <= 0 {
		return []Turn{}, nil
	}

	var turns []Turn
	err := db.Where("conversation_id = ?", conversationID).
		Order("id DESC").
		Limit(max).
		Find(&turns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent turns: %w", err)
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// Advance raises a conversation's level and resets its exchange counter.
// Lowering the level is refused; advancing to the current level is a no-op.
func Advance(db *gorm.DB, conv *Conversation, to socratic.Level) error {
	if !to.Valid() || to < conv.Level {
		return ErrLevelRegression
	}
	if to == conv.Level {
		return nil
	}

	err := db.Model(conv).Updates(map[string]interface{}{
		"level":          to,
		"exchange_count": 0,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to advance conversation: %w", err)
	}
	conv.Level = to
	conv.ExchangeCount = 0
	return nil
}

// BumpExchange counts one qualifying exchange at the current level.
func BumpExchange(db *gorm.DB, conv *Conversation) error {
	err := db.Model(conv).Update("exchange_count", gorm.Expr("exchange_count + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to count exchange: %w", err)
	}
	conv.ExchangeCount++
	return nil
}

// Reset retires the student's active conversation for an article so the
// next message starts fresh at the comprehension level. The soft-deleted
// conversation and its turns stay behind for the dashboard.
func Reset(db *gorm.DB, userID, articleID uint) error {
	res := db.Where("user_id = ? AND article_id = ?", userID, articleID).Delete(&Conversation{})
	if res.Error != nil {
		return fmt.Errorf("failed to reset conversation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
