package conversation

import (
	"time"

	"gorm.io/gorm"

	"ecocritique/internal/socratic"
)

// Conversation tracks one student's Socratic dialogue about one article.
// Level and ExchangeCount are first-class columns so progression survives
// restarts and the dashboard can aggregate without replaying turns.
type Conversation struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	UserID        uint           `json:"userId" gorm:"index:idx_conv_user_article"`
	ArticleID     uint           `json:"articleId" gorm:"index:idx_conv_user_article"`
	Level         socratic.Level `json:"level" gorm:"default:1"`
	ExchangeCount int            `json:"exchangeCount" gorm:"default:0"`
	StartedAt     time.Time      `json:"startedAt"`
	LastMessageAt time.Time      `json:"lastMessageAt"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
	Turns         []Turn         `json:"-" gorm:"foreignKey:ConversationID"`
}

// Turn is one utterance in a conversation, recorded at the level the
// conversation held when it was spoken. Rows are append-only.
type Turn struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	ConversationID uint           `json:"conversationId" gorm:"index"`
	Speaker        string         `json:"speaker" gorm:"size:16"`
	Text           string         `json:"text" gorm:"type:text"`
	Level          socratic.Level `json:"level"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// AsHistory converts stored turns into the engine's history form.
func AsHistory(turns []Turn) []socratic.HistoryTurn {
	history := make([]socratic.HistoryTurn, 0, len(turns))
	for _, t := range turns {
		history = append(history, socratic.HistoryTurn{
			Speaker: t.Speaker,
			Text:    t.Text,
		})
	}
	return history
}
