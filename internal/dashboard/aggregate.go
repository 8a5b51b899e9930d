package dashboard

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"gorm.io/gorm"

	"ecocritique/internal/article"
	"ecocritique/internal/conversation"
	"ecocritique/internal/socratic"
	"ecocritique/internal/user"
)

// Aggregator computes engagement reporting from conversations and turns.
// Retired (reset) conversations count: the dashboard reports everything a
// student did, not just their current dialogue.
type Aggregator struct {
	db *gorm.DB
}

func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db}
}

// Summary is the professor's at-a-glance engagement overview.
type Summary struct {
	TotalStudents      int64            `json:"totalStudents"`
	TotalConversations int64            `json:"totalConversations"`
	ActiveLastWeek     int64            `json:"activeLastWeek"`
	AvgSessionMinutes  float64          `json:"avgSessionMinutes"`
	LevelDistribution  map[string]int64 `json:"levelDistribution"`
	ExchangeStats      ExchangeStats    `json:"exchangeStats"`
}

// ExchangeStats describes how many messages students send per conversation.
type ExchangeStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
}

// StudentSummary aggregates one student's work across all articles.
type StudentSummary struct {
	StudentID       string         `json:"studentId"`
	Sessions        int            `json:"sessions"`
	TotalMinutes    float64        `json:"totalMinutes"`
	AvgMinutes      float64        `json:"avgMinutes"`
	TotalMessages   int            `json:"totalMessages"`
	AvgMessages     float64        `json:"avgMessages"`
	MaxLevel        socratic.Level `json:"maxLevel"`
	MaxLevelName    string         `json:"maxLevelName"`
	AvgLevel        float64        `json:"avgLevel"`
	EngagementScore float64        `json:"engagementScore"`
	Grade           string         `json:"grade"`
	Articles        []string       `json:"articles"`
}

// Interaction is one conversation's footprint: who, which article, how long,
// how deep.
type Interaction struct {
	ConversationID  uint           `json:"conversationId"`
	StudentID       string         `json:"studentId"`
	ArticleTitle    string         `json:"articleTitle"`
	WeekNumber      int            `json:"weekNumber"`
	StartedAt       time.Time      `json:"startedAt"`
	DurationMinutes float64        `json:"durationMinutes"`
	StudentMessages int            `json:"studentMessages"`
	Level           socratic.Level `json:"level"`
	LevelName       string         `json:"levelName"`
}

type turnAgg struct {
	ConversationID uint
	N              int64
	AvgLen         float64
}

func (a *Aggregator) studentTurnCounts() (map[uint]turnAgg, error) {
	var aggs []turnAgg
	err := a.db.Model(&conversation.Turn{}).
		Select("conversation_id, COUNT(*) as n, AVG(LENGTH(text)) as avg_len").
		Where("speaker = ?", socratic.SpeakerStudent).
		Group("conversation_id").
		Scan(&aggs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate turns: %w", err)
	}

	byConv := make(map[uint]turnAgg, len(aggs))
	for _, agg := range aggs {
		byConv[agg.ConversationID] = agg
	}
	return byConv, nil
}

func (a *Aggregator) allConversations() ([]conversation.Conversation, error) {
	var convs []conversation.Conversation
	if err := a.db.Unscoped().Order("id ASC").Find(&convs).Error; err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}
	return convs, nil
}

func (a *Aggregator) usernames() (map[uint]string, error) {
	var users []user.User
	if err := a.db.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	names := make(map[uint]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}

func (a *Aggregator) articleTitles() (map[uint]article.Article, error) {
	var articles []article.Article
	if err := a.db.Unscoped().Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("failed to load articles: %w", err)
	}
	byID := make(map[uint]article.Article, len(articles))
	for _, art := range articles {
		byID[art.ID] = art
	}
	return byID, nil
}

// Summary computes the overview as of now.
func (a *Aggregator) Summary(now time.Time) (*Summary, error) {
	s := &Summary{LevelDistribution: make(map[string]int64)}

	err := a.db.Model(&user.User{}).Where("role = ?", user.RoleStudent).Count(&s.TotalStudents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}

	convs, err := a.allConversations()
	if err != nil {
		return nil, err
	}
	s.TotalConversations = int64(len(convs))

	weekAgo := now.AddDate(0, 0, -7)
	activeUsers := make(map[uint]struct{})
	var durations []float64
	for _, conv := range convs {
		if conv.LastMessageAt.After(weekAgo) {
			activeUsers[conv.UserID] = struct{}{}
		}
		durations = append(durations, conv.LastMessageAt.Sub(conv.StartedAt).Minutes())
		s.LevelDistribution[conv.Level.String()]++
	}
	s.ActiveLastWeek = int64(len(activeUsers))
	s.AvgSessionMinutes = round1(safeStat(stats.Mean, durations))

	counts, err := a.studentTurnCounts()
	if err != nil {
		return nil, err
	}
	var messageCounts []float64
	for _, conv := range convs {
		messageCounts = append(messageCounts, float64(counts[conv.ID].N))
	}
	s.ExchangeStats = ExchangeStats{
		Mean:   round1(safeStat(stats.Mean, messageCounts)),
		Median: round1(safeStat(stats.Median, messageCounts)),
		P25:    round1(safePercentile(messageCounts, 25)),
		P75:    round1(safePercentile(messageCounts, 75)),
	}

	return s, nil
}

// StudentSummaries aggregates per student, best engagement first.
func (a *Aggregator) StudentSummaries() ([]StudentSummary, error) {
	convs, err := a.allConversations()
	if err != nil {
		return nil, err
	}
	counts, err := a.studentTurnCounts()
	if err != nil {
		return nil, err
	}
	names, err := a.usernames()
	if err != nil {
		return nil, err
	}
	articles, err := a.articleTitles()
	if err != nil {
		return nil, err
	}

	type acc struct {
		sessions int
		minutes  float64
		messages int
		maxLevel socratic.Level
		levelSum int
		articles map[string]struct{}
	}
	byUser := make(map[uint]*acc)
	var order []uint

	for _, conv := range convs {
		st, ok := byUser[conv.UserID]
		if !ok {
			st = &acc{articles: make(map[string]struct{})}
			byUser[conv.UserID] = st
			order = append(order, conv.UserID)
		}
		st.sessions++
		st.minutes += conv.LastMessageAt.Sub(conv.StartedAt).Minutes()
		st.messages += int(counts[conv.ID].N)
		st.levelSum += int(conv.Level)
		if conv.Level > st.maxLevel {
			st.maxLevel = conv.Level
		}
		if art, ok := articles[conv.ArticleID]; ok {
			st.articles[art.Title] = struct{}{}
		}
	}

	summaries := make([]StudentSummary, 0, len(byUser))
	for _, userID := range order {
		st := byUser[userID]
		avgMinutes := st.minutes / float64(st.sessions)
		avgMessages := float64(st.messages) / float64(st.sessions)
		score := engagementScore(avgMinutes, avgMessages, st.maxLevel, st.sessions)

		titles := make([]string, 0, len(st.articles))
		for title := range st.articles {
			titles = append(titles, title)
		}
		sort.Strings(titles)

		summaries = append(summaries, StudentSummary{
			StudentID:       names[userID],
			Sessions:        st.sessions,
			TotalMinutes:    round1(st.minutes),
			AvgMinutes:      round1(avgMinutes),
			TotalMessages:   st.messages,
			AvgMessages:     round1(avgMessages),
			MaxLevel:        st.maxLevel,
			MaxLevelName:    st.maxLevel.String(),
			AvgLevel:        round1(float64(st.levelSum) / float64(st.sessions)),
			EngagementScore: score,
			Grade:           gradeFor(score),
			Articles:        titles,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].EngagementScore > summaries[j].EngagementScore
	})
	return summaries, nil
}

// Interactions lists every conversation, oldest first.
func (a *Aggregator) Interactions() ([]Interaction, error) {
	convs, err := a.allConversations()
	if err != nil {
		return nil, err
	}
	counts, err := a.studentTurnCounts()
	if err != nil {
		return nil, err
	}
	names, err := a.usernames()
	if err != nil {
		return nil, err
	}
	articles, err := a.articleTitles()
	if err != nil {
		return nil, err
	}

	interactions := make([]Interaction, 0, len(convs))
	for _, conv := range convs {
		row := Interaction{
			ConversationID:  conv.ID,
			StudentID:       names[conv.UserID],
			StartedAt:       conv.StartedAt,
			DurationMinutes: round1(conv.LastMessageAt.Sub(conv.StartedAt).Minutes()),
			StudentMessages: int(counts[conv.ID].N),
			Level:           conv.Level,
			LevelName:       conv.Level.String(),
		}
		if art, ok := articles[conv.ArticleID]; ok {
			row.ArticleTitle = art.Title
			row.WeekNumber = art.WeekNumber
		}
		interactions = append(interactions, row)
	}
	return interactions, nil
}

// engagementScore blends session length, message volume, cognitive level,
// and session count into a 0-100 score. Thirty average minutes, twenty
// messages, the evaluation level, and three sessions each earn a full
// quarter of the score.
func engagementScore(avgMinutes, avgMessages float64, maxLevel socratic.Level, sessions int) float64 {
	score := avgMinutes/30*25 +
		avgMessages/20*25 +
		float64(maxLevel)/4*25 +
		float64(sessions)/3*25
	if score > 100 {
		score = 100
	}
	return round1(score)
}

// gradeFor maps an engagement score to the course letter scale.
func gradeFor(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 85:
		return "A-"
	case score >= 80:
		return "B+"
	case score >= 77:
		return "B"
	case score >= 73:
		return "B-"
	case score >= 70:
		return "C+"
	case score >= 67:
		return "C"
	case score >= 63:
		return "C-"
	case score >= 60:
		return "D+"
	case score >= 57:
		return "D"
	default:
		return "F"
	}
}

func safeStat(fn func(stats.Float64Data) (float64, error), data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	v, err := fn(data)
	if err != nil {
		return 0
	}
	return v
}

func safePercentile(data []float64, percent float64) float64 {
	if len(data) == 0 {
		return 0
	}
	v, err := stats.Percentile(data, percent)
	if err != nil {
		return 0
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
