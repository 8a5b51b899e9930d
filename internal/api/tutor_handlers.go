package api

import (
	"errors"
	"net/http"
	"strconv"

	"ecocritique/internal/article"
	"ecocritique/internal/auth"
	"ecocritique/internal/conversation"
	"ecocritique/internal/llm"
	"ecocritique/internal/socratic"
	"ecocritique/internal/tutor"

	"github.com/gin-gonic/gin"
)

type TutorMessageRequest struct {
	ArticleID uint   `json:"articleId"`
	Message   string `json:"message"`
}

// TutorMessageHandler runs one exchange with the Socratic tutor.
func TutorMessageHandler(svc *tutor.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := auth.FromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		var req TutorMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		reply, err := svc.Respond(c.Request.Context(), ident, req.ArticleID, req.Message)
		if err != nil {
			tutorError(c, err)
			return
		}
		c.JSON(http.StatusOK, reply)
	}
}

// tutorError maps service failures onto HTTP statuses. Misconfiguration is
// the professor's problem and surfaces loudly; everything the engine can
// absorb never reaches here.
func tutorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tutor.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "message required"})
	case errors.Is(err, article.ErrNotFound), errors.Is(err, tutor.ErrArticleUnavailable):
		c.JSON(http.StatusNotFound, gin.H{"error": "article not available"})
	case errors.Is(err, socratic.ErrArticleConfig), errors.Is(err, socratic.ErrContentConfig):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "article configuration error: " + err.Error()})
	case llm.IsConfig(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "tutor model unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate reply"})
	}
}

type TutorResetRequest struct {
	ArticleID uint `json:"articleId"`
}

// TutorResetHandler retires the student's conversation so the next message
// starts over at the comprehension level.
func TutorResetHandler(svc *tutor.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := auth.FromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		var req TutorResetRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.ArticleID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := svc.Reset(ident, req.ArticleID); err != nil {
			if errors.Is(err, conversation.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "no conversation to reset"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset conversation"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Conversation reset"})
	}
}

// TutorHistoryHandler returns the caller's conversation and turns for an
// article.
func TutorHistoryHandler(svc *tutor.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := auth.FromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		id, err := strconv.Atoi(c.Query("articleId"))
		if err != nil || id < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
			return
		}
		conv, turns, err := svc.History(ident, uint(id))
		if err != nil {
			if errors.Is(err, conversation.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "no conversation yet"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"conversation": conv,
			"turns":        turns,
		})
	}
}
