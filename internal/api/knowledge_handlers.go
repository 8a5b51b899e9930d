package api

import (
	"errors"
	"net/http"
	"strconv"

	"ecocritique/internal/knowledge"

	"github.com/gin-gonic/gin"
)

type AddSnippetRequest struct {
	ArticleID uint   `json:"articleId"`
	Text      string `json:"text"`
	Source    string `json:"source"`
}

// AddSnippetHandler stores one knowledge snippet and embeds it immediately.
// ArticleID 0 adds to the course-wide pool.
func AddSnippetHandler(kb *knowledge.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddSnippetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		snip := knowledge.Snippet{
			ArticleID: req.ArticleID,
			Text:      req.Text,
			Source:    req.Source,
		}
		if err := kb.Add(c.Request.Context(), &snip); err != nil {
			if errors.Is(err, knowledge.ErrEmptySnippet) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "snippet text required"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store snippet"})
			return
		}
		c.JSON(http.StatusCreated, snip)
	}
}

type IngestRequest struct {
	ArticleID uint   `json:"articleId"`
	URL       string `json:"url"`
}

// IngestHandler fetches a web page, extracts its readable text and stores
// the chunks as snippets for the given article.
func IngestHandler(kb *knowledge.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req IngestRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		n, err := kb.Ingest(c.Request.Context(), req.ArticleID, req.URL)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to ingest page: " + err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"ingested": n, "url": req.URL})
	}
}

// ListSnippetsHandler returns snippets, optionally scoped to one article.
func ListSnippetsHandler(kb *knowledge.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		articleID := 0
		if v := c.Query("articleId"); v != "" {
			id, err := strconv.Atoi(v)
			if err != nil || id < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
				return
			}
			articleID = id
		}
		snippets, err := kb.List(uint(articleID))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list snippets"})
			return
		}
		c.JSON(http.StatusOK, snippets)
	}
}
