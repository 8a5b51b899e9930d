package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"ecocritique/internal/article"
	"ecocritique/internal/auth"
	"ecocritique/internal/db"

	"github.com/gin-gonic/gin"
)

// PDF extraction is swappable so handler tests run without real PDF fixtures.
var extractPDFText = article.ExtractText

type articleMetadata struct {
	Title              string   `json:"title"`
	Author             string   `json:"author"`
	WeekNumber         int      `json:"weekNumber"`
	Summary            string   `json:"summary"`
	LearningObjectives []string `json:"learningObjectives"`
	KeyConcepts        []string `json:"keyConcepts"`
	Misconceptions     []string `json:"misconceptions"`
	DoNotReveal        []string `json:"doNotReveal"`
}

// UploadArticleHandler takes a multipart form with a "pdf" file and a
// "metadata" JSON field and stores the article with its extracted text.
func UploadArticleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("pdf")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing pdf file"})
			return
		}
		raw := c.PostForm("metadata")
		if raw == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing metadata"})
			return
		}
		var meta articleMetadata
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid metadata JSON"})
			return
		}

		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open upload"})
			return
		}
		defer f.Close()
		content, err := extractPDFText(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to extract pdf text: " + err.Error()})
			return
		}

		a := article.Article{
			Title:              meta.Title,
			Author:             meta.Author,
			WeekNumber:         meta.WeekNumber,
			Summary:            meta.Summary,
			Content:            content,
			SourceFile:         fileHeader.Filename,
			LearningObjectives: meta.LearningObjectives,
			KeyConcepts:        meta.KeyConcepts,
			Misconceptions:     meta.Misconceptions,
			DoNotReveal:        meta.DoNotReveal,
			Active:             true,
		}
		if err := article.Create(db.DB, &a); err != nil {
			if errors.Is(err, article.ErrMetadataMissing) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store article"})
			return
		}
		c.JSON(http.StatusCreated, a)
	}
}

// ListArticlesHandler shows professors everything and students only the
// active readings, with the do-not-reveal phrases stripped.
func ListArticlesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, _ := auth.FromContext(c)
		articles, err := article.List(db.DB, !ident.IsProfessor())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list articles"})
			return
		}
		if !ident.IsProfessor() {
			for i := range articles {
				articles[i] = articles[i].Sanitized()
			}
		}
		c.JSON(http.StatusOK, articles)
	}
}

func GetArticleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
			return
		}
		a, err := article.Get(db.DB, uint(id))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
			return
		}
		ident, _ := auth.FromContext(c)
		if !ident.IsProfessor() {
			if !a.Active {
				c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
				return
			}
			c.JSON(http.StatusOK, a.Sanitized())
			return
		}
		c.JSON(http.StatusOK, a)
	}
}

// DeactivateArticleHandler hides an article from students without touching
// the conversations already recorded against it.
func DeactivateArticleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
			return
		}
		if err := article.Deactivate(db.DB, uint(id)); err != nil {
			if errors.Is(err, article.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate article"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Article deactivated"})
	}
}
