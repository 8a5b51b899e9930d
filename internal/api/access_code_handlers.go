package api

import (
	"net/http"

	"ecocritique/internal/auth"
	"ecocritique/internal/db"

	"github.com/gin-gonic/gin"
)

type CreateAccessCodeRequest struct {
	Note string `json:"note"`
}

// CreateAccessCodeHandler mints a weekly student access code.
func CreateAccessCodeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateAccessCodeRequest
		// Body is optional; an empty note is fine.
		_ = c.ShouldBindJSON(&req)
		code, err := auth.NewAccessCode(db.DB, req.Note)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access code"})
			return
		}
		c.JSON(http.StatusCreated, code)
	}
}

func ListAccessCodesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		codes, err := auth.ListAccessCodes(db.DB)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list access codes"})
			return
		}
		c.JSON(http.StatusOK, codes)
	}
}
