package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"ecocritique/internal/auth"
	"ecocritique/internal/dashboard"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// DashboardSummaryHandler returns the course-wide engagement picture plus
// the live online count from Redis.
func DashboardSummaryHandler(rdb *redis.Client, agg *dashboard.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := agg.Summary(time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build summary"})
			return
		}
		online, err := auth.OnlineUserCount(rdb)
		if err != nil {
			// Redis being down should not blank the whole dashboard.
			log.Printf("[Dashboard] Online count unavailable: %v", err)
			online = 0
		}
		c.JSON(http.StatusOK, gin.H{
			"summary":   summary,
			"onlineNow": online,
		})
	}
}

func DashboardStudentsHandler(agg *dashboard.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		students, err := agg.StudentSummaries()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build student summaries"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"students": students})
	}
}

// ExportCSVHandler streams the per-student grading table as CSV.
func ExportCSVHandler(agg *dashboard.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		students, err := agg.StudentSummaries()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build student summaries"})
			return
		}
		filename := fmt.Sprintf("grades_%s.csv", time.Now().Format("2006-01-02"))
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", "attachment; filename="+filename)
		if err := dashboard.WriteStudentCSV(c.Writer, students); err != nil {
			log.Printf("[Dashboard] CSV export failed mid-stream: %v", err)
		}
	}
}

// ExportXLSXHandler streams the full grading workbook.
func ExportXLSXHandler(agg *dashboard.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		students, err := agg.StudentSummaries()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build student summaries"})
			return
		}
		interactions, err := agg.Interactions()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build interactions"})
			return
		}
		f, err := dashboard.BuildWorkbook(students, interactions)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build workbook"})
			return
		}
		filename := fmt.Sprintf("grades_%s.xlsx", time.Now().Format("2006-01-02"))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename="+filename)
		if err := f.Write(c.Writer); err != nil {
			log.Printf("[Dashboard] XLSX export failed mid-stream: %v", err)
		}
	}
}
