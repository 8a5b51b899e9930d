package api

import (
	"ecocritique/internal/auth"
	"ecocritique/internal/config"
	"ecocritique/internal/dashboard"
	"ecocritique/internal/knowledge"
	"ecocritique/internal/tutor"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// SetupRouter wires every route under the configured subpath. Professor
// routes pass requireProfessor to the auth middleware; everything else only
// needs a valid session.
func SetupRouter(cfg *config.Config, rdb *redis.Client, svc *tutor.Service, kb *knowledge.Store, agg *dashboard.Aggregator) *gin.Engine {
	r := gin.Default()
	subpath := cfg.Server.Subpath // e.g. "/ecocritique" or empty, always starts with '/'

	group := r.Group(subpath)
	{
		group.GET("/health", healthHandler)

		// Setup: only if no users
		group.POST("/setup", SetupHandler())

		// Auth
		group.POST("/auth/login", LoginHandler(cfg, rdb))
		group.POST("/auth/student", StudentLoginHandler(cfg, rdb))
		group.POST("/auth/logout", auth.Middleware(cfg, rdb, false), LogoutHandler(rdb))
		group.GET("/auth/me", auth.Middleware(cfg, rdb, false), MeHandler())

		// Professor: weekly access codes
		group.POST("/access-codes", auth.Middleware(cfg, rdb, true), CreateAccessCodeHandler())
		group.GET("/access-codes", auth.Middleware(cfg, rdb, true), ListAccessCodesHandler())

		// Articles
		group.POST("/articles", auth.Middleware(cfg, rdb, true), UploadArticleHandler())
		group.GET("/articles", auth.Middleware(cfg, rdb, false), ListArticlesHandler())
		group.GET("/articles/:id", auth.Middleware(cfg, rdb, false), GetArticleHandler())
		group.POST("/articles/:id/deactivate", auth.Middleware(cfg, rdb, true), DeactivateArticleHandler())

		// Professor: knowledge pool
		group.POST("/knowledge", auth.Middleware(cfg, rdb, true), AddSnippetHandler(kb))
		group.POST("/knowledge/ingest", auth.Middleware(cfg, rdb, true), IngestHandler(kb))
		group.GET("/knowledge", auth.Middleware(cfg, rdb, true), ListSnippetsHandler(kb))

		// Tutor
		group.POST("/tutor/message", auth.Middleware(cfg, rdb, false), TutorMessageHandler(svc))
		group.POST("/tutor/reset", auth.Middleware(cfg, rdb, false), TutorResetHandler(svc))
		group.GET("/tutor/history", auth.Middleware(cfg, rdb, false), TutorHistoryHandler(svc))

		// --- Streaming WebSocket endpoint ---
		group.GET("/ws/tutor", WSTutorHandler(cfg, svc))

		// Professor: dashboard and grade export
		group.GET("/dashboard/summary", auth.Middleware(cfg, rdb, true), DashboardSummaryHandler(rdb, agg))
		group.GET("/dashboard/students", auth.Middleware(cfg, rdb, true), DashboardStudentsHandler(agg))
		group.GET("/dashboard/export.csv", auth.Middleware(cfg, rdb, true), ExportCSVHandler(agg))
		group.GET("/dashboard/export.xlsx", auth.Middleware(cfg, rdb, true), ExportXLSXHandler(agg))
	}
	return r
}
