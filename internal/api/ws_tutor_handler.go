package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"

	"ecocritique/internal/article"
	"ecocritique/internal/auth"
	"ecocritique/internal/config"
	"ecocritique/internal/tutor"
	"ecocritique/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WSTutorMessage struct {
	ArticleID uint   `json:"articleId"`
	Message   string `json:"message"`
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocket connection wrapper with mutex for thread-safe writes
type safeWSConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *safeWSConn) WriteJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *safeWSConn) ReadMessage() (int, []byte, error) {
	return s.conn.ReadMessage()
}

func (s *safeWSConn) Close() error {
	return s.conn.Close()
}

// WSTutorHandler keeps one tutoring session open over a websocket. The
// client sends {articleId, message} frames and gets the same Reply JSON the
// POST endpoint returns.
func WSTutorHandler(cfg *config.Config, svc *tutor.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing JWT"})
			return
		}
		token = strings.TrimPrefix(token, "Bearer ")
		claims, err := auth.ParseJWT(cfg.Server.JWTSecret, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid JWT"})
			return
		}
		ident := auth.Identity{
			UserID:   claims.UserID,
			Username: claims.Username,
			Role:     user.Role(claims.Role),
		}

		rawConn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("WebSocket upgrade failed:", err)
			return
		}
		conn := &safeWSConn{conn: rawConn}
		defer conn.Close()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req WSTutorMessage
			if err := json.Unmarshal(msg, &req); err != nil {
				conn.WriteJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			if strings.TrimSpace(req.Message) == "" {
				conn.WriteJSON(map[string]string{"error": "missing message"})
				continue
			}
			reply, err := svc.Respond(c.Request.Context(), ident, req.ArticleID, req.Message)
			if err != nil {
				conn.WriteJSON(map[string]string{"error": wsErrorMessage(err)})
				continue
			}
			conn.WriteJSON(reply)
		}
	}
}

func wsErrorMessage(err error) string {
	switch {
	case errors.Is(err, tutor.ErrEmptyMessage):
		return "message required"
	case errors.Is(err, article.ErrNotFound), errors.Is(err, tutor.ErrArticleUnavailable):
		return "article not available"
	default:
		return "failed to generate reply"
	}
}
