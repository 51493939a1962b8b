package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"learnly/config"
	"learnly/internal/auth"
	"learnly/internal/models"
	"learnly/internal/repository"
	"learnly/internal/service"
	"learnly/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// progressTick is what the player sends over the autosave channel.
type progressTick struct {
	LessonID        uint `json:"lesson_id"`
	PositionSeconds int  `json:"position_seconds"`
	Completed       bool `json:"completed"`
}

// ProgressWS upgrades the connection for the playback autosave channel.
// The player streams position ticks; the server persists them and acks
// completion events with the recomputed course percentage. The same
// connection also receives enrollment confirmations pushed by the hub.
func ProgressWS(
	cfg *config.JWTConfig,
	hub *ws.Hub,
	courses *repository.CourseRepository,
	enrollments *repository.EnrollmentRepository,
	progress *repository.ProgressRepository,
	enrollSvc *service.EnrollmentService,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		token := c.Query("token")
		if token == "" {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"token required"}`))
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
			return
		}
		client := &ws.Client{
			UserID: claims.UserID,
			Send:   make(chan []byte, 256),
		}
		hub.Register(client)
		defer client.Close()
		go writePump(client, conn)
		readProgress(conn, client, claims.UserID, courses, enrollments, progress, enrollSvc)
	}
}

func readProgress(
	conn *websocket.Conn,
	client *ws.Client,
	userID uint,
	courses *repository.CourseRepository,
	enrollments *repository.EnrollmentRepository,
	progress *repository.ProgressRepository,
	enrollSvc *service.EnrollmentService,
) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var tick progressTick
		if err := json.Unmarshal(data, &tick); err != nil || tick.LessonID == 0 {
			continue
		}
		lesson, err := courses.GetLesson(tick.LessonID)
		if err != nil {
			continue
		}
		if _, err := enrollments.GetByUserCourse(userID, lesson.CourseID); err != nil {
			continue
		}
		p := &models.LessonProgress{
			UserID:          userID,
			LessonID:        tick.LessonID,
			CourseID:        lesson.CourseID,
			PositionSeconds: tick.PositionSeconds,
			Completed:       tick.Completed,
		}
		if err := progress.Save(p); err != nil {
			log.Printf("[WS] progress save failed user=%d lesson=%d: %v", userID, tick.LessonID, err)
			continue
		}
		if tick.Completed {
			if pct, err := enrollSvc.RecomputeProgress(userID, lesson.CourseID, progress); err == nil {
				ack, _ := json.Marshal(map[string]interface{}{
					"type":                    "progress_ack",
					"lesson_id":               tick.LessonID,
					"course_progress_percent": pct,
				})
				select {
				case client.Send <- ack:
				default:
				}
			}
		}
	}
}

// writePump copies hub pushes to the connection and keeps it alive.
func writePump(c *ws.Client, conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
