package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kendall-kelly/door-production-api/events"
	"go.uber.org/zap"
)

// EventsController upgrades authenticated requests to the realtime feed.
type EventsController struct {
	hub      *events.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewEventsController accepts browser connections from allowedOrigins; an
// empty list or "*" accepts any origin.
func NewEventsController(hub *events.Hub, allowedOrigins []string, logger *zap.Logger) *EventsController {
	origins := make(map[string]bool, len(allowedOrigins))
	anyOrigin := len(allowedOrigins) == 0
	for _, o := range allowedOrigins {
		if o == "*" {
			anyOrigin = true
		}
		origins[o] = true
	}

	return &EventsController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return anyOrigin || origin == "" || origins[origin]
			},
		},
		logger: logger,
	}
}

// Connect handles GET /api/v1/ws
func (ctl *EventsController) Connect(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	conn, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already answered the client.
		ctl.logger.Warn("WebSocket upgrade failed", zap.Uint("user_id", actor.UserID), zap.Error(err))
		return
	}

	client := events.NewClient(ctl.hub, conn, actor.UserID, actor.Role)
	ctl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
