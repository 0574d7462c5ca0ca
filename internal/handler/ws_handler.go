package handler

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/ws"
)

const localTopic = "ws_topic"

type WSHandler struct {
	hub *ws.Hub
}

func NewWSHandler(hub *ws.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// TopicFor picks the single topic a listener may receive: its company for admins,
// the public catalog for everyone else.
func TopicFor(id middleware.Identity) ws.Topic {
	if id.Role == model.RoleAdmin && id.CompanyID != nil {
		return ws.CompanyTopic(*id.CompanyID)
	}
	return ws.CatalogTopic
}

// Upgrade rejects plain HTTP requests and fixes the topic before the handshake.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.SendStatus(fiber.StatusUpgradeRequired)
	}
	id, ok := middleware.GetIdentity(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}
	c.Locals(localTopic, TopicFor(id))
	return c.Next()
}

func (h *WSHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		topic, ok := conn.Locals(localTopic).(ws.Topic)
		if !ok {
			return
		}
		h.hub.Serve(conn, topic)
	})
}
