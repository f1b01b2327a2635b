package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"mahjong-score/internal/service/hub"
	"mahjong-score/internal/service/room"
	pkgAuth "mahjong-score/pkg/auth"
	appErr "mahjong-score/pkg/errors"
	"mahjong-score/pkg/logger"
	"mahjong-score/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// RoomReader loads the current room document.
type RoomReader interface {
	Get(ctx context.Context, roomID string) (*room.View, error)
}

// Subscriber hands out per-room event channels.
type Subscriber interface {
	Subscribe(roomID string) chan hub.Event
	Unsubscribe(roomID string, ch chan hub.Event)
}

type Handler struct {
	rooms RoomReader
	hub   Subscriber
}

func NewHandler(rooms RoomReader, h Subscriber) *Handler {
	return &Handler{rooms: rooms, hub: h}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// HandleRoomWS streams room documents: the current one on connect, then one
// per committed change.
func (h *Handler) HandleRoomWS(c *gin.Context) {
	roomID := strings.ToUpper(strings.TrimSpace(c.Param("id")))
	if roomID == "" {
		response.Error(c, http.StatusBadRequest, "invalid room id")
		return
	}

	token, err := getTokenFromRequest(c)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, err.Error())
		return
	}
	claims, err := pkgAuth.ParseToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "invalid token")
		return
	}

	view, err := h.rooms.Get(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, appErr.ErrRoomNotFound) {
			response.Error(c, http.StatusNotFound, "room not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to load room")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	logger.Log.Info("New WebSocket connection",
		zap.String("roomID", roomID),
		zap.String("playerID", claims.PlayerID),
	)

	cl := newClient(conn, claims.PlayerID, roomID, h)
	if ev, err := snapshotEvent(view); err == nil {
		cl.send(ev)
	}
	cl.run()
}

func getTokenFromRequest(c *gin.Context) (string, error) {
	token := strings.TrimSpace(c.Query("token"))
	if token != "" {
		return token, nil
	}
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token = strings.TrimSpace(parts[1])
			if token != "" {
				return token, nil
			}
		}
	}
	return "", errors.New("missing token")
}

func snapshotEvent(view *room.View) (hub.Event, error) {
	data, err := json.Marshal(view)
	if err != nil {
		return hub.Event{}, err
	}
	return hub.Event{Type: hub.EventRoom, RoomID: view.ID, Version: view.Version, Data: data}, nil
}

type client struct {
	conn      *websocket.Conn
	playerID  string
	roomID    string
	h         *Handler
	events    chan hub.Event
	direct    chan hub.Event
	done      chan struct{}
	pingEvery time.Duration
}

func newClient(conn *websocket.Conn, playerID, roomID string, h *Handler) *client {
	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	return &client{
		conn:      conn,
		playerID:  playerID,
		roomID:    roomID,
		h:         h,
		events:    h.hub.Subscribe(roomID),
		direct:    make(chan hub.Event, 4),
		done:      make(chan struct{}),
		pingEvery: 25 * time.Second,
	}
}

func (c *client) run() {
	go c.writePump()
	c.readPump()
}

// send queues a reply for this client only; writePump owns the connection.
func (c *client) send(ev hub.Event) {
	select {
	case c.direct <- ev:
	default:
		logger.Log.Warn("ws direct queue full", zap.String("roomID", c.roomID), zap.String("playerID", c.playerID))
	}
}

// readPump only understands "sync", which resends the current room.
func (c *client) readPump() {
	defer func() {
		close(c.done)
		c.h.hub.Unsubscribe(c.roomID, c.events)
		c.conn.Close()
	}()

	for {
		mt, message, err := c.conn.ReadMessage()
		if err != nil {
			logger.Log.Info("WS read error", zap.Error(err), zap.String("playerID", c.playerID), zap.String("roomID", c.roomID))
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		var incoming struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(message, &incoming); err != nil {
			c.sendError("invalid payload")
			continue
		}
		switch incoming.Type {
		case "sync":
			view, err := c.h.rooms.Get(context.Background(), c.roomID)
			if err != nil {
				c.sendError("failed to load room")
				continue
			}
			ev, err := snapshotEvent(view)
			if err != nil {
				c.sendError("failed to encode room")
				continue
			}
			c.send(ev)
		case "":
		default:
			c.sendError("unknown message type")
		}
	}
}

func (c *client) sendError(msg string) {
	data, _ := json.Marshal(gin.H{"message": msg})
	c.send(hub.Event{Type: hub.EventError, RoomID: c.roomID, Data: data})
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.pingEvery)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.events:
			if !ok {
				return
			}
			if err := c.write(ev); err != nil {
				return
			}
		case ev := <-c.direct:
			if err := c.write(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) write(ev hub.Event) error {
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := c.conn.WriteJSON(ev); err != nil {
		logger.Log.Info("WS write error", zap.Error(err), zap.String("playerID", c.playerID), zap.String("roomID", c.roomID))
		return err
	}
	return nil
}
