package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tsunagari/backend/internal/feed"
	firebaseutil "github.com/tsunagari/backend/internal/firebase"
	"github.com/tsunagari/backend/internal/live"
	"github.com/tsunagari/backend/internal/store"
)

const (
	pongWait       = 60 * time.Second
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from app origins; auth happens via token.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type StreamHandler struct {
	firebaseApp *firebase.App
	profiles    store.ProfileStore
	entries     store.EntryStore
	agg         *feed.Aggregator
	hub         *live.Hub
	logger      *zap.SugaredLogger
}

// NewStreamHandler creates a new live stream handler
func NewStreamHandler(firebaseApp *firebase.App, profiles store.ProfileStore, entries store.EntryStore, agg *feed.Aggregator, hub *live.Hub, logger *zap.SugaredLogger) *StreamHandler {
	return &StreamHandler{
		firebaseApp: firebaseApp,
		profiles:    profiles,
		entries:     entries,
		agg:         agg,
		hub:         hub,
		logger:      logger,
	}
}

// clientMessage is what a connected client may send: watch/unwatch an
// entry for live like and comment updates.
type clientMessage struct {
	Action   string `json:"action"`
	OwnerUID string `json:"ownerUid"`
	EntryID  string `json:"entryId"`
}

// Stream upgrades the connection and binds it to a live session for the
// authenticated user. The WebSocket handshake cannot carry an
// Authorization header from browsers, so the ID token rides a query
// parameter instead.
func (h *StreamHandler) Stream(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token query parameter is required"})
		return
	}

	ctx := context.Background()
	authClient, err := firebaseutil.GetAuthClient(h.firebaseApp)
	if err != nil {
		h.logger.Errorw("failed to initialize auth client", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initialize auth client"})
		return
	}
	idToken, err := authClient.VerifyIDToken(ctx, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorw("websocket upgrade failed", "uid", idToken.UID, "error", err)
		return
	}

	session := live.NewSession(idToken.UID, h.profiles, h.entries, h.agg, h.logger)
	session.Start(context.Background())

	client := h.hub.Register(conn, session)
	h.logger.Infow("live session started", "uid", idToken.UID)

	go h.readPump(client)
}

// readPump consumes client messages until the connection drops, then
// tears down the session.
func (h *StreamHandler) readPump(client *live.Client) {
	defer h.hub.Unregister(client)

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		client.Session.Touch()
		return nil
	})

	for {
		_, data, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warnw("websocket closed unexpectedly", "uid", client.Session.UID(), "error", err)
			}
			return
		}

		client.Session.Touch()

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		switch msg.Action {
		case "watch":
			if msg.OwnerUID != "" && msg.EntryID != "" {
				client.Session.Watch(msg.OwnerUID, msg.EntryID)
			}
		case "unwatch":
			if msg.OwnerUID != "" && msg.EntryID != "" {
				client.Session.Unwatch(msg.OwnerUID, msg.EntryID)
			}
		}
	}
}
