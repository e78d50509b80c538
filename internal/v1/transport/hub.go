package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vrsocial/roomcore/internal/v1/broadcast"
	"github.com/vrsocial/roomcore/internal/v1/logging"
	"github.com/vrsocial/roomcore/internal/v1/metrics"
	"github.com/vrsocial/roomcore/internal/v1/room"
	"github.com/vrsocial/roomcore/internal/v1/tokensvc"
	"github.com/vrsocial/roomcore/internal/v1/wire"
)

var (
	errClientClosed    = errors.New("client connection closed")
	errSendBufferFull  = errors.New("client send buffer full")
	errPlayerConnected = errors.New("player not connected")
)

// Hub is the process-wide WebSocket transport, implementing
// broadcast.Sender against the set of currently-connected clients and
// driving each connection's handshake and message router.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*Client // player_id -> client

	rooms   *room.Registry
	overlay *broadcast.Overlay
	tokens  *tokensvc.Issuer

	allowedOrigins []string
}

// NewHub constructs a transport hub bound to the given Room Registry and
// Token Service. The Broadcast Overlay is wired in afterward via
// SetOverlay, since the overlay's Sender is the hub itself — constructing
// both at once would require one to exist before the other.
func NewHub(rooms *room.Registry, tokens *tokensvc.Issuer, allowedOrigins []string) *Hub {
	return &Hub{
		clients:        make(map[string]*Client),
		rooms:          rooms,
		tokens:         tokens,
		allowedOrigins: allowedOrigins,
	}
}

// SetOverlay wires the Broadcast & Voice Overlay the hub delivers messages
// through. Must be called once before ServeWS handles any connection.
func (h *Hub) SetOverlay(overlay *broadcast.Overlay) {
	h.overlay = overlay
}

// Send implements broadcast.Sender by looking up the connected client for
// playerID and enqueueing data on its write channel.
func (h *Hub) Send(playerID string, data []byte) error {
	h.mu.Lock()
	c, ok := h.clients[playerID]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", playerID, errPlayerConnected)
	}
	return c.trySend(data)
}

// ServeWS upgrades an HTTP request to a WebSocket connection scoped to
// roomID, then blocks the caller's goroutine running the read pump until
// the connection closes. The caller (Gin handler) is expected to invoke
// this directly; it does its own origin and upgrade handling in the
// teacher's style (see validateOrigin below).
func (h *Hub) ServeWS(c *gin.Context) {
	roomID := c.Param("roomId")

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return h.validateOrigin(r.Header.Get("Origin"))
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn(c.Request.Context(), "websocket upgrade failed", zap.Error(err))
		return
	}

	h.handleConnection(conn, roomID)
}

func (h *Hub) validateOrigin(origin string) bool {
	if origin == "" || len(h.allowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == origin || allowed == "*" {
			return true
		}
	}
	return false
}

// handleConnection runs the handshake: the first frame the client must
// send is a "connect" envelope carrying its bearer token and game id
// (spec §6). Only after that token verifies against a player already
// seated in roomID does the connection register itself and start relaying
// further messages.
func (h *Hub) handleConnection(conn wsConnection, roomID string) {
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return
	}

	env, err := wire.Decode(data)
	if err != nil || env.Type != wire.TypeConnect {
		h.writeError(conn, "first message must be connect")
		return
	}

	var payload wire.ConnectPayload
	if err := wire.DecodePayload(env, &payload); err != nil {
		h.writeError(conn, "malformed connect payload")
		return
	}

	playerID, err := h.tokens.Verify(payload.Token)
	if err != nil {
		h.writeError(conn, "invalid token")
		return
	}

	players := h.rooms.GetRoomPlayers(roomID)
	member := false
	for _, p := range players {
		if p.PlayerID == playerID {
			member = true
			break
		}
	}
	if !member {
		h.writeError(conn, "player has not joined this room")
		return
	}

	client := newClient(conn, playerID, roomID)
	h.register(client)
	defer h.unregister(client)

	h.rooms.BindConnection(playerID, conn.RemoteAddr().String())
	defer h.rooms.UnbindConnection(playerID)

	metrics.IncConnection()
	defer metrics.DecConnection()

	success, _ := wire.EncodeSuccess("connected")
	_ = client.trySend(success)

	go client.writePump()
	h.readPump(client)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.PlayerID] = c
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.PlayerID)
	h.mu.Unlock()
	c.close()
}

func (h *Hub) writeError(conn wsConnection, message string) {
	data, err := wire.EncodeError(message)
	if err != nil {
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

// readPump decodes inbound frames and routes them to C3/C4 operations
// until reading from the connection fails (a disconnect frame closes the
// connection, which ends the loop on the next read).
func (h *Hub) readPump(c *Client) {
	ctx := context.Background()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		env, err := wire.Decode(data)
		if err != nil {
			logging.Warn(ctx, "dropping malformed frame", zap.String("player_id", c.PlayerID), zap.Error(err))
			continue
		}

		h.route(ctx, c, env, data)
	}

	if _, ok := h.rooms.LeaveRoom(c.PlayerID); ok {
		h.overlay.LeaveVoice(c.RoomID, c.PlayerID)
		left, err := wire.Encode(wire.TypePlayerLeft, wire.PlayerLeftPayload{PlayerID: c.PlayerID})
		if err == nil {
			h.overlay.Broadcast(c.RoomID, wire.TypePlayerLeft, left, c.PlayerID)
		}
	}
}

func (h *Hub) route(ctx context.Context, c *Client, env wire.Envelope, raw []byte) {
	switch env.Type {
	case wire.TypePlayerUpdate:
		var p wire.PlayerUpdatePayload
		if err := wire.DecodePayload(env, &p); err != nil {
			return
		}
		if _, ok := h.rooms.UpdatePose(c.PlayerID, p.Pose); !ok {
			return
		}
		h.overlay.Broadcast(c.RoomID, wire.TypePlayerUpdate, raw, c.PlayerID)

	case wire.TypeObjectSpawned, wire.TypeObjectMoved, wire.TypeObjectDestroyed,
		wire.TypeObjectGrabbed, wire.TypeObjectReleased, wire.TypeCustomEvent:
		h.overlay.Broadcast(c.RoomID, env.Type, raw, c.PlayerID)

	case wire.TypeVoiceData:
		var p wire.VoiceDataPayload
		if err := wire.DecodePayload(env, &p); err != nil {
			return
		}
		h.overlay.BroadcastAudio(c.RoomID, c.PlayerID, p.AudioBytes)

	case wire.TypeDisconnect:
		_ = c.conn.Close()

	default:
		logging.Warn(ctx, "unhandled message type", zap.String("type", string(env.Type)), zap.String("player_id", c.PlayerID))
	}
}

// JoinVoice enrolls playerID in roomID's voice channel through the hub's
// overlay. It does not check that the player is connected. Voice join/leave
// is an explicit player action distinct from the always-on room relay
// (spec §3).
func (h *Hub) JoinVoice(roomID, playerID string) {
	h.overlay.JoinVoice(roomID, playerID)
}

// LeaveVoice removes a player from its room's voice channel.
func (h *Hub) LeaveVoice(roomID, playerID string) {
	h.overlay.LeaveVoice(roomID, playerID)
}

// ErrPlayerNotConnected reports whether err denotes an unconnected
// recipient — a benign, expected failure mode for broadcast.Sender, not an
// internal error (spec §4.4).
func ErrPlayerNotConnected(err error) bool {
	return errors.Is(err, errPlayerConnected)
}
