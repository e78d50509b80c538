package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vrsocial/roomcore/internal/v1/room"
	"github.com/vrsocial/roomcore/internal/v1/wire"
)

type createRoomRequest struct {
	GameID   string `json:"gameId" binding:"required"`
	Capacity int    `json:"capacity"`
}

type createRoomResponse struct {
	RoomID string `json:"roomId"`
}

func (s *Server) handleCreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	capacity := req.Capacity
	if capacity <= 0 {
		capacity = s.defaultCap
	}

	roomID := s.rooms.CreateRoom(req.GameID, currentPlayerID(c), capacity)
	c.JSON(http.StatusCreated, createRoomResponse{RoomID: roomID})
}

type joinRoomRequest struct {
	Username string `json:"username" binding:"required"`
}

func (s *Server) handleJoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	playerID := currentPlayerID(c)
	roomID := c.Param("roomId")
	rec := room.PlayerRecord{PlayerID: playerID, Username: req.Username}
	if err := s.rooms.JoinRoom(roomID, rec); err != nil {
		logRequestError(c, "join room failed", err)
		abortError(c, statusFor(err), err.Error())
		return
	}

	s.notifyJoined(roomID, rec)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleLeaveRoom(c *gin.Context) {
	playerID := currentPlayerID(c)
	roomID, ok := s.rooms.LeaveRoom(playerID)
	if !ok {
		abortError(c, http.StatusNotFound, "player not in a room")
		return
	}

	s.notifyLeft(roomID, playerID)
	c.Status(http.StatusNoContent)
}

// notifyJoined and notifyLeft fan PlayerJoined/PlayerLeft out to players
// already connected over the WebSocket transport (spec §4.4's message
// schema). They are no-ops until SetRoomNotifier has been called, which
// lets tests exercise the HTTP surface without standing up a transport hub.
func (s *Server) notifyJoined(roomID string, rec room.PlayerRecord) {
	if s.notifier == nil {
		return
	}
	payload, err := wire.Encode(wire.TypePlayerJoined, wire.PlayerJoinedPayload{Player: rec.ToView()})
	if err != nil {
		return
	}
	s.notifier.Broadcast(roomID, wire.TypePlayerJoined, payload, rec.PlayerID)
}

func (s *Server) notifyLeft(roomID, playerID string) {
	if s.notifier == nil {
		return
	}
	payload, err := wire.Encode(wire.TypePlayerLeft, wire.PlayerLeftPayload{PlayerID: playerID})
	if err != nil {
		return
	}
	s.notifier.Broadcast(roomID, wire.TypePlayerLeft, payload, playerID)
}

func (s *Server) handleGetRoom(c *gin.Context) {
	snapshot, ok := s.rooms.GetRoom(c.Param("roomId"))
	if !ok {
		abortError(c, http.StatusNotFound, "room not found")
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) handleFindRooms(c *gin.Context) {
	gameID := c.Query("gameId")
	if gameID == "" {
		abortError(c, http.StatusBadRequest, "gameId query parameter is required")
		return
	}
	c.JSON(http.StatusOK, s.rooms.FindRooms(gameID))
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.rooms.Stats())
}

// handleJoinVoice and handleLeaveVoice are no-ops until SetRoomNotifier has
// wired the overlay in (e.g. in tests that exercise only the HTTP surface),
// since voice membership only matters to players actually connected over
// the WebSocket transport.
func (s *Server) handleJoinVoice(c *gin.Context) {
	if s.notifier != nil {
		s.notifier.JoinVoice(c.Param("roomId"), currentPlayerID(c))
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleLeaveVoice(c *gin.Context) {
	if s.notifier != nil {
		s.notifier.LeaveVoice(c.Param("roomId"), currentPlayerID(c))
	}
	c.Status(http.StatusNoContent)
}
