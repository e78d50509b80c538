// Package httpapi exposes the Credential Store (C1), Token Service (C2),
// Room Registry (C3), Matchmaking Queue (C5), and the HTTP-reachable half of
// the Broadcast & Voice Overlay (C4, voice join/leave) as a Gin router,
// following the teacher's handler shape: bind JSON, call the core package,
// translate its apierr sentinel into an HTTP status and JSON body.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vrsocial/roomcore/internal/v1/apierr"
	"github.com/vrsocial/roomcore/internal/v1/credential"
	"github.com/vrsocial/roomcore/internal/v1/logging"
	"github.com/vrsocial/roomcore/internal/v1/matchmaking"
	"github.com/vrsocial/roomcore/internal/v1/room"
	"github.com/vrsocial/roomcore/internal/v1/sessionmap"
	"github.com/vrsocial/roomcore/internal/v1/tokensvc"
	"github.com/vrsocial/roomcore/internal/v1/wire"
)

// playerIDContextKey matches ratelimit's context key so rate limiting keys
// authenticated requests by player id once AuthRequired has run.
const playerIDContextKey = "player_id"

// tokenContextKey holds the raw bearer token for the current request, so
// handleLogout can unbind it from the session map without re-parsing the
// Authorization header.
const tokenContextKey = "bearer_token"

// RoomNotifier is the subset of the Broadcast & Voice Overlay (C4) the HTTP
// layer needs: voice enrollment, plus fanning join/leave events out to
// players already connected over the WebSocket transport. Declared here
// rather than importing the broadcast package's Sender-bound internals
// directly, mirroring the teacher's preference for small collaborator
// interfaces at package boundaries.
type RoomNotifier interface {
	JoinVoice(roomID, playerID string)
	LeaveVoice(roomID, playerID string)
	Broadcast(roomID string, msgType wire.Type, msg []byte, excludePlayerID string)
}

// Server wires the core packages into Gin handlers.
type Server struct {
	credentials *credential.Store
	tokens      *tokensvc.Issuer
	rooms       *room.Registry
	matches     *matchmaking.Queue
	notifier    RoomNotifier
	sessions    *sessionmap.Map
	defaultCap  int
}

// NewServer constructs the HTTP API server. defaultCapacity is used for
// create_room requests that don't specify one explicitly.
func NewServer(credentials *credential.Store, tokens *tokensvc.Issuer, rooms *room.Registry, matches *matchmaking.Queue, defaultCapacity int) *Server {
	return &Server{
		credentials: credentials,
		tokens:      tokens,
		rooms:       rooms,
		matches:     matches,
		defaultCap:  defaultCapacity,
	}
}

// SetRoomNotifier wires the Broadcast & Voice Overlay in after construction,
// the same constructor-then-setter pattern transport.Hub uses for its own
// overlay reference. Until it is called, join/leave notifications and voice
// enrollment are no-ops.
func (s *Server) SetRoomNotifier(notifier RoomNotifier) {
	s.notifier = notifier
}

// SetSessionMap wires the optional Redis-backed session map in after
// construction. A nil *sessionmap.Map (the default) is valid and leaves
// Bind/Lookup/Unbind as no-ops, matching single-instance deployments that
// run without Redis (spec §4.3).
func (s *Server) SetSessionMap(sessions *sessionmap.Map) {
	s.sessions = sessions
}

// Register mounts every route onto r, applying auth and middleware consistent
// with the teacher's grouping of public vs. protected endpoints.
func (s *Server) Register(r gin.IRouter, authRateLimit, globalRateLimit, roomsRateLimit gin.HandlerFunc) {
	public := r.Group("/api/v1")
	public.Use(globalRateLimit)

	auth := public.Group("/auth")
	auth.Use(authRateLimit)
	auth.POST("/signup", s.handleSignup)
	auth.POST("/login", s.handleLogin)

	protected := public.Group("")
	protected.Use(s.AuthRequired())

	protected.POST("/auth/logout", s.handleLogout)
	protected.GET("/sessions/:token", s.handleLookupSession)

	protected.GET("/profile/:playerId", s.handleGetProfile)
	protected.PUT("/profile/avatar", s.handleUpdateAvatar)
	protected.POST("/profile/friends", s.handleAddFriend)
	protected.POST("/profile/games/created", s.handleRecordCreatedGame)
	protected.POST("/profile/games/played", s.handleRecordPlayedGame)
	protected.POST("/profile/achievements", s.handleUnlockAchievement)

	rooms := protected.Group("/rooms")
	rooms.Use(roomsRateLimit)
	rooms.POST("", s.handleCreateRoom)
	rooms.POST("/:roomId/join", s.handleJoinRoom)
	rooms.POST("/:roomId/leave", s.handleLeaveRoom)
	rooms.GET("/:roomId", s.handleGetRoom)
	rooms.GET("", s.handleFindRooms)
	rooms.GET("/stats", s.handleStats)
	rooms.POST("/:roomId/voice/join", s.handleJoinVoice)
	rooms.POST("/:roomId/voice/leave", s.handleLeaveVoice)

	mm := protected.Group("/matchmaking")
	mm.POST("/:gameId/enqueue", s.handleEnqueue)
	mm.POST("/:gameId/dequeue", s.handleDequeue)
	mm.POST("/:gameId/try-match", s.handleTryMatch)
}

// AuthRequired verifies the bearer token on the request and sets the
// resulting player id in the Gin context for downstream handlers and the
// rate limiter.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			abortError(c, http.StatusUnauthorized, "missing bearer token")
			return
		}

		token := header[len(prefix):]
		playerID, err := s.tokens.Verify(token)
		if err != nil {
			abortError(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		c.Set(playerIDContextKey, playerID)
		c.Set(tokenContextKey, token)
		c.Next()
	}
}

func currentPlayerID(c *gin.Context) string {
	v, _ := c.Get(playerIDContextKey)
	id, _ := v.(string)
	return id
}

func currentToken(c *gin.Context) string {
	v, _ := c.Get(tokenContextKey)
	token, _ := v.(string)
	return token
}

func abortError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// statusFor maps an apierr sentinel to the HTTP status the teacher's
// handlers use for the equivalent class of failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apierr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apierr.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apierr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apierr.ErrRoomFull), errors.Is(err, apierr.ErrAlreadyInRoom):
		return http.StatusConflict
	case errors.Is(err, apierr.ErrTokenInvalid):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func logRequestError(c *gin.Context, msg string, err error) {
	logging.Warn(c.Request.Context(), msg, zap.Error(err), zap.String("path", c.FullPath()))
}
