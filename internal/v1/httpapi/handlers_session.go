package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleLogout unbinds the caller's token from the session map. The bearer
// token itself is not revoked (C2 has no revocation list, spec §4.2) — this
// only drops the advisory reverse-lookup cache entry a fleet would use to
// find which pod holds the player's connection (spec §4.3).
func (s *Server) handleLogout(c *gin.Context) {
	if s.sessions != nil {
		s.sessions.Unbind(c.Request.Context(), currentToken(c))
	}
	c.Status(http.StatusNoContent)
}

type lookupSessionResponse struct {
	PlayerID string `json:"playerId"`
	Found    bool   `json:"found"`
}

// handleLookupSession resolves a bearer token to the player id it is bound
// to, the fast reverse lookup the session map exists to provide (spec §4.3:
// "fast reverse lookup and revocation"). Advisory only: a miss here does not
// mean the token is invalid, only that no session map entry exists for it
// (the map may be disabled, expired, or never bound).
func (s *Server) handleLookupSession(c *gin.Context) {
	if s.sessions == nil {
		c.JSON(http.StatusOK, lookupSessionResponse{Found: false})
		return
	}
	playerID, ok := s.sessions.Lookup(c.Request.Context(), c.Param("token"))
	c.JSON(http.StatusOK, lookupSessionResponse{PlayerID: playerID, Found: ok})
}
