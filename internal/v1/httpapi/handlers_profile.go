package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleGetProfile(c *gin.Context) {
	profile, ok := s.credentials.GetProfile(c.Param("playerId"))
	if !ok {
		abortError(c, http.StatusNotFound, "player not found")
		return
	}
	c.JSON(http.StatusOK, profile)
}

type updateAvatarRequest struct {
	AvatarURL string `json:"avatarUrl" binding:"required"`
}

func (s *Server) handleUpdateAvatar(c *gin.Context) {
	var req updateAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if !s.credentials.UpdateAvatar(currentPlayerID(c), req.AvatarURL) {
		abortError(c, http.StatusNotFound, "player not found")
		return
	}
	c.Status(http.StatusNoContent)
}

type addFriendRequest struct {
	FriendID string `json:"friendId" binding:"required"`
}

func (s *Server) handleAddFriend(c *gin.Context) {
	var req addFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if !s.credentials.AddFriend(currentPlayerID(c), req.FriendID) {
		abortError(c, http.StatusNotFound, "player not found")
		return
	}
	c.Status(http.StatusNoContent)
}

type gameIDRequest struct {
	GameID string `json:"gameId" binding:"required"`
}

func (s *Server) handleRecordCreatedGame(c *gin.Context) {
	var req gameIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	s.credentials.RecordCreatedGame(currentPlayerID(c), req.GameID)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleRecordPlayedGame(c *gin.Context) {
	var req gameIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	s.credentials.RecordPlayedGame(currentPlayerID(c), req.GameID)
	c.Status(http.StatusNoContent)
}

type unlockAchievementRequest struct {
	AchievementID string `json:"achievementId" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
}

func (s *Server) handleUnlockAchievement(c *gin.Context) {
	var req unlockAchievementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	s.credentials.UnlockAchievement(currentPlayerID(c), req.AchievementID, req.Name, req.Description)
	c.Status(http.StatusNoContent)
}
