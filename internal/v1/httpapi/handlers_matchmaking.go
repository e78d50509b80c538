package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleEnqueue(c *gin.Context) {
	s.matches.Enqueue(c.Param("gameId"), currentPlayerID(c))
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDequeue(c *gin.Context) {
	s.matches.Dequeue(c.Param("gameId"), currentPlayerID(c))
	c.Status(http.StatusNoContent)
}

type tryMatchRequest struct {
	CohortSize int `json:"cohortSize" binding:"required"`
}

type tryMatchResponse struct {
	Cohort []string `json:"cohort"`
	Formed bool     `json:"formed"`
}

func (s *Server) handleTryMatch(c *gin.Context) {
	var req tryMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CohortSize <= 0 {
		abortError(c, http.StatusBadRequest, "cohortSize must be a positive integer")
		return
	}

	cohort, formed := s.matches.TryMatch(c.Param("gameId"), req.CohortSize)
	c.JSON(http.StatusOK, tryMatchResponse{Cohort: cohort, Formed: formed})
}
