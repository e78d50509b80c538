package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vrsocial/roomcore/internal/v1/logging"
)

type signupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token   string `json:"token"`
	Profile any    `json:"profile"`
}

func (s *Server) handleSignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	playerID, profile, err := s.credentials.Signup(req.Username, req.Email, req.Password)
	if err != nil {
		logRequestError(c, "signup failed", err)
		abortError(c, statusFor(err), err.Error())
		return
	}

	token, err := s.tokens.Issue(playerID)
	if err != nil {
		logging.Error(c.Request.Context(), "token issue failed after signup")
		abortError(c, http.StatusInternalServerError, "failed to issue token")
		return
	}
	s.bindSession(c, token, playerID)

	c.JSON(http.StatusCreated, authResponse{Token: token, Profile: profile})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	playerID, err := s.credentials.Login(req.Email, req.Password)
	if err != nil {
		abortError(c, statusFor(err), "invalid credentials")
		return
	}

	token, err := s.tokens.Issue(playerID)
	if err != nil {
		logging.Error(c.Request.Context(), "token issue failed after login")
		abortError(c, http.StatusInternalServerError, "failed to issue token")
		return
	}
	s.bindSession(c, token, playerID)

	profile, _ := s.credentials.GetProfile(playerID)
	c.JSON(http.StatusOK, authResponse{Token: token, Profile: profile})
}

// bindSession records the newly issued token in the session map, if one is
// configured, sized to the issuer's own token lifetime so the cache entry
// expires no later than the token itself.
func (s *Server) bindSession(c *gin.Context, token, playerID string) {
	if s.sessions == nil {
		return
	}
	s.sessions.Bind(c.Request.Context(), token, playerID, s.tokens.Lifetime())
}
