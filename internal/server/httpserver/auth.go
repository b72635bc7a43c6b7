package httpserver

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/server/auth"
	"github.com/dmitrijs2005/cardkeeper/internal/server/models"
	"github.com/dmitrijs2005/cardkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Email    *string `json:"email"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type userInfo struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email"`
}

type authData struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      userInfo  `json:"user"`
}

type sessionInfo struct {
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastAccessed time.Time `json:"last_accessed"`
	Current      bool      `json:"current"`
}

type statusInfo struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

func toUserInfo(u *models.User) userInfo {
	return userInfo{ID: u.ID, Username: u.Username, Email: u.Email}
}

func toAuthData(r *services.AuthResult) authData {
	return authData{Token: r.Token, ExpiresAt: r.Session.ExpiresAt, User: toUserInfo(r.User)}
}

var errBadBody = common.BadRequest("Invalid request body")

func (s *HTTPServer) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, s.logger, errBadBody)
		return
	}

	res, err := s.deps.Users.Register(c.Request.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	respondData(c, http.StatusCreated, toAuthData(res))
}

func (s *HTTPServer) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, s.logger, errBadBody)
		return
	}

	res, err := s.deps.Users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	respondData(c, http.StatusOK, toAuthData(res))
}

func (s *HTTPServer) logout(c *gin.Context) {
	id, err := identity(c)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	if err := s.deps.Users.Logout(c.Request.Context(), id); err != nil {
		writeError(c, s.logger, err)
		return
	}
	respondMessage(c, "Logged out successfully")
}

func (s *HTTPServer) me(c *gin.Context) {
	id, err := identity(c)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	user, err := s.deps.Users.Me(c.Request.Context(), id.UserID)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	respondData(c, http.StatusOK, toUserInfo(user))
}

func (s *HTTPServer) changePassword(c *gin.Context) {
	id, err := identity(c)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, s.logger, errBadBody)
		return
	}

	if err := s.deps.Users.ChangePassword(c.Request.Context(), id.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(c, s.logger, err)
		return
	}
	respondMessage(c, "Password changed, all sessions were revoked")
}

func (s *HTTPServer) sessions(c *gin.Context) {
	id, err := identity(c)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	list, err := s.deps.Users.Sessions(c.Request.Context(), id.UserID)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}

	out := make([]sessionInfo, 0, len(list))
	for _, ss := range list {
		out = append(out, sessionInfo{
			CreatedAt:    ss.CreatedAt,
			ExpiresAt:    ss.ExpiresAt,
			LastAccessed: ss.LastAccessed,
			Current:      ss.ID == id.SessionID,
		})
	}
	respondData(c, http.StatusOK, out)
}

func (s *HTTPServer) status(c *gin.Context) {
	id, ok := auth.IdentityFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusOK, statusInfo{})
		return
	}
	c.JSON(http.StatusOK, statusInfo{Authenticated: true, Username: id.Username})
}
