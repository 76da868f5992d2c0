package handler

import (
	"github.com/ech/backend/internal/application/identity"
	"github.com/ech/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthHandler serves the session endpoints of the back office users
type AuthHandler struct {
	BaseHandler
	sessions *identity.AuthService
}

// NewAuthHandler creates the session handler
func NewAuthHandler(sessions *identity.AuthService) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// sessionUser answers 401 and returns false when the request carries no
// authenticated user
func (h *AuthHandler) sessionUser(c *gin.Context) (uuid.UUID, bool) {
	if id := currentUserID(c); id != nil {
		return *id, true
	}
	h.Unauthorized(c, "Authentication required")
	return uuid.Nil, false
}

// Login godoc
// @Summary      Open a session
// @Description  Exchanges username and password for an access and refresh token pair. Repeated failures lock the account for a while.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200 {object} dto.Response{data=identity.LoginResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in := identity.LoginInput{Username: req.Username, Password: req.Password, IP: c.ClientIP()}
	if result, err := h.sessions.Login(c.Request.Context(), in); err != nil {
		h.HandleError(c, err)
	} else {
		h.Success(c, result)
	}
}

// RefreshToken godoc
// @Summary      Renew a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshTokenRequest true "Refresh token"
// @Success      200 {object} dto.Response{data=identity.TokenResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if result, err := h.sessions.Refresh(c.Request.Context(), req.RefreshToken); err != nil {
		h.HandleError(c, err)
	} else {
		h.Success(c, result)
	}
}

// Logout godoc
// @Summary      Close the current session
// @Description  Revokes the presented access token until it would have expired.
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=MessageResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	in := identity.LogoutInput{TokenJTI: claims.ID, TTL: claims.RemainingTTL()}
	if err := h.sessions.Logout(c.Request.Context(), in); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageResponse{Message: "Session closed"})
}

// GetCurrentUser godoc
// @Summary      Profile of the session user
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=identity.UserInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	id, ok := h.sessionUser(c)
	if !ok {
		return
	}
	if user, err := h.sessions.Me(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
	} else {
		h.Success(c, user)
	}
}

// ChangePassword godoc
// @Summary      Change the session user's password
// @Description  Every token issued before the change stops being accepted.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ChangePasswordRequest true "Current and new password"
// @Success      200 {object} dto.Response{data=MessageResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	id, ok := h.sessionUser(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in := identity.ChangePasswordInput{UserID: id, OldPassword: req.OldPassword, NewPassword: req.NewPassword}
	if err := h.sessions.ChangePassword(c.Request.Context(), in); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageResponse{Message: "Password changed, sign in again"})
}
