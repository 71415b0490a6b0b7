// Package http exposes the account API over gin: signup, login, profile and
// refresh, plus the Prometheus scrape endpoint.
package http

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

type UserService interface {
	Signup(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	Profile(ctx context.Context, userID int64) (*models.PublicUser, error)
}

type RotationService interface {
	Refresh(ctx context.Context, token auth.RefreshToken) (*services.TokenPair, error)
}

type Handler struct {
	users    UserService
	rotation RotationService
	authn    *auth.Authenticator
	log      logging.Logger
}

func NewHandler(us UserService, rs RotationService, authn *auth.Authenticator, l logging.Logger) *Handler {
	return &Handler{
		users:    us,
		rotation: rs,
		authn:    authn,
		log:      l.With("module", "http"),
	}
}

type signupRequest struct {
	Name     string `json:"name" binding:"required,min=6"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortJSON(c, http.StatusBadRequest, "Invalid request payload input.")
		return
	}

	user, err := h.users.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  http.StatusCreated,
		"message": "You have been successfully registered.",
		"user_id": user.ID,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortJSON(c, http.StatusBadRequest, "Invalid request payload input.")
		return
	}

	pair, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	writePair(c, pair)
}

func (h *Handler) Profile(c *gin.Context) {
	userID, ok := UserID(c)
	if !ok {
		h.respondError(c, auth.ErrMissingHeader)
		return
	}

	user, err := h.users.Profile(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "user": user})
}

func (h *Handler) Refresh(c *gin.Context) {
	token, ok := refreshToken(c)
	if !ok {
		h.respondError(c, auth.ErrMissingHeader)
		return
	}

	pair, err := h.rotation.Refresh(c.Request.Context(), token)
	if err != nil {
		h.respondError(c, err)
		return
	}

	writePair(c, pair)
}

func writePair(c *gin.Context, pair *services.TokenPair) {
	c.JSON(http.StatusOK, gin.H{
		"status":        http.StatusOK,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}
