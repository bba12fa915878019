package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trainease/booking-service/internal/middleware"
	"github.com/trainease/booking-service/internal/service"
)

// UserHandler handles account and login HTTP requests.
type UserHandler struct {
	users    service.UserService
	sessions service.SessionService
	cookies  *CookieHelper
}

// NewUserHandler creates a new UserHandler instance.
func NewUserHandler(users service.UserService, sessions service.SessionService, cookies *CookieHelper) *UserHandler {
	return &UserHandler{
		users:    users,
		sessions: sessions,
		cookies:  cookies,
	}
}

// RegisterRequest represents the registration payload.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

// LoginRequest represents the login payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned on successful login. The token is also set as
// an HttpOnly cookie.
type LoginResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expiresIn"`
}

// UpdateUserRequest carries the fields to change. Omitted fields are kept.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	FullName *string `json:"fullName"`
	IsAdmin  *bool   `json:"isAdmin"`
}

// Register godoc
// @Summary Register a user
// @Tags users
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "New account"
// @Success 201 {object} UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/user/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Password, req.FullName)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login godoc
// @Summary User login
// @Description Authenticate and open a session
// @Tags users
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/user/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		slog.InfoContext(c.Request.Context(), "login failed", "username", req.Username)
		respondServiceError(c, err)
		return
	}

	token, _, err := h.sessions.Create(c.Request.Context(), user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	ttl := h.sessions.TTL()
	h.cookies.SetSessionCookie(c, token, ttl)
	c.JSON(http.StatusOK, LoginResponse{
		User:      toUserResponse(user),
		Token:     token,
		ExpiresIn: int64(ttl.Seconds()),
	})
}

// Logout godoc
// @Summary User logout
// @Description Destroy the current session. Succeeds without a session.
// @Tags users
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/user/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	if token := middleware.TokenFromContext(c); token != "" {
		if err := h.sessions.Destroy(c.Request.Context(), token); err != nil {
			slog.WarnContext(c.Request.Context(), "failed to destroy session", "error", err)
		}
	}

	h.cookies.ClearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

// Current godoc
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/user/current [get]
func (h *UserHandler) Current(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	if caller == nil {
		respondServiceError(c, service.ErrUnauthenticated)
		return
	}

	user, err := h.users.Get(c.Request.Context(), caller, caller.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// List godoc
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} UserResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/user [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), middleware.CallerFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(users, toUserResponse))
}

// Get godoc
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/user/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), middleware.CallerFromContext(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// Update godoc
// @Summary Update a user
// @Description Owners may change their profile and password; only admins change roles.
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body UpdateUserRequest true "Fields to change"
// @Success 200 {object} UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/user/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.Update(c.Request.Context(), middleware.CallerFromContext(c), id, service.UserUpdate{
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// Delete godoc
// @Summary Delete a user
// @Description Admin only. The reserved admin account can never be deleted.
// @Tags users
// @Param id path int true "User ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/user/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.users.Delete(c.Request.Context(), middleware.CallerFromContext(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
