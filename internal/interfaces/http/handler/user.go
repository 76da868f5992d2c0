package handler

import (
	"github.com/ech/backend/internal/application/identity"
	"github.com/gin-gonic/gin"
)

// UserHandler handles user administration
type UserHandler struct {
	BaseHandler
	userService *identity.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *identity.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

var userOrdering = map[string]string{"last_login": "last_login_at"}

// Create creates a user.
// POST /auth/users
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.userService.Create(c.Request.Context(), identity.CreateUserInput{
		Username:    req.Username,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Groups:      req.Groups,
		IsSuperuser: req.IsSuperuser,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, user)
}

// List returns a page of users.
// GET /auth/users
func (h *UserHandler) List(c *gin.Context) {
	page, err := h.userService.List(c.Request.Context(), queryFilter(c, userOrdering))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// SetActive activates or deactivates a user.
// PATCH /auth/users/:id/active
func (h *UserHandler) SetActive(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	var req SetActiveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.userService.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// SetGroups replaces the groups of a user.
// PUT /auth/users/:id/groups
func (h *UserHandler) SetGroups(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	var req SetGroupsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.userService.SetGroups(c.Request.Context(), id, req.Groups)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}
