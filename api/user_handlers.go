package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sopdesk/models"
	"sopdesk/utils"
)

// actorHeader carries the id of the user issuing the request.
const actorHeader = "X-User-ID"

func (h *APIHandler) ListUsersHandler(c *gin.Context) {
	users, err := h.svc.Users.List(c.Request.Context())
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Users retrieved successfully", users)
}

func (h *APIHandler) GetUserHandler(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.svc.Users.Get(c.Request.Context(), id)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "User retrieved successfully", user)
}

// CreateUserHandler serves both POST /api/users and POST /api/register.
func (h *APIHandler) CreateUserHandler(c *gin.Context) {
	var req models.UserCreate
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.svc.Users.Create(c.Request.Context(), req)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusCreated, "User created successfully", user)
}

func (h *APIHandler) UpdateUserHandler(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req models.UserPatch
	if !h.bindJSON(c, &req) {
		return
	}
	if req.Email.Has() && !validEmail(*req.Email.Value) {
		utils.SendJSONError(c, h.log, http.StatusBadRequest, "email must be a valid email address", nil)
		return
	}
	user, err := h.svc.Users.Update(c.Request.Context(), id, req)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "User updated successfully", user)
}

// DeleteUserHandler removes a user. A caller named in X-User-ID cannot
// delete itself; without the header no actor check applies.
func (h *APIHandler) DeleteUserHandler(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var actorID uint
	if raw := c.GetHeader(actorHeader); raw != "" {
		parsed, err := parseUint(raw)
		if err != nil {
			utils.SendJSONError(c, h.log, http.StatusBadRequest, "Invalid X-User-ID header.", nil)
			return
		}
		actorID = parsed
	}
	if err := h.svc.Users.Delete(c.Request.Context(), actorID, id); err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "User deleted successfully", nil)
}
