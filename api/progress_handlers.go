package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sopdesk/models"
	"sopdesk/utils"
)

// GET /api/progress/user/:userId
func (h *APIHandler) UserProgressHandler(c *gin.Context) {
	userID, ok := h.pathID(c, "userId")
	if !ok {
		return
	}
	report, err := h.svc.Progress.ForUser(c.Request.Context(), userID)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "User progress retrieved successfully", report)
}

// GET /api/progress/sop/:sopId
func (h *APIHandler) SOPProgressHandler(c *gin.Context) {
	sopID, ok := h.pathID(c, "sopId")
	if !ok {
		return
	}
	report, err := h.svc.Progress.ForSOP(c.Request.Context(), sopID)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "SOP progress retrieved successfully", report)
}

// UpsertProgressHandler records a status for a (user, SOP) pair. It answers
// 201 when a record was created and 200 when one was updated.
// POST /api/progress
func (h *APIHandler) UpsertProgressHandler(c *gin.Context) {
	var req models.ProgressInput
	if !h.bindJSON(c, &req) {
		return
	}
	progress, created, err := h.svc.Progress.Upsert(c.Request.Context(), req)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	if created {
		utils.SendSuccess(c, http.StatusCreated, "Progress created successfully", progress)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Progress updated successfully", progress)
}

// POST /api/progress/start
func (h *APIHandler) StartProgressHandler(c *gin.Context) {
	var req models.ProgressInput
	if !h.bindJSON(c, &req) {
		return
	}
	progress, err := h.svc.Progress.Start(c.Request.Context(), req.UserID, req.SOPID)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "SOP marked as in progress", progress)
}

// POST /api/progress/complete
func (h *APIHandler) CompleteProgressHandler(c *gin.Context) {
	var req models.ProgressInput
	if !h.bindJSON(c, &req) {
		return
	}
	progress, err := h.svc.Progress.Complete(c.Request.Context(), req.UserID, req.SOPID)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "SOP marked as completed", progress)
}

// DELETE /api/progress/:id
func (h *APIHandler) DeleteProgressHandler(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Progress.Delete(c.Request.Context(), id); err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Progress deleted successfully", nil)
}

// GET /api/progress/dashboard
func (h *APIHandler) ProgressDashboardHandler(c *gin.Context) {
	dashboard, err := h.svc.Progress.Dashboard(c.Request.Context())
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Progress dashboard retrieved successfully", dashboard)
}
