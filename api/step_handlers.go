package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sopdesk/models"
	"sopdesk/utils"
)

// GET /api/sops/:sopId/steps
func (h *APIHandler) ListStepsHandler(c *gin.Context) {
	sopID, ok := h.pathID(c, "sopId")
	if !ok {
		return
	}
	steps, err := h.svc.Steps.List(c.Request.Context(), sopID)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Steps retrieved successfully", steps)
}

// GET /api/sops/:sopId/steps/:stepId
func (h *APIHandler) GetStepHandler(c *gin.Context) {
	sopID, ok := h.pathID(c, "sopId")
	if !ok {
		return
	}
	stepID, ok := h.pathID(c, "stepId")
	if !ok {
		return
	}
	step, err := h.svc.Steps.Get(c.Request.Context(), sopID, stepID)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Step retrieved successfully", step)
}

// CreateStepHandler appends a step, or places it at an explicit stepNumber.
// POST /api/sops/:sopId/steps
func (h *APIHandler) CreateStepHandler(c *gin.Context) {
	sopID, ok := h.pathID(c, "sopId")
	if !ok {
		return
	}
	var req models.StepCreate
	if !h.bindJSON(c, &req) {
		return
	}
	step, err := h.svc.Steps.Create(c.Request.Context(), sopID, req)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusCreated, "Step created successfully", step)
}

// PUT|PATCH /api/sops/:sopId/steps/:stepId
func (h *APIHandler) UpdateStepHandler(c *gin.Context) {
	sopID, ok := h.pathID(c, "sopId")
	if !ok {
		return
	}
	stepID, ok := h.pathID(c, "stepId")
	if !ok {
		return
	}
	var req models.StepPatch
	if !h.bindJSON(c, &req) {
		return
	}
	step, err := h.svc.Steps.Update(c.Request.Context(), sopID, stepID, req)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Step updated successfully", step)
}

// DELETE /api/sops/:sopId/steps/:stepId
func (h *APIHandler) DeleteStepHandler(c *gin.Context) {
	sopID, ok := h.pathID(c, "sopId")
	if !ok {
		return
	}
	stepID, ok := h.pathID(c, "stepId")
	if !ok {
		return
	}
	if err := h.svc.Steps.Delete(c.Request.Context(), sopID, stepID); err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Step deleted successfully", nil)
}

// ReorderStepsHandler renumbers steps from {"order": [stepIds]}.
// POST /api/sops/:sopId/steps/reorder
func (h *APIHandler) ReorderStepsHandler(c *gin.Context) {
	sopID, ok := h.pathID(c, "sopId")
	if !ok {
		return
	}
	var req models.ReorderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	steps, err := h.svc.Steps.Reorder(c.Request.Context(), sopID, req.Order)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Steps reordered successfully", steps)
}
