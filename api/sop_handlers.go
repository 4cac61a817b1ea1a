package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sopdesk/models"
	"sopdesk/repository"
	"sopdesk/utils"
)

// ListSOPsHandler lists SOPs, newest first.
// GET /api/sops?status=&category=&tag=&department=
func (h *APIHandler) ListSOPsHandler(c *gin.Context) {
	filter := repository.SOPFilter{
		Status:     models.SOPStatus(c.Query("status")),
		Department: c.Query("department"),
	}
	if raw := c.Query("category"); raw != "" {
		id, err := parseUint(raw)
		if err != nil {
			utils.SendJSONError(c, h.log, http.StatusBadRequest, "Invalid category parameter.", nil)
			return
		}
		filter.CategoryID = id
	}
	if raw := c.Query("tag"); raw != "" {
		id, err := parseUint(raw)
		if err != nil {
			utils.SendJSONError(c, h.log, http.StatusBadRequest, "Invalid tag parameter.", nil)
			return
		}
		filter.TagID = id
	}

	sops, err := h.svc.SOPs.List(c.Request.Context(), filter)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "SOPs retrieved successfully", sops)
}

// GetSOPHandler returns a SOP with its steps and version count.
// GET /api/sops/:sopId
func (h *APIHandler) GetSOPHandler(c *gin.Context) {
	id, ok := h.pathID(c, "sopId")
	if !ok {
		return
	}
	sop, err := h.svc.SOPs.Get(c.Request.Context(), id)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "SOP retrieved successfully", sop)
}

// CreateSOPHandler creates a SOP at version 1.
// POST /api/sops
func (h *APIHandler) CreateSOPHandler(c *gin.Context) {
	var req models.SOPCreate
	if !h.bindJSON(c, &req) {
		return
	}
	sop, err := h.svc.SOPs.Create(c.Request.Context(), req)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusCreated, "SOP created successfully", sop)
}

// UpdateSOPHandler applies a partial update and records the previous version.
// PUT|PATCH /api/sops/:sopId
func (h *APIHandler) UpdateSOPHandler(c *gin.Context) {
	id, ok := h.pathID(c, "sopId")
	if !ok {
		return
	}
	var req models.SOPPatch
	if !h.bindJSON(c, &req) {
		return
	}
	sop, err := h.svc.SOPs.Update(c.Request.Context(), id, req)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "SOP updated successfully", sop)
}

// DeleteSOPHandler removes a SOP and everything hanging off it.
// DELETE /api/sops/:sopId
func (h *APIHandler) DeleteSOPHandler(c *gin.Context) {
	id, ok := h.pathID(c, "sopId")
	if !ok {
		return
	}
	if err := h.svc.SOPs.Delete(c.Request.Context(), id); err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "SOP deleted successfully", nil)
}

// PublishSOPHandler handles POST /api/sops/:sopId/publish.
func (h *APIHandler) PublishSOPHandler(c *gin.Context) {
	h.setSOPStatus(c, models.SOPStatusPublished, "SOP published successfully")
}

// UnpublishSOPHandler handles POST /api/sops/:sopId/unpublish.
func (h *APIHandler) UnpublishSOPHandler(c *gin.Context) {
	h.setSOPStatus(c, models.SOPStatusDraft, "SOP unpublished successfully")
}

func (h *APIHandler) setSOPStatus(c *gin.Context, status models.SOPStatus, message string) {
	id, ok := h.pathID(c, "sopId")
	if !ok {
		return
	}
	sop, err := h.svc.SOPs.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, message, sop)
}
