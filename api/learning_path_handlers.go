package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sopdesk/models"
	"sopdesk/utils"
)

// GET /api/learning-paths
func (h *APIHandler) ListLearningPathsHandler(c *gin.Context) {
	paths, err := h.svc.LearningPaths.List(c.Request.Context())
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Learning paths retrieved successfully", paths)
}

// GET /api/learning-paths/:id
func (h *APIHandler) GetLearningPathHandler(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	path, err := h.svc.LearningPaths.Get(c.Request.Context(), id)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Learning path retrieved successfully", path)
}

// CreateLearningPathHandler creates a path, appending sopIds in the order given.
// POST /api/learning-paths
func (h *APIHandler) CreateLearningPathHandler(c *gin.Context) {
	var req models.LearningPathCreate
	if !h.bindJSON(c, &req) {
		return
	}
	path, err := h.svc.LearningPaths.Create(c.Request.Context(), req)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusCreated, "Learning path created successfully", path)
}

// PUT|PATCH /api/learning-paths/:id
func (h *APIHandler) UpdateLearningPathHandler(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req models.LearningPathPatch
	if !h.bindJSON(c, &req) {
		return
	}
	path, err := h.svc.LearningPaths.Update(c.Request.Context(), id, req)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Learning path updated successfully", path)
}

// DELETE /api/learning-paths/:id
func (h *APIHandler) DeleteLearningPathHandler(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.LearningPaths.Delete(c.Request.Context(), id); err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Learning path deleted successfully", nil)
}

// POST /api/learning-paths/:id/items
func (h *APIHandler) AddPathItemHandler(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req models.PathItemCreate
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.svc.LearningPaths.AddItem(c.Request.Context(), id, req)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusCreated, "SOP added to learning path", item)
}

// DELETE /api/learning-paths/:id/items/:itemId
func (h *APIHandler) RemovePathItemHandler(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "itemId")
	if !ok {
		return
	}
	if err := h.svc.LearningPaths.RemoveItem(c.Request.Context(), id, itemID); err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "SOP removed from learning path", nil)
}

// POST /api/learning-paths/:id/reorder
func (h *APIHandler) ReorderPathHandler(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req models.ReorderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	path, err := h.svc.LearningPaths.Reorder(c.Request.Context(), id, req.Order)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Learning path reordered successfully", path)
}
