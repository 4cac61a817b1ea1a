package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"sopdesk/utils"
)

// GET /api/sops/:sopId/versions
func (h *APIHandler) ListVersionsHandler(c *gin.Context) {
	sopID, ok := h.pathID(c, "sopId")
	if !ok {
		return
	}
	versions, err := h.svc.Versions.List(c.Request.Context(), sopID)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Versions retrieved successfully", versions)
}

// GET /api/sops/:sopId/versions/:versionId
func (h *APIHandler) GetVersionHandler(c *gin.Context) {
	sopID, ok := h.pathID(c, "sopId")
	if !ok {
		return
	}
	versionID, ok := h.pathID(c, "versionId")
	if !ok {
		return
	}
	version, err := h.svc.Versions.Get(c.Request.Context(), sopID, versionID)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Version retrieved successfully", version)
}

// RestoreVersionHandler copies a stored version back onto its SOP.
// POST /api/sops/:sopId/versions/:versionId/restore
func (h *APIHandler) RestoreVersionHandler(c *gin.Context) {
	sopID, ok := h.pathID(c, "sopId")
	if !ok {
		return
	}
	versionID, ok := h.pathID(c, "versionId")
	if !ok {
		return
	}
	result, err := h.svc.Versions.Restore(c.Request.Context(), sopID, versionID)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, fmt.Sprintf("SOP restored to version %d", result.RestoredVersion), result)
}

// CompareVersionsHandler diffs two versions by id.
// GET /api/sops/:sopId/versions/compare/:version1/:version2
func (h *APIHandler) CompareVersionsHandler(c *gin.Context) {
	sopID, ok := h.pathID(c, "sopId")
	if !ok {
		return
	}
	first, ok := h.pathID(c, "version1")
	if !ok {
		return
	}
	second, ok := h.pathID(c, "version2")
	if !ok {
		return
	}
	cmp, err := h.svc.Versions.Compare(c.Request.Context(), sopID, first, second)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Versions compared successfully", cmp)
}
