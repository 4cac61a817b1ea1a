package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sopdesk/models"
	"sopdesk/utils"
)

// --- Categories ---

func (h *APIHandler) ListCategoriesHandler(c *gin.Context) {
	categories, err := h.svc.Categories.List(c.Request.Context())
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Categories retrieved successfully", categories)
}

func (h *APIHandler) GetCategoryHandler(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	category, err := h.svc.Categories.Get(c.Request.Context(), id)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Category retrieved successfully", category)
}

func (h *APIHandler) CreateCategoryHandler(c *gin.Context) {
	var req models.CategoryCreate
	if !h.bindJSON(c, &req) {
		return
	}
	category, err := h.svc.Categories.Create(c.Request.Context(), req)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusCreated, "Category created successfully", category)
}

func (h *APIHandler) UpdateCategoryHandler(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req models.CategoryPatch
	if !h.bindJSON(c, &req) {
		return
	}
	category, err := h.svc.Categories.Update(c.Request.Context(), id, req)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Category updated successfully", category)
}

// DeleteCategoryHandler refuses categories that still hold SOPs.
func (h *APIHandler) DeleteCategoryHandler(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Categories.Delete(c.Request.Context(), id); err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Category deleted successfully", nil)
}

// --- Tags ---

func (h *APIHandler) ListTagsHandler(c *gin.Context) {
	tags, err := h.svc.Tags.List(c.Request.Context())
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Tags retrieved successfully", tags)
}

func (h *APIHandler) GetTagHandler(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	tag, err := h.svc.Tags.Get(c.Request.Context(), id)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Tag retrieved successfully", tag)
}

func (h *APIHandler) CreateTagHandler(c *gin.Context) {
	var req models.TagInput
	if !h.bindJSON(c, &req) {
		return
	}
	tag, err := h.svc.Tags.Create(c.Request.Context(), req)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusCreated, "Tag created successfully", tag)
}

func (h *APIHandler) UpdateTagHandler(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req models.TagInput
	if !h.bindJSON(c, &req) {
		return
	}
	tag, err := h.svc.Tags.Update(c.Request.Context(), id, req)
	if err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Tag updated successfully", tag)
}

func (h *APIHandler) DeleteTagHandler(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Tags.Delete(c.Request.Context(), id); err != nil {
		utils.SendAppError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Tag deleted successfully", nil)
}
