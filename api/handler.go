package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"sopdesk/logger"
	"sopdesk/services"
	"sopdesk/utils"
)

// Services groups the domain services the handlers call.
type Services struct {
	SOPs          services.SOPService
	Steps         services.StepService
	Versions      services.VersionService
	LearningPaths services.LearningPathService
	Progress      services.ProgressService
	Categories    services.CategoryService
	Tags          services.TagService
	Users         services.UserService
}

// APIHandler holds all dependencies for API handlers.
type APIHandler struct {
	svc Services
	log *logger.Logger
}

// NewAPIHandler creates a new APIHandler with necessary dependencies.
func NewAPIHandler(svc Services, baseLog *logger.Logger) *APIHandler {
	useJSONFieldNames()
	return &APIHandler{svc: svc, log: baseLog.With("component", "API")}
}

var fieldNamesOnce sync.Once

// useJSONFieldNames makes binding errors report fields by their JSON name.
func useJSONFieldNames() {
	fieldNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// RegisterRoutes mounts every JSON endpoint under /api.
func (h *APIHandler) RegisterRoutes(r gin.IRouter) {
	apiGroup := r.Group("/api")

	categories := apiGroup.Group("/categories")
	{
		categories.GET("", h.ListCategoriesHandler)
		categories.POST("", h.CreateCategoryHandler)
		categories.GET("/:id", h.GetCategoryHandler)
		categories.PUT("/:id", h.UpdateCategoryHandler)
		categories.PATCH("/:id", h.UpdateCategoryHandler)
		categories.DELETE("/:id", h.DeleteCategoryHandler)
	}

	tags := apiGroup.Group("/tags")
	{
		tags.GET("", h.ListTagsHandler)
		tags.POST("", h.CreateTagHandler)
		tags.GET("/:id", h.GetTagHandler)
		tags.PUT("/:id", h.UpdateTagHandler)
		tags.PATCH("/:id", h.UpdateTagHandler)
		tags.DELETE("/:id", h.DeleteTagHandler)
	}

	sops := apiGroup.Group("/sops")
	{
		sops.GET("", h.ListSOPsHandler)
		sops.POST("", h.CreateSOPHandler)
		sops.GET("/:sopId", h.GetSOPHandler)
		sops.PUT("/:sopId", h.UpdateSOPHandler)
		sops.PATCH("/:sopId", h.UpdateSOPHandler)
		sops.DELETE("/:sopId", h.DeleteSOPHandler)
		sops.POST("/:sopId/publish", h.PublishSOPHandler)
		sops.POST("/:sopId/unpublish", h.UnpublishSOPHandler)

		steps := sops.Group("/:sopId/steps")
		{
			steps.GET("", h.ListStepsHandler)
			steps.POST("", h.CreateStepHandler)
			steps.POST("/reorder", h.ReorderStepsHandler)
			steps.GET("/:stepId", h.GetStepHandler)
			steps.PUT("/:stepId", h.UpdateStepHandler)
			steps.PATCH("/:stepId", h.UpdateStepHandler)
			steps.DELETE("/:stepId", h.DeleteStepHandler)
		}

		versions := sops.Group("/:sopId/versions")
		{
			versions.GET("", h.ListVersionsHandler)
			versions.GET("/compare/:version1/:version2", h.CompareVersionsHandler)
			versions.GET("/:versionId", h.GetVersionHandler)
			versions.POST("/:versionId/restore", h.RestoreVersionHandler)
		}
	}

	paths := apiGroup.Group("/learning-paths")
	{
		paths.GET("", h.ListLearningPathsHandler)
		paths.POST("", h.CreateLearningPathHandler)
		paths.GET("/:id", h.GetLearningPathHandler)
		paths.PUT("/:id", h.UpdateLearningPathHandler)
		paths.PATCH("/:id", h.UpdateLearningPathHandler)
		paths.DELETE("/:id", h.DeleteLearningPathHandler)
		paths.POST("/:id/items", h.AddPathItemHandler)
		paths.DELETE("/:id/items/:itemId", h.RemovePathItemHandler)
		paths.POST("/:id/reorder", h.ReorderPathHandler)
	}

	progress := apiGroup.Group("/progress")
	{
		progress.GET("/dashboard", h.ProgressDashboardHandler)
		progress.GET("/user/:userId", h.UserProgressHandler)
		progress.GET("/sop/:sopId", h.SOPProgressHandler)
		progress.POST("", h.UpsertProgressHandler)
		progress.POST("/start", h.StartProgressHandler)
		progress.POST("/complete", h.CompleteProgressHandler)
		progress.DELETE("/:id", h.DeleteProgressHandler)
	}

	users := apiGroup.Group("/users")
	{
		users.GET("", h.ListUsersHandler)
		users.POST("", h.CreateUserHandler)
		users.GET("/:id", h.GetUserHandler)
		users.PUT("/:id", h.UpdateUserHandler)
		users.PATCH("/:id", h.UpdateUserHandler)
		users.DELETE("/:id", h.DeleteUserHandler)
	}
	apiGroup.POST("/register", h.CreateUserHandler)
}

// parseUint parses a positive id.
func parseUint(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, fmt.Errorf("id must be positive")
	}
	return uint(id), nil
}

// pathID reads a positive id from the named route parameter, answering 400
// itself when it is malformed.
func (h *APIHandler) pathID(c *gin.Context, name string) (uint, bool) {
	id, err := parseUint(c.Param(name))
	if err != nil {
		utils.SendJSONError(c, h.log, http.StatusBadRequest, fmt.Sprintf("Invalid %s parameter.", name), nil)
		return 0, false
	}
	return id, true
}

// bindJSON decodes and validates the body into dst, answering 400 itself on
// failure.
func (h *APIHandler) bindJSON(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		utils.SendJSONError(c, h.log, http.StatusBadRequest, validationMessage(verrs), nil)
		return false
	}
	utils.SendJSONError(c, h.log, http.StatusBadRequest, "Invalid request format.", nil)
	return false
}

// validationMessage turns validator failures into "field is required"
// style messages joined by "; ".
func validationMessage(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "email":
			msgs = append(msgs, fe.Field()+" must be a valid email address")
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

// validEmail checks a single address with the binding validator.
func validEmail(email string) bool {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return true
	}
	return v.Var(email, "required,email") == nil
}
