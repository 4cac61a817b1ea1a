package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"sopdesk/database"
	"sopdesk/logger"
	"sopdesk/utils"
)

const readyTimeout = 2 * time.Second

// HealthHandler serves liveness, readiness and metrics endpoints.
type HealthHandler struct {
	db       *gorm.DB
	gatherer prometheus.Gatherer
	log      *logger.Logger
}

// NewHealthHandler wires the probes. A nil gatherer leaves /metrics unmounted.
func NewHealthHandler(db *gorm.DB, gatherer prometheus.Gatherer, baseLog *logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, gatherer: gatherer, log: baseLog.With("component", "Health")}
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	if h.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}
}

// Health reports that the process is up.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether the database answers.
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := database.Ping(c.Request.Context(), h.db, readyTimeout); err != nil {
		utils.SendJSONError(c, h.log, http.StatusServiceUnavailable, "Database is not reachable.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
