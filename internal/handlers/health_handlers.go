package handlers

import (
	"context"
	"net/http"
	"time"

	"billdesk/internal/caching"
	"billdesk/internal/services"

	"github.com/labstack/echo/v4"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JobStatusReporter is satisfied by *background.JobScheduler.
type JobStatusReporter interface {
	GetJobStatus() map[string]interface{}
}

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	db       Pinger
	redisSvc caching.CacheService
	media    services.MediaStore
	jobs     JobStatusReporter
	version  string
	started  time.Time
}

// NewHealthHandlers creates a new health handlers instance. jobs may be nil.
func NewHealthHandlers(db Pinger, redisSvc caching.CacheService, media services.MediaStore, jobs JobStatusReporter, version string) *HealthHandlers {
	return &HealthHandlers{
		db:       db,
		redisSvc: redisSvc,
		media:    media,
		jobs:     jobs,
		version:  version,
		started:  time.Now(),
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Services  map[string]string      `json:"services"`
	Jobs      map[string]interface{} `json:"jobs,omitempty"`
	Uptime    string                 `json:"uptime"`
	Version   string                 `json:"version"`
}

func checkStatus(err error) string {
	if err != nil {
		return "unhealthy"
	}
	return "healthy"
}

// HealthCheck performs comprehensive health checks
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  make(map[string]string),
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	}

	checks := map[string]error{
		"database": h.checkDatabase(ctx),
		"redis":    h.checkRedis(ctx),
		"storage":  h.checkMinIO(ctx),
	}
	for name, err := range checks {
		health.Services[name] = checkStatus(err)
		if err != nil {
			health.Status = "degraded"
		}
	}

	if h.jobs != nil {
		health.Jobs = h.jobs.GetJobStatus()
	}

	statusCode := http.StatusOK
	if health.Status == "degraded" {
		statusCode = http.StatusPartialContent
	}

	return c.JSON(statusCode, health)
}

func (h *HealthHandlers) checkDatabase(ctx context.Context) error {
	return h.db.Ping(ctx)
}

func (h *HealthHandlers) checkRedis(ctx context.Context) error {
	return h.redisSvc.Ping(ctx)
}

func (h *HealthHandlers) checkMinIO(ctx context.Context) error {
	return h.media.Ping(ctx)
}

// ReadinessCheck determines if the application is ready to serve traffic.
// Only the database and Redis are critical; storage outages degrade uploads.
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	dbErr := h.checkDatabase(ctx)
	redisErr := h.checkRedis(ctx)

	if dbErr != nil || redisErr != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "not_ready",
			"message": "Critical services unavailable",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ready",
		"message": "All systems operational",
	})
}

// LivenessCheck determines if the application is running (basic liveness check)
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
