package handlers

import (
	"context"
	"net/http"
	"time"

	"dao-tracker-backend/internal/repository"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db   *mongo.Database
	mode repository.Mode
}

// NewHealthHandler creates a new health handler. db is nil when the
// application runs on the in-memory store.
func NewHealthHandler(db *mongo.Database, mode repository.Mode) *HealthHandler {
	return &HealthHandler{
		db:   db,
		mode: mode,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Storage   string            `json:"storage"`
	Services  map[string]string `json:"services"`
}

// Health returns the health status of the application including the
// active storage mode
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Storage:   string(h.mode),
		Services:  make(map[string]string),
	}

	if h.db == nil {
		response.Services["storage"] = "in-memory"
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Client().Ping(ctx, nil); err != nil {
			response.Status = "unhealthy"
			response.Services["storage"] = "error: " + err.Error()
		} else {
			response.Services["storage"] = "healthy"
		}
	}

	statusCode := http.StatusOK
	if response.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, response)
}

// Ready returns the readiness status of the application
func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"storage": string(h.mode),
	})
}

// Live returns the liveness status of the application
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
