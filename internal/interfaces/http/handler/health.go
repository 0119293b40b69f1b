package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sellout/backend/internal/infrastructure/logger"
	"github.com/sellout/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Pinger checks a backing store
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service liveness and database reachability
type HealthHandler struct {
	BaseHandler
	db  Pinger
	now func() time.Time
}

// NewHealthHandler creates a health handler
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, now: time.Now}
}

// Check godoc
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[dto.HealthResponse]
// @Failure      503 {object} ErrorResponse
// @Router       /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	resp := dto.HealthResponse{Status: "ok", Database: "ok", CheckedAt: h.now().UTC()}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
			h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "database unreachable")
			return
		}
	} else {
		resp.Database = "not configured"
	}
	h.Success(c, resp)
}
