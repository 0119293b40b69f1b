package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sellout/backend/internal/interfaces/http/handler"
	"github.com/sellout/backend/internal/interfaces/http/middleware"
)

// NewSelloutRoutes groups the sell-out report endpoints under /reports/sellout.
// Exports go through limiter when it is set.
func NewSelloutRoutes(h *handler.SelloutReportHandler, limiter *middleware.RateLimiter) *DomainGroup {
	routes := NewDomainGroup("sellout", "/reports/sellout")
	routes.GET("", h.ListTypes)
	routes.GET("/:type", h.GetReport)

	export := []gin.HandlerFunc{h.ExportReport}
	if limiter != nil {
		export = append([]gin.HandlerFunc{middleware.RateLimit(limiter)}, export...)
	}
	routes.POST("/:type/export", export...)
	return routes
}
