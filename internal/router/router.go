package router

import (
	"github.com/gin-gonic/gin"
	"github.com/user/reelstats/internal/handler"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.StatsHandler) {
	// 健康检查
	r.GET("/health", h.Health)

	// ==================== 统计 API ====================
	api := r.Group("/api")
	{
		api.POST("/stats", h.GenerateStats)
	}
}
