package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/user/reelstats/internal/model"
	"github.com/user/reelstats/internal/service"
	"github.com/user/reelstats/internal/utils"
)

// StatsHandler 统计接口处理器
type StatsHandler struct {
	service *service.StatsService
	cache   *utils.ReportCache[*model.Report]
}

// NewStatsHandler 创建统计处理器
func NewStatsHandler(svc *service.StatsService, cache *utils.ReportCache[*model.Report]) *StatsHandler {
	return &StatsHandler{
		service: svc,
		cache:   cache,
	}
}

// RegisterValidators 注册自定义校验规则
// diaryyear: "ALL"（不分大小写）或 1870~2100 的四位年份
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("diaryyear", func(fl validator.FieldLevel) bool {
			value := fl.Field().String()
			if strings.EqualFold(value, service.YearAll) {
				return true
			}
			if len(value) != 4 {
				return false
			}
			year, err := strconv.Atoi(value)
			return err == nil && year >= 1870 && year <= 2100
		})
	}
}

// GenerateStats 生成统计报告
// POST /api/stats {"username": "...", "year": "2024"|"ALL", "weighted": bool}
func (h *StatsHandler) GenerateStats(c *gin.Context) {
	var req model.StatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "请求参数非法: "+err.Error())
		return
	}

	username := strings.TrimSpace(req.Username)
	year := strings.ToUpper(strings.TrimSpace(string(req.Year)))

	cacheKey := fmt.Sprintf("%s:%s:%t", strings.ToLower(username), year, req.Weighted)
	if report, ok := h.cache.Get(cacheKey); ok {
		utils.Success(c, report)
		return
	}

	report, err := h.service.GenerateReport(c.Request.Context(), username, year, req.Weighted)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.cache.Set(cacheKey, report)
	utils.Success(c, report)
}

// writeError 统计流程错误到 HTTP 状态码的映射
func (h *StatsHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNoEntriesFound):
		utils.NotFound(c, "该用户在指定年份没有任何日记条目")
	case errors.Is(err, service.ErrExtractionFailure):
		utils.BadGateway(c, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// 客户端多半已经断开，状态码只是给日志看的
		utils.InternalServerError(c, "请求已取消")
	default:
		utils.InternalServerError(c, "")
	}
}

// Health 健康检查
// GET /health
func (h *StatsHandler) Health(c *gin.Context) {
	utils.Success(c, gin.H{
		"status": "ok",
		"cached": h.cache.Len(),
	})
}
