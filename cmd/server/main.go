package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/user/reelstats/internal/config"
	"github.com/user/reelstats/internal/handler"
	"github.com/user/reelstats/internal/middleware"
	"github.com/user/reelstats/internal/model"
	"github.com/user/reelstats/internal/router"
	"github.com/user/reelstats/internal/service"
	"github.com/user/reelstats/internal/utils"
)

func main() {
	// 加载环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 加载配置
	cfg := config.Load()

	// 初始化电影详情缓存
	utils.InitCache(cfg.FilmCacheTTL)

	// 初始化抓取组件：全部外发请求共享同一个礼貌性约束
	governor := service.NewGovernor(cfg.RequestDelay, cfg.MaxPages)
	renderer := service.NewHTTPRenderer(cfg.FetchTimeout, cfg.RetryCount, governor)
	diary := service.NewDiaryCrawler(renderer, governor, cfg.BaseURL)
	film := service.NewFilmCrawler(renderer, cfg.BaseURL, cfg.EnrichWorkers, cfg.FilmCacheTTL)

	stats := service.NewStatsService(diary, film, service.StatsOptions{
		Milestones:       cfg.Milestones,
		MinDecadeFilms:   cfg.MinDecadeFilms,
		MinDirectorFilms: cfg.MinDirectorFilms,
	})

	// 初始化 Gin
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// 启用 gzip，默认压缩级别
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 中间件
	r.Use(middleware.Logger())
	r.Use(middleware.Security())
	r.Use(middleware.CORS())

	// 注册自定义校验规则
	handler.RegisterValidators()

	// 初始化 Handler
	reportCache := utils.NewReportCache[*model.Report](cfg.ReportCacheLen, cfg.ReportCacheTTL)
	h := handler.NewStatsHandler(stats, reportCache)

	// 注册路由
	router.RegisterRoutes(r, h)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   5 * time.Minute, // 一次统计要翻几十页，响应可能很慢
		MaxHeaderBytes: 1 << 20,
	}

	// 在 goroutine 中启动服务器，这样我们就可以监听信号
	go func() {
		log.Printf("%s 启动于 http://localhost:%s", cfg.SiteName, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	// kill (no parameter) 默认发送 syscall.SIGTERM
	// kill -2 是 syscall.SIGINT
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("正在关闭服务器...")

	// 5 秒超时上下文用于关闭过程
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("服务器强制关闭:", err)
	}

	log.Println("服务器已退出")
}
