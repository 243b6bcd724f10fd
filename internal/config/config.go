package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 应用配置
type Config struct {
	Env      string
	Port     string
	SiteName string

	// 抓取目标与礼貌性约束
	BaseURL      string        // 目标站点根地址
	RequestDelay time.Duration // 相邻两次外发请求的最小间隔
	FetchTimeout time.Duration // 单次页面请求超时
	RetryCount   int           // 单页抓取失败的重试次数
	MaxPages     int           // 分页抓取的页数上限，0 表示不限制

	// 补充信息抓取
	EnrichWorkers  int           // 详情页抓取并发数
	FilmCacheTTL   time.Duration // 电影详情缓存有效期
	ReportCacheTTL time.Duration // 统计报告缓存有效期
	ReportCacheLen int           // 统计报告缓存最大条数

	// 统计参数
	Milestones       []int // 里程碑序号集合
	MinDecadeFilms   int   // 最爱年代的最少电影数
	MinDirectorFilms int   // 导演差异榜的最少电影数
}

// Load 加载配置
func Load() *Config {
	delayMs, _ := strconv.Atoi(getEnv("REQUEST_DELAY_MS", "500"))
	timeoutSec, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "15"))
	retries, _ := strconv.Atoi(getEnv("FETCH_RETRY_COUNT", "3"))
	maxPages, _ := strconv.Atoi(getEnv("MAX_PAGES", "0"))
	workers, _ := strconv.Atoi(getEnv("ENRICH_WORKERS", "10"))
	filmTTLHours, _ := strconv.Atoi(getEnv("FILM_CACHE_TTL_HOURS", "24"))
	reportTTLMin, _ := strconv.Atoi(getEnv("REPORT_CACHE_TTL_MINUTES", "30"))
	reportLen, _ := strconv.Atoi(getEnv("REPORT_CACHE_SIZE", "256"))
	minDecade, _ := strconv.Atoi(getEnv("STATS_MIN_DECADE_FILMS", "3"))
	minDirector, _ := strconv.Atoi(getEnv("STATS_MIN_DIRECTOR_FILMS", "2"))

	return &Config{
		Env:      getEnv("APP_ENV", "development"),
		Port:     getEnv("PORT", "5008"),
		SiteName: getEnv("SITE_NAME", "ReelStats"),

		BaseURL:      strings.TrimRight(getEnv("DIARY_BASE_URL", "https://letterboxd.com"), "/"),
		RequestDelay: time.Duration(delayMs) * time.Millisecond,
		FetchTimeout: time.Duration(timeoutSec) * time.Second,
		RetryCount:   retries,
		MaxPages:     maxPages,

		EnrichWorkers:  workers,
		FilmCacheTTL:   time.Duration(filmTTLHours) * time.Hour,
		ReportCacheTTL: time.Duration(reportTTLMin) * time.Minute,
		ReportCacheLen: reportLen,

		Milestones:       parseMilestones(getEnv("MILESTONES", "1,50,100,250,500,1000")),
		MinDecadeFilms:   minDecade,
		MinDirectorFilms: minDirector,
	}
}

// parseMilestones 解析里程碑序号列表，非法项直接跳过
func parseMilestones(raw string) []int {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 {
			continue
		}
		out = append(out, n)
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
