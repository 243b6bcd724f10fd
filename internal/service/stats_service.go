package service

import (
	"context"
	"log"
	"time"

	"github.com/user/reelstats/internal/model"
)

// StatsService 统计流程编排
// 日记抓取 → 详情补充 → 纯内存统计，三个阶段串联
type StatsService struct {
	diary *DiaryCrawler
	film  *FilmCrawler
	opts  StatsOptions
}

// NewStatsService 创建统计服务
func NewStatsService(diary *DiaryCrawler, film *FilmCrawler, opts StatsOptions) *StatsService {
	return &StatsService{
		diary: diary,
		film:  film,
		opts:  opts,
	}
}

// GenerateReport 为一个用户生成完整统计报告
// 日记抓取失败整次失败；详情抓取失败只降级为失败记录
func (s *StatsService) GenerateReport(ctx context.Context, username, year string, weighted bool) (*model.Report, error) {
	start := time.Now()

	entries, warnings, err := s.diary.FetchDiary(ctx, username, year)
	if err != nil {
		return nil, err
	}

	films, failures := s.film.Enrich(ctx, entries)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := BuildReport(username, year, films, weighted, s.opts)
	report.EnrichmentFailures = failures
	report.Warnings = warnings

	log.Printf("[统计服务] %s/%s 完成：%d 条日记 %d 部电影，详情失败 %d 部，耗时 %v",
		username, year, report.TotalFilms, report.UniqueFilms, len(failures), time.Since(start))
	return report, nil
}
