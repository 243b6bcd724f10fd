package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/user/reelstats/internal/model"
	"github.com/user/reelstats/internal/utils"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// FilmCrawler 电影详情抓取协调器
// 按电影身份去重后并发抓取，同一身份只抓一次，快照写入缓存后不再变更
type FilmCrawler struct {
	renderer Renderer
	baseURL  string
	cacheTTL time.Duration
	workers  int
	sf       singleflight.Group
}

// NewFilmCrawler 创建详情抓取协调器
func NewFilmCrawler(renderer Renderer, baseURL string, workers int, cacheTTL time.Duration) *FilmCrawler {
	if workers < 1 {
		workers = 1
	}
	return &FilmCrawler{
		renderer: renderer,
		baseURL:  baseURL,
		cacheTTL: cacheTTL,
		workers:  workers,
	}
}

// enrichTarget 一个待抓取的电影身份及其详情页路径
type enrichTarget struct {
	id    model.FilmIdentity
	title string // 展示用原始标题
	path  string
}

// Enrich 为日记条目补充电影详情
// 单部电影抓取失败不中断整体流程，失败记录随结果返回，
// 对应条目带空白补充信息参与后续统计
func (c *FilmCrawler) Enrich(ctx context.Context, entries []model.DiaryEntry) ([]model.EnrichedFilm, []model.EnrichmentFailure) {
	// 身份去重，详情页路径取第一个非空的
	var targets []enrichTarget
	seen := make(map[model.FilmIdentity]int)
	for i := range entries {
		id := entries[i].Identity()
		if idx, ok := seen[id]; ok {
			if targets[idx].path == "" {
				targets[idx].path = entries[i].FilmPath
			}
			continue
		}
		seen[id] = len(targets)
		targets = append(targets, enrichTarget{id: id, title: entries[i].Title, path: entries[i].FilmPath})
	}

	log.Printf("[详情爬虫] %d 条日记去重后共 %d 部电影，并发数 %d", len(entries), len(targets), c.workers)

	var mu sync.Mutex
	snapshots := make(map[model.FilmIdentity]model.Enrichment, len(targets))
	var failures []model.EnrichmentFailure

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for _, t := range targets {
		t := t
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			snapshot, err := c.fetchFilm(gctx, t.id, t.path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("[详情爬虫] %s 抓取失败: %v", t.id.Key(), err)
				failures = append(failures, model.EnrichmentFailure{
					Title:  t.title,
					Year:   t.id.Year,
					Reason: err.Error(),
				})
			}
			// 失败时 snapshot 为空值，对应条目带空白信息继续参与统计
			snapshots[t.id] = snapshot
			return nil
		})
	}

	// goroutine 只在上下文取消时返回错误，这里不需要区分
	_ = g.Wait()

	// 同一身份的所有条目合并同一份快照
	films := make([]model.EnrichedFilm, 0, len(entries))
	for i := range entries {
		films = append(films, model.EnrichedFilm{
			DiaryEntry: entries[i],
			Enrichment: snapshots[entries[i].Identity()],
		})
	}
	return films, failures
}

// fetchFilm 抓取一部电影的四个详情页并合成快照
// singleflight 保证同一身份的并发抓取只发一次请求，结果进缓存
func (c *FilmCrawler) fetchFilm(ctx context.Context, id model.FilmIdentity, path string) (model.Enrichment, error) {
	if path == "" {
		return model.Enrichment{}, fmt.Errorf("缺少详情页路径")
	}

	cacheKey := "film:" + id.Key()
	if cached, ok := utils.CacheGet(cacheKey); ok {
		if snapshot, ok := cached.(model.Enrichment); ok {
			return snapshot, nil
		}
	}

	result, err, _ := c.sf.Do(id.Key(), func() (interface{}, error) {
		var enrich model.Enrichment

		// 主页抓不下来整部电影算失败
		mainDoc, err := c.renderer.Render(ctx, c.baseURL+path)
		if err != nil {
			return model.Enrichment{}, err
		}
		ParseFilmMainPage(mainDoc, &enrich)

		// 其余页面尽力而为，失败只留日志，对应字段保持空白
		if doc, err := c.renderer.Render(ctx, c.baseURL+path+"crew/"); err == nil {
			ParseFilmCrewPage(doc, &enrich)
		} else {
			log.Printf("[详情爬虫] %s 职员页抓取失败: %v", id.Key(), err)
		}
		if doc, err := c.renderer.Render(ctx, c.baseURL+path+"details/"); err == nil {
			ParseFilmDetailsPage(doc, &enrich)
		} else {
			log.Printf("[详情爬虫] %s 细节页抓取失败: %v", id.Key(), err)
		}
		if doc, err := c.renderer.Render(ctx, c.baseURL+path+"genres/"); err == nil {
			ParseFilmGenresPage(doc, &enrich)
		} else {
			log.Printf("[详情爬虫] %s 类型页抓取失败: %v", id.Key(), err)
		}

		utils.CacheSet(cacheKey, enrich, c.cacheTTL)
		return enrich, nil
	})
	if err != nil {
		return model.Enrichment{}, err
	}
	return result.(model.Enrichment), nil
}
