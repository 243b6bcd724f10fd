package service

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/user/reelstats/internal/model"
)

// YearAll 年份筛选的哨兵值，表示抓取全部年份
const YearAll = "ALL"

// DiaryCrawler 日记分页爬虫
// 严格串行：第 N 页完成之前不抓第 N+1 页，终止条件依赖页面顺序
type DiaryCrawler struct {
	renderer Renderer
	governor *Governor
	baseURL  string
}

// NewDiaryCrawler 创建日记爬虫
func NewDiaryCrawler(renderer Renderer, governor *Governor, baseURL string) *DiaryCrawler {
	return &DiaryCrawler{
		renderer: renderer,
		governor: governor,
		baseURL:  baseURL,
	}
}

// pageURL 构造第 page 页的日记地址
func (c *DiaryCrawler) pageURL(username, year string, page int) string {
	base := fmt.Sprintf("%s/%s/diary/films/", c.baseURL, username)
	if year != YearAll {
		base = fmt.Sprintf("%s/%s/diary/films/for/%s/", c.baseURL, username, year)
	}
	if page <= 1 {
		return base
	}
	return fmt.Sprintf("%spage/%d/", base, page)
}

// FetchDiary 抓取一个用户的全部日记条目
// year 是四位年份或 YearAll。终止条件：某页没有条目、达到页数上限、
// 或按年份筛选时条目滚出目标年份。第一页成功之后的页面失败折叠成警告，
// 返回已抓到的部分结果；第一页就失败则整次运行失败
func (c *DiaryCrawler) FetchDiary(ctx context.Context, username, year string) ([]model.DiaryEntry, []string, error) {
	if username == "" {
		return nil, nil, fmt.Errorf("%w: 用户名为空", ErrInvalidInput)
	}

	targetYear := 0
	if year != YearAll {
		y, err := strconv.Atoi(year)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: 年份不可解析: %s", ErrInvalidInput, year)
		}
		targetYear = y
	}

	var all []model.DiaryEntry
	var warnings []string

	for page := 1; c.governor.PageAllowed(page); page++ {
		url := c.pageURL(username, year, page)
		log.Printf("[日记爬虫] 抓取第 %d 页: %s", page, url)

		doc, err := c.renderer.Render(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				// 取消优先于部分结果，直接向上传播
				return nil, nil, ctx.Err()
			}
			if page == 1 {
				return nil, nil, fmt.Errorf("%w: %v", ErrExtractionFailure, err)
			}
			warnings = append(warnings, fmt.Sprintf("第 %d 页抓取失败，返回前 %d 页的部分结果: %v", page, page-1, err))
			log.Printf("[日记爬虫] %s", warnings[len(warnings)-1])
			break
		}

		entries := ParseDiaryPage(doc)
		if len(entries) == 0 {
			if page == 1 {
				return nil, nil, ErrNoEntriesFound
			}
			break
		}

		rolled := false
		for _, e := range entries {
			if targetYear != 0 && e.WatchDate.Year() < targetYear {
				// 条目滚出目标年份，本页收尾后停止翻页
				rolled = true
				continue
			}
			e.PageOrder = len(all)
			all = append(all, e)
		}

		log.Printf("[日记爬虫] 第 %d 页解析到 %d 条，累计 %d 条", page, len(entries), len(all))

		if rolled {
			break
		}
	}

	if len(all) == 0 {
		return nil, warnings, ErrNoEntriesFound
	}
	return all, warnings, nil
}
