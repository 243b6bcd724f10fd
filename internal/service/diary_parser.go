package service

import (
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/reelstats/internal/model"
	"github.com/user/reelstats/internal/utils"
)

var (
	reDiaryDate  = regexp.MustCompile(`/(\d{4})/(\d{2})/(\d{2})/`)
	reRatedClass = regexp.MustCompile(`^rated-(\d+)$`)
)

// ParseDiaryPage 解析一页日记列表，按页面顺序返回日记条目
// 可选字段缺失不致命：没有评分返回 nil 评分；日期解析失败的条目丢弃并记一条日志
func ParseDiaryPage(doc *goquery.Document) []model.DiaryEntry {
	var entries []model.DiaryEntry

	doc.Find("[data-film-id]").Each(func(i int, s *goquery.Selection) {
		name := s.AttrOr("data-item-name", "")
		if name == "" {
			return
		}

		title, yearStr := utils.SplitTitleYear(name)
		title = utils.NormalizeTitle(title)
		if title == "" {
			return
		}

		var releaseYear *int
		if y, err := strconv.Atoi(yearStr); err == nil {
			releaseYear = &y
		}

		row := s.Closest("tr")

		watchDate, ok := parseWatchDate(row)
		if !ok {
			log.Printf("[日记解析] 条目缺少有效观看日期，已丢弃: %s", title)
			return
		}

		entries = append(entries, model.DiaryEntry{
			Title:       title,
			ReleaseYear: releaseYear,
			WatchDate:   watchDate,
			Rating:      parseRowRating(row),
			Rewatch:     parseRewatch(row),
			FilmPath:    parseFilmPath(s, title),
		})
	})

	return entries
}

// parseWatchDate 从行内的日期链接提取观看日期
func parseWatchDate(row *goquery.Selection) (time.Time, bool) {
	href := row.Find("a.daydate").AttrOr("href", "")
	match := reDiaryDate.FindStringSubmatch(href)
	if len(match) < 4 {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	day, _ := strconv.Atoi(match[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// parseRowRating 解析个人评分
// 优先读 rated-N 样式类（站点 1~10 刻度，除以 2 得半星制），退化到星号文本
func parseRowRating(row *goquery.Selection) *float64 {
	rating := row.Find(".rating").First()
	if rating.Length() == 0 {
		return nil
	}

	classAttr := rating.AttrOr("class", "")
	for _, cls := range strings.Fields(classAttr) {
		if match := reRatedClass.FindStringSubmatch(cls); len(match) > 1 {
			n, _ := strconv.Atoi(match[1])
			v := float64(n) / 2.0
			return &v
		}
	}

	return utils.ParseStarRating(strings.TrimSpace(rating.Text()))
}

// parseRewatch 读取行内的重看标记，没有标记视为首次观看
func parseRewatch(row *goquery.Selection) bool {
	cell := row.Find("td.td-rewatch").First()
	if cell.Length() == 0 {
		return false
	}
	return !cell.HasClass("icon-status-off")
}

// parseFilmPath 提取详情页路径并归一化为 /film/<slug>/ 形式
// 链接属性都缺失时用标题推一个 slug 出来
func parseFilmPath(s *goquery.Selection, title string) string {
	path := s.AttrOr("data-item-link", "")
	if path == "" {
		path = s.AttrOr("data-target-link", "")
	}
	if path == "" {
		path = s.AttrOr("data-item-slug", "")
	}
	if path == "" {
		path = utils.Slugify(title)
	}
	if path == "" {
		return ""
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.Contains(path, "/film/") {
		path = "/film" + path
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path
}
