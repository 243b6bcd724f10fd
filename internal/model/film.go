package model

import (
	"fmt"
	"strings"
	"time"
)

// DiaryEntry 日记条目（一次观影记录）
// 由日记页解析器产出，之后不再修改
type DiaryEntry struct {
	Title       string    `json:"title"`        // 电影标题（保留原始大小写）
	ReleaseYear *int      `json:"release_year"` // 上映年份，解析失败为 nil
	WatchDate   time.Time `json:"watch_date"`   // 观看日期
	Rating      *float64  `json:"rating"`       // 个人评分 0~5，半星步进，未评分为 nil
	Rewatch     bool      `json:"rewatch"`      // 页面是否标记为重看
	FilmPath    string    `json:"film_path"`    // 详情页路径，如 /film/arrival-2016/
	PageOrder   int       `json:"-"`            // 抓取时的原始顺序，用于稳定排序
}

// FilmIdentity 电影身份（去重合并键）
// 同一身份的所有日记条目必须拿到同一份补充信息
type FilmIdentity struct {
	Title string // 归一化后的标题（小写、空白折叠）
	Year  int    // 上映年份，未知为 0
}

// Identity 计算条目的电影身份
func (e *DiaryEntry) Identity() FilmIdentity {
	year := 0
	if e.ReleaseYear != nil {
		year = *e.ReleaseYear
	}
	return FilmIdentity{
		Title: strings.ToLower(strings.Join(strings.Fields(e.Title), " ")),
		Year:  year,
	}
}

// Key 身份的字符串形式，用作缓存 / singleflight 的键
func (id FilmIdentity) Key() string {
	return fmt.Sprintf("%s|%d", id.Title, id.Year)
}

// Enrichment 电影详情页抓到的补充信息
// 抓取失败时整体为空值，不影响统计流程
type Enrichment struct {
	Actors           []string `json:"actors"`
	Directors        []string `json:"directors"`
	Writers          []string `json:"writers"`
	Editors          []string `json:"editors"`
	Cinematographers []string `json:"cinematographers"`
	Genres           []string `json:"genres"`
	Language         string   `json:"language"`
	Studio           string   `json:"studio"`
	AvgRating        *float64 `json:"avg_rating"` // 社区平均分（10分制换算前的 0~5）
	Runtime          *int     `json:"runtime"`    // 片长（分钟）
	PosterURL        string   `json:"poster_url"`
}

// EnrichedFilm 合并补充信息后的日记条目
// 仅存在于一次统计运行期间，不做持久化
type EnrichedFilm struct {
	DiaryEntry
	Enrichment
}

// EnrichmentFailure 单部电影的补充信息抓取失败记录
// 不致命，随报告一并返回
type EnrichmentFailure struct {
	Title  string `json:"title"`
	Year   int    `json:"year,omitempty"`
	Reason string `json:"reason"`
}
