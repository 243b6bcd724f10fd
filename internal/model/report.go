package model

import (
	"fmt"
	"strings"
)

// Year 请求里的年份，JSON 数字和字符串两种写法都接受
type Year string

// UnmarshalJSON 把 2024 和 "2024" 统一成字符串形式，合法性由绑定校验负责
func (y *Year) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		return fmt.Errorf("年份必须是数字或字符串")
	}
	*y = Year(strings.Trim(s, `"`))
	return nil
}

// StatsRequest 统计请求
// Year 为四位年份或 "ALL"（全部年份）
type StatsRequest struct {
	Username string `json:"username" binding:"required"`
	Year     Year   `json:"year" binding:"required,diaryyear"`
	Weighted bool   `json:"weighted"` // 是否附带加权排名得分
}

// RankedItem 分类排名中的一项（按出现次数排序）
type RankedItem struct {
	Name      string   `json:"name"`
	Count     int      `json:"count"`
	AvgRating *float64 `json:"avg_rating"`
}

// ScoredItem 带评分模型得分的排名项（仅 weighted 请求时填充）
type ScoredItem struct {
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	Count     int     `json:"count"`
	AvgRating float64 `json:"avg_rating"`
}

// CategoryScores 一个分类下三种评分模型的排名
type CategoryScores struct {
	Weighted []ScoredItem `json:"weighted"` // avg × log(count+1)
	Bayesian []ScoredItem `json:"bayesian"` // (n·avg + c·m) / (n+c)
	Wilson   []ScoredItem `json:"wilson"`   // Wilson 置信下界
}

// DayBucket 按星期几统计
type DayBucket struct {
	Count     int      `json:"count"`
	AvgRating *float64 `json:"avg_rating"`
}

// DecadeBucket 按上映年代统计
type DecadeBucket struct {
	Decade      string   `json:"decade"` // 如 "1990s"
	DecadeStart int      `json:"decade_start"`
	Count       int      `json:"count"`
	AvgRating   *float64 `json:"avg_rating"`
}

// TimelinePoint 按日期聚合的累计观影曲线上的一个点
type TimelinePoint struct {
	Date            string `json:"date"` // YYYY-MM-DD
	CumulativeCount int    `json:"cumulative_count"`
	FilmsOnDay      int    `json:"films_on_day"`
}

// Milestone 里程碑（按观看日期升序的第 N 部电影）
type Milestone struct {
	Ordinal   int    `json:"milestone"`
	Title     string `json:"title"`
	WatchDate string `json:"watch_date"`
	PosterURL string `json:"poster_url,omitempty"`
}

// RewatchedFilm 重看排名中的一项
type RewatchedFilm struct {
	Title     string `json:"title"`
	Count     int    `json:"count"`
	PosterURL string `json:"poster_url,omitempty"`
}

// VarianceFilm 个人评分与社区均分差异最大的电影
type VarianceFilm struct {
	Title      string  `json:"title"`
	YourRating float64 `json:"your_rating"`
	AvgRating  float64 `json:"avg_rating"`
	Variance   float64 `json:"variance"`  // 个人评分 - 社区均分
	Direction  string  `json:"direction"` // overrated / underrated
}

// VarianceDirector 导演层面的评分差异聚合
type VarianceDirector struct {
	Director    string  `json:"director"`
	AvgVariance float64 `json:"avg_variance"`
	NumFilms    int     `json:"num_films"`
	Score       float64 `json:"weighted_score"` // avg_variance × sqrt(num_films)
}

// RuntimeStats 片长统计
type RuntimeStats struct {
	TotalMinutes     int       `json:"total_minutes"`
	TotalHours       float64   `json:"total_hours"`
	TotalDays        float64   `json:"total_days"`
	AvgRuntime       *float64  `json:"avg_runtime"`
	LongestFilm      *FilmSpan `json:"longest_film"`
	ShortestFilm     *FilmSpan `json:"shortest_film"`
	FilmsWithRuntime int       `json:"films_with_runtime"`
}

// FilmSpan 片长统计中引用的一部电影
type FilmSpan struct {
	Title   string `json:"title"`
	Runtime int    `json:"runtime"`
}

// AggregateCounts 各分类去重后的总量
type AggregateCounts struct {
	Actors           int `json:"total_actors"`
	Directors        int `json:"total_directors"`
	Writers          int `json:"total_writers"`
	Editors          int `json:"total_editors"`
	Cinematographers int `json:"total_cinematographers"`
	Genres           int `json:"total_genres"`
	Studios          int `json:"total_studios"`
	Languages        int `json:"total_languages"`
}

// Polarizing 两极分化分析
type Polarizing struct {
	TopVarianceFilms    []VarianceFilm     `json:"top_variance_films"`
	OverhypedDirectors  []VarianceDirector `json:"top_overhyped_directors"`
	UnderhypedDirectors []VarianceDirector `json:"top_underhyped_directors"`
}

// Report 一次统计运行的完整输出
// 返回后只读；不做任何持久化
type Report struct {
	Username string `json:"username"`
	Year     string `json:"year"`

	TotalFilms  int `json:"total_films"`  // 日记条目总数
	UniqueFilms int `json:"unique_films"` // 去重后的电影数

	DayOfWeek map[string]DayBucket `json:"day_of_week"`

	Decades        []DecadeBucket `json:"decades"`
	FavoriteDecade *DecadeBucket  `json:"favorite_decade"`

	Timeline   []TimelinePoint `json:"watch_timeline"`
	Milestones []Milestone     `json:"milestones"`

	MostWatched  map[string][]RankedItem    `json:"most_watched"`     // 分类 → 排名
	Scores       map[string]*CategoryScores `json:"scores,omitempty"` // 仅 weighted 请求
	TopRewatched []RewatchedFilm            `json:"top_rewatched"`

	Polarizing Polarizing `json:"polarizing_takes"`

	Counts         AggregateCounts `json:"aggregate_counts"`
	RuntimeStats   *RuntimeStats   `json:"runtime_stats"`
	AverageFilmAge *float64        `json:"average_film_age"`
	AverageRating  *float64        `json:"average_rating"`

	EnrichmentFailures []EnrichmentFailure `json:"enrichment_failures,omitempty"`
	Warnings           []string            `json:"warnings,omitempty"`
}
