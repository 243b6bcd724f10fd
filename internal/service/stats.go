package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/user/reelstats/internal/model"
)

// 评分模型参数
const (
	bayesConfidence  = 3.0  // 贝叶斯先验等效样本数
	bayesPriorMean   = 3.0  // 贝叶斯先验均分
	wilsonZ          = 1.96 // Wilson 区间 95% 置信的 z 值
	topRankedItems   = 10
	topVarianceItems = 10
	topDirectorItems = 5
)

// StatsOptions 统计参数（从配置注入，引擎本身不读环境）
type StatsOptions struct {
	Milestones       []int
	MinDecadeFilms   int
	MinDirectorFilms int
}

// BuildReport 对一批补充信息完整的日记条目做全量统计
// 纯内存计算，不做任何网络或磁盘访问；输入为空时各项统计保持空值
func BuildReport(username, year string, films []model.EnrichedFilm, weighted bool, opts StatsOptions) *model.Report {
	report := &model.Report{
		Username:    username,
		Year:        year,
		TotalFilms:  len(films),
		DayOfWeek:   map[string]model.DayBucket{},
		MostWatched: map[string][]model.RankedItem{},
	}
	if len(films) == 0 {
		return report
	}

	unique := dedupeFilms(films)
	report.UniqueFilms = len(unique)

	report.DayOfWeek = buildDayOfWeek(films)
	report.Decades, report.FavoriteDecade = buildDecades(unique, opts.MinDecadeFilms)
	report.Timeline = buildTimeline(films)
	report.Milestones = buildMilestones(films, opts.Milestones)
	report.TopRewatched = buildRewatched(films)
	report.Polarizing = buildPolarizing(unique, opts.MinDirectorFilms)
	report.RuntimeStats = buildRuntimeStats(unique)
	report.AverageFilmAge = buildAverageFilmAge(films)
	report.AverageRating = buildAverageRating(films)

	categories := splitCategories(unique)
	report.Counts = buildCounts(categories)
	for name, members := range categories {
		report.MostWatched[name] = rankCategory(members)
	}
	if weighted {
		report.Scores = map[string]*model.CategoryScores{}
		for name, members := range categories {
			report.Scores[name] = scoreCategory(members)
		}
	}

	return report
}

// dedupeFilms 按电影身份去重
// 同一部电影看了多次时保留评分最高的那条，评分并列保留最早抓到的
func dedupeFilms(films []model.EnrichedFilm) []model.EnrichedFilm {
	best := make(map[model.FilmIdentity]int)
	var order []model.FilmIdentity

	for i := range films {
		id := films[i].Identity()
		j, ok := best[id]
		if !ok {
			best[id] = i
			order = append(order, id)
			continue
		}
		if ratingOrNeg(films[i].Rating) > ratingOrNeg(films[j].Rating) {
			best[id] = i
		}
	}

	unique := make([]model.EnrichedFilm, 0, len(order))
	for _, id := range order {
		unique = append(unique, films[best[id]])
	}
	return unique
}

func ratingOrNeg(r *float64) float64 {
	if r == nil {
		return -1
	}
	return *r
}

// ratingAccumulator 计数加均分的累加器
type ratingAccumulator struct {
	count int
	sum   float64
	rated int
}

func (a *ratingAccumulator) add(rating *float64) {
	a.count++
	if rating != nil {
		a.sum += *rating
		a.rated++
	}
}

func (a *ratingAccumulator) avg() *float64 {
	if a.rated == 0 {
		return nil
	}
	v := a.sum / float64(a.rated)
	return &v
}

// buildDayOfWeek 按星期几统计观影次数和均分，重看也计入
func buildDayOfWeek(films []model.EnrichedFilm) map[string]model.DayBucket {
	acc := map[string]*ratingAccumulator{}
	for i := range films {
		day := films[i].WatchDate.Weekday().String()
		if acc[day] == nil {
			acc[day] = &ratingAccumulator{}
		}
		acc[day].add(films[i].Rating)
	}

	out := make(map[string]model.DayBucket, len(acc))
	for day, a := range acc {
		out[day] = model.DayBucket{Count: a.count, AvgRating: a.avg()}
	}
	return out
}

// buildDecades 按上映年代统计去重后的电影
// 最爱年代取均分最高且数量达到下限的年代，都不够时为 nil
func buildDecades(unique []model.EnrichedFilm, minFilms int) ([]model.DecadeBucket, *model.DecadeBucket) {
	acc := map[int]*ratingAccumulator{}
	for i := range unique {
		if unique[i].ReleaseYear == nil {
			continue
		}
		start := *unique[i].ReleaseYear / 10 * 10
		if acc[start] == nil {
			acc[start] = &ratingAccumulator{}
		}
		acc[start].add(unique[i].Rating)
	}

	buckets := make([]model.DecadeBucket, 0, len(acc))
	for start, a := range acc {
		buckets = append(buckets, model.DecadeBucket{
			Decade:      fmt.Sprintf("%ds", start),
			DecadeStart: start,
			Count:       a.count,
			AvgRating:   a.avg(),
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].DecadeStart < buckets[j].DecadeStart
	})

	var favorite *model.DecadeBucket
	for i := range buckets {
		b := buckets[i]
		if b.Count < minFilms || b.AvgRating == nil {
			continue
		}
		if favorite == nil || *b.AvgRating > *favorite.AvgRating {
			favorite = &buckets[i]
		}
	}
	return buckets, favorite
}

// buildTimeline 按观看日期聚合的累计观影曲线
func buildTimeline(films []model.EnrichedFilm) []model.TimelinePoint {
	perDay := map[string]int{}
	for i := range films {
		perDay[films[i].WatchDate.Format("2006-01-02")]++
	}

	dates := make([]string, 0, len(perDay))
	for d := range perDay {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	points := make([]model.TimelinePoint, 0, len(dates))
	cumulative := 0
	for _, d := range dates {
		cumulative += perDay[d]
		points = append(points, model.TimelinePoint{
			Date:            d,
			CumulativeCount: cumulative,
			FilmsOnDay:      perDay[d],
		})
	}
	return points
}

// buildMilestones 按观看日期升序取第 N 部电影
// 同一天看的多部按抓取顺序排，保证里程碑与页面展示顺序一致
func buildMilestones(films []model.EnrichedFilm, ordinals []int) []model.Milestone {
	sorted := make([]model.EnrichedFilm, len(films))
	copy(sorted, films)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].WatchDate.Equal(sorted[j].WatchDate) {
			return sorted[i].WatchDate.Before(sorted[j].WatchDate)
		}
		return sorted[i].PageOrder < sorted[j].PageOrder
	})

	var milestones []model.Milestone
	for _, n := range ordinals {
		if n < 1 || n > len(sorted) {
			continue
		}
		f := sorted[n-1]
		milestones = append(milestones, model.Milestone{
			Ordinal:   n,
			Title:     f.Title,
			WatchDate: f.WatchDate.Format("2006-01-02"),
			PosterURL: f.PosterURL,
		})
	}
	return milestones
}

// buildRewatched 统计同一部电影的观看次数，两次以上进重看榜
func buildRewatched(films []model.EnrichedFilm) []model.RewatchedFilm {
	type rewatch struct {
		title  string
		poster string
		count  int
	}
	acc := map[model.FilmIdentity]*rewatch{}
	var order []model.FilmIdentity
	for i := range films {
		id := films[i].Identity()
		if acc[id] == nil {
			acc[id] = &rewatch{title: films[i].Title, poster: films[i].PosterURL}
			order = append(order, id)
		}
		acc[id].count++
	}

	var out []model.RewatchedFilm
	for _, id := range order {
		r := acc[id]
		if r.count < 2 {
			continue
		}
		out = append(out, model.RewatchedFilm{Title: r.title, Count: r.count, PosterURL: r.poster})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Title < out[j].Title
	})
	if len(out) > topRankedItems {
		out = out[:topRankedItems]
	}
	return out
}

// buildPolarizing 个人评分与社区均分的差异分析
// 差异 = 个人评分 - 社区均分，为正说明自己打得比大众高
func buildPolarizing(unique []model.EnrichedFilm, minDirectorFilms int) model.Polarizing {
	var variances []model.VarianceFilm
	type directorAcc struct {
		sum   float64
		count int
	}
	directors := map[string]*directorAcc{}

	for i := range unique {
		f := unique[i]
		if f.Rating == nil || f.AvgRating == nil {
			continue
		}
		variance := *f.Rating - *f.AvgRating
		direction := "underrated"
		if variance > 0 {
			direction = "overrated"
		}
		variances = append(variances, model.VarianceFilm{
			Title:      f.Title,
			YourRating: *f.Rating,
			AvgRating:  *f.AvgRating,
			Variance:   variance,
			Direction:  direction,
		})
		for _, d := range f.Directors {
			if directors[d] == nil {
				directors[d] = &directorAcc{}
			}
			directors[d].sum += variance
			directors[d].count++
		}
	}

	sort.SliceStable(variances, func(i, j int) bool {
		return math.Abs(variances[i].Variance) > math.Abs(variances[j].Variance)
	})
	if len(variances) > topVarianceItems {
		variances = variances[:topVarianceItems]
	}

	var scored []model.VarianceDirector
	for name, a := range directors {
		if a.count < minDirectorFilms {
			continue
		}
		avg := a.sum / float64(a.count)
		scored = append(scored, model.VarianceDirector{
			Director:    name,
			AvgVariance: avg,
			NumFilms:    a.count,
			// 样本数开方做权重，避免只看过两部的导演霸榜
			Score: avg * math.Sqrt(float64(a.count)),
		})
	}

	// 自己平均打高分的导演进 overhyped 榜，打低分的进 underhyped 榜
	overhyped := make([]model.VarianceDirector, 0, len(scored))
	underhyped := make([]model.VarianceDirector, 0, len(scored))
	for _, d := range scored {
		if d.Score > 0 {
			overhyped = append(overhyped, d)
		} else if d.Score < 0 {
			underhyped = append(underhyped, d)
		}
	}
	sort.SliceStable(overhyped, func(i, j int) bool { return overhyped[i].Score > overhyped[j].Score })
	sort.SliceStable(underhyped, func(i, j int) bool { return underhyped[i].Score < underhyped[j].Score })
	if len(overhyped) > topDirectorItems {
		overhyped = overhyped[:topDirectorItems]
	}
	if len(underhyped) > topDirectorItems {
		underhyped = underhyped[:topDirectorItems]
	}

	return model.Polarizing{
		TopVarianceFilms:    variances,
		OverhypedDirectors:  overhyped,
		UnderhypedDirectors: underhyped,
	}
}

// buildRuntimeStats 片长统计，只统计有片长数据的去重电影
func buildRuntimeStats(unique []model.EnrichedFilm) *model.RuntimeStats {
	stats := &model.RuntimeStats{}
	var longest, shortest *model.FilmSpan

	for i := range unique {
		f := unique[i]
		if f.Runtime == nil || *f.Runtime <= 0 {
			continue
		}
		stats.FilmsWithRuntime++
		stats.TotalMinutes += *f.Runtime
		if longest == nil || *f.Runtime > longest.Runtime {
			longest = &model.FilmSpan{Title: f.Title, Runtime: *f.Runtime}
		}
		if shortest == nil || *f.Runtime < shortest.Runtime {
			shortest = &model.FilmSpan{Title: f.Title, Runtime: *f.Runtime}
		}
	}

	if stats.FilmsWithRuntime > 0 {
		stats.TotalHours = math.Round(float64(stats.TotalMinutes)/60*10) / 10
		stats.TotalDays = math.Round(float64(stats.TotalMinutes)/1440*10) / 10
		avg := float64(stats.TotalMinutes) / float64(stats.FilmsWithRuntime)
		stats.AvgRuntime = &avg
	}
	stats.LongestFilm = longest
	stats.ShortestFilm = shortest
	return stats
}

// buildAverageFilmAge 观看年份与上映年份的平均差，按观影次数计
func buildAverageFilmAge(films []model.EnrichedFilm) *float64 {
	sum, n := 0, 0
	for i := range films {
		if films[i].ReleaseYear == nil {
			continue
		}
		sum += films[i].WatchDate.Year() - *films[i].ReleaseYear
		n++
	}
	if n == 0 {
		return nil
	}
	v := float64(sum) / float64(n)
	return &v
}

// buildAverageRating 个人评分均值，只算评过分的条目
func buildAverageRating(films []model.EnrichedFilm) *float64 {
	acc := ratingAccumulator{}
	for i := range films {
		acc.add(films[i].Rating)
	}
	return acc.avg()
}

// splitCategories 把去重后的电影按八个分类拆开
// 每个成员（人名 / 类型 / 语言等）记出现次数和出现电影的个人评分均值
func splitCategories(unique []model.EnrichedFilm) map[string]map[string]*ratingAccumulator {
	categories := map[string]map[string]*ratingAccumulator{
		"actors":           {},
		"directors":        {},
		"writers":          {},
		"editors":          {},
		"cinematographers": {},
		"genres":           {},
		"studios":          {},
		"languages":        {},
	}

	add := func(category string, names []string, rating *float64) {
		members := categories[category]
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			m := members[name]
			if m == nil {
				m = &ratingAccumulator{}
				members[name] = m
			}
			m.add(rating)
		}
	}

	for i := range unique {
		f := unique[i]
		add("actors", f.Actors, f.Rating)
		add("directors", f.Directors, f.Rating)
		add("writers", f.Writers, f.Rating)
		add("editors", f.Editors, f.Rating)
		add("cinematographers", f.Cinematographers, f.Rating)
		add("genres", f.Genres, f.Rating)
		if f.Studio != "" {
			add("studios", []string{f.Studio}, f.Rating)
		}
		if f.Language != "" {
			add("languages", []string{f.Language}, f.Rating)
		}
	}
	return categories
}

// buildCounts 各分类去重后的总量
func buildCounts(categories map[string]map[string]*ratingAccumulator) model.AggregateCounts {
	return model.AggregateCounts{
		Actors:           len(categories["actors"]),
		Directors:        len(categories["directors"]),
		Writers:          len(categories["writers"]),
		Editors:          len(categories["editors"]),
		Cinematographers: len(categories["cinematographers"]),
		Genres:           len(categories["genres"]),
		Studios:          len(categories["studios"]),
		Languages:        len(categories["languages"]),
	}
}

// rankCategory 按出现次数排名，并列按均分再按名字
func rankCategory(members map[string]*ratingAccumulator) []model.RankedItem {
	items := make([]model.RankedItem, 0, len(members))
	for name, m := range members {
		items = append(items, model.RankedItem{
			Name:      name,
			Count:     m.count,
			AvgRating: m.avg(),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		ai, aj := ratingOrNeg(items[i].AvgRating), ratingOrNeg(items[j].AvgRating)
		if ai != aj {
			return ai > aj
		}
		return items[i].Name < items[j].Name
	})
	if len(items) > topRankedItems {
		items = items[:topRankedItems]
	}
	return items
}

// scoreCategory 三种评分模型下的排名，只对有评分数据的成员计算
func scoreCategory(members map[string]*ratingAccumulator) *model.CategoryScores {
	scores := &model.CategoryScores{}
	for name, m := range members {
		avg := m.avg()
		if avg == nil {
			continue
		}
		n := float64(m.rated)

		scores.Weighted = append(scores.Weighted, model.ScoredItem{
			Name:      name,
			Score:     *avg * math.Log(n+1),
			Count:     m.rated,
			AvgRating: *avg,
		})
		scores.Bayesian = append(scores.Bayesian, model.ScoredItem{
			Name:      name,
			Score:     (n*(*avg) + bayesConfidence*bayesPriorMean) / (n + bayesConfidence),
			Count:     m.rated,
			AvgRating: *avg,
		})
		scores.Wilson = append(scores.Wilson, model.ScoredItem{
			Name:      name,
			Score:     wilsonLowerBound(*avg/5.0, n) * 5.0,
			Count:     m.rated,
			AvgRating: *avg,
		})
	}

	scores.Weighted = sortScored(scores.Weighted)
	scores.Bayesian = sortScored(scores.Bayesian)
	scores.Wilson = sortScored(scores.Wilson)
	return scores
}

func sortScored(items []model.ScoredItem) []model.ScoredItem {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Name < items[j].Name
	})
	if len(items) > topRankedItems {
		items = items[:topRankedItems]
	}
	return items
}

// wilsonLowerBound 正态近似下的 Wilson 置信下界
// p 是 0~1 的好评比例，n 是样本数
func wilsonLowerBound(p float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	z := wilsonZ
	denominator := 1 + z*z/n
	center := p + z*z/(2*n)
	margin := z * math.Sqrt((p*(1-p)+z*z/(4*n))/n)
	return (center - margin) / denominator
}
