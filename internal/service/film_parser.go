package service

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/reelstats/internal/model"
	"github.com/user/reelstats/internal/utils"
)

// 单部电影的演员表最多保留的人数
const maxActors = 15

var (
	reNumber       = regexp.MustCompile(`(\d+\.?\d*)`)
	reRuntimeText  = regexp.MustCompile(`(\d+)\s*(?:mins?|minutes?)`)
	reDurationHour = regexp.MustCompile(`(\d+)H`)
	reDurationMin  = regexp.MustCompile(`(\d+)M`)
	rePosterURL    = regexp.MustCompile(`https://a\.ltrbxd\.com/resized/film-poster/[^"'<>\s]+\.jpg`)
	rePosterLegacy = regexp.MustCompile(`https://a\.ltrbxd\.com/resized/sm/upload/[^"'<>\s]+-0-230-0-345-crop\.jpg[^"'<>\s]*`)
	reDirectorRole = regexp.MustCompile(`\bdirectors?\b`)
	reNotDirector  = regexp.MustCompile(`assistant|asst|art|set|decor|production design|casting`)
	reWriterRole   = regexp.MustCompile(`writer|screenplay|written`)
	reEditorRole   = regexp.MustCompile(`edit`)
	reCameraRole   = regexp.MustCompile(`cinemat|camera|director of photography|\bdp\b`)
)

// parseJSONLD 提取页面里的 JSON-LD 数据块
// 站点会用 CDATA 注释包裹脚本内容，截取首尾花括号之间的部分再解析
func parseJSONLD(doc *goquery.Document) map[string]interface{} {
	var result map[string]interface{}
	doc.Find("script[type='application/ld+json']").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := s.Text()
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return true
		}
		var ld map[string]interface{}
		if err := json.Unmarshal([]byte(text[start:end+1]), &ld); err != nil {
			return true
		}
		result = ld
		return false
	})
	return result
}

// ParseFilmMainPage 解析电影主页：演员、社区均分、片长、海报
func ParseFilmMainPage(doc *goquery.Document, enrich *model.Enrichment) {
	if doc == nil {
		return
	}

	ld := parseJSONLD(doc)

	// 演员表：优先 cast 列表，退化到演员链接
	var actors []string
	cast := doc.Find("#tab-cast .cast-list a.text-slug")
	if cast.Length() == 0 {
		cast = doc.Find(".cast-list a.text-slug")
	}
	if cast.Length() > 0 {
		cast.Each(func(i int, s *goquery.Selection) {
			actors = append(actors, strings.TrimSpace(s.Text()))
		})
	} else {
		doc.Find("a[href*='/actor/']").Each(func(i int, s *goquery.Selection) {
			actors = append(actors, strings.TrimSpace(s.Text()))
		})
	}
	actors = utils.Dedupe(actors)
	if len(actors) > maxActors {
		actors = actors[:maxActors]
	}
	enrich.Actors = actors

	// 社区均分：twitter:data2 meta，退化到 JSON-LD aggregateRating
	if content, exists := doc.Find("meta[name='twitter:data2']").Attr("content"); exists {
		if match := reNumber.FindString(content); match != "" {
			if v, err := strconv.ParseFloat(match, 64); err == nil {
				enrich.AvgRating = &v
			}
		}
	}
	if enrich.AvgRating == nil && ld != nil {
		if ar, ok := ld["aggregateRating"].(map[string]interface{}); ok {
			if v, ok := ar["ratingValue"].(float64); ok {
				enrich.AvgRating = &v
			}
		}
	}

	// 片长：JSON-LD 的 ISO-8601 duration，退化到正文里的 "N mins"
	if ld != nil {
		if duration, ok := ld["duration"].(string); ok {
			if mins := parseISODuration(duration); mins > 0 {
				enrich.Runtime = &mins
			}
		}
	}
	if enrich.Runtime == nil {
		if match := reRuntimeText.FindStringSubmatch(doc.Text()); len(match) > 1 {
			if mins, err := strconv.Atoi(match[1]); err == nil && mins > 0 {
				enrich.Runtime = &mins
			}
		}
	}

	enrich.PosterURL = parsePoster(doc)
}

// parseISODuration 解析 PT2H30M 形式的时长，返回分钟数
func parseISODuration(duration string) int {
	duration = strings.ToUpper(strings.TrimPrefix(strings.ToUpper(duration), "PT"))
	total := 0
	if match := reDurationHour.FindStringSubmatch(duration); len(match) > 1 {
		h, _ := strconv.Atoi(match[1])
		total += h * 60
	}
	if match := reDurationMin.FindStringSubmatch(duration); len(match) > 1 {
		m, _ := strconv.Atoi(match[1])
		total += m
	}
	return total
}

// parsePoster 从页面脚本里找海报地址，并升级到高分辨率
func parsePoster(doc *goquery.Document) string {
	poster := ""
	doc.Find("script").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := s.Text()
		if matches := rePosterURL.FindAllString(text, -1); len(matches) > 0 {
			for _, m := range matches {
				if strings.Contains(m, "-230-") || strings.Contains(m, "-500-") || strings.Contains(m, "-1000-") {
					poster = m
					return false
				}
			}
			poster = matches[0]
			return false
		}
		if m := rePosterLegacy.FindString(text); m != "" {
			poster = m
			return false
		}
		return true
	})

	if poster == "" {
		doc.Find("div.film-poster").EachWithBreak(func(i int, s *goquery.Selection) bool {
			for _, attr := range s.Nodes[0].Attr {
				if strings.HasPrefix(attr.Key, "data-") && strings.Contains(attr.Val, "ltrbxd.com") {
					poster = attr.Val
					return false
				}
			}
			return true
		})
	}

	// 230x345 / 110x165 的缩略图升级到 500x750
	poster = strings.ReplaceAll(poster, "-0-230-0-345-", "-0-500-0-750-")
	poster = strings.ReplaceAll(poster, "-0-110-0-165-", "-0-500-0-750-")
	return poster
}

// ParseFilmCrewPage 解析职员页：导演、编剧、剪辑、摄影
// 职员页按角色标题分节，标题后面跟人名链接列表
func ParseFilmCrewPage(doc *goquery.Document, enrich *model.Enrichment) {
	if doc == nil {
		return
	}

	container := doc.Find("#tab-crew")
	if container.Length() == 0 {
		container = doc.Selection
	}

	var directors, writers, editors, cameras []string
	container.Find("h2, h3, h4").Each(func(i int, header *goquery.Selection) {
		role := strings.ToLower(strings.TrimSpace(header.Text()))
		sibling := header.Next()
		if sibling.Length() == 0 {
			return
		}

		var names []string
		links := sibling.Find("a.text-slug")
		if links.Length() == 0 {
			links = sibling.Find("a")
		}
		links.Each(func(i int, a *goquery.Selection) {
			names = append(names, strings.TrimSpace(a.Text()))
		})

		switch {
		case reDirectorRole.MatchString(role) && !reNotDirector.MatchString(role):
			directors = append(directors, names...)
		case reWriterRole.MatchString(role):
			writers = append(writers, names...)
		case reEditorRole.MatchString(role):
			editors = append(editors, names...)
		case reCameraRole.MatchString(role):
			cameras = append(cameras, names...)
		}
	})

	if len(directors) == 0 {
		doc.Find("a[href*='/director/']").Each(func(i int, s *goquery.Selection) {
			directors = append(directors, strings.TrimSpace(s.Text()))
		})
	}

	enrich.Directors = utils.Dedupe(directors)
	enrich.Writers = utils.Dedupe(writers)
	enrich.Editors = utils.Dedupe(editors)
	enrich.Cinematographers = utils.Dedupe(cameras)
}

// ParseFilmDetailsPage 解析细节页：语言、制片公司
func ParseFilmDetailsPage(doc *goquery.Document, enrich *model.Enrichment) {
	if doc == nil {
		return
	}

	if ld := parseJSONLD(doc); ld != nil {
		switch lang := ld["inLanguage"].(type) {
		case string:
			enrich.Language = strings.TrimSpace(lang)
		case map[string]interface{}:
			if name, ok := lang["name"].(string); ok {
				enrich.Language = strings.TrimSpace(name)
			}
		}
	}
	if enrich.Language == "" {
		enrich.Language = strings.TrimSpace(doc.Find("a[href*='/language/']").First().Text())
	}

	enrich.Studio = strings.TrimSpace(doc.Find("a[href*='/studio/']").First().Text())
}

// ParseFilmGenresPage 解析类型页
// 类型和主题在同一个页签里，只取 Genres 小节，碰到 Themes 标题就停
func ParseFilmGenresPage(doc *goquery.Document, enrich *model.Enrichment) {
	if doc == nil {
		return
	}

	var genres []string

	tab := doc.Find("#tab-genres")
	if tab.Length() > 0 {
		tab.Find("h2, h3, h4").EachWithBreak(func(i int, header *goquery.Selection) bool {
			role := strings.ToLower(strings.TrimSpace(header.Text()))
			if strings.Contains(role, "theme") {
				return false
			}
			if !strings.Contains(role, "genre") {
				return true
			}
			header.NextUntil("h2, h3, h4").Find("a").Each(func(i int, a *goquery.Selection) {
				text := strings.TrimSpace(a.Text())
				if !strings.EqualFold(text, "show all") {
					genres = append(genres, text)
				}
			})
			return true
		})
	}

	if len(genres) == 0 {
		doc.Find("a[href*='/films/genre/']").Each(func(i int, s *goquery.Selection) {
			genres = append(genres, strings.TrimSpace(s.Text()))
		})
	}

	enrich.Genres = utils.Dedupe(genres)
}
