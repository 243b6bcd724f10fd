package utils

import (
	"regexp"
	"strings"
)

// NormalizeTitle 归一化电影标题：去首尾空白并折叠内部连续空白
// 保留原始大小写，页面展示仍用原标题
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(title), " ")
}

// reTitleYear 匹配 "标题 (年份)" 形式的条目名
var reTitleYear = regexp.MustCompile(`^(.*)\((\d{4})\)\s*$`)

// SplitTitleYear 拆分 "标题 (年份)"，没有年份时 year 返回空串
func SplitTitleYear(name string) (title, year string) {
	if match := reTitleYear.FindStringSubmatch(name); len(match) > 2 {
		return strings.TrimSpace(match[1]), match[2]
	}
	return strings.TrimSpace(name), ""
}

var reSlugClean = regexp.MustCompile(`[^a-z0-9\-]`)

// Slugify 把名字转成站点 URL 里的 slug（如 "Ellen Burstyn" -> "ellen-burstyn"）
// 人物页和电影详情页的地址都是这种形式
func Slugify(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "'", "")
	slug = strings.ReplaceAll(slug, ".", "")
	return reSlugClean.ReplaceAllString(slug, "")
}

// ParseStarRating 解析星号文本评分（★★★½ 形式），解析不出返回 nil
func ParseStarRating(text string) *float64 {
	stars := strings.Count(text, "★")
	half := 0.0
	if strings.Contains(text, "½") {
		half = 0.5
	}
	if stars == 0 && half == 0 {
		return nil
	}
	v := float64(stars) + half
	return &v
}

// Dedupe 去重并保持原有顺序，空字符串一并剔除
func Dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, item := range items {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
