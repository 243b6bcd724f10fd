package service

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// Renderer 页面渲染客户端
// 抓取流程对文档来源的唯一依赖：给定 URL，返回内容已就绪的 HTML 文档。
// 目标站点的日记页和详情页内容都在服务端渲染完成，直接 HTTP 抓取即可；
// 若未来需要执行页面脚本，换一个实现即可，调用方不感知
type Renderer interface {
	Render(ctx context.Context, url string) (*goquery.Document, error)
}

// Governor 礼貌性约束
// 所有外发请求共享同一个限速器，保证相邻请求之间的最小间隔；
// 分页控制器另外受页数上限约束
type Governor struct {
	limiter  *rate.Limiter
	maxPages int
}

// NewGovernor 创建礼貌性约束，delay 是相邻请求的最小间隔，maxPages 为 0 表示不限页数
func NewGovernor(delay time.Duration, maxPages int) *Governor {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Governor{
		limiter:  rate.NewLimiter(limit, 1),
		maxPages: maxPages,
	}
}

// Wait 阻塞到允许发起下一次请求为止
func (g *Governor) Wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}

// PageAllowed 第 page 页是否在页数上限之内
func (g *Governor) PageAllowed(page int) bool {
	return g.maxPages <= 0 || page <= g.maxPages
}

// 模拟浏览器的 User-Agent 池
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:109.0) Gecko/20100101 Firefox/121.0",
}

// HTTPRenderer 基于直接 HTTP 抓取的渲染客户端实现
type HTTPRenderer struct {
	client   *resty.Client
	governor *Governor
}

// NewHTTPRenderer 创建渲染客户端
// 重试策略：网络错误、429、5xx 按固定次数退避重试，4xx 客户端错误不重试
func NewHTTPRenderer(timeout time.Duration, retryCount int, governor *Governor) *HTTPRenderer {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(8 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	return &HTTPRenderer{
		client:   client,
		governor: governor,
	}
}

// Render 抓取并解析一个页面
func (r *HTTPRenderer) Render(ctx context.Context, url string) (*goquery.Document, error) {
	if err := r.governor.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", userAgents[rand.Intn(len(userAgents))]).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9").
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetchFailure, url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: %s 返回状态码 %d", ErrFetchFailure, url, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParseFailure, url, err)
	}
	return doc, nil
}
