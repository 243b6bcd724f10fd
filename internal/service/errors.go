package service

import "errors"

// 抓取与统计流程的错误分类
// 致命错误只有三类：输入非法、首页为空、第一页都没抓下来；
// 其余失败都折叠成部分结果加警告
var (
	// ErrInvalidInput 输入非法（用户名为空、年份不可解析），任何抓取开始前就拒绝
	ErrInvalidInput = errors.New("输入参数非法")

	// ErrNoEntriesFound 日记第一页没有任何条目，不重试
	ErrNoEntriesFound = errors.New("未找到任何日记条目")

	// ErrFetchFailure 单个页面的网络请求失败（含超时），按重试策略处理
	ErrFetchFailure = errors.New("页面请求失败")

	// ErrParseFailure 页面结构不符合预期，重试策略同 ErrFetchFailure
	ErrParseFailure = errors.New("页面解析失败")

	// ErrExtractionFailure 第一页成功之前分页抓取就中止了，整次运行失败
	ErrExtractionFailure = errors.New("日记抓取失败")
)
