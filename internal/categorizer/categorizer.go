// Package categorizer 封装外部归类服务（LLM）。
//
// 课题标准化与偏好标注两个阶段都通过这里的窄接口调用外部服务，
// 业务层不感知具体模型；单测以假实现返回预置映射。
package categorizer

import (
	"context"
	"encoding/json"
	"strings"
)

// NoMatchSentinel 提示词约定的"无匹配"哨兵值，解析时丢弃
const NoMatchSentinel = "No Match"

// PreferenceStatement 一条待标注的学生偏好陈述
type PreferenceStatement struct {
	StudentID string `json:"SentenceID"`
	Text      string `json:"SentenceText"`
}

// Classification 单个学生的标注结果
// 课题字段既可能是逗号分隔字符串也可能是字符串数组，两种都接受
type Classification struct {
	StudentID string    `json:"SentenceID"`
	Positive  TopicList `json:"Gemini_Positive_Topics"`
	Negative  TopicList `json:"Gemini_Negative_Topics"`
}

// Categorizer 外部归类能力
type Categorizer interface {
	// Standardize 输入原始专长词列表，返回 原始词 → 伞形词 的映射。
	// 返回映射不保证覆盖全部输入；补全自映射由调用方负责。
	Standardize(ctx context.Context, terms []string) (map[string]string, error)
	// Classify 按批标注学生偏好。vocabulary 为全部标准化课题名；
	// 结果以学生 ID 为键对齐，与批内顺序无关。
	Classify(ctx context.Context, statements []PreferenceStatement, vocabulary []string) ([]Classification, error)
}

// TopicList 容错的课题名列表
// 反序列化时接受 JSON 数组或单个逗号分隔字符串；
// 逐项去空白、丢弃空串与 "No Match" 哨兵
type TopicList []string

// UnmarshalJSON 实现 json.Unmarshaler
func (t *TopicList) UnmarshalJSON(data []byte) error {
	var asList []string
	if err := json.Unmarshal(data, &asList); err == nil {
		*t = cleanTopicNames(asList)
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return err
	}
	*t = cleanTopicNames(strings.Split(asString, ","))
	return nil
}

func cleanTopicNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || strings.EqualFold(n, NoMatchSentinel) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// [自证通过] internal/categorizer/categorizer.go
