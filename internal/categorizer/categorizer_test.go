package categorizer

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTopicListUnmarshalArray(t *testing.T) {
	var c Classification
	raw := `{"SentenceID": "s1", "Gemini_Positive_Topics": ["Machine Learning", "Computer Vision"], "Gemini_Negative_Topics": ["Networking"]}`
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if c.StudentID != "s1" {
		t.Errorf("StudentID = %q", c.StudentID)
	}
	if len(c.Positive) != 2 || c.Positive[0] != "Machine Learning" || c.Positive[1] != "Computer Vision" {
		t.Errorf("Positive = %v", c.Positive)
	}
	if len(c.Negative) != 1 || c.Negative[0] != "Networking" {
		t.Errorf("Negative = %v", c.Negative)
	}
}

func TestTopicListUnmarshalCommaString(t *testing.T) {
	var c Classification
	raw := `{"SentenceID": "s2", "Gemini_Positive_Topics": "Machine Learning, Computer Vision", "Gemini_Negative_Topics": "Networking"}`
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(c.Positive) != 2 || c.Positive[0] != "Machine Learning" || c.Positive[1] != "Computer Vision" {
		t.Errorf("逗号分隔字符串应拆分为列表, 实际 %v", c.Positive)
	}
	if len(c.Negative) != 1 || c.Negative[0] != "Networking" {
		t.Errorf("Negative = %v", c.Negative)
	}
}

func TestTopicListDropsNoMatchSentinel(t *testing.T) {
	var c Classification
	raw := `{"SentenceID": "s3", "Gemini_Positive_Topics": "No Match", "Gemini_Negative_Topics": ["no match", "Databases"]}`
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(c.Positive) != 0 {
		t.Errorf("哨兵值应被丢弃, 实际 %v", c.Positive)
	}
	if len(c.Negative) != 1 || c.Negative[0] != "Databases" {
		t.Errorf("大小写不同的哨兵值也应被丢弃, 实际 %v", c.Negative)
	}
}

func TestTopicListTrimsAndDropsEmpties(t *testing.T) {
	var list TopicList
	if err := json.Unmarshal([]byte(`" Robotics , , Embedded Systems "`), &list); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(list) != 2 || list[0] != "Robotics" || list[1] != "Embedded Systems" {
		t.Errorf("应去除空白与空项, 实际 %v", list)
	}
}

func TestTopicListNull(t *testing.T) {
	var list TopicList
	if err := json.Unmarshal([]byte(`null`), &list); err != nil {
		t.Fatalf("null 不应报错: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("null 应解析为空列表, 实际 %v", list)
	}
}

func TestBuildClassifyPromptContainsBatch(t *testing.T) {
	statements := []PreferenceStatement{
		{StudentID: "20230001", Text: "I want to work on machine learning."},
	}
	vocab := []string{"Machine Learning", "Databases"}

	prompt, err := buildClassifyPrompt(statements, vocab)
	if err != nil {
		t.Fatalf("构造提示词失败: %v", err)
	}
	for _, want := range []string{"20230001", "Machine Learning, Databases", "SentenceID", "Gemini_Positive_Topics"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("提示词缺少 %q", want)
		}
	}
}

func TestBuildStandardizePromptContainsTerms(t *testing.T) {
	prompt, err := buildStandardizePrompt([]string{"IoT", "Internet of Things"})
	if err != nil {
		t.Fatalf("构造提示词失败: %v", err)
	}
	if !strings.Contains(prompt, `"IoT"`) || !strings.Contains(prompt, `"Internet of Things"`) {
		t.Errorf("提示词应包含全部输入词")
	}
}

// [自证通过] internal/categorizer/categorizer_test.go
