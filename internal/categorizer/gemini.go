package categorizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"capmatch/backend/config"
)

// GeminiCategorizer 基于 Google Gemini 的 Categorizer 实现
type GeminiCategorizer struct {
	client  *genai.Client
	model   string
	timeout configTimeout
	logger  *zap.Logger
}

type configTimeout = func(ctx context.Context) (context.Context, context.CancelFunc)

// NewGeminiCategorizer 创建 Gemini 客户端
func NewGeminiCategorizer(ctx context.Context, cfg *config.GeminiConfig, logger *zap.Logger) (*GeminiCategorizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini.api_key 未配置")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 Gemini 客户端失败: %w", err)
	}

	timeout := cfg.RequestTimeout
	return &GeminiCategorizer{
		client: client,
		model:  cfg.Model,
		timeout: func(ctx context.Context) (context.Context, context.CancelFunc) {
			if timeout <= 0 {
				return ctx, func() {}
			}
			return context.WithTimeout(ctx, timeout)
		},
		logger: logger,
	}, nil
}

// Standardize 请求一份 原始词 → 伞形词 的 JSON 对象映射
func (g *GeminiCategorizer) Standardize(ctx context.Context, terms []string) (map[string]string, error) {
	if len(terms) == 0 {
		return map[string]string{}, nil
	}

	prompt, err := buildStandardizePrompt(terms)
	if err != nil {
		return nil, err
	}

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	payload, err := RepairObject(text)
	if err != nil {
		g.logger.Warn("标准化响应无法修复为 JSON 对象", zap.String("snippet", snippet(text)))
		return nil, err
	}

	var mapping map[string]string
	if err := json.Unmarshal([]byte(payload), &mapping); err != nil {
		g.logger.Warn("标准化响应解析失败", zap.Error(err), zap.String("snippet", snippet(payload)))
		return nil, fmt.Errorf("解析标准化映射失败: %w", err)
	}
	return mapping, nil
}

// Classify 请求一批学生偏好的标注结果（JSON 数组）
func (g *GeminiCategorizer) Classify(ctx context.Context, statements []PreferenceStatement, vocabulary []string) ([]Classification, error) {
	if len(statements) == 0 {
		return nil, nil
	}

	prompt, err := buildClassifyPrompt(statements, vocabulary)
	if err != nil {
		return nil, err
	}

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	payload, err := RepairArray(text)
	if err != nil {
		g.logger.Warn("标注响应无法修复为 JSON 数组", zap.String("snippet", snippet(text)))
		return nil, err
	}

	var results []Classification
	if err := json.Unmarshal([]byte(payload), &results); err != nil {
		g.logger.Warn("标注响应解析失败", zap.Error(err), zap.String("snippet", snippet(payload)))
		return nil, fmt.Errorf("解析标注结果失败: %w", err)
	}
	return results, nil
}

func (g *GeminiCategorizer) generate(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := g.timeout(ctx)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(callCtx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("调用 Gemini 失败: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		// 空响应通常意味着提示词被安全策略拦截
		return "", ErrEmptyResponse
	}
	return text, nil
}

func snippet(s string) string {
	if len(s) > 200 {
		return s[:200]
	}
	return s
}

// ── 提示词构造 ──
//
// 提示词使用英文：归类对象（专长词、偏好陈述）本身是英文数据

func buildStandardizePrompt(terms []string) (string, error) {
	termsJSON, err := json.Marshal(terms)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("You are an expert academic research field categorizer and data normalizer.\n")
	b.WriteString("I have a list of expertise areas extracted from a dataset of supervisors. ")
	b.WriteString("Many of these terms are variations of the same concept (e.g., \"IoT\", \"Internet of Things\", \"Industrial IoT\") or very closely related.\n\n")
	b.WriteString("Analyze the following list of unique expertise terms and create a JSON object that maps each original term to a single, consistent, standardised \"umbrella\" term, ")
	b.WriteString("so that similar or synonymous terms are grouped under one standardised term for labeling student preferences in a university database.\n\n")
	b.WriteString("Guidelines:\n")
	b.WriteString("1. The standardised term should be a concise and commonly understood representation of the concept.\n")
	b.WriteString("2. If an original term is already a good standard, it can map to itself.\n")
	b.WriteString("3. Group synonymous or similar terms under ONE standardised term.\n")
	b.WriteString("4. The output MUST be a single JSON object where keys are the original terms from the input list and values are their standardised umbrella terms. Every input term must be a key in the output.\n")
	b.WriteString("5. Do not include any explanatory text outside the JSON object. Just the JSON.\n\n")
	b.WriteString("List of unique expertise terms:\n")
	b.Write(termsJSON)
	b.WriteString("\n\nPlease provide the JSON mapping:\n")
	return b.String(), nil
}

func buildClassifyPrompt(statements []PreferenceStatement, vocabulary []string) (string, error) {
	statementsJSON, err := json.MarshalIndent(statements, "", "  ")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("You are an expert AI assistant specialized in classifying student project preferences.\n")
	b.WriteString("Label each student preference sentence with relevant project topics, both positive and negative. ")
	b.WriteString("You MUST use ONLY the topics from the provided standardized list.\n\n")
	b.WriteString("Standardized Topics List:\n")
	b.WriteString(strings.Join(vocabulary, ", "))
	b.WriteString("\n\nInput sentences for this batch (JSON array of objects):\n")
	b.Write(statementsJSON)
	b.WriteString("\n\nInstructions:\n")
	b.WriteString("1. For each sentence object, analyze the \"SentenceText\".\n")
	b.WriteString("2. Identify topics the student expresses a POSITIVE preference for, and topics they express a NEGATIVE preference for.\n")
	b.WriteString("3. Topics MUST be chosen EXACTLY from the Standardized Topics List. Do not invent new topics or use variations. If you are uncertain, label it as 'No Match'.\n")
	b.WriteString("4. Your output MUST be a valid JSON array of objects, one per input sentence, each with keys:\n")
	b.WriteString("   * \"SentenceID\": (string) the ID from the input sentence object\n")
	b.WriteString("   * \"Gemini_Positive_Topics\": positive topics as comma separated values, or 'No Match'\n")
	b.WriteString("   * \"Gemini_Negative_Topics\": negative topics as comma separated values, or 'No Match'\n")
	b.WriteString("5. Ensure every SentenceID from the input batch is present in your output JSON array.\n")
	b.WriteString("6. Do NOT include the original 'SentenceText' in your output, only the specified keys.\n\n")
	b.WriteString("Begin your JSON output now (a single, valid JSON array for this batch):\n")
	return b.String(), nil
}

// [自证通过] internal/categorizer/gemini.go
