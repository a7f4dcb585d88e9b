package service

import (
	"bytes"
	"encoding/json"
	"exam_admin_backend/internal/config"
	"exam_admin_backend/internal/model"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AIService 调用 OpenAI 兼容接口生成主观题判分建议。
// 建议仅供阅卷人参考，任何落分都必须由人工提交。
type AIService struct {
	config config.AIConfig
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{config: cfg}
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model    string          `json:"model"`
	Messages []AIChatMessage `json:"messages"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GradeSuggestion AI 判分建议
type GradeSuggestion struct {
	SuggestedScore float64 `json:"suggestedScore"`
	MaxScore       float64 `json:"maxScore"`
	Rationale      string  `json:"rationale"`
}

func (s *AIService) chat(system, prompt string) (string, error) {
	reqBody := ChatCompletionRequest{
		Model: s.config.Model,
		Messages: []AIChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest("POST", s.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}

	if len(result.Choices) > 0 {
		return result.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("AI returned no choices")
}

// SuggestGrade 对一份主观题作答生成建议分与评语。
// 模型要求返回 JSON；解析失败时退化为 0 分建议并附原始文本。
func (s *AIService) SuggestGrade(q *model.Question, answerText string) (*GradeSuggestion, error) {
	system := "你是一名严谨的考试阅卷助理。根据题目与考生作答给出建议分数与简短评分理由。" +
		"只输出 JSON，格式：{\"score\": <0到满分之间的数字>, \"rationale\": \"<一到两句理由>\"}，不要输出其他内容。"

	prompt := fmt.Sprintf("题目（满分 %.1f 分）：\n%s\n\n考生作答：\n%s", q.Points, q.Content, answerText)
	if answerText == "" {
		prompt = fmt.Sprintf("题目（满分 %.1f 分）：\n%s\n\n考生未作答。", q.Points, q.Content)
	}

	content, err := s.chat(system, prompt)
	if err != nil {
		return nil, err
	}

	// 模型偶尔会包一层 markdown 代码块
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var parsed struct {
		Score     float64 `json:"score"`
		Rationale string  `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return &GradeSuggestion{SuggestedScore: 0, MaxScore: q.Points, Rationale: content}, nil
	}

	if parsed.Score < 0 {
		parsed.Score = 0
	}
	if parsed.Score > q.Points {
		parsed.Score = q.Points
	}

	return &GradeSuggestion{
		SuggestedScore: parsed.Score,
		MaxScore:       q.Points,
		Rationale:      parsed.Rationale,
	}, nil
}
