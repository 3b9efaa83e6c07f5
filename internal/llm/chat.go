package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"quickai/internal/config"

	"github.com/sirupsen/logrus"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason,omitempty"`
	} `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ChatService 调用 OpenAI 兼容的 chat completions 接口。
type ChatService struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
}

func NewChatService(cfg config.Config) (*ChatService, error) {
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		return nil, errors.New("gemini api key is not configured")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.GeminiBaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("chat base url is not configured")
	}
	model := strings.TrimSpace(cfg.ChatModel)
	if model == "" {
		model = "gemini-2.0-flash"
	}

	return &ChatService{
		httpClient: &http.Client{},
		apiKey:     cfg.GeminiAPIKey,
		baseURL:    baseURL,
		model:      model,
	}, nil
}

func (s *ChatService) ProviderID() string {
	return "gemini-openai"
}

// Complete 发送单条 user 消息并返回首个 choice 的内容。
func (s *ChatService) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	logger := providerLogger(ctx, s.ProviderID(), s.model)
	logger.WithFields(logrus.Fields{
		"prompt_length":  len([]rune(prompt)),
		"prompt_preview": logSnippet(prompt),
		"max_tokens":     maxTokens,
	}).Info("llm_chat_completion_start")

	payload := chatCompletionRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   maxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		logger.WithError(err).Error("llm_chat_completion_payload_marshal_failed")
		return "", err
	}

	endpoint := s.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		logger.WithError(err).Error("llm_chat_completion_request_build_failed")
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.WithError(err).Error("llm_chat_completion_request_failed")
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.WithField("status", resp.StatusCode).WithError(err).Error("llm_chat_completion_response_read_failed")
		return "", err
	}

	logger.WithField("status", resp.StatusCode).Info("llm_chat_completion_response_status")
	if resp.StatusCode >= http.StatusBadRequest {
		logger.WithFields(logrus.Fields{
			"status":       resp.StatusCode,
			"body_preview": logSnippet(string(respBody)),
		}).Warn("llm_chat_completion_response_error")
		var apiErr chatErrorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			return "", errors.New(apiErr.Error.Message)
		}
		return "", fmt.Errorf("chat completion failed with status %d", resp.StatusCode)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		logger.WithError(err).Error("llm_chat_completion_response_unmarshal_failed")
		return "", err
	}
	if len(completion.Choices) == 0 {
		logger.Warn("llm_chat_completion_no_choices")
		return "", errors.New("chat completion response contained no choices")
	}

	content := completion.Choices[0].Message.Content
	logger.WithFields(logrus.Fields{
		"content_length":  len([]rune(content)),
		"content_preview": logSnippet(content),
	}).Info("llm_chat_completion_success")
	return content, nil
}
