package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"quickai/internal/config"

	"github.com/sirupsen/logrus"
)

const clipdropTextToImageURL = "https://clipdrop-api.co/text-to-image/v1"

type clipdropErrorResponse struct {
	Error string `json:"error"`
}

// ClipdropService 调用 Clipdrop 文生图接口，返回图片二进制。
type ClipdropService struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
}

func NewClipdropService(cfg config.Config) (*ClipdropService, error) {
	if strings.TrimSpace(cfg.ClipdropAPIKey) == "" {
		return nil, errors.New("clipdrop api key is not configured")
	}
	return &ClipdropService{
		httpClient: &http.Client{},
		apiKey:     cfg.ClipdropAPIKey,
		endpoint:   clipdropTextToImageURL,
	}, nil
}

func (s *ClipdropService) ProviderID() string {
	return "clipdrop"
}

// Generate 提交 prompt，响应体即图片字节流。
func (s *ClipdropService) Generate(ctx context.Context, prompt string) ([]byte, error) {
	logger := providerLogger(ctx, s.ProviderID(), "text-to-image")
	logger.WithFields(logrus.Fields{
		"prompt_length":  len([]rune(prompt)),
		"prompt_preview": logSnippet(prompt),
	}).Info("llm_generate_image_start")

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("prompt", prompt); err != nil {
		logger.WithError(err).Error("llm_generate_image_payload_build_failed")
		return nil, err
	}
	if err := writer.Close(); err != nil {
		logger.WithError(err).Error("llm_generate_image_payload_build_failed")
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, &body)
	if err != nil {
		logger.WithError(err).Error("llm_generate_image_request_build_failed")
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("x-api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.WithError(err).Error("llm_generate_image_request_failed")
		return nil, err
	}
	defer resp.Body.Close()

	logger.WithField("status", resp.StatusCode).Info("llm_generate_image_response_status")
	if resp.StatusCode >= http.StatusBadRequest {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			logger.WithField("status", resp.StatusCode).WithError(readErr).Error("llm_generate_image_response_read_failed")
			return nil, fmt.Errorf("clipdrop request failed with status %d", resp.StatusCode)
		}
		logger.WithFields(logrus.Fields{
			"status":       resp.StatusCode,
			"body_preview": logSnippet(string(respBody)),
		}).Warn("llm_generate_image_response_error")
		var apiErr clipdropErrorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return nil, errors.New(apiErr.Error)
		}
		return nil, fmt.Errorf("clipdrop request failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.WithError(err).Error("llm_generate_image_response_read_failed")
		return nil, err
	}
	if len(data) == 0 {
		logger.Warn("llm_generate_image_empty_body")
		return nil, errors.New("clipdrop response did not include image data")
	}

	logger.WithFields(logrus.Fields{
		"image_bytes":  len(data),
		"content_type": resp.Header.Get("Content-Type"),
	}).Info("llm_generate_image_success")
	return data, nil
}
