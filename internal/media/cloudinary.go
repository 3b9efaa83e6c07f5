package media

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"time"

	"quickai/internal/config"

	"github.com/sirupsen/logrus"
)

const deliveryBaseURL = "https://res.cloudinary.com"

// UploadResult 上传成功后返回的关键字段。
type UploadResult struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Format    string `json:"format"`
}

// Editor 图像编辑能力：带变换参数上传、以及构造变换后的访问 URL。
type Editor interface {
	Upload(ctx context.Context, data []byte, filename, transformation string) (*UploadResult, error)
	TransformURL(publicID, format, transformation string) string
}

type cloudinaryErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CloudinaryService 按 Cloudinary 上传协议实现 Editor。
type CloudinaryService struct {
	httpClient *http.Client
	cloudName  string
	apiKey     string
	apiSecret  string
	baseURL    string

	now func() time.Time
}

func NewCloudinaryService(cfg config.Config) (*CloudinaryService, error) {
	if strings.TrimSpace(cfg.CloudinaryCloudName) == "" {
		return nil, errors.New("cloudinary cloud name is not configured")
	}
	if strings.TrimSpace(cfg.CloudinaryAPIKey) == "" || strings.TrimSpace(cfg.CloudinaryAPISecret) == "" {
		return nil, errors.New("cloudinary api credentials are not configured")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.CloudinaryUploadBaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.cloudinary.com/v1_1"
	}

	return &CloudinaryService{
		httpClient: &http.Client{},
		cloudName:  cfg.CloudinaryCloudName,
		apiKey:     cfg.CloudinaryAPIKey,
		apiSecret:  cfg.CloudinaryAPISecret,
		baseURL:    baseURL,
		now:        time.Now,
	}, nil
}

// Upload 以签名方式上传图片，transformation 为空时走普通上传。
func (s *CloudinaryService) Upload(ctx context.Context, data []byte, filename, transformation string) (*UploadResult, error) {
	logger := logrus.WithFields(logrus.Fields{
		"provider":       "cloudinary",
		"image_bytes":    len(data),
		"transformation": transformation,
	})
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	logger.Info("media_upload_start")

	if len(data) == 0 {
		return nil, errors.New("image payload empty")
	}

	timestamp := fmt.Sprintf("%d", s.now().Unix())
	params := map[string]string{
		"timestamp": timestamp,
	}
	if trimmed := strings.TrimSpace(transformation); trimmed != "" {
		params["transformation"] = trimmed
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range params {
		if err := writer.WriteField(key, value); err != nil {
			logger.WithError(err).Error("media_upload_payload_build_failed")
			return nil, err
		}
	}
	if err := writer.WriteField("api_key", s.apiKey); err != nil {
		logger.WithError(err).Error("media_upload_payload_build_failed")
		return nil, err
	}
	if err := writer.WriteField("signature", signParams(params, s.apiSecret)); err != nil {
		logger.WithError(err).Error("media_upload_payload_build_failed")
		return nil, err
	}

	if strings.TrimSpace(filename) == "" {
		filename = "upload"
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		logger.WithError(err).Error("media_upload_payload_build_failed")
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		logger.WithError(err).Error("media_upload_payload_build_failed")
		return nil, err
	}
	if err := writer.Close(); err != nil {
		logger.WithError(err).Error("media_upload_payload_build_failed")
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s/image/upload", s.baseURL, s.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		logger.WithError(err).Error("media_upload_request_build_failed")
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.WithError(err).Error("media_upload_request_failed")
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.WithField("status", resp.StatusCode).WithError(err).Error("media_upload_response_read_failed")
		return nil, err
	}

	logger.WithField("status", resp.StatusCode).Info("media_upload_response_status")
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr cloudinaryErrorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			logger.WithField("message", apiErr.Error.Message).Warn("media_upload_response_error")
			return nil, errors.New(apiErr.Error.Message)
		}
		logger.WithField("status", resp.StatusCode).Warn("media_upload_response_error")
		return nil, fmt.Errorf("cloudinary upload failed with status %d", resp.StatusCode)
	}

	var result UploadResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		logger.WithError(err).Error("media_upload_response_unmarshal_failed")
		return nil, err
	}
	if result.SecureURL == "" {
		logger.Warn("media_upload_missing_secure_url")
		return nil, errors.New("cloudinary response did not include secure_url")
	}

	logger.WithFields(logrus.Fields{
		"public_id":  result.PublicID,
		"secure_url": result.SecureURL,
	}).Info("media_upload_success")
	return &result, nil
}

// TransformURL 构造带变换参数的资源访问地址，不再触发第二次上传。
func (s *CloudinaryService) TransformURL(publicID, format, transformation string) string {
	segments := []string{deliveryBaseURL, s.cloudName, "image", "upload"}
	if trimmed := strings.TrimSpace(transformation); trimmed != "" {
		segments = append(segments, trimmed)
	}
	name := publicID
	if trimmed := strings.TrimSpace(format); trimmed != "" {
		name = publicID + "." + trimmed
	}
	segments = append(segments, name)
	return strings.Join(segments, "/")
}

// signParams 对除 file/api_key 外的参数按字典序拼接后做 SHA1 签名。
func signParams(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}
