package api

import (
	"time"

	"quickai/internal/auth"
	"quickai/internal/config"
	"quickai/internal/identity"
	"quickai/internal/llm"
	"quickai/internal/media"
	"quickai/internal/model"
	"quickai/internal/service"
	"quickai/internal/storage"
)

// HTTPHandler HTTP 请求处理器
type HTTPHandler struct {
	cfg         config.Config
	repo        model.Repository
	storage     storage.Storage
	authManager *auth.Manager

	// 服务层
	generationService *service.GenerationService
}

// NewHTTPHandler 创建 HTTP 处理器实例
func NewHTTPHandler(cfg config.Config, repo model.Repository, store storage.Storage) (*HTTPHandler, error) {
	expiry := time.Duration(cfg.JWTExpirationMinutes) * time.Minute
	authManager, err := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, expiry)
	if err != nil {
		return nil, err
	}

	chatSvc, err := llm.NewChatService(cfg)
	if err != nil {
		return nil, err
	}
	imageSvc, err := llm.NewClipdropService(cfg)
	if err != nil {
		return nil, err
	}
	editorSvc, err := media.NewCloudinaryService(cfg)
	if err != nil {
		return nil, err
	}

	// 创建生成服务
	generationSvc := service.NewGenerationService(
		repo,
		identity.NewProvider(repo),
		chatSvc,
		imageSvc,
		editorSvc,
		store,
		cfg.StoragePublicBaseURL,
		cfg.FreeUsageLimit,
	)

	handler := &HTTPHandler{
		cfg:               cfg,
		repo:              repo,
		storage:           store,
		authManager:       authManager,
		generationService: generationSvc,
	}

	return handler, nil
}
