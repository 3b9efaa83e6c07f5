package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"quickai/internal/entity"
	"quickai/internal/identity"
	"quickai/internal/llm"
	"quickai/internal/media"
	"quickai/internal/model"
	"quickai/internal/pdfex"
	"quickai/internal/storage"
	"quickai/internal/utils"

	"github.com/sirupsen/logrus"
)

const (
	transformationBackgroundRemoval = "e_background_removal"

	resumeReviewPromptHeader = "Review the following resume and provide constructive feedback focusing on:\n" +
		"1. Formatting and structure\n" +
		"2. Content clarity and impact\n" +
		"3. Grammar and spelling\n" +
		"4. Overall effectiveness\n\n" +
		"Resume Content:\n"

	blogTitleMaxTokens    = 100
	resumeReviewMaxTokens = 1000
)

// GenerationService 封装六个生成能力的业务管线：
// 校验 -> 订阅门控 -> 调用供应商 -> 落库 -> 计数 -> 返回内容。
type GenerationService struct {
	repo     model.Repository
	identity identity.Provider
	chat     llm.ChatCompleter
	images   llm.ImageGenerator
	editor   media.Editor
	storage  storage.Storage

	publicBase string
	freeLimit  int

	// extract 默认使用 pdfex，测试中可替换
	extract func([]byte) (string, error)
}

// NewGenerationService 创建生成服务实例
func NewGenerationService(
	repo model.Repository,
	idp identity.Provider,
	chat llm.ChatCompleter,
	images llm.ImageGenerator,
	editor media.Editor,
	store storage.Storage,
	publicBase string,
	freeLimit int,
) *GenerationService {
	if freeLimit <= 0 {
		freeLimit = 10
	}
	return &GenerationService{
		repo:       repo,
		identity:   idp,
		chat:       chat,
		images:     images,
		editor:     editor,
		storage:    store,
		publicBase: normalisePublicBase(publicBase),
		freeLimit:  freeLimit,
		extract:    pdfex.ExtractText,
	}
}

// GenerateArticle 根据 prompt 生成长文。
func (s *GenerationService) GenerateArticle(ctx context.Context, userID uint, req entity.ArticleRequest) (string, error) {
	prompt, failure := validatePrompt(req.Prompt)
	if failure != nil {
		return "", failure
	}
	maxTokens := clampArticleLength(req.Length)

	state, err := s.gate(ctx, userID, entity.CreationTypeArticle)
	if err != nil {
		return "", err
	}

	content, err := s.chat.Complete(ctx, prompt, maxTokens)
	if err != nil {
		return "", s.vendorFailure(entity.CreationTypeArticle, err)
	}

	if err := s.finalize(ctx, state, entity.CreationTypeArticle, prompt, content, false); err != nil {
		return "", err
	}
	return content, nil
}

// GenerateBlogTitle 根据 prompt 生成博客标题。
func (s *GenerationService) GenerateBlogTitle(ctx context.Context, userID uint, req entity.BlogTitleRequest) (string, error) {
	prompt, failure := validatePrompt(req.Prompt)
	if failure != nil {
		return "", failure
	}

	state, err := s.gate(ctx, userID, entity.CreationTypeBlogTitle)
	if err != nil {
		return "", err
	}

	content, err := s.chat.Complete(ctx, prompt, blogTitleMaxTokens)
	if err != nil {
		return "", s.vendorFailure(entity.CreationTypeBlogTitle, err)
	}

	if err := s.finalize(ctx, state, entity.CreationTypeBlogTitle, prompt, content, false); err != nil {
		return "", err
	}
	return content, nil
}

// GenerateImage 文生图：供应商返回二进制，转存到存储后端，内容为公开访问 URL。
func (s *GenerationService) GenerateImage(ctx context.Context, userID uint, req entity.ImageRequest) (string, error) {
	prompt, failure := validatePrompt(req.Prompt)
	if failure != nil {
		return "", failure
	}

	state, err := s.gate(ctx, userID, entity.CreationTypeImage)
	if err != nil {
		return "", err
	}

	raw, err := s.images.Generate(ctx, prompt)
	if err != nil {
		return "", s.vendorFailure(entity.CreationTypeImage, err)
	}

	contentURL, err := s.saveImagePayload(ctx, raw)
	if err != nil {
		logrus.WithError(err).WithField("type", entity.CreationTypeImage).Error("failed to persist generated image")
		return "", NewFailure(FailurePersistence, "Failed to store generated image")
	}

	if err := s.finalize(ctx, state, entity.CreationTypeImage, prompt, contentURL, req.Publish); err != nil {
		return "", err
	}
	return contentURL, nil
}

// RemoveBackground 移除图片背景，内容为编辑后的图片 URL。
func (s *GenerationService) RemoveBackground(ctx context.Context, userID uint, file *UploadedFile) (string, error) {
	defer file.Cleanup()

	if failure := validateImageUpload(file); failure != nil {
		return "", failure
	}

	state, err := s.gate(ctx, userID, entity.CreationTypeImage)
	if err != nil {
		return "", err
	}

	data, err := file.Read()
	if err != nil {
		logrus.WithError(err).WithField("path", file.Path).Error("failed to read uploaded image")
		return "", NewFailure(FailureValidation, "Failed to read uploaded image")
	}

	result, err := s.editor.Upload(ctx, data, file.Name, transformationBackgroundRemoval)
	if err != nil {
		return "", s.vendorFailure(entity.CreationTypeImage, err)
	}

	prompt := "Remove background from image"
	if err := s.finalize(ctx, state, entity.CreationTypeImage, prompt, result.SecureURL, false); err != nil {
		return "", err
	}
	return result.SecureURL, nil
}

// RemoveObject 从图片中移除指定物体；先上传原图，再构造带 gen_remove 变换的 URL。
func (s *GenerationService) RemoveObject(ctx context.Context, userID uint, file *UploadedFile, object string) (string, error) {
	defer file.Cleanup()

	if failure := validateImageUpload(file); failure != nil {
		return "", failure
	}
	objectName, failure := validateObjectName(object)
	if failure != nil {
		return "", failure
	}

	state, err := s.gate(ctx, userID, entity.CreationTypeImage)
	if err != nil {
		return "", err
	}

	data, err := file.Read()
	if err != nil {
		logrus.WithError(err).WithField("path", file.Path).Error("failed to read uploaded image")
		return "", NewFailure(FailureValidation, "Failed to read uploaded image")
	}

	uploaded, err := s.editor.Upload(ctx, data, file.Name, "")
	if err != nil {
		return "", s.vendorFailure(entity.CreationTypeImage, err)
	}

	transformation := "e_gen_remove:prompt_" + objectName
	contentURL := s.editor.TransformURL(uploaded.PublicID, uploaded.Format, transformation)

	prompt := fmt.Sprintf("Remove %s from image", objectName)
	if err := s.finalize(ctx, state, entity.CreationTypeImage, prompt, contentURL, false); err != nil {
		return "", err
	}
	return contentURL, nil
}

// ReviewResume 提取 PDF 文本并生成点评。
func (s *GenerationService) ReviewResume(ctx context.Context, userID uint, file *UploadedFile) (string, error) {
	defer file.Cleanup()

	if failure := validateResumeUpload(file); failure != nil {
		return "", failure
	}

	state, err := s.gate(ctx, userID, entity.CreationTypeResumeReview)
	if err != nil {
		return "", err
	}

	data, err := file.Read()
	if err != nil {
		logrus.WithError(err).WithField("path", file.Path).Error("failed to read uploaded resume")
		return "", NewFailure(FailureValidation, "Failed to read uploaded resume")
	}

	resumeText, err := s.extract(data)
	if err != nil {
		logrus.WithError(err).WithField("file", file.Name).Warn("failed to extract resume text")
		return "", NewFailure(FailureExtraction, "Failed to read resume content")
	}

	prompt := resumeReviewPromptHeader + resumeText
	content, err := s.chat.Complete(ctx, prompt, resumeReviewMaxTokens)
	if err != nil {
		return "", s.vendorFailure(entity.CreationTypeResumeReview, err)
	}

	if err := s.finalize(ctx, state, entity.CreationTypeResumeReview, "Review uploaded resume", content, false); err != nil {
		return "", err
	}
	return content, nil
}

// gate 读取订阅状态并做门控，失败时返回 Failure。
func (s *GenerationService) gate(ctx context.Context, userID uint, creationType string) (identity.UsageState, error) {
	state, err := s.identity.UsageState(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("failed to load usage state")
		return identity.UsageState{}, NewFailure(FailurePersistence, "Failed to verify subscription")
	}
	if failure := checkGate(creationType, state, s.freeLimit); failure != nil {
		logrus.WithFields(logrus.Fields{
			"user_id":    userID,
			"type":       creationType,
			"plan":       state.Plan,
			"free_usage": state.FreeUsage,
		}).Info("generation_denied")
		return identity.UsageState{}, failure
	}
	return state, nil
}

// finalize 落库并按需消耗免费额度。任一步失败则整体失败。
func (s *GenerationService) finalize(ctx context.Context, state identity.UsageState, creationType, prompt, content string, publish bool) error {
	creation := &entity.DbCreation{
		UserID:  state.UserID,
		Prompt:  prompt,
		Content: content,
		Type:    creationType,
		Publish: publish,
		Likes:   entity.StringArray{},
	}
	if err := s.repo.CreateCreation(ctx, creation); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": state.UserID,
			"type":    creationType,
		}).Error("failed to persist creation")
		return NewFailure(FailurePersistence, "Failed to save creation")
	}

	if countsAgainstQuota(creationType) && !state.IsPremium() {
		if err := s.identity.IncrementFreeUsage(ctx, state.UserID); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"user_id":     state.UserID,
				"creation_id": creation.ID,
			}).Error("failed to increment free usage")
			return NewFailure(FailurePersistence, "Failed to record usage")
		}
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     state.UserID,
		"creation_id": creation.ID,
		"type":        creationType,
	}).Info("generation_completed")
	return nil
}

// vendorFailure 把供应商错误转为对外失败，保留供应商消息。
func (s *GenerationService) vendorFailure(creationType string, err error) error {
	logrus.WithError(err).WithField("type", creationType).Error("vendor call failed")
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = "Generation failed"
	}
	return NewFailure(FailureVendor, message)
}

// saveImagePayload 把图片二进制写入存储后端并返回公开 URL。
func (s *GenerationService) saveImagePayload(ctx context.Context, data []byte) (string, error) {
	if s.storage == nil {
		return "", fmt.Errorf("storage not configured")
	}

	saveCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	ext := utils.ExtensionFromMime(http.DetectContentType(data))
	if ext == "" {
		ext = "png"
	}

	relPath, err := s.storage.Save(saveCtx, data, storage.SaveOptions{
		Category:  "creations",
		Extension: ext,
		BaseName:  buildCreationBaseName(),
	})
	if err != nil {
		return "", err
	}
	return s.publicURL(relPath), nil
}

// publicURL 把存储返回的相对路径映射为可访问地址。
func (s *GenerationService) publicURL(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	base := s.publicBase
	if base == "" {
		base = "/files"
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), strings.TrimLeft(trimmed, "/"))
}

// normalisePublicBase 规范化公共 URL 基础路径
func normalisePublicBase(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = "/files"
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return strings.TrimRight(trimmed, "/")
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return strings.TrimRight(trimmed, "/")
}

// buildCreationBaseName 构建输出文件的基础名称
func buildCreationBaseName() string {
	return fmt.Sprintf("creation_%d", time.Now().UTC().UnixNano())
}

