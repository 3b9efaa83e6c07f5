package api

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"quickai/internal/entity"
	"quickai/internal/service"
	"quickai/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AITest 连通性探测端点，无需认证。
func (h *HTTPHandler) AITest(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "AI routes are accessible!",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GenerateArticle POST /api/ai/generate-article
func (h *HTTPHandler) GenerateArticle(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		respondGenerationMessage(c, "authentication required")
		return
	}

	var req entity.ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondGenerationMessage(c, "invalid request payload")
		return
	}

	content, err := h.generationService.GenerateArticle(c.Request.Context(), user.ID, req)
	if err != nil {
		respondGenerationError(c, err)
		return
	}
	respondGenerationContent(c, content)
}

// GenerateBlogTitle POST /api/ai/generate-blog-title
func (h *HTTPHandler) GenerateBlogTitle(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		respondGenerationMessage(c, "authentication required")
		return
	}

	var req entity.BlogTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondGenerationMessage(c, "invalid request payload")
		return
	}

	content, err := h.generationService.GenerateBlogTitle(c.Request.Context(), user.ID, req)
	if err != nil {
		respondGenerationError(c, err)
		return
	}
	respondGenerationContent(c, content)
}

// GenerateImage POST /api/ai/generate-image
func (h *HTTPHandler) GenerateImage(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		respondGenerationMessage(c, "authentication required")
		return
	}

	var req entity.ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondGenerationMessage(c, "invalid request payload")
		return
	}

	content, err := h.generationService.GenerateImage(c.Request.Context(), user.ID, req)
	if err != nil {
		respondGenerationError(c, err)
		return
	}
	respondGenerationContent(c, content)
}

// RemoveImageBackground POST /api/ai/remove-image-background，multipart 字段 image。
func (h *HTTPHandler) RemoveImageBackground(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		respondGenerationMessage(c, "authentication required")
		return
	}

	upload, ok := h.receiveImage(c)
	if !ok {
		return
	}

	content, err := h.generationService.RemoveBackground(c.Request.Context(), user.ID, upload)
	if err != nil {
		respondGenerationError(c, err)
		return
	}
	respondGenerationContent(c, content)
}

// RemoveImageObject POST /api/ai/remove-image-object，multipart 字段 image + object。
func (h *HTTPHandler) RemoveImageObject(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		respondGenerationMessage(c, "authentication required")
		return
	}

	upload, ok := h.receiveImage(c)
	if !ok {
		return
	}
	object := c.PostForm("object")

	content, err := h.generationService.RemoveObject(c.Request.Context(), user.ID, upload, object)
	if err != nil {
		respondGenerationError(c, err)
		return
	}
	respondGenerationContent(c, content)
}

// ResumeReview POST /api/ai/resume-review，multipart 字段 resume。
func (h *HTTPHandler) ResumeReview(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		respondGenerationMessage(c, "authentication required")
		return
	}

	upload, ok := h.receiveUpload(c, "resume")
	if !ok {
		return
	}

	content, err := h.generationService.ReviewResume(c.Request.Context(), user.ID, upload)
	if err != nil {
		respondGenerationError(c, err)
		return
	}
	respondGenerationContent(c, content)
}

// receiveUpload 把 multipart 文件落到临时目录，返回待处理的文件描述。
func (h *HTTPHandler) receiveUpload(c *gin.Context, field string) (*service.UploadedFile, bool) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		respondGenerationMessage(c, fmt.Sprintf("No %s file uploaded", field))
		return nil, false
	}

	scratchDir, ok := h.ensureScratchDir(c)
	if !ok {
		return nil, false
	}

	name := filepath.Base(fileHeader.Filename)
	path := filepath.Join(scratchDir, fmt.Sprintf("%d_%s", time.Now().UnixNano(), name))
	if err := c.SaveUploadedFile(fileHeader, path); err != nil {
		logrus.WithError(err).WithField("path", path).Error("failed to save uploaded file")
		respondGenerationMessage(c, "failed to store uploaded file")
		return nil, false
	}

	return &service.UploadedFile{
		Path:     path,
		Name:     name,
		Size:     fileHeader.Size,
		MimeType: uploadMimeType(fileHeader),
	}, true
}

// receiveImage 接收图片：优先 multipart 文件，也接受 image 表单字段里的
// base64 / data URL 内联图片。
func (h *HTTPHandler) receiveImage(c *gin.Context) (*service.UploadedFile, bool) {
	if _, err := c.FormFile("image"); err == nil {
		return h.receiveUpload(c, "image")
	}

	payload := strings.TrimSpace(c.PostForm("image"))
	if payload == "" {
		respondGenerationMessage(c, "No image file uploaded")
		return nil, false
	}

	data, ext, err := utils.DecodeMediaPayload(payload)
	if err != nil || ext == "bin" {
		respondGenerationMessage(c, "invalid image payload")
		return nil, false
	}

	scratchDir, ok := h.ensureScratchDir(c)
	if !ok {
		return nil, false
	}

	name := fmt.Sprintf("inline.%s", ext)
	path := filepath.Join(scratchDir, fmt.Sprintf("%d_%s", time.Now().UnixNano(), name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logrus.WithError(err).WithField("path", path).Error("failed to save inline image")
		respondGenerationMessage(c, "failed to store uploaded file")
		return nil, false
	}

	return &service.UploadedFile{
		Path:     path,
		Name:     name,
		Size:     int64(len(data)),
		MimeType: "image/" + ext,
	}, true
}

func (h *HTTPHandler) ensureScratchDir(c *gin.Context) (string, bool) {
	scratchDir := strings.TrimSpace(h.cfg.UploadScratchDir)
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		logrus.WithError(err).WithField("dir", scratchDir).Error("failed to create upload dir")
		respondGenerationMessage(c, "failed to store uploaded file")
		return "", false
	}
	return scratchDir, true
}

func uploadMimeType(header *multipart.FileHeader) string {
	if header == nil {
		return ""
	}
	return strings.TrimSpace(header.Header.Get("Content-Type"))
}

// 生成端点统一返回 200，结果由 success 字段区分。
func respondGenerationContent(c *gin.Context, content string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "content": content})
}

func respondGenerationMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": false, "message": message})
}

func respondGenerationError(c *gin.Context, err error) {
	if failure, ok := service.AsFailure(err); ok {
		respondGenerationMessage(c, failure.Message)
		return
	}
	logrus.WithError(err).Error("generation failed with unexpected error")
	respondGenerationMessage(c, "Generation failed")
}
