package service

import (
	"strings"
)

const (
	maxResumeBytes   = 5 * 1024 * 1024
	minArticleLength = 1
	maxArticleLength = 4096
)

// validatePrompt 检查 prompt 非空并返回去除首尾空白后的值。
func validatePrompt(prompt string) (string, *Failure) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "", NewFailure(FailureValidation, "Prompt is required")
	}
	return trimmed, nil
}

// clampArticleLength 把调用方传入的长度限制在安全区间内。
func clampArticleLength(length int) int {
	if length < minArticleLength {
		return 800
	}
	if length > maxArticleLength {
		return maxArticleLength
	}
	return length
}

// validateObjectName 物体名必须是单个词，统一转为小写。
func validateObjectName(object string) (string, *Failure) {
	trimmed := strings.TrimSpace(object)
	if trimmed == "" {
		return "", NewFailure(FailureValidation, "Object name is required")
	}
	if len(strings.Fields(trimmed)) != 1 {
		return "", NewFailure(FailureValidation, "Please enter only one object name")
	}
	return strings.ToLower(trimmed), nil
}

// validateImageUpload 检查上传文件是否为图片。
func validateImageUpload(file *UploadedFile) *Failure {
	if file == nil || file.Size == 0 {
		return NewFailure(FailureValidation, "No image file uploaded")
	}
	if !strings.HasPrefix(strings.ToLower(file.MimeType), "image/") {
		return NewFailure(FailureValidation, "Uploaded file must be an image")
	}
	return nil
}

// validateResumeUpload 检查简历文件存在、为 PDF 且不超过 5MB。
func validateResumeUpload(file *UploadedFile) *Failure {
	if file == nil || file.Size == 0 {
		return NewFailure(FailureValidation, "No resume file uploaded")
	}
	if file.Size > maxResumeBytes {
		return NewFailure(FailureValidation, "Resume file size exceeds allowed size (5MB).")
	}
	if !strings.Contains(strings.ToLower(file.MimeType), "pdf") {
		return NewFailure(FailureValidation, "Only PDF resumes are supported")
	}
	return nil
}
