package service

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// UploadedFile 描述落在临时目录里的上传文件。
type UploadedFile struct {
	Path     string
	Name     string
	Size     int64
	MimeType string
}

// Read 读取临时文件内容。
func (f *UploadedFile) Read() ([]byte, error) {
	if f == nil || f.Path == "" {
		return nil, fmt.Errorf("no uploaded file")
	}
	return os.ReadFile(f.Path)
}

// Cleanup 删除临时文件。删除失败只记日志，不影响请求结果。
func (f *UploadedFile) Cleanup() {
	if f == nil || f.Path == "" {
		return
	}
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).WithField("path", f.Path).Warn("failed to remove uploaded file")
	}
}
