package service

import "errors"

// FailureKind 管线失败的分类。
type FailureKind string

const (
	FailureValidation  FailureKind = "validation"
	FailureQuota       FailureKind = "quota"
	FailureVendor      FailureKind = "vendor"
	FailurePersistence FailureKind = "persistence"
	FailureExtraction  FailureKind = "extraction"
)

// Failure 携带面向用户的失败消息，管线各阶段遇错即返回。
type Failure struct {
	Kind    FailureKind
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

// NewFailure 构造指定分类的失败。
func NewFailure(kind FailureKind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

// AsFailure 尝试把错误还原为 Failure。
func AsFailure(err error) (*Failure, bool) {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}
