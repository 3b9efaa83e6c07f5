package service

import (
	"quickai/internal/entity"
	"quickai/internal/identity"
)

const (
	quotaDeniedMessage   = "Limit reached. Upgrade to continue."
	premiumDeniedMessage = "This feature is only available for premium subscriptions."
)

// 文本类能力允许免费额度内使用，其余能力仅限 premium。
var quotaGated = map[string]bool{
	entity.CreationTypeArticle:   true,
	entity.CreationTypeBlogTitle: true,
}

// checkGate 按能力类型做订阅校验，放行返回 nil。
func checkGate(creationType string, state identity.UsageState, freeLimit int) *Failure {
	if state.IsPremium() {
		return nil
	}

	if quotaGated[creationType] {
		if state.FreeUsage >= freeLimit {
			return NewFailure(FailureQuota, quotaDeniedMessage)
		}
		return nil
	}

	return NewFailure(FailureQuota, premiumDeniedMessage)
}

// countsAgainstQuota 报告该能力成功后是否消耗免费额度。
func countsAgainstQuota(creationType string) bool {
	return quotaGated[creationType]
}
