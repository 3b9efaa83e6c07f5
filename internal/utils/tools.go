package utils

import (
	"strings"
)

// SplitDataURL 拆出 data URL 的 mime 类型和 base64 部分。
// 非 data URL 输入按裸 base64 处理，mime 默认 image/jpeg。
func SplitDataURL(value string) (string, string) {
	if !strings.HasPrefix(value, "data:") {
		return "image/jpeg", value
	}

	value = strings.TrimPrefix(value, "data:")
	parts := strings.SplitN(value, ";base64,", 2)
	if len(parts) != 2 {
		return "image/jpeg", ""
	}
	return parts[0], parts[1]
}
