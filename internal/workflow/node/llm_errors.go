package node

import "strings"

// IsResponseFormatUnsupportedError 提供商拒绝 response_format 参数时返回 true，调用方退回仅靠提示词约束 JSON
func IsResponseFormatUnsupportedError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "response_format"):
		return true
	case strings.Contains(msg, "json_object") && strings.Contains(msg, "not supported"):
		return true
	case strings.Contains(msg, "unknown parameter") && strings.Contains(msg, "response"):
		return true
	case strings.Contains(msg, "unrecognized request argument") && strings.Contains(msg, "response"):
		return true
	default:
		return false
	}
}
