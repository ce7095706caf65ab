package node

import (
	"strings"
)

// ExtractJSONObject 从模型输出中截取第一个完整的 JSON 对象。
// 模型可能在 JSON 前后夹杂说明文字或 markdown 代码块；找不到完整对象时返回去空白后的原文。
func ExtractJSONObject(s string) string {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return raw
	}

	start := strings.Index(raw, "{")
	if start < 0 {
		return raw
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}

	// 对象未闭合（输出被截断）
	return raw
}
