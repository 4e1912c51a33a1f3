package workflow

import (
	"fmt"
	"strings"
)

// LookupPath 按点分路径在嵌套map中查找值，例如 "payload.deal.id"
func LookupPath(vars map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	var current any = vars
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// ExpandPlaceholders 替换字符串中的 ${path} 占位符
// 找不到对应值的占位符原样保留，返回未替换的占位符名称
func ExpandPlaceholders(value string, vars map[string]any) (string, []string) {
	if !strings.Contains(value, "${") {
		return value, nil
	}

	var (
		b          strings.Builder
		unresolved []string
	)
	rest := value
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[start+2:], "}")
		if end < 0 {
			b.WriteString(rest)
			break
		}
		end += start + 2

		b.WriteString(rest[:start])
		name := strings.TrimSpace(rest[start+2 : end])
		if v, ok := LookupPath(vars, name); ok {
			b.WriteString(placeholderString(v))
		} else {
			unresolved = append(unresolved, name)
			b.WriteString(rest[start : end+1])
		}
		rest = rest[end+1:]
	}
	return b.String(), unresolved
}

func placeholderString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
