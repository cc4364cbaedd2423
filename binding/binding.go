package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ${path} 或 ${path:-默认值}
var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Scope 是按顺序查找的一组数据源，前面的优先。
// 典型用法是 Scope{pageVars, userData}：页码等内部变量覆盖用户 JSON 中的同名字段。
type Scope []any

// Lookup 在各数据源中查找 path，返回第一个命中的值。
func (s Scope) Lookup(path string) (any, bool) {
	for _, data := range s {
		if data == nil {
			continue
		}
		if val, ok := resolvePath(data, path); ok {
			return val, true
		}
	}
	return nil, false
}

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 路径不存在时使用 ":-" 之后的默认值；没有默认值则保留原占位符。
func Interpolate(text string, data any) string {
	scope, ok := data.(Scope)
	if !ok {
		scope = Scope{data}
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		inner := strings.TrimSpace(match[2 : len(match)-1])
		path, def, hasDef := strings.Cut(inner, ":-")
		path = strings.TrimSpace(path)
		if path == "" {
			return match
		}
		if val, ok := scope.Lookup(path); ok {
			return format(val)
		}
		if hasDef {
			return def
		}
		return match
	})
}

// HasPlaceholders 报告文本中是否含有 ${...}。
func HasPlaceholders(text string) bool {
	return exprPattern.MatchString(text)
}

func format(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case float64:
		// JSON 数字默认解码为 float64，整数不输出小数部分
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func resolvePath(data any, path string) (any, bool) {
	current := data
	for _, segment := range strings.Split(path, ".") {
		name, indexes := parseSegment(segment)
		if name != "" {
			var ok bool
			if current, ok = descendMap(current, name); !ok {
				return nil, false
			}
		}
		for _, idxStr := range indexes {
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, false
			}
			var ok bool
			if current, ok = descendArray(current, idx); !ok {
				return nil, false
			}
		}
	}
	return current, true
}

func parseSegment(segment string) (string, []string) {
	name, rest, found := strings.Cut(segment, "[")
	if !found {
		return segment, nil
	}
	var indexes []string
	rest = "[" + rest
	for strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end == -1 {
			break
		}
		indexes = append(indexes, rest[1:end])
		rest = rest[end+1:]
	}
	return name, indexes
}

func descendMap(current any, key string) (any, bool) {
	switch c := current.(type) {
	case map[string]any:
		val, ok := c[key]
		return val, ok
	case map[string]string:
		val, ok := c[key]
		return val, ok
	default:
		return nil, false
	}
}

func descendArray(current any, idx int) (any, bool) {
	switch c := current.(type) {
	case []any:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	case []string:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	default:
		return nil, false
	}
}
