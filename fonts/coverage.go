package fonts

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"seehuhn.de/go/sfnt"
)

// MissingGlyphs 返回字体 cmap 中无法映射的字符（去重，保持出现顺序）。
// 无法解析的字体（例如 .ttc 集合）返回错误，调用方可以忽略。
func MissingGlyphs(data []byte, chars []string) ([]string, error) {
	f, err := sfnt.Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("解析字体失败: %w", err)
	}
	cmap, err := f.CMapTable.GetBest()
	if err != nil {
		return nil, fmt.Errorf("字体缺少可用的 cmap: %w", err)
	}
	seen := make(map[string]bool, len(chars))
	var missing []string
	for _, c := range chars {
		if seen[c] {
			continue
		}
		seen[c] = true
		r, _ := utf8.DecodeRuneInString(c)
		if cmap.Lookup(r) == 0 {
			missing = append(missing, c)
		}
	}
	return missing, nil
}
