package layout

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
)

// WriteDebugJSON 将布局结果输出为 JSON，便于检查每个格子的坐标。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeDebugJSON(res, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// EncodeDebugJSON 将布局结果以缩进 JSON 写入 w。
func EncodeDebugJSON(res *Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
