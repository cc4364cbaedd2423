// Package input 读取并规范化字符列表，来源可以是命令行字符串、文本文件或 Excel 表格。
package input

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/ByLCY/zitie/layout"
)

// Characters 将字符串按 NFC 规范化后按码点拆分。
// 规范化让 "e" + 组合重音这类输入合成为单个码点，否则会被判为无效字符。
func Characters(s string) []string {
	return layout.SplitCharacters(norm.NFC.String(s))
}

// ReadFile 读取字符列表文件：.xlsx 读取所有工作表的单元格（按表、行、列顺序），
// 其它文件按 UTF-8 文本读取。换行等空白会被忽略，便于一行一个字地编写。
func ReadFile(path string) ([]string, error) {
	var text string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		s, err := readWorkbook(path)
		if err != nil {
			return nil, err
		}
		text = s
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取字符文件 %s 失败: %w", path, err)
		}
		text = string(data)
	}
	return Characters(stripSpace(text)), nil
}

func readWorkbook(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("打开表格 %s 失败: %w", path, err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("读取工作表 %s 失败: %w", sheet, err)
		}
		for _, row := range rows {
			for _, cell := range row {
				b.WriteString(cell)
			}
		}
	}
	return b.String(), nil
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
