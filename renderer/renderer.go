package renderer

import (
	"errors"
	"fmt"

	"github.com/ByLCY/zitie/layout"
)

// ErrOutput 表示输出文件无法写入。
var ErrOutput = errors.New("输出失败")

// Renderer 将布局结果逐页绘制并输出为最终文件，例如 PDF。
// 调用顺序由 Render 保证：Open，然后每页 BeginPage → DrawHeader → DrawNameDate → DrawCell… → DrawFooter，最后 Finalize。
type Renderer interface {
	Open(meta layout.DocumentMeta, font layout.FontResource, guide layout.GuideResource) error
	BeginPage(page layout.Page) error
	DrawHeader(text layout.TextBox) error
	DrawNameDate(texts []layout.TextBox, lines []layout.Line) error
	DrawCell(cell layout.Cell) error
	DrawFooter(text layout.TextBox) error
	Finalize(path string) error
}

// Render 驱动 r 绘制整份结果并写入 path。
func Render(r Renderer, result *layout.Result, path string) error {
	if r == nil {
		return fmt.Errorf("renderer 不能为空")
	}
	if result == nil {
		return fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return fmt.Errorf("缺少可渲染的页面")
	}
	if err := r.Open(result.Meta, result.Font, result.Guide); err != nil {
		return err
	}
	for _, page := range result.Pages {
		if err := drawPage(r, page); err != nil {
			return fmt.Errorf("绘制第 %d 页失败: %w", page.Number, err)
		}
	}
	return r.Finalize(path)
}

func drawPage(r Renderer, page layout.Page) error {
	if err := r.BeginPage(page); err != nil {
		return err
	}
	if page.Header != nil {
		if err := r.DrawHeader(*page.Header); err != nil {
			return err
		}
	}
	if len(page.NameDate) > 0 || len(page.Lines) > 0 {
		if err := r.DrawNameDate(page.NameDate, page.Lines); err != nil {
			return err
		}
	}
	for _, row := range page.Rows {
		for _, cell := range row.Cells {
			if err := r.DrawCell(cell); err != nil {
				return err
			}
		}
	}
	if page.Footer != nil {
		if err := r.DrawFooter(*page.Footer); err != nil {
			return err
		}
	}
	return nil
}
