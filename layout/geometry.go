package layout

import "fmt"

// Geometry 描述分页所需的页面几何参数（mm），由 Config 推导而来，不单独存储。
type Geometry struct {
	PageWidth  float64
	PageHeight float64
	Margin     Margin
	BoxSize    float64
	CharGap    float64
	BoxInset   float64
	// GuideOffset 为底纹的垂直修正量。
	GuideOffset float64
	// HeaderHeight 为每页标题占用的高度，FirstPageExtra 为第一页姓名/日期栏额外占用的高度。
	HeaderHeight   float64
	FirstPageExtra float64
}

// NewGeometry 根据配置计算页面几何。标题与姓名栏高度由 Build 提供。
func NewGeometry(cfg Config, headerHeight, firstPageExtra float64) (Geometry, error) {
	w, h, err := cfg.PageDimensions()
	if err != nil {
		return Geometry{}, err
	}
	return Geometry{
		PageWidth:      w,
		PageHeight:     h,
		Margin:         cfg.Margin,
		BoxSize:        cfg.BoxSize(),
		CharGap:        cfg.CharGap,
		BoxInset:       cfg.BoxInset,
		GuideOffset:    cfg.GuideOffset,
		HeaderHeight:   headerHeight,
		FirstPageExtra: firstPageExtra,
	}, nil
}

// ContentWidth 返回左右边距之间的宽度。
func (g Geometry) ContentWidth() float64 {
	return g.PageWidth - g.Margin.Left - g.Margin.Right
}

// ContentTop 返回第 page 页（从 1 开始）格子区域的顶部。
func (g Geometry) ContentTop(page int) float64 {
	top := g.Margin.Top + g.HeaderHeight
	if page == 1 {
		top += g.FirstPageExtra
	}
	return top
}

// ContentBottom 返回格子区域的底部。
func (g Geometry) ContentBottom() float64 {
	return g.PageHeight - g.Margin.Bottom
}

// ContentHeight 返回第 page 页格子区域的高度。
func (g Geometry) ContentHeight(page int) float64 {
	return g.ContentBottom() - g.ContentTop(page)
}

// Check 确认至少能放下一个格子，否则分页无法推进。
func (g Geometry) Check() error {
	if g.BoxSize <= 0 {
		return fmt.Errorf("格子尺寸 %.2fmm 无效: %w", g.BoxSize, ErrLayoutImpossible)
	}
	if m := g.Margin; m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		return fmt.Errorf("页边距 %+v 含负值: %w", m, ErrLayoutImpossible)
	}
	if g.CharGap < 0 {
		return fmt.Errorf("字间距 %.2fmm 为负: %w", g.CharGap, ErrLayoutImpossible)
	}
	if g.BoxInset < 0 || g.BoxInset >= g.BoxSize {
		return fmt.Errorf("底纹内缩 %.2fmm 超出格子尺寸 %.2fmm: %w", g.BoxInset, g.BoxSize, ErrLayoutImpossible)
	}
	if cw := g.ContentWidth(); !fits(0, g.BoxSize, cw) {
		return fmt.Errorf("格子尺寸 %.2fmm 超过内容宽度 %.2fmm: %w", g.BoxSize, cw, ErrLayoutImpossible)
	}
	// 第一页与后续页的可用高度不同，两者都需要放得下。
	for _, page := range []int{1, 2} {
		if ch := g.ContentHeight(page); !fits(0, g.BoxSize, ch) {
			return fmt.Errorf("格子尺寸 %.2fmm 超过第 %d 页内容高度 %.2fmm: %w", g.BoxSize, page, ch, ErrLayoutImpossible)
		}
	}
	return nil
}

// guideFor 返回格子 (x, y) 上底纹的放置区域。
func (g Geometry) guideFor(x, y float64) Square {
	return Square{
		X:    x + g.BoxInset/2,
		Y:    y + g.BoxInset/2 + g.GuideOffset,
		Size: g.BoxSize - g.BoxInset,
	}
}

const fitEpsilon = 1e-9

// fits 报告从 pos 开始、长度为 size 的区间是否不超过 limit。
func fits(pos, size, limit float64) bool {
	return pos+size <= limit+fitEpsilon
}
