package layout

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ByLCY/zitie/binding"
)

const (
	blockSpacing    = 1.5  // mm
	footerHeight    = 10.0 // mm
	minTitleSize    = 12.0 // pt
	writingLineFrac = 0.6  // 姓名/日期书写线占内容宽度的比例
	writingLineW    = 0.2  // mm
)

var (
	textColor  = Color{R: 30, G: 30, B: 30}
	ruleColor  = Color{R: 120, G: 120, B: 120}
	guideStyle = map[string]bool{"mi": true, "tian": true, "square": true, "none": true}
)

// Build 先完整分页，再补充标题、姓名/日期栏与页脚。
// 分页在绘制之前全部完成，页脚中的总页数因此可以直接写入。
func Build(cfg Config, opts BuildOptions) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := ValidateCharacters(cfg.Characters); err != nil {
		return nil, err
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	font := FontResource{Name: cfg.FontName, Src: opts.FontPath}
	vars := map[string]any{
		"title": cfg.Title,
		"font":  cfg.FontName,
		"date":  now.Format("2006-01-02"),
		"count": len(cfg.Characters),
		"chars": strings.Join(cfg.Characters, ""),
	}
	title := cfg.Title
	if binding.HasPlaceholders(title) {
		title = binding.Interpolate(title, binding.Scope{vars, opts.Data})
	}

	w, _, err := cfg.PageDimensions()
	if err != nil {
		return nil, err
	}
	contentWidth := w - cfg.Margin.Left - cfg.Margin.Right

	titleSize := 0.0
	headerHeight := 0.0
	if title != "" {
		titleSize = fitFontSize(title, contentWidth, font, DefaultTitleFontSize, opts.Typesetter)
		headerHeight = titleSize*PtToMm + blockSpacing
	}
	textLine := DefaultTextFontSize * PtToMm
	firstPageExtra := 0.0
	if cfg.NameDate {
		// 姓名、日期各一行，再空一行
		firstPageExtra = 3 * textLine
	}

	geom, err := NewGeometry(cfg, headerHeight, firstPageExtra)
	if err != nil {
		return nil, err
	}
	pages, err := Paginate(cfg, geom, WithLogger(logger))
	if err != nil {
		return nil, err
	}

	for i := range pages {
		p := &pages[i]
		if title != "" {
			p.Header = &TextBox{
				Content:  title,
				X:        geom.Margin.Left,
				Y:        geom.Margin.Top,
				Width:    contentWidth,
				Height:   titleSize * PtToMm,
				FontSize: titleSize,
				Color:    textColor,
				Align:    "center",
			}
		}
		if p.Number == 1 && cfg.NameDate {
			p.NameDate, p.Lines = nameDateBlock(geom, contentWidth, textLine, font, opts.Typesetter)
		}
		if cfg.FooterTemplate != "" {
			pageVars := map[string]any{
				"page":  p.Number,
				"pages": len(pages),
			}
			p.Footer = &TextBox{
				Content:  binding.Interpolate(cfg.FooterTemplate, binding.Scope{pageVars, vars, opts.Data}),
				X:        geom.Margin.Left,
				Y:        geom.ContentBottom(),
				Width:    contentWidth,
				Height:   footerHeight,
				FontSize: DefaultFooterFontSize,
				Color:    textColor,
				Align:    "center",
			}
		}
	}

	logger.Info("layout complete",
		slog.Int("characters", len(cfg.Characters)),
		slog.Int("pages", len(pages)),
		slog.String("box", strconv.FormatFloat(geom.BoxSize, 'f', 2, 64)+"mm"),
	)

	return &Result{
		Pages: pages,
		Font:  font,
		Guide: resolveGuide(cfg.Guide, cfg.GuideColor),
		Meta: DocumentMeta{
			Title:    title,
			Author:   cfg.Author,
			Subject:  cfg.Subject,
			Creator:  Creator,
			Keywords: cfg.Keywords,
		},
	}, nil
}

func nameDateBlock(geom Geometry, contentWidth, lineHeight float64, font FontResource, ts Typesetter) ([]TextBox, []Line) {
	top := geom.Margin.Top + geom.HeaderHeight
	var texts []TextBox
	var lines []Line
	for i, label := range []string{"Name:", "Date:"} {
		y := top + float64(i)*lineHeight
		texts = append(texts, TextBox{
			Content:  label,
			X:        geom.Margin.Left,
			Y:        y,
			Width:    contentWidth,
			Height:   lineHeight,
			FontSize: DefaultTextFontSize,
			Color:    textColor,
			Align:    "left",
		})
		x1 := geom.Margin.Left + measure(label, font, DefaultTextFontSize, ts) + blockSpacing
		x2 := geom.Margin.Left + contentWidth*writingLineFrac
		if x2 > x1 {
			lines = append(lines, Line{X1: x1, Y1: y + lineHeight, X2: x2, Y2: y + lineHeight, Color: ruleColor, Width: writingLineW})
		}
	}
	return texts, lines
}

// fitFontSize 在文字超出宽度时按比例缩小字号，最小 minTitleSize。
func fitFontSize(content string, width float64, font FontResource, size float64, ts Typesetter) float64 {
	w := measure(content, font, size, ts)
	if w <= width || w <= 0 {
		return size
	}
	return max(size*width/w, minTitleSize)
}

// measure 返回文字宽度（mm），没有 Typesetter 或测量失败时按字号估算。
func measure(content string, font FontResource, size float64, ts Typesetter) float64 {
	if ts != nil {
		if w, err := ts.TextWidth(content, font, size); err == nil {
			return w
		}
	}
	return estimateTextWidth(content, size)
}

func estimateTextWidth(content string, fontSize float64) float64 {
	width := 0.0
	em := fontSize * PtToMm
	for _, r := range content {
		if utf8.RuneLen(r) > 2 {
			width += em // CJK 等宽字形按一个字宽计
		} else {
			width += em * 0.55
		}
	}
	return width
}

func resolveGuide(v string, col Color) GuideResource {
	s := strings.ToLower(strings.TrimSpace(v))
	switch {
	case s == "":
		return GuideResource{Style: DefaultGuideStyle, Color: col}
	case guideStyle[s]:
		return GuideResource{Style: s, Color: col}
	default:
		return GuideResource{Style: "image", Src: v, Color: col}
	}
}

// String 便于日志输出。
func (r *Result) String() string {
	if r == nil {
		return "<nil>"
	}
	cells := 0
	for _, p := range r.Pages {
		cells += p.CellCount()
	}
	return fmt.Sprintf("%d pages, %d cells", len(r.Pages), cells)
}
