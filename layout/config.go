package layout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ByLCY/zitie/dsl"
)

// ErrInvalidCharacter 表示字符列表中存在非单个可打印字符的条目。
var ErrInvalidCharacter = errors.New("无效字符")

// 默认值，与早期版本生成的字帖保持一致。
const (
	DefaultFontName       = "Arial"
	DefaultFontSize       = 54.0 // pt
	DefaultTitleFontSize  = 32.0 // pt
	DefaultTextFontSize   = 16.0 // pt
	DefaultFooterFontSize = 10.0 // pt
	DefaultCharGap        = 4.0  // mm，相邻两个字之间的垂直间距
	DefaultCharPadding    = 2.0  // mm，字与格子边框之间的留白
	DefaultBoxInset       = 1.0  // mm，底纹比格子小的量
	DefaultGuideOffset    = -0.6 // mm，底纹的垂直修正（字形视觉中心略低于几何中心）
	DefaultGuideStyle     = "mi"
	DefaultFooter         = "Page ${page} / ${pages}"
	DefaultPageSize       = "letter"
	DefaultOrientation    = "portrait"
	DefaultOutput         = "out.pdf"
	Creator               = "zitie"
)

// Config 是一次生成所需的全部参数。
type Config struct {
	FontName   string
	Title      string
	Characters []string
	// Copies 为每个字的范字格数量，Blanks 为其后的空白练习格数量。
	Copies      int
	Blanks      int
	RoundToLine bool
	FontSize    float64 // pt
	Output      string

	Author   string
	Subject  string
	Keywords []string

	// Guide 为内置底纹样式（mi/tian/square/none）或图片路径。
	Guide          string
	GuideColor     Color
	FooterTemplate string
	NameDate       bool

	PageSize    string
	Orientation string
	Margin      Margin
	CharPadding float64 // mm
	CharGap     float64 // mm
	BoxInset    float64 // mm
	GuideOffset float64 // mm
}

// DefaultConfig 返回默认配置：Letter 纵向、1 英寸边距、54pt、米字格、开启整行补齐。
func DefaultConfig() Config {
	m := InchesToMM(1)
	return Config{
		FontName:       DefaultFontName,
		RoundToLine:    true,
		FontSize:       DefaultFontSize,
		Output:         DefaultOutput,
		Guide:          DefaultGuideStyle,
		GuideColor:     Color{R: 204, G: 51, B: 51},
		FooterTemplate: DefaultFooter,
		NameDate:       true,
		PageSize:       DefaultPageSize,
		Orientation:    DefaultOrientation,
		Margin:         Margin{Top: m, Right: m, Bottom: m, Left: m},
		CharPadding:    DefaultCharPadding,
		CharGap:        DefaultCharGap,
		BoxInset:       DefaultBoxInset,
		GuideOffset:    DefaultGuideOffset,
	}
}

// BoxSize 返回格子边长（mm）。
func (c Config) BoxSize() float64 {
	return PointsToMM(c.FontSize) + 2*c.CharPadding
}

// BoxesPerCharacter 返回每个字实际占用的格子数（不含整行补齐）。
// Copies 与 Blanks 都为 0 时仍会放置一个空白格。
func (c Config) BoxesPerCharacter() int {
	return max(c.Copies+c.Blanks, 1)
}

// ValidateCharacters 检查每个条目都是单个可打印、非空白字符，遇到第一个无效条目即返回错误。
func ValidateCharacters(chars []string) error {
	for i, c := range chars {
		if utf8.RuneCountInString(c) != 1 {
			return fmt.Errorf("第 %d 项 %q 不是单个字符: %w", i+1, c, ErrInvalidCharacter)
		}
		r, _ := utf8.DecodeRuneInString(c)
		if r == utf8.RuneError || !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return fmt.Errorf("第 %d 项 %q 不是可打印字符: %w", i+1, c, ErrInvalidCharacter)
		}
	}
	return nil
}

// ConfigFromWorksheet 将字帖描述文件叠加到 base 之上。未出现的字段保持 base 的值。
func ConfigFromWorksheet(ws *dsl.Worksheet, base Config) (Config, error) {
	if ws == nil {
		return base, fmt.Errorf("字帖描述为空")
	}
	cfg := base
	for _, a := range ws.Assignments() {
		if err := applyAssignment(&cfg, a); err != nil {
			return base, fmt.Errorf("第 %d 行 %s: %w", a.Pos.Line, a.Key, err)
		}
	}
	for _, meta := range ws.Commands("meta") {
		for _, a := range meta.Assignments() {
			switch strings.ToLower(a.Key) {
			case "title":
				cfg.Title = a.Value.Text()
			case "author":
				cfg.Author = a.Value.Text()
			case "subject":
				cfg.Subject = a.Value.Text()
			case "keywords":
				cfg.Keywords = a.Value.Strings()
			}
		}
	}
	if pages := ws.Commands("page"); len(pages) > 0 {
		if err := applyPageSpec(&cfg, pages[len(pages)-1].Args); err != nil {
			return base, err
		}
	}
	// inset 依赖字号与 padding，字段顺序任意，所以放在最后检查。
	if box := cfg.BoxSize(); cfg.BoxInset >= box {
		return base, fmt.Errorf("inset %.2fmm 不小于格子尺寸 %.2fmm", cfg.BoxInset, box)
	}
	return cfg, nil
}

func applyAssignment(cfg *Config, a *dsl.Assignment) error {
	text := a.Value.Text()
	switch strings.ToLower(a.Key) {
	case "font":
		cfg.FontName = text
	case "title":
		cfg.Title = text
	case "chars", "characters":
		cfg.Characters = nil
		for _, s := range a.Value.Strings() {
			cfg.Characters = append(cfg.Characters, SplitCharacters(s)...)
		}
	case "copies", "nchar":
		n, err := nonNegative(text)
		if err != nil {
			return err
		}
		cfg.Copies = n
	case "blanks", "nbox":
		n, err := nonNegative(text)
		if err != nil {
			return err
		}
		cfg.Blanks = n
	case "round":
		b, err := strconv.ParseBool(text)
		if err != nil {
			return fmt.Errorf("需要 true/false: %w", err)
		}
		cfg.RoundToLine = b
	case "size":
		pt, ok := lengthPT(text)
		if !ok || pt <= 0 {
			return fmt.Errorf("无效字号 %q", text)
		}
		cfg.FontSize = pt
	case "output":
		cfg.Output = text
	case "guide":
		cfg.Guide = text
	case "guide-color":
		col, err := ParseColor(text)
		if err != nil {
			return err
		}
		cfg.GuideColor = col
	case "footer":
		cfg.FooterTemplate = text
	case "name-date":
		b, err := strconv.ParseBool(text)
		if err != nil {
			return fmt.Errorf("需要 true/false: %w", err)
		}
		cfg.NameDate = b
	case "padding":
		return setLength(&cfg.CharPadding, text, false)
	case "gap":
		return setLength(&cfg.CharGap, text, false)
	case "inset":
		return setLength(&cfg.BoxInset, text, false)
	case "guide-offset":
		return setLength(&cfg.GuideOffset, text, true)
	default:
		return fmt.Errorf("未知字段")
	}
	return nil
}

// applyPageSpec 解析 `page <size> [portrait|landscape] [margin <len>...]`。
func applyPageSpec(cfg *Config, args []*dsl.Lexeme) error {
	if len(args) == 0 {
		return nil
	}
	if _, _, ok := paperSize(args[0].Value); !ok {
		return fmt.Errorf("未知纸张 %q", args[0].Value)
	}
	cfg.PageSize = strings.ToLower(args[0].Value)
	var margins []float64
	inMargin := false
	for _, arg := range args[1:] {
		v := strings.ToLower(arg.Value)
		switch {
		case v == "portrait" || v == "landscape":
			cfg.Orientation = v
			inMargin = false
		case v == "margin":
			inMargin = true
		case inMargin:
			mm, ok := lengthMM(v, UnitMM)
			if !ok {
				return fmt.Errorf("无效页边距 %q", arg.Value)
			}
			if mm < 0 {
				return fmt.Errorf("页边距不能为负数: %q", arg.Value)
			}
			margins = append(margins, mm)
		}
	}
	if len(margins) > 0 {
		cfg.Margin = resolveMargin(margins)
	}
	return nil
}

// resolveMargin 支持 1、2、3、4 个值的 CSS 语义，多余的忽略。
func resolveMargin(v []float64) Margin {
	switch len(v) {
	case 1:
		return Margin{Top: v[0], Right: v[0], Bottom: v[0], Left: v[0]}
	case 2:
		return Margin{Top: v[0], Right: v[1], Bottom: v[0], Left: v[1]}
	case 3:
		return Margin{Top: v[0], Right: v[1], Bottom: v[2], Left: v[1]}
	default:
		return Margin{Top: v[0], Right: v[1], Bottom: v[2], Left: v[3]}
	}
}

// paperSize 返回纵向纸张宽高（mm）。
func paperSize(name string) (float64, float64, bool) {
	switch strings.ToLower(name) {
	case "letter":
		return 215.9, 279.4, true
	case "legal":
		return 215.9, 355.6, true
	case "a3":
		return 297, 420, true
	case "a4":
		return 210, 297, true
	case "a5":
		return 148, 210, true
	case "b5":
		return 176, 250, true
	}
	return 0, 0, false
}

// PageDimensions 返回考虑方向后的页面宽高（mm）。
func (c Config) PageDimensions() (float64, float64, error) {
	w, h, ok := paperSize(c.PageSize)
	if !ok {
		return 0, 0, fmt.Errorf("未知纸张 %q", c.PageSize)
	}
	if strings.EqualFold(c.Orientation, "landscape") {
		w, h = h, w
	}
	return w, h, nil
}

// ParseColor 解析 #RGB 或 #RRGGBB。
func ParseColor(value string) (Color, error) {
	s := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return Color{}, fmt.Errorf("无效颜色 %q", value)
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("无效颜色 %q", value)
	}
	return Color{R: int(n >> 16 & 0xff), G: int(n >> 8 & 0xff), B: int(n & 0xff)}, nil
}

// SplitCharacters 按码点拆分字符串，保留顺序与重复。
func SplitCharacters(s string) []string {
	out := make([]string, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func nonNegative(text string) (int, error) {
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("需要整数: %w", err)
	}
	if n < 0 {
		return 0, fmt.Errorf("不能为负数: %d", n)
	}
	return n, nil
}

// setLength 解析长度写入 dst；只有 signed 为 true 时允许负值。
func setLength(dst *float64, text string, signed bool) error {
	mm, ok := lengthMM(text, UnitMM)
	if !ok {
		return fmt.Errorf("无效长度 %q", text)
	}
	if mm < 0 && !signed {
		return fmt.Errorf("长度不能为负数: %q", text)
	}
	*dst = mm
	return nil
}
