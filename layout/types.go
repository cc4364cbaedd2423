package layout

import "fmt"

// 该文件定义布局结果与资源描述，供分页、渲染与调试 JSON 共用。坐标单位均为 mm，原点在页面左上角。

// Result 保存整份字帖的页面与资源信息。
type Result struct {
	Pages []Page        `json:"pages"`
	Font  FontResource  `json:"font"`
	Guide GuideResource `json:"guide"`
	Meta  DocumentMeta  `json:"meta"`
}

// FontResource 描述字符与页眉页脚使用的字体。
// Src 为空表示未在磁盘上找到字体文件，渲染器应使用按 Name 映射的内置字体。
type FontResource struct {
	Name string `json:"name"`
	Src  string `json:"src,omitempty"`
}

// GuideResource 描述格子底纹：Style 为内置样式（mi/tian/square/none），Src 为外部图片路径。
type GuideResource struct {
	Style string `json:"style"`
	Src   string `json:"src,omitempty"`
	Color Color  `json:"color"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Margin 以毫米为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// CellKind 区分范字格与空白练习格。
type CellKind int

const (
	CellChar CellKind = iota
	CellBlank
)

func (k CellKind) String() string {
	if k == CellBlank {
		return "blank"
	}
	return "char"
}

// MarshalText 让调试 JSON 输出可读的格子类型。
func (k CellKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText 读取调试 JSON 中的格子类型。
func (k *CellKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "char":
		*k = CellChar
	case "blank":
		*k = CellBlank
	default:
		return fmt.Errorf("未知格子类型 %q", b)
	}
	return nil
}

// Cell 是一个已经排好坐标的格子。
type Cell struct {
	Kind  CellKind `json:"kind"`
	Glyph string   `json:"glyph,omitempty"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Size  float64  `json:"size"`

	FontSize float64 `json:"fontSize"` // 范字字号（pt）
	Guide    Square  `json:"guide"`
}

// Square 描述底纹图片的放置区域。
type Square struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
}

// Row 是一行从左到右的格子。
type Row struct {
	Y     float64 `json:"y"`
	Cells []Cell  `json:"cells"`
}

// Page 记录页面尺寸、边距、格子行以及页眉页脚文本。
type Page struct {
	Number int     `json:"number"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin Margin  `json:"margin"`
	Rows   []Row   `json:"rows"`
	// 标题（每页都有），仅第一页带姓名/日期栏
	Header   *TextBox  `json:"header,omitempty"`
	NameDate []TextBox `json:"nameDate,omitempty"`
	Lines    []Line    `json:"lines,omitempty"`
	Footer   *TextBox  `json:"footer,omitempty"`
}

// CellCount 返回页面上格子的总数。
func (p Page) CellCount() int {
	n := 0
	for _, r := range p.Rows {
		n += len(r.Cells)
	}
	return n
}

// TextBox 表示一个已经排好坐标的单行文本。
type TextBox struct {
	Content  string  `json:"content"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	FontSize float64 `json:"fontSize"` // pt
	Color    Color   `json:"color"`
	Align    string  `json:"align,omitempty"` // left/center/right（默认 left）
}

// Line 表示一条线段，例如姓名栏下方的书写线。
type Line struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Color Color   `json:"color"`
	Width float64 `json:"width"` // 线宽（mm），<=0 时由渲染器给默认值
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
