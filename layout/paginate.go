package layout

import (
	"errors"
	"iter"
	"log/slog"
)

// ErrLayoutImpossible 表示格子尺寸超出内容区域，一个格子都放不下。
var ErrLayoutImpossible = errors.New("无法排版")

// Paginator 按页产出格子布局。它持有唯一的游标（第 i 个字、该字已放置 k 个格子、当前页码），
// 游标只会前进，因此一个 Paginator 只能用于一份文档。
type Paginator struct {
	cfg    Config
	geom   Geometry
	logger *slog.Logger

	i      int
	k      int
	pageNo int
}

// PaginatorOption 配置 Paginator。
type PaginatorOption func(*Paginator)

// WithLogger 设置诊断日志输出，nil 表示丢弃。
func WithLogger(l *slog.Logger) PaginatorOption {
	return func(p *Paginator) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPaginator 校验字符与几何参数。出错时不会产出任何页面。
func NewPaginator(cfg Config, geom Geometry, opts ...PaginatorOption) (*Paginator, error) {
	if err := ValidateCharacters(cfg.Characters); err != nil {
		return nil, err
	}
	if err := geom.Check(); err != nil {
		return nil, err
	}
	p := &Paginator{
		cfg:    cfg,
		geom:   geom,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Next 产出下一页；字符用完后返回 false。
func (p *Paginator) Next() (Page, bool) {
	chars := p.cfg.Characters
	if p.i >= len(chars) {
		return Page{}, false
	}
	p.pageNo++
	g := p.geom
	box := g.BoxSize
	left := g.Margin.Left
	right := g.PageWidth - g.Margin.Right
	bottom := g.ContentBottom()
	perChar := p.cfg.BoxesPerCharacter()

	page := Page{
		Number: p.pageNo,
		Width:  g.PageWidth,
		Height: g.PageHeight,
		Margin: g.Margin,
	}
	startChar := p.i

	y := g.ContentTop(p.pageNo)
	for fits(y, box, bottom) && p.i < len(chars) {
		row := Row{Y: y}
		advance := box
		x := left
		for fits(x, box, right) && p.i < len(chars) {
			cell := Cell{Kind: CellBlank, X: x, Y: y, Size: box, FontSize: p.cfg.FontSize, Guide: g.guideFor(x, y)}
			if p.k < p.cfg.Copies {
				cell.Kind = CellChar
				cell.Glyph = chars[p.i]
			}
			row.Cells = append(row.Cells, cell)
			p.k++
			x += box

			if p.k >= perChar {
				// 整行补齐：本行还放得下就继续放空白格，不在行中间开始下一个字
				if p.cfg.RoundToLine && fits(x, box, right) {
					continue
				}
				advance += g.CharGap
				p.i++
				p.k = 0
				break
			}
		}
		page.Rows = append(page.Rows, row)
		y += advance
	}

	p.logger.Debug("page laid out",
		slog.Int("page", page.Number),
		slog.Int("rows", len(page.Rows)),
		slog.Int("cells", page.CellCount()),
		slog.Int("from", startChar),
		slog.Int("to", p.i),
	)
	return page, true
}

// Pages 以迭代器形式逐页产出，调用方需按顺序消费。
func (p *Paginator) Pages() iter.Seq[Page] {
	return func(yield func(Page) bool) {
		for {
			page, ok := p.Next()
			if !ok || !yield(page) {
				return
			}
		}
	}
}

// Paginate 一次性完成分页。字符为空时返回零页且不报错。
func Paginate(cfg Config, geom Geometry, opts ...PaginatorOption) ([]Page, error) {
	p, err := NewPaginator(cfg, geom, opts...)
	if err != nil {
		return nil, err
	}
	var pages []Page
	for page := range p.Pages() {
		pages = append(pages, page)
	}
	return pages, nil
}
