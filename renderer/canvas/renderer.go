package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/zitie/fonts"
	"github.com/ByLCY/zitie/guide"
	"github.com/ByLCY/zitie/layout"
	"github.com/ByLCY/zitie/renderer"
)

const (
	defaultLineWidth = 0.2
	cellBorderWidth  = 0.3
	previewDPMM      = 4.0
)

// Renderer draws worksheets via github.com/tdewolff/canvas into a PDF.
type Renderer struct {
	logger      *slog.Logger
	previewDir  string
	previewDPMM float64
	fontBlobs   map[string][]byte // injected fonts by name

	font     layout.FontResource
	meta     layout.DocumentMeta
	guideImg image.Image
	guideCol layout.Color

	buf      bytes.Buffer
	writer   *pdf.PDF
	page     *canvas.Canvas
	ctx      *canvas.Context
	previews []*canvas.Canvas

	fontMu       sync.Mutex
	fontFamilies map[string]*canvas.FontFamily
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	Logger *slog.Logger
	// Fonts 为注入的字体数据，按字体名匹配，优先于 FontResource.Src。
	Fonts map[string]Resource
	// PreviewDir 非空时在 Finalize 中额外输出每页 PNG 预览。
	PreviewDir  string
	PreviewDPMM float64
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a canvas-based renderer with default options.
func NewRenderer() *Renderer { return NewRendererWithOptions(Options{}) }

// NewRendererWithOptions creates a renderer with injected resources.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		logger:       opts.Logger,
		previewDir:   opts.PreviewDir,
		previewDPMM:  opts.PreviewDPMM,
		fontBlobs:    map[string][]byte{},
		fontFamilies: map[string]*canvas.FontFamily{},
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	if r.previewDPMM <= 0 {
		r.previewDPMM = previewDPMM
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, _ := os.ReadFile(res.Path) // 读取失败时在使用时回退到内置字体
			if len(data) > 0 {
				r.fontBlobs[name] = data
			}
		}
	}
	return r
}

// Open prepares the font and guide image for the document.
func (r *Renderer) Open(meta layout.DocumentMeta, font layout.FontResource, g layout.GuideResource) error {
	r.meta = meta
	r.font = font
	r.guideCol = g.Color
	img, err := guide.ForResource(g)
	if err != nil {
		return err
	}
	r.guideImg = img
	if _, err := r.ensureFontFamily(font); err != nil {
		return err
	}
	return nil
}

// BeginPage starts a new page; the previous page is flushed to the PDF writer.
func (r *Renderer) BeginPage(page layout.Page) error {
	if r.writer == nil {
		r.writer = pdf.New(&r.buf, page.Width, page.Height, nil)
		r.applyMeta()
	} else {
		r.flushPage()
		r.writer.NewPage(page.Width, page.Height)
	}
	r.page = canvas.New(page.Width, page.Height)
	r.ctx = canvas.NewContext(r.page)
	r.ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点
	return nil
}

// DrawHeader draws the title line.
func (r *Renderer) DrawHeader(tb layout.TextBox) error {
	return r.drawTextBox(tb, false)
}

// DrawNameDate draws the name/date labels and their writing lines.
func (r *Renderer) DrawNameDate(texts []layout.TextBox, lines []layout.Line) error {
	if err := r.drawLines(lines); err != nil {
		return err
	}
	for _, tb := range texts {
		if err := r.drawTextBox(tb, false); err != nil {
			return err
		}
	}
	return nil
}

// DrawFooter draws the footer centred vertically in its band.
func (r *Renderer) DrawFooter(tb layout.TextBox) error {
	return r.drawTextBox(tb, true)
}

// DrawCell draws the guide overlay and, for character cells, the glyph.
func (r *Renderer) DrawCell(cell layout.Cell) error {
	if r.ctx == nil {
		return fmt.Errorf("DrawCell 之前需要先调用 BeginPage")
	}
	if r.guideImg != nil {
		sq := cell.Guide
		dpmm := float64(r.guideImg.Bounds().Dx()) / sq.Size
		if dpmm <= 0 || math.IsInf(dpmm, 0) {
			dpmm = 1
		}
		r.ctx.DrawImage(sq.X, sq.Y, r.guideImg, canvas.DPMM(dpmm))
	} else {
		r.ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
		r.ctx.SetStrokeColor(colorFromLayout(r.guideCol))
		r.ctx.SetStrokeWidth(cellBorderWidth)
		r.ctx.DrawPath(cell.X, cell.Y, canvas.Rectangle(cell.Size, cell.Size))
	}

	if cell.Kind != layout.CellChar || cell.Glyph == "" {
		return nil
	}
	face, err := r.fontFace(r.font, cell.FontSize, layout.Color{})
	if err != nil {
		return err
	}
	m := face.Metrics()
	cx := cell.X + cell.Size/2
	baseline := cell.Y + cell.Size/2 + (m.Ascent-math.Abs(m.Descent))/2
	r.ctx.DrawText(cx, baseline, canvas.NewTextLine(face, cell.Glyph, canvas.Center))
	return nil
}

// Finalize flushes the last page, closes the PDF and writes it to path.
func (r *Renderer) Finalize(path string) error {
	if r.writer == nil {
		return fmt.Errorf("没有可输出的页面")
	}
	r.flushPage()
	if err := r.writer.Close(); err != nil {
		return fmt.Errorf("生成 PDF 失败: %w: %w", renderer.ErrOutput, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w: %w", renderer.ErrOutput, err)
		}
	}
	if err := os.WriteFile(path, r.buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w: %w", renderer.ErrOutput, err)
	}
	r.logger.Info("output written", slog.String("path", path), slog.Int("bytes", r.buf.Len()))
	return r.writePreviews()
}

// TextWidth 实现 layout.Typesetter，fontSize 为 pt，返回 mm。
func (r *Renderer) TextWidth(content string, font layout.FontResource, fontSize float64) (float64, error) {
	face, err := r.fontFace(font, fontSize, layout.Color{})
	if err != nil {
		return 0, err
	}
	return face.TextWidth(content), nil
}

func (r *Renderer) flushPage() {
	if r.page == nil {
		return
	}
	r.page.RenderTo(r.writer)
	if r.previewDir != "" {
		r.previews = append(r.previews, r.page)
	}
	r.page, r.ctx = nil, nil
}

func (r *Renderer) writePreviews() error {
	if r.previewDir == "" || len(r.previews) == 0 {
		return nil
	}
	if err := os.MkdirAll(r.previewDir, 0o755); err != nil {
		return fmt.Errorf("创建预览目录失败: %w: %w", renderer.ErrOutput, err)
	}
	for i, c := range r.previews {
		name := filepath.Join(r.previewDir, fmt.Sprintf("page-%03d.png", i+1))
		if err := c.WriteFile(name, renderers.PNG(canvas.DPMM(r.previewDPMM))); err != nil {
			return fmt.Errorf("写入预览 %s 失败: %w: %w", name, renderer.ErrOutput, err)
		}
		r.logger.Debug("preview written", slog.String("path", name))
	}
	return nil
}

func (r *Renderer) applyMeta() {
	keywords := strings.Join(r.meta.Keywords, ", ")
	r.writer.SetInfo(r.meta.Title, r.meta.Subject, keywords, r.meta.Author, r.meta.Creator)
}

// drawTextBox 绘制单行文本；center 为真时在 Height 内垂直居中，否则以顶部加上升部作为基线。
func (r *Renderer) drawTextBox(tb layout.TextBox, center bool) error {
	if r.ctx == nil {
		return fmt.Errorf("绘制文本之前需要先调用 BeginPage")
	}
	if tb.Content == "" {
		return nil
	}
	face, err := r.fontFace(r.font, tb.FontSize, tb.Color)
	if err != nil {
		return err
	}

	var textAlign canvas.TextAlign
	var anchorX float64
	switch strings.ToLower(tb.Align) {
	case "center":
		textAlign = canvas.Center
		anchorX = tb.X + tb.Width/2
	case "right", "end":
		textAlign = canvas.Right
		anchorX = tb.X + tb.Width
	default:
		textAlign = canvas.Left
		anchorX = tb.X
	}

	m := face.Metrics()
	baseline := tb.Y + m.Ascent
	if center {
		baseline = tb.Y + tb.Height/2 + (m.Ascent-math.Abs(m.Descent))/2
	}
	r.ctx.DrawText(anchorX, baseline, canvas.NewTextLine(face, tb.Content, textAlign))
	return nil
}

// drawLines 绘制直线列表（毫米单位）
func (r *Renderer) drawLines(lines []layout.Line) error {
	if r.ctx == nil {
		return fmt.Errorf("绘制线条之前需要先调用 BeginPage")
	}
	for _, ln := range lines {
		w := ln.Width
		if w <= 0 {
			w = defaultLineWidth
		}
		r.ctx.SetStrokeColor(colorFromLayout(ln.Color))
		r.ctx.SetStrokeWidth(w)
		p := &canvas.Path{}
		p.MoveTo(0, 0)
		p.LineTo(ln.X2-ln.X1, ln.Y2-ln.Y1)
		r.ctx.DrawPath(ln.X1, ln.Y1, p)
	}
	return nil
}

func (r *Renderer) fontFace(font layout.FontResource, sizePt float64, col layout.Color) (*canvas.FontFace, error) {
	family, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(sizePt, colorFromLayout(col), canvas.FontRegular, canvas.FontNormal), nil
}

// ensureFontFamily 按注入字体、字体文件、内置字体的顺序加载，结果按 Name/Src 缓存。
func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, error) {
	key := font.Name + "|" + font.Src
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if family, ok := r.fontFamilies[key]; ok {
		return family, nil
	}

	name := font.Name
	if name == "" {
		name = layout.DefaultFontName
	}
	family := canvas.NewFontFamily(name)
	err := r.loadFontIntoFamily(family, font)
	if err == nil {
		r.fontFamilies[key] = family
		return family, nil
	}
	if font.Src != "" {
		r.logger.Warn("font unusable, falling back to built-in", slog.String("font", font.Src), slog.Any("error", err))
	}

	builtinName, data := fonts.Builtin(name)
	fallback := canvas.NewFontFamily(builtinName)
	if err := fallback.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("加载内置字体 %s 失败: %w", builtinName, err)
	}
	r.logger.Debug("using built-in font", slog.String("requested", name), slog.String("builtin", builtinName))
	r.fontFamilies[key] = fallback
	return fallback, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontResource) error {
	if blob, ok := r.fontBlobs[font.Name]; ok {
		return family.LoadFont(blob, 0, canvas.FontRegular)
	}
	if font.Src == "" {
		return fonts.ErrFontNotFound
	}
	data, err := os.ReadFile(font.Src)
	if err != nil {
		return fmt.Errorf("读取字体 %s 失败: %w", font.Src, err)
	}
	return family.LoadFont(data, 0, canvas.FontRegular)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}
