// Package guide 生成或加载覆盖在每个格子上的底纹图片（米字格、田字格等）。
package guide

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/zitie/layout"
)

// Resolution 为底纹图片的边长（像素）。
const Resolution = 512

const (
	borderWidth = 0.012 // 相对边长
	innerWidth  = 0.006
	dashLength  = 0.025
)

// Style 为内置底纹样式。
type Style string

const (
	Mi     Style = "mi"     // 米字格：边框 + 十字 + 对角线
	Tian   Style = "tian"   // 田字格：边框 + 十字
	Square Style = "square" // 方格：仅边框
	None   Style = "none"
)

// ForResource 返回布局结果指定的底纹，None 样式返回 nil。
func ForResource(res layout.GuideResource) (image.Image, error) {
	if res.Src != "" {
		return Load(res.Src, Resolution)
	}
	col := color.RGBA{R: uint8(res.Color.R), G: uint8(res.Color.G), B: uint8(res.Color.B), A: 0xff}
	return Render(Style(res.Style), col, Resolution)
}

// Render 栅格化一个 size×size 的内置底纹，背景透明。
func Render(style Style, col color.Color, size int) (image.Image, error) {
	if size <= 0 {
		return nil, fmt.Errorf("底纹尺寸无效: %d", size)
	}
	switch style {
	case None:
		return nil, nil
	case Mi, Tian, Square:
	default:
		return nil, fmt.Errorf("未知底纹样式 %q", style)
	}

	s := float32(size)
	z := vector.NewRasterizer(size, size)
	bw := s * borderWidth
	// 边框
	rect(z, 0, 0, s, bw)
	rect(z, 0, s-bw, s, s)
	rect(z, 0, 0, bw, s)
	rect(z, s-bw, 0, s, s)

	if style != Square {
		iw := s * innerWidth
		dash := s * dashLength
		line(z, s/2, 0, s/2, s, iw, dash)
		line(z, 0, s/2, s, s/2, iw, dash)
		if style == Mi {
			line(z, 0, 0, s, s, iw, dash)
			line(z, s, 0, 0, s, iw, dash)
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	z.Draw(dst, dst.Bounds(), image.NewUniform(col), image.Point{})
	return dst, nil
}

// Load 读取外部底纹图片并重采样为 size×size。
func Load(path string, size int) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("读取底纹图片 %s 失败: %w", path, err)
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("解码底纹图片 %s 失败: %w", path, err)
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst, nil
}

func rect(z *vector.Rasterizer, x0, y0, x1, y1 float32) {
	z.MoveTo(x0, y0)
	z.LineTo(x1, y0)
	z.LineTo(x1, y1)
	z.LineTo(x0, y1)
	z.ClosePath()
}

// line 画一条宽度为 w 的虚线，dash<=0 时为实线。
func line(z *vector.Rasterizer, x0, y0, x1, y1, w, dash float32) {
	dx, dy := x1-x0, y1-y0
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length == 0 {
		return
	}
	ux, uy := dx/length, dy/length
	nx, ny := -uy*w/2, ux*w/2
	seg := func(a, b float32) {
		ax, ay := x0+ux*a, y0+uy*a
		bx, by := x0+ux*b, y0+uy*b
		// 与 rect 保持相同的环绕方向，交叉处覆盖率叠加而不是相互抵消
		z.MoveTo(ax-nx, ay-ny)
		z.LineTo(bx-nx, by-ny)
		z.LineTo(bx+nx, by+ny)
		z.LineTo(ax+nx, ay+ny)
		z.ClosePath()
	}
	if dash <= 0 {
		seg(0, length)
		return
	}
	for t := float32(0); t < length; t += 2 * dash {
		seg(t, min(t+dash, length))
	}
}
