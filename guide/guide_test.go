package guide

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ByLCY/zitie/layout"
)

var red = color.RGBA{R: 204, G: 51, B: 51, A: 0xff}

func alphaAt(img image.Image, x, y int) uint32 {
	_, _, _, a := img.At(x, y).RGBA()
	return a >> 8
}

func TestRenderStyles(t *testing.T) {
	// 512px 下：边框约 6px，中线 x=256，第一段虚线覆盖 0~12.8px
	cases := []struct {
		style        Style
		cross, diago bool
	}{
		{Mi, true, true},
		{Tian, true, false},
		{Square, false, false},
	}
	for _, c := range cases {
		img, err := Render(c.style, red, Resolution)
		if err != nil {
			t.Fatalf("%s: Render: %v", c.style, err)
		}
		if b := img.Bounds(); b.Dx() != Resolution || b.Dy() != Resolution {
			t.Fatalf("%s: 尺寸不符 %v", c.style, b)
		}
		if got := img.At(2, 256).(color.RGBA); got != red {
			t.Fatalf("%s: 边框像素应为底纹颜色，实际 %+v", c.style, got)
		}
		if got := alphaAt(img, 100, 60) != 0; got {
			t.Fatalf("%s: 格子内部应透明", c.style)
		}
		if got := alphaAt(img, 256, 8) != 0; got != c.cross {
			t.Fatalf("%s: 中线像素期望 %v", c.style, c.cross)
		}
		if got := alphaAt(img, 8, 8) != 0; got != c.diago {
			t.Fatalf("%s: 对角线像素期望 %v", c.style, c.diago)
		}
	}
}

func TestRenderNoneAndErrors(t *testing.T) {
	img, err := Render(None, red, Resolution)
	if err != nil || img != nil {
		t.Fatalf("none 应返回空图片: %v %v", img, err)
	}
	if _, err := Render("zigzag", red, Resolution); err == nil {
		t.Fatalf("未知样式应报错")
	}
	if _, err := Render(Mi, red, 0); err == nil {
		t.Fatalf("尺寸为 0 应报错")
	}
}

func TestForResource(t *testing.T) {
	img, err := ForResource(layout.GuideResource{Style: "tian", Color: layout.Color{R: 0, G: 0, B: 255}})
	if err != nil {
		t.Fatalf("ForResource: %v", err)
	}
	r, g, b, a := img.At(2, 256).RGBA()
	if r != 0 || g != 0 || b>>8 != 255 || a>>8 != 255 {
		t.Fatalf("应使用指定颜色绘制边框: %d %d %d %d", r, g, b, a)
	}

	img, err = ForResource(layout.GuideResource{Style: "none"})
	if err != nil || img != nil {
		t.Fatalf("none 应返回空图片: %v %v", img, err)
	}
}

func TestLoadScalesImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guide.png")
	src := image.NewRGBA(image.Rect(0, 0, 16, 16))
	blue := color.RGBA{B: 255, A: 255}
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			src.Set(x, y, blue)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, src); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	img, err := ForResource(layout.GuideResource{Style: "image", Src: path})
	if err != nil {
		t.Fatalf("ForResource: %v", err)
	}
	if b := img.Bounds(); b.Dx() != Resolution || b.Dy() != Resolution {
		t.Fatalf("应缩放到 %d，实际 %v", Resolution, b)
	}
	if got := img.At(Resolution/2, Resolution/2).(color.RGBA); got != blue {
		t.Fatalf("中心像素应为蓝色，实际 %+v", got)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.png"), 32); err == nil {
		t.Fatalf("文件不存在应报错")
	}
	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(bad, 32); err == nil {
		t.Fatalf("无法解码的图片应报错")
	}
}
