package layout

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

// scaleTypesetter 返回与字号成正比的宽度：每个字符 perPt*fontSize mm。
type scaleTypesetter struct {
	perPt float64
	fail  bool
}

func (s scaleTypesetter) TextWidth(content string, _ FontResource, fontSize float64) (float64, error) {
	if s.fail {
		return 0, errors.New("no font")
	}
	return float64(utf8.RuneCountInString(content)) * fontSize * s.perPt, nil
}

var fixedNow = time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

func buildConfig(chars string) Config {
	cfg := DefaultConfig()
	cfg.Characters = SplitCharacters(chars)
	cfg.Copies = 1
	cfg.Blanks = 2
	return cfg
}

func TestBuildDecoratesPages(t *testing.T) {
	cfg := buildConfig("天地玄黄宇宙洪荒日月盈昃辰宿列张寒来暑往秋收冬藏闰余成岁律吕调阳")
	cfg.Title = "练字 ${date}"
	res, err := Build(cfg, BuildOptions{Typesetter: scaleTypesetter{perPt: 0.1}, Now: fixedNow})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Pages) < 2 {
		t.Fatalf("期望多页，实际 %d", len(res.Pages))
	}
	if res.Meta.Title != "练字 2024-03-05" || res.Meta.Creator != Creator {
		t.Fatalf("元信息不符: %+v", res.Meta)
	}
	for _, p := range res.Pages {
		if p.Header == nil || p.Header.Content != "练字 2024-03-05" {
			t.Fatalf("第 %d 页缺少标题", p.Number)
		}
		if p.Header.FontSize != DefaultTitleFontSize {
			t.Fatalf("标题放得下时不应缩小，实际 %g", p.Header.FontSize)
		}
		want := fmt.Sprintf("Page %d / %d", p.Number, len(res.Pages))
		if p.Footer == nil || p.Footer.Content != want {
			t.Fatalf("页脚期望 %q，实际 %+v", want, p.Footer)
		}
		if p.Footer.Y != p.Height-p.Margin.Bottom {
			t.Fatalf("页脚应位于下边距之内")
		}
		if p.Number == 1 {
			if len(p.NameDate) != 2 || len(p.Lines) != 2 {
				t.Fatalf("第一页应有姓名/日期栏与两条书写线")
			}
			continue
		}
		if len(p.NameDate) != 0 || len(p.Lines) != 0 {
			t.Fatalf("第 %d 页不应有姓名/日期栏", p.Number)
		}
	}

	// 第一页为姓名/日期栏让出空间
	first, second := res.Pages[0].Rows[0].Y, res.Pages[1].Rows[0].Y
	if math.Abs(first-second-3*DefaultTextFontSize*PtToMm) > 1e-9 {
		t.Fatalf("第一页首行应下移三行文字高度: %g vs %g", first, second)
	}
	header := res.Pages[1].Header
	if math.Abs(second-(cfg.Margin.Top+header.Height+blockSpacing)) > 1e-9 {
		t.Fatalf("后续页首行应紧接标题: %g", second)
	}
}

func TestBuildFitsLongTitle(t *testing.T) {
	cfg := buildConfig("永")
	cfg.Title = "0123456789"
	contentWidth := 215.9 - 2*InchesToMM(1)

	// 10 个字符 × 32pt × 1 = 320mm，按比例缩到内容宽度
	res, err := Build(cfg, BuildOptions{Typesetter: scaleTypesetter{perPt: 1}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := DefaultTitleFontSize * contentWidth / 320
	if got := res.Pages[0].Header.FontSize; math.Abs(got-want) > 1e-9 {
		t.Fatalf("标题字号期望 %g，实际 %g", want, got)
	}

	res, err = Build(cfg, BuildOptions{Typesetter: scaleTypesetter{perPt: 10}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := res.Pages[0].Header.FontSize; got != minTitleSize {
		t.Fatalf("标题字号不应低于 %g，实际 %g", minTitleSize, got)
	}
}

func TestBuildFallsBackToEstimate(t *testing.T) {
	cfg := buildConfig("永")
	cfg.Title = "短标题"
	for _, ts := range []Typesetter{nil, scaleTypesetter{fail: true}} {
		res, err := Build(cfg, BuildOptions{Typesetter: ts})
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if res.Pages[0].Header.FontSize != DefaultTitleFontSize {
			t.Fatalf("估算宽度时短标题不应缩小")
		}
		if len(res.Pages[0].Lines) != 2 {
			t.Fatalf("估算宽度时仍应生成书写线")
		}
	}
}

func TestBuildTemplateData(t *testing.T) {
	cfg := buildConfig("永")
	cfg.Title = "${student:-无名}的字帖"
	cfg.FooterTemplate = "${page}/${pages} · ${count} 字"
	cfg.NameDate = false

	res, err := Build(cfg, BuildOptions{Data: map[string]any{"student": "小明"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	p := res.Pages[0]
	if p.Header.Content != "小明的字帖" {
		t.Fatalf("标题插值失败: %q", p.Header.Content)
	}
	if p.Footer.Content != "1/1 · 1 字" {
		t.Fatalf("页脚插值失败: %q", p.Footer.Content)
	}
	if p.NameDate != nil || p.Lines != nil {
		t.Fatalf("关闭 name-date 后不应生成姓名栏")
	}

	res, err = Build(cfg, BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := res.Pages[0].Header.Content; got != "无名的字帖" {
		t.Fatalf("缺省值未生效: %q", got)
	}
}

func TestBuildWithoutTitleOrFooter(t *testing.T) {
	cfg := buildConfig("永")
	cfg.FooterTemplate = ""
	cfg.NameDate = false
	res, err := Build(cfg, BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	p := res.Pages[0]
	if p.Header != nil || p.Footer != nil {
		t.Fatalf("未设置标题与页脚时不应生成文本框")
	}
	if p.Rows[0].Y != cfg.Margin.Top {
		t.Fatalf("首行应从上边距开始，实际 %g", p.Rows[0].Y)
	}
}

func TestBuildEmptyCharacters(t *testing.T) {
	res, err := Build(buildConfig(""), BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Pages) != 0 {
		t.Fatalf("空字符列表应产出 0 页")
	}
}

func TestBuildErrors(t *testing.T) {
	cfg := buildConfig("A")
	cfg.Characters = []string{"A", " "}
	if _, err := Build(cfg, BuildOptions{}); !errors.Is(err, ErrInvalidCharacter) {
		t.Fatalf("期望 ErrInvalidCharacter，实际 %v", err)
	}

	cfg = buildConfig("A")
	cfg.FontSize = 1000
	if _, err := Build(cfg, BuildOptions{}); !errors.Is(err, ErrLayoutImpossible) {
		t.Fatalf("期望 ErrLayoutImpossible，实际 %v", err)
	}

	cfg = buildConfig("A")
	cfg.PageSize = "tabloid"
	if _, err := Build(cfg, BuildOptions{}); err == nil {
		t.Fatalf("未知纸张应报错")
	}
}

func TestResolveGuide(t *testing.T) {
	col := Color{R: 1, G: 2, B: 3}
	cases := map[string]GuideResource{
		"":             {Style: DefaultGuideStyle, Color: col},
		"Tian":         {Style: "tian", Color: col},
		"none":         {Style: "none", Color: col},
		"guides/a.png": {Style: "image", Src: "guides/a.png", Color: col},
	}
	for in, want := range cases {
		if diff := cmp.Diff(want, resolveGuide(in, col)); diff != "" {
			t.Fatalf("resolveGuide(%q) (-want +got):\n%s", in, diff)
		}
	}
}

func TestResultString(t *testing.T) {
	var nilRes *Result
	if nilRes.String() != "<nil>" {
		t.Fatalf("nil Result 的字符串表示不符")
	}
	res, err := Build(buildConfig("AB"), BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := res.String(); got != "1 pages, 14 cells" {
		t.Fatalf("String() = %q", got)
	}
}
