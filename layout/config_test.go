package layout

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ByLCY/zitie/dsl"
)

func parseWorksheet(t *testing.T, src string) *dsl.Worksheet {
	t.Helper()
	ws, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return ws
}

func TestConfigFromWorksheet(t *testing.T) {
	ws := parseWorksheet(t, `
worksheet Daily v1 {
  meta {
    title: "永字八法"
    author: "李"
    subject: "楷书"
    keywords: ["楷书", "练习"]
  }
  font: "KaiTi"
  size: 36pt
  chars: ["永字", "八法"]
  nchar: 2
  nbox: 4
  round: false
  guide: tian
  guide-color: #3366cc
  footer: "${page}"
  name-date: false
  padding: 1.5mm
  gap: 0.5cm
  inset: 2
  guide-offset: -1mm
  output: "daily.pdf"
  page a4 landscape margin 10mm 20mm
}
`)
	cfg, err := ConfigFromWorksheet(ws, DefaultConfig())
	if err != nil {
		t.Fatalf("ConfigFromWorksheet: %v", err)
	}

	want := DefaultConfig()
	want.Title = "永字八法"
	want.Author = "李"
	want.Subject = "楷书"
	want.Keywords = []string{"楷书", "练习"}
	want.FontName = "KaiTi"
	want.FontSize = 36
	want.Characters = []string{"永", "字", "八", "法"}
	want.Copies = 2
	want.Blanks = 4
	want.RoundToLine = false
	want.Guide = "tian"
	want.GuideColor = Color{R: 0x33, G: 0x66, B: 0xcc}
	want.FooterTemplate = "${page}"
	want.NameDate = false
	want.CharPadding = 1.5
	want.CharGap = 5
	want.BoxInset = 2
	want.GuideOffset = -1
	want.Output = "daily.pdf"
	want.PageSize = "a4"
	want.Orientation = "landscape"
	want.Margin = Margin{Top: 10, Right: 20, Bottom: 10, Left: 20}

	if diff := cmp.Diff(want, cfg, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}

	w, h, err := cfg.PageDimensions()
	if err != nil || w != 297 || h != 210 {
		t.Fatalf("横向 A4 应为 297x210，实际 %gx%g (%v)", w, h, err)
	}
}

func TestConfigFromWorksheetKeepsBase(t *testing.T) {
	base := DefaultConfig()
	base.Copies = 3
	base.Characters = []string{"天"}
	cfg, err := ConfigFromWorksheet(parseWorksheet(t, "worksheet W {\n  blanks: 1\n}\n"), base)
	if err != nil {
		t.Fatalf("ConfigFromWorksheet: %v", err)
	}
	if cfg.Copies != 3 || cfg.Blanks != 1 || cfg.Characters[0] != "天" {
		t.Fatalf("未出现的字段应保留原值: %+v", cfg)
	}
}

func TestConfigFromWorksheetErrors(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "worksheet W {\n  colour: red\n}\n",
		"negative count":  "worksheet W {\n  copies: -1\n}\n",
		"bad bool":        "worksheet W {\n  round: maybe\n}\n",
		"bad size":        "worksheet W {\n  size: 0\n}\n",
		"bad color":       "worksheet W {\n  guide-color: \"red\"\n}\n",
		"bad length":      "worksheet W {\n  gap: wide\n}\n",
		"unknown paper":   "worksheet W {\n  page tabloid\n}\n",
		"bad margin":      "worksheet W {\n  page a4 margin thin\n}\n",
		"negative gap":    "worksheet W {\n  gap: -40mm\n}\n",
		"negative pad":    "worksheet W {\n  padding: -1mm\n}\n",
		"negative inset":  "worksheet W {\n  inset: -1\n}\n",
		"huge inset":      "worksheet W {\n  inset: 30mm\n}\n",
		"late inset":      "worksheet W {\n  inset: 10mm\n  size: 20pt\n  padding: 0\n}\n",
		"negative margin": "worksheet W {\n  page letter margin -50mm\n}\n",
	}
	for name, src := range cases {
		base := DefaultConfig()
		cfg, err := ConfigFromWorksheet(parseWorksheet(t, src), base)
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if diff := cmp.Diff(base, cfg); diff != "" {
			t.Fatalf("%s: 出错时应返回原配置 (-want +got):\n%s", name, diff)
		}
	}

	if _, err := ConfigFromWorksheet(nil, DefaultConfig()); err == nil {
		t.Fatalf("nil worksheet should fail")
	}
}

func TestConfigFromWorksheetErrorMentionsLine(t *testing.T) {
	_, err := ConfigFromWorksheet(parseWorksheet(t, "worksheet W {\n  font: \"A\"\n  colour: red\n}\n"), DefaultConfig())
	if err == nil || !strings.Contains(err.Error(), "第 3 行 colour") {
		t.Fatalf("错误信息应包含行号与字段名，实际 %v", err)
	}
}

func TestResolveMargin(t *testing.T) {
	cases := []struct {
		in   []float64
		want Margin
	}{
		{[]float64{5}, Margin{5, 5, 5, 5}},
		{[]float64{5, 10}, Margin{5, 10, 5, 10}},
		{[]float64{5, 10, 15}, Margin{5, 10, 15, 10}},
		{[]float64{5, 10, 15, 20}, Margin{5, 10, 15, 20}},
		{[]float64{5, 10, 15, 20, 25}, Margin{5, 10, 15, 20}},
	}
	for _, c := range cases {
		if got := resolveMargin(c.in); got != c.want {
			t.Fatalf("resolveMargin(%v) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestParseColor(t *testing.T) {
	cases := map[string]Color{
		"#cc3333": {R: 204, G: 51, B: 51},
		"#C33":    {R: 204, G: 51, B: 51},
		"000000":  {},
		" #fff ":  {R: 255, G: 255, B: 255},
	}
	for in, want := range cases {
		got, err := ParseColor(in)
		if err != nil {
			t.Fatalf("ParseColor(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseColor(%q) = %+v, want %+v", in, got, want)
		}
	}
	for _, bad := range []string{"", "#12", "#12345", "#gggggg", "red"} {
		if _, err := ParseColor(bad); err == nil {
			t.Fatalf("ParseColor(%q) should fail", bad)
		}
	}
}

func TestValidateCharacters(t *testing.T) {
	if err := ValidateCharacters(SplitCharacters("永字 A1！")); !errors.Is(err, ErrInvalidCharacter) {
		t.Fatalf("空格应被拒绝，实际 %v", err)
	}
	if err := ValidateCharacters(SplitCharacters("永字A1！é")); err != nil {
		t.Fatalf("合法字符被拒绝: %v", err)
	}
	if err := ValidateCharacters(nil); err != nil {
		t.Fatalf("空列表应合法: %v", err)
	}
	err := ValidateCharacters([]string{"永", "\t"})
	if err == nil || !strings.Contains(err.Error(), "第 2 项") {
		t.Fatalf("错误信息应指出第 2 项，实际 %v", err)
	}
}

func TestBoxesPerCharacter(t *testing.T) {
	cfg := DefaultConfig()
	for _, c := range []struct{ copies, blanks, want int }{{0, 0, 1}, {3, 0, 3}, {0, 5, 5}, {2, 6, 8}} {
		cfg.Copies, cfg.Blanks = c.copies, c.blanks
		if got := cfg.BoxesPerCharacter(); got != c.want {
			t.Fatalf("BoxesPerCharacter(%d, %d) = %d, want %d", c.copies, c.blanks, got, c.want)
		}
	}
	if got := cfg.BoxSize(); math.Abs(got-23.008) > 1e-9 {
		t.Fatalf("默认格子尺寸应为 23.008mm，实际 %g", got)
	}
}
