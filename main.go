package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/ByLCY/zitie/dsl"
	"github.com/ByLCY/zitie/fonts"
	"github.com/ByLCY/zitie/input"
	"github.com/ByLCY/zitie/layout"
	"github.com/ByLCY/zitie/renderer"
	canvasrenderer "github.com/ByLCY/zitie/renderer/canvas"
)

const pdfExt = ".pdf"

// options 保存命令行参数。
type options struct {
	logLevel  string
	font      string
	title     string
	author    string
	nchar     int
	nbox      int
	noRound   bool
	size      float64
	output    string
	config    string
	charsFile string
	data      string
	guide     string
	page      string
	debugPath string
	preview   string
}

func main() {
	defer func() {
		if p := recover(); p != nil {
			fmt.Fprintf(os.Stderr, "zitie: panic: %v\n%s", p, debug.Stack())
			os.Exit(1)
		}
	}()
	cmd := newRootCommand(os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "zitie: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "zitie [characters]",
		Short: "田字格/米字格字帖生成器",
		Long: `zitie 将给定的字符排入固定尺寸的格子，生成可打印的练字字帖 PDF。
每个字先放 --nchar 个范字格，再放 --nbox 个空白练习格；默认将最后一行补齐。`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Flags(), opts, args, stdout, stderr)
		},
	}
	bindFlags(cmd.Flags(), opts)
	return cmd
}

func bindFlags(fs *pflag.FlagSet, o *options) {
	fs.StringVarP(&o.logLevel, "log", "l", "INFO", "日志级别：DEBUG|INFO|WARNING|ERROR 或整数")
	fs.StringVarP(&o.font, "font", "f", layout.DefaultFontName, "字体名或字体文件")
	fs.StringVarP(&o.title, "title", "t", "", "页面标题，支持 ${date} 等占位符")
	fs.StringVar(&o.author, "author", "", "PDF 作者")
	fs.IntVar(&o.nchar, "nchar", 0, "每个字的范字格数量，0 表示全部为空白格")
	fs.IntVar(&o.nbox, "nbox", 0, "每个字的空白练习格数量")
	fs.BoolVar(&o.noRound, "no-round", false, "不将每个字的最后一行补齐")
	fs.Float64Var(&o.size, "size", layout.DefaultFontSize, "字号（pt）")
	fs.StringVarP(&o.output, "output", "o", "", "输出文件路径（默认：标题.pdf 或 out.pdf）")
	fs.StringVarP(&o.config, "config", "c", "", "字帖描述文件")
	fs.StringVar(&o.charsFile, "chars-file", "", "从文本或 .xlsx 文件读取字符")
	fs.StringVar(&o.data, "data", "", "模板数据（JSON）")
	fs.StringVar(&o.guide, "guide", "", "底纹：mi|tian|square|none 或图片路径")
	fs.StringVar(&o.page, "page", "", "纸张：letter|legal|a3|a4|a5|b5")
	fs.StringVar(&o.debugPath, "debug", "", "布局调试 JSON 输出路径")
	fs.StringVar(&o.preview, "preview", "", "每页 PNG 预览输出目录")
}

// run 串联配置、字体定位、布局与渲染。
func run(fs *pflag.FlagSet, o *options, args []string, stdout, stderr io.Writer) (err error) {
	logger := newLogger(stderr, parseLogLevel(o.logLevel, stdout))
	defer func() {
		if err != nil {
			logger.Debug("error trace", slog.Any("chain", errorChain(err)))
		}
	}()

	cfg, err := resolveConfig(fs, o, args)
	if err != nil {
		return err
	}
	if err := layout.ValidateCharacters(cfg.Characters); err != nil {
		return err
	}
	if len(cfg.Characters) == 0 {
		logger.Warn("no characters given, nothing to write")
		return nil
	}
	logger.Info("using characters", slog.String("chars", strings.Join(cfg.Characters, "")), slog.Int("count", len(cfg.Characters)))

	var data any
	if o.data != "" {
		if err := json.Unmarshal([]byte(o.data), &data); err != nil {
			return fmt.Errorf("解析 data JSON 失败: %w", err)
		}
	}

	fontPath, err := fonts.ForHost(runtime.GOOS, logger).Locate(cfg.FontName)
	if err != nil {
		if !errors.Is(err, fonts.ErrFontNotFound) {
			return err
		}
		logger.Debug("font not found, using built-in", slog.String("font", cfg.FontName))
		fontPath = ""
	}
	checkCoverage(logger, fontPath, cfg)

	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		Logger:     logger,
		PreviewDir: o.preview,
	})
	result, err := layout.Build(cfg, layout.BuildOptions{
		Typesetter: r,
		FontPath:   fontPath,
		Data:       data,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}
	logger.Debug("layout result", slog.String("summary", result.String()))

	if o.debugPath != "" {
		if err := layout.WriteDebugJSON(result, o.debugPath); err != nil {
			return fmt.Errorf("输出调试 JSON 失败: %w", err)
		}
	}
	if len(result.Pages) == 0 {
		return nil
	}
	// 标题中的占位符在 Build 中才展开，文件名需要用展开后的标题。
	output := resolveOutput(cfg.Output, result.Meta.Title)
	if err := renderer.Render(r, result, output); err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	fmt.Fprintf(stdout, "已生成 PDF：%s\n", output)
	return nil
}

// errorChain 按 %w 包装顺序展开错误，每层一项，最外层在前。
func errorChain(err error) []string {
	var chain []string
	for ; err != nil; err = errors.Unwrap(err) {
		chain = append(chain, err.Error())
	}
	return chain
}

// resolveConfig 按 默认值 → 字帖描述文件 → 显式设置的命令行参数 的顺序合并配置。
func resolveConfig(fs *pflag.FlagSet, o *options, args []string) (layout.Config, error) {
	cfg := layout.DefaultConfig()
	cfg.Output = ""
	if o.config != "" {
		f, err := os.Open(o.config)
		if err != nil {
			return cfg, fmt.Errorf("无法打开字帖描述文件 %s: %w", o.config, err)
		}
		ws, err := dsl.Parse(f)
		f.Close()
		if err != nil {
			return cfg, fmt.Errorf("解析字帖描述文件失败: %w", err)
		}
		if cfg, err = layout.ConfigFromWorksheet(ws, cfg); err != nil {
			return cfg, fmt.Errorf("字帖描述文件 %s: %w", o.config, err)
		}
	}

	changed := fs.Changed
	if changed("font") || o.config == "" {
		cfg.FontName = o.font
	}
	if changed("title") {
		cfg.Title = o.title
	}
	if changed("author") {
		cfg.Author = o.author
	}
	if changed("nchar") || o.config == "" {
		cfg.Copies = o.nchar
	}
	if changed("nbox") || o.config == "" {
		cfg.Blanks = o.nbox
	}
	if changed("no-round") {
		cfg.RoundToLine = !o.noRound
	}
	if changed("size") || o.config == "" {
		cfg.FontSize = o.size
	}
	if changed("guide") {
		cfg.Guide = o.guide
	}
	if changed("page") {
		cfg.PageSize = strings.ToLower(o.page)
	}
	if changed("output") {
		cfg.Output = o.output
	}
	if cfg.Copies < 0 || cfg.Blanks < 0 {
		return cfg, fmt.Errorf("--nchar/--nbox 不能为负数")
	}
	if cfg.FontSize <= 0 {
		return cfg, fmt.Errorf("字号必须为正数: %g", cfg.FontSize)
	}

	switch {
	case len(args) > 0:
		cfg.Characters = input.Characters(args[0])
	case o.charsFile != "":
		chars, err := input.ReadFile(o.charsFile)
		if err != nil {
			return cfg, err
		}
		cfg.Characters = chars
	}

	return cfg, nil
}

// resolveOutput 决定输出路径：未指定时使用 标题.pdf 或 out.pdf；没有扩展名时补上 .pdf。
func resolveOutput(output, title string) string {
	if output == "" {
		if title != "" {
			output = title + pdfExt
		} else {
			output = layout.DefaultOutput
		}
	}
	if filepath.Ext(output) == "" {
		output += pdfExt
	}
	return output
}

// parseLogLevel 支持 DEBUG/INFO/WARNING/ERROR 与整数级别（10/20/30/40 的阈值）。
// 无法识别时在标准输出提示并使用 WARNING。
func parseLogLevel(arg string, stdout io.Writer) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(arg)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARNING", "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	}
	if n, err := strconv.Atoi(strings.TrimSpace(arg)); err == nil {
		switch {
		case n <= 10:
			return slog.LevelDebug
		case n <= 20:
			return slog.LevelInfo
		case n <= 30:
			return slog.LevelWarn
		default:
			return slog.LevelError
		}
	}
	fmt.Fprintln(stdout, "invalid log level, using WARNING")
	return slog.LevelWarn
}

// newLogger 在终端上输出文本日志，否则输出 JSON 日志。
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: level}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, hopts))
	}
	return slog.New(slog.NewJSONHandler(w, hopts))
}

// checkCoverage 提示字体中缺失的字形，缺字会被渲染为空白或方框。
func checkCoverage(logger *slog.Logger, fontPath string, cfg layout.Config) {
	var data []byte
	if fontPath != "" {
		b, err := os.ReadFile(fontPath)
		if err != nil {
			logger.Debug("cannot read font for coverage check", slog.String("font", fontPath), slog.Any("error", err))
			return
		}
		data = b
	} else {
		_, data = fonts.Builtin(cfg.FontName)
	}
	missing, err := fonts.MissingGlyphs(data, cfg.Characters)
	if err != nil {
		logger.Debug("coverage check skipped", slog.Any("error", err))
		return
	}
	if len(missing) > 0 {
		logger.Warn("font lacks glyphs", slog.String("font", cfg.FontName), slog.String("missing", strings.Join(missing, "")))
	}
}
