package fonts

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrFontNotFound 表示在搜索目录中没有找到字体文件。调用方应回退到内置字体。
var ErrFontNotFound = errors.New("字体未找到")

// Extensions 为字体名不带扩展名时依次尝试的后缀。
var Extensions = []string{".ttf", ".otf"}

// Locator 根据字体名查找字体文件的绝对路径。
type Locator interface {
	Locate(name string) (string, error)
}

// DirLocator 依次递归搜索 Dirs，按遍历顺序返回第一个匹配的文件。
type DirLocator struct {
	Dirs []string
	Exts []string
	// FoldCase 为真时文件名比较忽略大小写（Windows、macOS）。
	FoldCase bool
	Logger   *slog.Logger
}

var errFound = errors.New("found")

// Locate 实现 Locator。name 可以是不带扩展名的字体名、带扩展名的文件名，或者一个存在的路径。
func (l *DirLocator) Locate(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrFontNotFound
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if strings.ContainsRune(name, os.PathSeparator) || strings.ContainsRune(name, '/') {
		if st, err := os.Stat(name); err == nil && !st.IsDir() {
			return filepath.Abs(name)
		}
	}

	candidates := l.candidates(name)
	for _, dir := range l.Dirs {
		if dir == "" {
			continue
		}
		logger.Debug("looking for font", slog.String("dir", dir))
		var found string
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// 无权限或不存在的目录直接跳过
				if d != nil && d.IsDir() && path != dir {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if l.match(d.Name(), candidates) {
				found = path
				return errFound
			}
			return nil
		})
		if err != nil && !errors.Is(err, errFound) {
			logger.Debug("font search failed", slog.String("dir", dir), slog.Any("error", err))
			continue
		}
		if found != "" {
			logger.Debug("found font", slog.String("path", found))
			return filepath.Abs(found)
		}
	}
	return "", ErrFontNotFound
}

func (l *DirLocator) candidates(name string) []string {
	if filepath.Ext(name) != "" {
		return []string{name}
	}
	exts := l.Exts
	if len(exts) == 0 {
		exts = Extensions
	}
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		out = append(out, name+ext)
	}
	return out
}

func (l *DirLocator) match(fname string, candidates []string) bool {
	for _, c := range candidates {
		if fname == c || (l.FoldCase && strings.EqualFold(fname, c)) {
			return true
		}
	}
	return false
}

// noLocator 用于不支持的平台，总是返回 ErrFontNotFound。
type noLocator struct{}

func (noLocator) Locate(string) (string, error) { return "", ErrFontNotFound }

// ForHost 按操作系统选择搜索策略，工作目录总是最先搜索。
func ForHost(goos string, logger *slog.Logger) Locator {
	cwd, _ := os.Getwd()
	home, _ := os.UserHomeDir()
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly":
		return &DirLocator{
			Dirs: []string{
				cwd,
				"/usr/share/fonts",
				"/usr/local/share/fonts",
				joinHome(home, ".local", "share", "fonts"),
			},
			Logger: logger,
		}
	case "darwin":
		return &DirLocator{
			Dirs: []string{
				cwd,
				"/System/Library/Fonts",
				"/Library/Fonts",
				joinHome(home, "Library", "Fonts"),
			},
			FoldCase: true,
			Logger:   logger,
		}
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		dirs := []string{cwd, filepath.Join(windir, "Fonts")}
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			dirs = append(dirs, filepath.Join(local, "Microsoft", "Windows", "Fonts"))
		}
		return &DirLocator{Dirs: dirs, FoldCase: true, Logger: logger}
	default:
		return noLocator{}
	}
}

func joinHome(home string, elem ...string) string {
	if home == "" {
		return ""
	}
	return filepath.Join(append([]string{home}, elem...)...)
}
