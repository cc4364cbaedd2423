package fonts

import (
	"strings"

	"github.com/go-fonts/latin-modern/lmmono10regular"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/go-fonts/latin-modern/lmsans10regular"
)

// 内置字体族名称。
const (
	BuiltinSans  = "builtin-sans"
	BuiltinSerif = "builtin-serif"
	BuiltinMono  = "builtin-mono"
)

// Builtin 按请求的字体名映射到一款内置字体，返回内置族名与字体数据。
// Arial/Helvetica 及无法识别的名字映射到无衬线体，Times 等映射到衬线体，Courier 等映射到等宽体。
func Builtin(name string) (string, []byte) {
	n := strings.ToLower(name)
	switch {
	case containsAny(n, "courier", "mono", "consol", "code"):
		return BuiltinMono, lmmono10regular.TTF
	case containsAny(n, "times", "roman", "georgia", "song", "ming") ||
		(strings.Contains(n, "serif") && !strings.Contains(n, "sans")):
		return BuiltinSerif, lmroman10regular.TTF
	default:
		return BuiltinSans, lmsans10regular.TTF
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
