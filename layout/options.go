package layout

import (
	"log/slog"
	"time"
)

// BuildOptions 配置布局阶段所需的依赖，例如排版后端与日志。
type BuildOptions struct {
	// Typesetter 用于测量标题与姓名栏文字宽度，可为空（此时按字号估算）。
	Typesetter Typesetter
	// FontPath 为字体定位结果，空字符串表示使用内置字体。
	FontPath string
	// Data 为用户提供的模板数据（通常来自 --data JSON）。
	Data   any
	Logger *slog.Logger
	// Now 用于模板中的 ${date}，零值表示当前时间。
	Now time.Time
}

// Typesetter 负责测量单行文本宽度。fontSize 为 pt，返回值为 mm。
type Typesetter interface {
	TextWidth(content string, font FontResource, fontSize float64) (float64, error)
}
