package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel はログレベル文字列をslog.Levelに変換する。
// 未知の文字列はInfoとして扱う。
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
// writerが指定された場合はそのwriterに出力する。
func Setup(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// writerが指定された場合はそのwriterに出力する。
// 本番ではos.Stdoutを渡すことを想定している。
func SetupDefault(w io.Writer, level slog.Level) {
	if w == nil {
		w = os.Stdout
	}
	logger := Setup(w, level)
	slog.SetDefault(logger)
}
