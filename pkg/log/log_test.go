package log

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLog_SafeBeforeInit(t *testing.T) {
	// 未调用 Init 时所有日志函数走 no-op logger，不应 panic。
	require.NotPanics(t, func() {
		Info("message")
		Infof("message %d", 1)
		Infow("message", "key", "value")
		Warnf("message %s", "warn")
		Error("message", nil)
		Errorf("message %v", nil)
		Sync()
	})
}

func TestLog_InitConfiguresLogger(t *testing.T) {
	Init("debug", "console", "")
	require.NotPanics(t, func() {
		Infof("initialized %s", "ok")
	})
}
