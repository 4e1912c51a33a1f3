package logger

import (
	"bytes"
	"testing"

	charmlog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestLogLevel_ToCharmLevel(t *testing.T) {
	assert.Equal(t, charmlog.DebugLevel, DebugLevel.ToCharmLevel())
	assert.Equal(t, charmlog.WarnLevel, LogLevel("WARN").ToCharmLevel())
	assert.Equal(t, charmlog.ErrorLevel, ErrorLevel.ToCharmLevel())
	assert.Equal(t, charmlog.InfoLevel, LogLevel("verbose").ToCharmLevel())
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{Level: WarnLevel, Output: &buf})

	l.Info("不应输出")
	assert.Empty(t, buf.String())

	l.Warn("调度失败", "workflow_id", "wf-1")
	assert.Contains(t, buf.String(), "调度失败")
	assert.Contains(t, buf.String(), "wf-1")
}

func TestNewLogger_JSONWith(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{Level: InfoLevel, Output: &buf, JSON: true}).With("component", "engine")

	l.Info("started")
	assert.Contains(t, buf.String(), `"component":"engine"`)
	assert.Contains(t, buf.String(), `"msg":"started"`)
}

func TestInitReplacesDefault(t *testing.T) {
	prev := Get()
	defer func() {
		defaultMu.Lock()
		defaultLogger = prev
		defaultMu.Unlock()
	}()

	var buf bytes.Buffer
	Init(&Config{Level: DebugLevel, Output: &buf})
	Get().Debug("debug-line")
	assert.Contains(t, buf.String(), "debug-line")
}
