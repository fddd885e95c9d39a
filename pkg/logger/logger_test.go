package logger

import (
	"testing"

	gormlogger "gorm.io/gorm/logger"

	"course-scheduler/config"
)

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := NewLogger(&config.LogConfig{Level: "debug", Format: format})
		if err != nil {
			t.Fatalf("format=%s 不应出错: %v", format, err)
		}
		if l == nil {
			t.Fatalf("format=%s logger 不应为 nil", format)
		}
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger(&config.LogConfig{Level: "loud", Format: "json"}); err == nil {
		t.Error("非法日志级别应返回错误")
	}
}

func TestGormLogLevel(t *testing.T) {
	tests := map[string]gormlogger.LogLevel{
		"debug": gormlogger.Info,
		"INFO":  gormlogger.Warn,
		"warn":  gormlogger.Warn,
		"error": gormlogger.Error,
		"off":   gormlogger.Silent,
	}
	for in, want := range tests {
		if got := GormLogLevel(in); got != want {
			t.Errorf("GormLogLevel(%q) = %v, 期望 %v", in, got, want)
		}
	}
}
