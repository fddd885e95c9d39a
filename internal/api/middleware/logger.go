package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 健康检查由探针高频调用，只记 Debug
var quietRoutes = map[string]bool{
	"/health": true,
}

// 订阅地址可能带私有 token
var redactedQueryKeys = []string{"ics_url", "token"}

// Logger 请求日志中间件
//
// 按路由模板记录（/api/v1/sessions/:id 而非具体 ID），会话与课表 ID 单独成字段，
// 便于按 session_id 串起一次选课对话的所有请求。
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		rawQuery := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Duration("latency", time.Since(start)),
			zap.Int("bytes", c.Writer.Size()),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", GetRequestID(c)),
		}
		if rawQuery != "" {
			fields = append(fields, zap.String("query", redactQuery(rawQuery)))
		}
		fields = append(fields, resourceFields(c)...)
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()))
		}

		if ce := logger.Check(levelFor(route, status), "HTTP 请求"); ce != nil {
			ce.Write(fields...)
		}
	}
}

// resourceFields 学生、会话、课表标识
func resourceFields(c *gin.Context) []zap.Field {
	var fields []zap.Field
	if v, ok := c.Get(ContextStudentID); ok {
		if id, ok := v.(int64); ok {
			fields = append(fields, zap.Int64("student_id", id))
		}
	}
	if id := c.Param("id"); id != "" {
		key := "session_id"
		if strings.HasPrefix(c.FullPath(), "/api/v1/schedules") {
			key = "schedule_id"
		}
		fields = append(fields, zap.String(key, id))
	}
	if code := c.Param("code"); code != "" {
		fields = append(fields, zap.String("course_code", code))
	}
	return fields
}

// levelFor 5xx → Error；会话过期等 4xx → Warn；其余 Info
func levelFor(route string, status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	case quietRoutes[route]:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

func redactQuery(raw string) string {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return "[unparsable]"
	}
	for _, key := range redactedQueryKeys {
		if values.Has(key) {
			values.Set(key, "[redacted]")
		}
	}
	return values.Encode()
}
