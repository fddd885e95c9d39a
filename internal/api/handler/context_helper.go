package handler

import (
	"github.com/gin-gonic/gin"

	"course-scheduler/internal/api/middleware"
	"course-scheduler/internal/service"
	"course-scheduler/pkg/response"
)

// MustGetStudentID 从 Gin 上下文中安全提取 student_id。
// 如果 JWT 中间件未正确注入 student_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetStudentID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(middleware.ContextStudentID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	id, ok := v.(int64)
	if !ok || id <= 0 {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	return id, true
}

// MustGetOwner 提取学生与学校，组成会话归属
func MustGetOwner(c *gin.Context) (service.Owner, bool) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return service.Owner{}, false
	}
	universityID, _ := c.Get(middleware.ContextUniversityID)
	univ, ok := universityID.(int)
	if !ok {
		response.Unauthorized(c, 10002, "未认证")
		return service.Owner{}, false
	}
	return service.Owner{StudentID: studentID, UniversityID: univ}, true
}
