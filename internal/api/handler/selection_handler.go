package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"course-scheduler/internal/service"
	"course-scheduler/pkg/response"
)

// SelectionHandler 选课记录模块 HTTP 处理器
type SelectionHandler struct {
	selectionSvc service.SelectionService
}

// NewSelectionHandler 创建 SelectionHandler
func NewSelectionHandler(selectionSvc service.SelectionService) *SelectionHandler {
	return &SelectionHandler{selectionSvc: selectionSvc}
}

// ListSelections 获取当前学生某课表已保存的选课记录
// GET /api/v1/schedules/:id/selections
func (h *SelectionHandler) ListSelections(c *gin.Context) {
	scheduleID := c.Param("id")
	if scheduleID == "" {
		response.BadRequest(c, 10001, "课表ID不能为空")
		return
	}

	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	list, err := h.selectionSvc.ListBySchedule(c.Request.Context(), studentID, scheduleID)
	if err != nil {
		h.handleSelectionError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// DeleteSelection 撤销课表中一门课程的选课记录
// DELETE /api/v1/schedules/:id/selections/:code
func (h *SelectionHandler) DeleteSelection(c *gin.Context) {
	scheduleID, code := c.Param("id"), c.Param("code")
	if scheduleID == "" || code == "" {
		response.BadRequest(c, 10001, "课表ID与课程代码不能为空")
		return
	}

	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	if err := h.selectionSvc.Delete(c.Request.Context(), studentID, scheduleID, code); err != nil {
		h.handleSelectionError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleSelectionError 统一处理选课记录模块业务错误
func (h *SelectionHandler) handleSelectionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSelectionNotFound):
		response.NotFound(c, 22001, "选课记录不存在")
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
