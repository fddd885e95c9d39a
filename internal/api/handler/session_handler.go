package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"course-scheduler/internal/dto"
	"course-scheduler/internal/planner"
	"course-scheduler/internal/service"
	"course-scheduler/pkg/response"
)

const maxCoursesPerSession = 20

// SessionHandler 选课会话模块 HTTP 处理器
type SessionHandler struct {
	sessionSvc service.SessionService
}

// NewSessionHandler 创建 SessionHandler
func NewSessionHandler(sessionSvc service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// CreateSession 创建选课会话并返回欢迎消息
// POST /api/v1/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	owner, ok := MustGetOwner(c)
	if !ok {
		return
	}

	resp, err := h.sessionSvc.Create(c.Request.Context(), owner, &req)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.Created(c, resp)
}

// ImportSession 以 .ics 个人日历创建选课会话
// POST /api/v1/sessions/import
//
// multipart/form-data：
//   - calendar: .ics 文件（与 ics_url 二选一）
//   - ics_url: 可订阅的日历地址
//   - schedule_id, term_name, course_codes（逗号分隔）, preferences（JSON，可选）
func (h *SessionHandler) ImportSession(c *gin.Context) {
	var form dto.ImportSessionForm
	if err := c.ShouldBind(&form); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	owner, ok := MustGetOwner(c)
	if !ok {
		return
	}

	req := dto.CreateSessionRequest{
		ScheduleID:  form.ScheduleID,
		TermName:    form.TermName,
		CourseCodes: splitCodes(form.CourseCodes),
	}
	if len(req.CourseCodes) == 0 || len(req.CourseCodes) > maxCoursesPerSession {
		response.BadRequest(c, 10001, "课程数量必须在 1-20 之间")
		return
	}
	if strings.TrimSpace(form.Preferences) != "" {
		if err := json.Unmarshal([]byte(form.Preferences), &req.Preferences); err != nil {
			response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "偏好格式错误", err.Error())
			return
		}
	}

	calendar, err := h.openCalendar(c, form.ICSURL)
	if err != nil {
		return
	}
	defer calendar.Close()

	resp, err := h.sessionSvc.ImportCalendar(c.Request.Context(), owner, &req, calendar)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.Created(c, resp)
}

// openCalendar 优先读取上传文件，其次拉取 ics_url；失败时已写入响应
func (h *SessionHandler) openCalendar(c *gin.Context, icsURL string) (io.ReadCloser, error) {
	file, _, err := c.Request.FormFile("calendar")
	if err == nil {
		return file, nil
	}
	if icsURL == "" {
		response.BadRequest(c, 20009, "请上传 .ics 文件或提供日历地址")
		return nil, err
	}
	body, err := service.FetchICSContent(c.Request.Context(), icsURL)
	if err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 20010, "日历地址获取失败", err.Error())
		return nil, err
	}
	return body, nil
}

// GetSession 获取会话状态快照与进度
// GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	owner, ok := MustGetOwner(c)
	if !ok {
		return
	}

	resp, err := h.sessionSvc.State(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, resp)
}

// SubmitInput 提交用户输入
// POST /api/v1/sessions/:id/input
func (h *SessionHandler) SubmitInput(c *gin.Context) {
	var req dto.SessionInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	owner, ok := MustGetOwner(c)
	if !ok {
		return
	}

	resp, err := h.sessionSvc.Input(c.Request.Context(), owner, c.Param("id"), &req)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, resp)
}

// SkipCourse 跳过当前课程
// POST /api/v1/sessions/:id/skip
func (h *SessionHandler) SkipCourse(c *gin.Context) {
	owner, ok := MustGetOwner(c)
	if !ok {
		return
	}

	resp, err := h.sessionSvc.Skip(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, resp)
}

// ResetSession 重置会话
// POST /api/v1/sessions/:id/reset
func (h *SessionHandler) ResetSession(c *gin.Context) {
	owner, ok := MustGetOwner(c)
	if !ok {
		return
	}

	resp, err := h.sessionSvc.Reset(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, resp)
}

// GetCalendar 获取会话当前日历
// GET /api/v1/sessions/:id/calendar
func (h *SessionHandler) GetCalendar(c *gin.Context) {
	owner, ok := MustGetOwner(c)
	if !ok {
		return
	}

	resp, err := h.sessionSvc.Calendar(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, resp)
}

// DeleteSession 丢弃会话
// DELETE /api/v1/sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	owner, ok := MustGetOwner(c)
	if !ok {
		return
	}

	if err := h.sessionSvc.Delete(c.Request.Context(), owner, c.Param("id")); err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleSessionError 统一处理会话模块业务错误
func (h *SessionHandler) handleSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 20001, "选课会话不存在或已过期")
	case errors.Is(err, service.ErrSessionForbidden):
		response.Forbidden(c, 20002, "无权访问该选课会话")
	case errors.Is(err, service.ErrEmptyInput):
		response.BadRequest(c, 20003, "输入不能为空")
	case errors.Is(err, service.ErrInvalidCalendarEvent):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20004, "个人日历事件不合法", err.Error())
	case errors.Is(err, service.ErrInvalidCalendarFile):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20005, "日历文件解析失败", err.Error())
	case errors.Is(err, planner.ErrInvalidPreference):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20006, "排课偏好不合法", err.Error())
	case errors.Is(err, planner.ErrNoCurrentCourse):
		response.Conflict(c, 20007, "当前没有正在处理的课程")
	case errors.Is(err, planner.ErrInvalidPhase):
		response.Conflict(c, 20008, "会话当前阶段不支持该操作")
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}

// splitCodes 逗号分隔的课程代码
func splitCodes(raw string) []string {
	var codes []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			codes = append(codes, p)
		}
	}
	return codes
}
