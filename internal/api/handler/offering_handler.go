package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"course-scheduler/internal/dto"
	"course-scheduler/internal/service"
	"course-scheduler/pkg/response"
)

// OfferingHandler 开课目录模块 HTTP 处理器
type OfferingHandler struct {
	catalogSvc service.CatalogService
}

// NewOfferingHandler 创建 OfferingHandler
func NewOfferingHandler(catalogSvc service.CatalogService) *OfferingHandler {
	return &OfferingHandler{catalogSvc: catalogSvc}
}

// ListOfferings 预览多门课程的班级
// GET /api/v1/offerings?term=Fall%202026&codes=CS%20450,MATH%20215
func (h *OfferingHandler) ListOfferings(c *gin.Context) {
	var query dto.OfferingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	codes := splitCodes(query.Codes)
	if len(codes) == 0 || len(codes) > maxCoursesPerSession {
		response.BadRequest(c, 10001, "课程数量必须在 1-20 之间")
		return
	}

	owner, ok := MustGetOwner(c)
	if !ok {
		return
	}

	grouped, err := h.catalogSvc.FetchOfferings(c.Request.Context(), owner.UniversityID, query.Term, codes)
	if err != nil {
		h.handleOfferingError(c, err)
		return
	}

	list := make([]dto.CourseOfferingsResponse, 0, len(codes))
	for _, code := range codes {
		sections, seen := grouped[code]
		if !seen {
			continue
		}
		list = append(list, dto.CourseOfferingsResponse{CourseCode: code, Sections: sections})
		delete(grouped, code) // 重复代码只输出一次
	}
	response.OK(c, gin.H{"list": list})
}

// handleOfferingError 统一处理开课目录模块业务错误
func (h *OfferingHandler) handleOfferingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCatalogQuery):
		response.BadRequest(c, 21001, "学期与课程代码不能为空")
	default:
		_ = c.Error(err)
		response.BadGateway(c, 21002, "开课目录暂不可用", err.Error())
	}
}
