package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"capmatch/backend/internal/dto"
	"capmatch/backend/internal/service"
	"capmatch/backend/pkg/response"
)

// TaskHandler 后台任务模块 HTTP 处理器
//
// 五个流水线触发端点均为异步：校验通过即返回 202 与任务快照，
// 调用方通过 GET /tasks/:id 轮询任务状态与结果
type TaskHandler struct {
	taskSvc service.TaskService
}

// NewTaskHandler 创建 TaskHandler
func NewTaskHandler(taskSvc service.TaskService) *TaskHandler {
	return &TaskHandler{taskSvc: taskSvc}
}

// StandardizeTopics 触发专长词标准化任务
// POST /api/v1/tasks/standardize-topics
func (h *TaskHandler) StandardizeTopics(c *gin.Context) {
	task, err := h.taskSvc.StartStandardize(c.Request.Context())
	if err != nil {
		h.handleStartError(c, err)
		return
	}

	response.Accepted(c, task)
}

// LabelPreferences 触发学生偏好标注任务
// POST /api/v1/tasks/label-preferences
func (h *TaskHandler) LabelPreferences(c *gin.Context) {
	var req dto.LabelPreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	task, err := h.taskSvc.StartLabel(c.Request.Context(), req.SemesterID)
	if err != nil {
		h.handleStartError(c, err)
		return
	}

	response.Accepted(c, task)
}

// MatchStudents 触发学生-导师匹配任务
// POST /api/v1/tasks/match-students
func (h *TaskHandler) MatchStudents(c *gin.Context) {
	var req dto.MatchStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	task, err := h.taskSvc.StartMatch(c.Request.Context(), req.SemesterID, req.BalancingWeight)
	if err != nil {
		h.handleStartError(c, err)
		return
	}

	response.Accepted(c, task)
}

// ResetMatching 触发匹配结果重置任务
// POST /api/v1/tasks/reset-matching
func (h *TaskHandler) ResetMatching(c *gin.Context) {
	var req dto.ResetMatchingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	task, err := h.taskSvc.StartResetMatching(c.Request.Context(), req.SemesterID)
	if err != nil {
		h.handleStartError(c, err)
		return
	}

	response.Accepted(c, task)
}

// ResetVocabulary 触发课题词库重置任务
// POST /api/v1/tasks/reset-vocabulary
func (h *TaskHandler) ResetVocabulary(c *gin.Context) {
	task, err := h.taskSvc.StartResetVocabulary(c.Request.Context())
	if err != nil {
		h.handleStartError(c, err)
		return
	}

	response.Accepted(c, task)
}

// ListTasks 任务列表（按创建时间倒序）
// GET /api/v1/tasks?page=1&page_size=20
func (h *TaskHandler) ListTasks(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	tasks, total, err := h.taskSvc.List(c.Request.Context(), req.GetPage(), req.GetPageSize())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, tasks, total, req.GetPage(), req.GetPageSize())
}

// GetTask 查询任务状态与结果
// GET /api/v1/tasks/:id
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.taskSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			response.NotFound(c, 12001, "任务不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, task)
}

// CancelTask 取消运行中的任务
// POST /api/v1/tasks/:id/cancel
func (h *TaskHandler) CancelTask(c *gin.Context) {
	if err := h.taskSvc.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			response.NotFound(c, 12001, "任务不存在")
		case errors.Is(err, service.ErrTaskNotRunning):
			response.Conflict(c, 12002, "任务未在运行中，无法取消")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}

func (h *TaskHandler) handleStartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSemesterNotFound):
		response.NotFound(c, 12003, "学期不存在")
	case errors.Is(err, service.ErrSemesterBusy):
		response.Conflict(c, 12004, "该学期已有任务在运行中")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/task_handler.go
